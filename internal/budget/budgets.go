package budget

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// EnvironmentDetail is an environment with its items.
type EnvironmentDetail struct {
	store.Environment
	Items []store.Item `json:"items"`
}

// Detail is a budget with its environments and items.
type Detail struct {
	store.Budget
	Environments []EnvironmentDetail `json:"environments"`
}

// CreateBudget starts a budget with the next protocol number and a copy of
// the current settings rules.
func (s *Service) CreateBudget(ctx context.Context, client store.Client) (store.Budget, error) {
	client = cleanClient(client)
	if client.Name == "" {
		client.Name = defaultClientName
	}

	id := store.NewID()
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		settings, err := store.GetSettings(ctx, tx)
		if err != nil {
			return err
		}
		protocol, err := store.NextProtocolNumber(ctx, tx)
		if err != nil {
			return err
		}

		rules := settings.Rules.Normalized()
		return store.InsertBudget(ctx, tx, store.Budget{
			ID:             id,
			ProtocolNumber: protocol,
			Client:         client,
			Status:         store.StatusEditing,
			Rules:          &rules,
		})
	})
	if err != nil {
		return store.Budget{}, err
	}

	b, err := store.GetBudget(ctx, s.db, id)
	if err != nil {
		return store.Budget{}, err
	}
	s.logger.Info("budget created", "budget_id", b.ID, "protocol_number", b.ProtocolNumber)
	return b, nil
}

// GetBudget loads one budget.
func (s *Service) GetBudget(ctx context.Context, id string) (store.Budget, error) {
	return store.GetBudget(ctx, s.db, id)
}

// Detail loads a budget with its environments and items.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	c, err := load(ctx, s.db, id)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Budget: c.budget, Environments: make([]EnvironmentDetail, 0, len(c.environments))}
	for _, env := range c.environments {
		items := c.items[env.ID]
		if items == nil {
			items = []store.Item{}
		}
		d.Environments = append(d.Environments, EnvironmentDetail{Environment: env, Items: items})
	}
	return d, nil
}

// ListBudgets returns budgets newest first, optionally filtered by client
// name or protocol number.
func (s *Service) ListBudgets(ctx context.Context, query string) ([]store.Budget, error) {
	return store.ListBudgets(ctx, s.db, strings.TrimSpace(query))
}

// UpdateClient replaces the client data of a budget.
func (s *Service) UpdateClient(ctx context.Context, id string, client store.Client) (store.Budget, error) {
	client = cleanClient(client)
	if client.Name == "" {
		return store.Budget{}, invalid("nome do cliente é obrigatório")
	}
	if err := store.UpdateClient(ctx, s.db, id, client); err != nil {
		return store.Budget{}, err
	}
	return store.GetBudget(ctx, s.db, id)
}

// SetStatus moves a budget between editing and finished.
func (s *Service) SetStatus(ctx context.Context, id, status string) (store.Budget, error) {
	if status != store.StatusEditing && status != store.StatusFinished {
		return store.Budget{}, invalid("status deve ser editing ou finished")
	}
	if err := store.UpdateStatus(ctx, s.db, id, status); err != nil {
		return store.Budget{}, err
	}
	return store.GetBudget(ctx, s.db, id)
}

// DeleteBudget removes a budget with everything it owns.
func (s *Service) DeleteBudget(ctx context.Context, id string) error {
	if err := store.DeleteBudget(ctx, s.db, id); err != nil {
		return err
	}
	s.logger.Info("budget deleted", "budget_id", id)
	return nil
}

// UpdateRules stores new pricing rules and reprices the whole budget.
func (s *Service) UpdateRules(ctx context.Context, id string, rules pricing.Rules) (store.Budget, error) {
	if err := ValidateRules(rules); err != nil {
		return store.Budget{}, err
	}

	err := s.mutate(ctx, TriggerRules, func(tx *sql.Tx) (string, map[string]float64, error) {
		return id, nil, store.UpdateRules(ctx, tx, id, rules.Normalized())
	})
	if err != nil {
		return store.Budget{}, err
	}
	return store.GetBudget(ctx, s.db, id)
}

func cleanClient(c store.Client) store.Client {
	return store.Client{
		Name:     strings.TrimSpace(c.Name),
		Document: strings.TrimSpace(c.Document),
		Phone:    strings.TrimSpace(c.Phone),
		Email:    strings.TrimSpace(c.Email),
	}
}
