package budget

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cubo-casa/orcamentos/internal/store"
)

// EnvironmentInput holds the fields of a new environment.
type EnvironmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddEnvironment appends an empty environment to a budget.
func (s *Service) AddEnvironment(ctx context.Context, budgetID string, in EnvironmentInput) (store.Environment, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultEnvironmentName
	}
	return s.insertEnvironment(ctx, store.Environment{
		BudgetID:    budgetID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
	})
}

// AddEnvironmentFromTemplate appends an environment named, described and
// illustrated after a template.
func (s *Service) AddEnvironmentFromTemplate(ctx context.Context, budgetID, templateID string) (store.Environment, error) {
	t, err := store.GetTemplate(ctx, s.db, templateID)
	if err != nil {
		return store.Environment{}, err
	}
	return s.insertEnvironment(ctx, store.Environment{
		BudgetID:      budgetID,
		TemplateID:    t.ID,
		Name:          t.Name,
		Description:   t.Description,
		CoverImageURL: t.DefaultImageURL,
	})
}

func (s *Service) insertEnvironment(ctx context.Context, env store.Environment) (store.Environment, error) {
	env.ID = store.NewID()
	err := s.mutate(ctx, TriggerEnvironment, func(tx *sql.Tx) (string, map[string]float64, error) {
		if _, err := store.GetBudget(ctx, tx, env.BudgetID); err != nil {
			return "", nil, err
		}
		if _, err := store.InsertEnvironment(ctx, tx, env); err != nil {
			return "", nil, err
		}
		return env.BudgetID, nil, nil
	})
	if err != nil {
		return store.Environment{}, err
	}
	return store.GetEnvironment(ctx, s.db, env.ID)
}

// UpdateEnvironment edits the name, description or cover of an environment.
func (s *Service) UpdateEnvironment(ctx context.Context, id string, patch store.EnvironmentPatch) (store.Environment, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return store.Environment{}, invalid("nome do ambiente é obrigatório")
		}
		patch.Name = &name
	}

	err := s.mutate(ctx, TriggerEnvironment, func(tx *sql.Tx) (string, map[string]float64, error) {
		env, err := store.GetEnvironment(ctx, tx, id)
		if err != nil {
			return "", nil, err
		}
		return env.BudgetID, nil, store.UpdateEnvironment(ctx, tx, id, patch)
	})
	if err != nil {
		return store.Environment{}, err
	}
	return store.GetEnvironment(ctx, s.db, id)
}

// DeleteEnvironment removes an environment with its items and recomputes
// the budget total.
func (s *Service) DeleteEnvironment(ctx context.Context, id string) error {
	return s.mutate(ctx, TriggerEnvironment, func(tx *sql.Tx) (string, map[string]float64, error) {
		env, err := store.GetEnvironment(ctx, tx, id)
		if err != nil {
			return "", nil, err
		}
		return env.BudgetID, nil, store.DeleteEnvironment(ctx, tx, id)
	})
}
