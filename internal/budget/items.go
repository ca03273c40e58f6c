package budget

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// ItemInput holds the fields of a new item. Nil fields take their defaults.
type ItemInput struct {
	Name          *string  `json:"name"`
	Quantity      *float64 `json:"quantity"`
	PurchasePrice *float64 `json:"purchase_price"`
}

// ItemPatch holds the editable fields of an item. Nil fields are left
// unchanged. SalePrice is only honoured when neither Quantity nor
// PurchasePrice is part of the same patch, and it lasts until the next
// recalculation.
type ItemPatch struct {
	Name          *string  `json:"name"`
	Quantity      *float64 `json:"quantity"`
	PurchasePrice *float64 `json:"purchase_price"`
	SalePrice     *float64 `json:"sale_price"`
}

// AddItem creates an item in an environment and reprices the budget.
func (s *Service) AddItem(ctx context.Context, environmentID string, in ItemInput) (store.Item, error) {
	it := store.Item{
		ID:            store.NewID(),
		EnvironmentID: environmentID,
		Name:          defaultItemName,
		Quantity:      1,
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.Quantity != nil {
		if err := validateQuantity(*in.Quantity); err != nil {
			return store.Item{}, err
		}
		it.Quantity = *in.Quantity
	}
	if in.PurchasePrice != nil {
		if err := validatePrice("preço de compra", *in.PurchasePrice); err != nil {
			return store.Item{}, err
		}
		it.PurchasePrice = *in.PurchasePrice
	}

	err := s.mutate(ctx, TriggerItem, func(tx *sql.Tx) (string, map[string]float64, error) {
		env, err := store.GetEnvironment(ctx, tx, environmentID)
		if err != nil {
			return "", nil, err
		}
		return env.BudgetID, nil, store.InsertItem(ctx, tx, it)
	})
	if err != nil {
		return store.Item{}, err
	}
	return store.GetItem(ctx, s.db, it.ID)
}

// UpdateItem applies patch to an item and reprices the budget.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) (store.Item, error) {
	if patch.Quantity != nil {
		if err := validateQuantity(*patch.Quantity); err != nil {
			return store.Item{}, err
		}
	}
	if patch.PurchasePrice != nil {
		if err := validatePrice("preço de compra", *patch.PurchasePrice); err != nil {
			return store.Item{}, err
		}
	}
	if patch.SalePrice != nil {
		if err := validatePrice("preço de venda", *patch.SalePrice); err != nil {
			return store.Item{}, err
		}
	}

	err := s.mutate(ctx, TriggerItem, func(tx *sql.Tx) (string, map[string]float64, error) {
		it, err := store.GetItem(ctx, tx, id)
		if err != nil {
			return "", nil, err
		}
		env, err := store.GetEnvironment(ctx, tx, it.EnvironmentID)
		if err != nil {
			return "", nil, err
		}

		if patch.Name != nil {
			if name := strings.TrimSpace(*patch.Name); name != "" {
				it.Name = name
			}
		}
		if patch.Quantity != nil {
			it.Quantity = *patch.Quantity
		}
		if patch.PurchasePrice != nil {
			it.PurchasePrice = *patch.PurchasePrice
		}
		if err := store.UpdateItem(ctx, tx, it); err != nil {
			return "", nil, err
		}

		var overrides map[string]float64
		if patch.SalePrice != nil && patch.Quantity == nil && patch.PurchasePrice == nil {
			overrides = map[string]float64{id: *patch.SalePrice}
		}
		return env.BudgetID, overrides, nil
	})
	if err != nil {
		return store.Item{}, err
	}
	return store.GetItem(ctx, s.db, id)
}

// DeleteItem removes an item and reprices the budget.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.mutate(ctx, TriggerItem, func(tx *sql.Tx) (string, map[string]float64, error) {
		it, err := store.GetItem(ctx, tx, id)
		if err != nil {
			return "", nil, err
		}
		env, err := store.GetEnvironment(ctx, tx, it.EnvironmentID)
		if err != nil {
			return "", nil, err
		}
		return env.BudgetID, nil, store.DeleteItem(ctx, tx, id)
	})
}

func validateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < pricing.MinQuantity {
		return invalid("quantidade deve ser no mínimo 0,01")
	}
	return nil
}

func validatePrice(label string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid("%s deve ser maior ou igual a zero", label)
	}
	return nil
}
