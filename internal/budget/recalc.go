package budget

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cubo-casa/orcamentos/internal/money"
	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// EnvironmentSummary is the rollup of one environment.
type EnvironmentSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Totals pricing.Totals `json:"totals"`
}

// Summary is the rollup of a budget. Item totals come from the stored item
// subtotals; labor and RT are derived from quantities, purchase prices and
// rules.
type Summary struct {
	BudgetID     string               `json:"budget_id"`
	Rules        pricing.Rules        `json:"rules"`
	Environments []EnvironmentSummary `json:"environments"`
	Project      pricing.Totals       `json:"project"`
	Payment      pricing.Payment      `json:"payment"`
}

// contents loads a budget with its environments and their items.
type contents struct {
	budget       store.Budget
	rules        pricing.Rules
	environments []store.Environment
	items        map[string][]store.Item
}

func load(ctx context.Context, q store.Querier, budgetID string) (contents, error) {
	b, err := store.GetBudget(ctx, q, budgetID)
	if err != nil {
		return contents{}, err
	}
	envs, err := store.ListEnvironments(ctx, q, budgetID)
	if err != nil {
		return contents{}, err
	}
	all, err := store.ListBudgetItems(ctx, q, budgetID)
	if err != nil {
		return contents{}, err
	}

	byEnv := make(map[string][]store.Item, len(envs))
	for _, it := range all {
		byEnv[it.EnvironmentID] = append(byEnv[it.EnvironmentID], it)
	}

	return contents{
		budget:       b,
		rules:        b.Rules.OrDefault(),
		environments: envs,
		items:        byEnv,
	}, nil
}

// EnvironmentTotals rolls up stored items. The items total is the sum of
// the stored subtotals, so an explicit sale price counts until the next
// recalculation; labor and RT are derived.
func EnvironmentTotals(items []store.Item, rules pricing.Rules) pricing.Totals {
	var stored float64
	for _, it := range items {
		stored += it.Subtotal
	}
	return pricing.EnvironmentTotals(pricingItems(items), rules).WithItemsTotal(stored)
}

func pricingItems(items []store.Item) []pricing.Item {
	out := make([]pricing.Item, len(items))
	for i, it := range items {
		out[i] = pricing.Item{Quantity: it.Quantity, PurchasePrice: it.PurchasePrice}
	}
	return out
}

// recompute reprices every item of the budget and rewrites every cached
// subtotal and the budget total. overrides holds explicit sale prices kept
// for this write only.
func recompute(ctx context.Context, q store.Querier, budgetID string, overrides map[string]float64) error {
	c, err := load(ctx, q, budgetID)
	if err != nil {
		return err
	}

	var grandTotal float64
	for _, env := range c.environments {
		items := c.items[env.ID]

		var itemsTotal float64
		for _, it := range items {
			price := pricing.PriceItem(pricing.Item{Quantity: it.Quantity, PurchasePrice: it.PurchasePrice}, c.rules)
			if sale, ok := overrides[it.ID]; ok {
				price = pricing.ItemPrice{SalePrice: sale, Subtotal: pricing.Subtotal(pricing.ClampQuantity(it.Quantity), sale)}
			}
			sale, subtotal := money.Round(price.SalePrice), money.Round(price.Subtotal)
			if err := store.SetItemPricing(ctx, q, it.ID, sale, subtotal); err != nil {
				return err
			}
			itemsTotal += subtotal
		}

		totals := pricing.EnvironmentTotals(pricingItems(items), c.rules).WithItemsTotal(itemsTotal)
		if err := store.SetEnvironmentSubtotal(ctx, q, env.ID, money.Round(totals.ItemsTotal)); err != nil {
			return err
		}
		grandTotal += totals.FinalTotal
	}

	if err := store.SetBudgetTotal(ctx, q, budgetID, money.Round(grandTotal)); err != nil {
		return fmt.Errorf("store budget total: %w", err)
	}
	return nil
}

// Recalculate recomputes every cached value of a budget.
func (s *Service) Recalculate(ctx context.Context, budgetID string) error {
	return s.mutate(ctx, TriggerManual, func(_ *sql.Tx) (string, map[string]float64, error) {
		return budgetID, nil, nil
	})
}

// Summary computes the totals of a budget and its payment options. Its
// final total rounds to the stored budget total.
func (s *Service) Summary(ctx context.Context, budgetID string) (Summary, error) {
	c, err := load(ctx, s.db, budgetID)
	if err != nil {
		return Summary{}, err
	}
	settings, err := store.GetSettings(ctx, s.db)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		BudgetID:     budgetID,
		Rules:        c.rules,
		Environments: make([]EnvironmentSummary, 0, len(c.environments)),
	}
	for _, env := range c.environments {
		totals := EnvironmentTotals(c.items[env.ID], c.rules)
		sum.Environments = append(sum.Environments, EnvironmentSummary{ID: env.ID, Name: env.Name, Totals: totals})
		sum.Project = sum.Project.Add(totals)
	}
	sum.Payment = pricing.PaymentOptions(sum.Project.FinalTotal, settings.PaymentPlan)
	return sum, nil
}
