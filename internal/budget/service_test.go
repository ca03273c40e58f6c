package budget_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/logger"
	"github.com/cubo-casa/orcamentos/internal/metrics"
	"github.com/cubo-casa/orcamentos/internal/money"
	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/store"
	"github.com/cubo-casa/orcamentos/internal/testhelpers"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func newService(t *testing.T) (*budget.Service, *sql.DB) {
	t.Helper()
	database := testhelpers.NewTestDB(t)
	return budget.NewService(database, logger.Discard(), metrics.New()), database
}

var scenarioRules = pricing.Rules{
	MarkupPercentage: 10,
	RTType:           pricing.FeePercentage,
	RTValue:          5,
	RTDistribution:   pricing.Diluted,
	LaborType:        pricing.FeeFixed,
	LaborValue:       20,
}

// assertCachesFresh checks every cached value against a recompute from the
// authoritative fields, and the summary against the stored total.
func assertCachesFresh(t *testing.T, svc *budget.Service, budgetID string) {
	t.Helper()
	ctx := context.Background()

	d, err := svc.Detail(ctx, budgetID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	rules := d.Rules.OrDefault()

	var grand float64
	for _, env := range d.Environments {
		items := make([]pricing.Item, 0, len(env.Items))
		var itemsTotal float64
		for _, it := range env.Items {
			p := pricing.PriceItem(pricing.Item{Quantity: it.Quantity, PurchasePrice: it.PurchasePrice}, rules)
			nearlyEqual(t, it.Name+" sale_price", it.SalePrice, money.Round(p.SalePrice))
			nearlyEqual(t, it.Name+" subtotal", it.Subtotal, money.Round(p.Subtotal))
			items = append(items, pricing.Item{Quantity: it.Quantity, PurchasePrice: it.PurchasePrice})
			itemsTotal += money.Round(p.Subtotal)
		}
		totals := pricing.EnvironmentTotals(items, rules).WithItemsTotal(itemsTotal)
		nearlyEqual(t, env.Name+" subtotal", env.Subtotal, money.Round(totals.ItemsTotal))
		grand += totals.FinalTotal
	}
	nearlyEqual(t, "total_amount", d.TotalAmount, money.Round(grand))

	sum, err := svc.Summary(ctx, budgetID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	nearlyEqual(t, "summary final total", money.Round(sum.Project.FinalTotal), d.TotalAmount)
}

func TestScenarioCascade(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, err := svc.CreateBudget(ctx, store.Client{})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if b.Client.Name != "Novo Cliente" || b.ProtocolNumber != 1 || b.Status != store.StatusEditing {
		t.Fatalf("unexpected new budget: %+v", b)
	}
	if _, err := svc.UpdateRules(ctx, b.ID, scenarioRules); err != nil {
		t.Fatalf("update rules: %v", err)
	}

	env, err := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{Name: "Sala"})
	if err != nil {
		t.Fatalf("add environment: %v", err)
	}
	a, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Name: ptr("A"), Quantity: ptr(2.0), PurchasePrice: ptr(50.0)})
	if err != nil {
		t.Fatalf("add item A: %v", err)
	}
	if _, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Name: ptr("B"), Quantity: ptr(1.0), PurchasePrice: ptr(30.0)}); err != nil {
		t.Fatalf("add item B: %v", err)
	}
	nearlyEqual(t, "A.sale_price", a.SalePrice, 57.75)
	nearlyEqual(t, "A.subtotal", a.Subtotal, 115.5)

	d, err := svc.Detail(ctx, b.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	nearlyEqual(t, "environment subtotal", d.Environments[0].Subtotal, 150.15)
	nearlyEqual(t, "total_amount", d.TotalAmount, 210.15)

	sum, err := svc.Summary(ctx, b.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	nearlyEqual(t, "finalTotal", money.Round(sum.Project.FinalTotal), 210.15)
	nearlyEqual(t, "laborTotal", sum.Project.LaborTotal, 60)
	nearlyEqual(t, "totalQuantity", sum.Project.TotalQuantity, 3)
	if sum.Payment.Installments != 6 {
		t.Fatalf("installments = %d, want 6", sum.Payment.Installments)
	}
}

func TestEveryMutationKeepsCachesFresh(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, err := svc.CreateBudget(ctx, store.Client{Name: "Carla"})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := svc.UpdateRules(ctx, b.ID, scenarioRules); err != nil {
		t.Fatalf("update rules: %v", err)
	}
	sala, err := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{Name: "Sala"})
	if err != nil {
		t.Fatalf("add environment: %v", err)
	}
	quarto, err := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{})
	if err != nil {
		t.Fatalf("add environment: %v", err)
	}
	if quarto.Name != "Novo Ambiente" {
		t.Fatalf("default environment name = %q", quarto.Name)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"add item", func() error {
			_, err := svc.AddItem(ctx, sala.ID, budget.ItemInput{Quantity: ptr(3.0), PurchasePrice: ptr(99.9)})
			return err
		}},
		{"add default item", func() error {
			it, err := svc.AddItem(ctx, quarto.ID, budget.ItemInput{})
			if err == nil && (it.Name != "Novo Item" || it.Quantity != 1 || it.PurchasePrice != 0) {
				t.Fatalf("unexpected default item: %+v", it)
			}
			return err
		}},
		{"update item", func() error {
			d, _ := svc.Detail(ctx, b.ID)
			_, err := svc.UpdateItem(ctx, d.Environments[0].Items[0].ID, budget.ItemPatch{Quantity: ptr(0.5), PurchasePrice: ptr(1234.56)})
			return err
		}},
		{"change rules", func() error {
			_, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{MarkupPercentage: 33, RTType: pricing.FeeFixed, RTValue: 45, RTDistribution: pricing.Diluted, LaborType: pricing.FeePercentage, LaborValue: 12})
			return err
		}},
		{"separate RT", func() error {
			_, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{MarkupPercentage: 15, RTType: pricing.FeePercentage, RTValue: 8, RTDistribution: pricing.Separate, LaborType: pricing.FeeFixed, LaborValue: 7})
			return err
		}},
		{"delete item", func() error {
			d, _ := svc.Detail(ctx, b.ID)
			return svc.DeleteItem(ctx, d.Environments[1].Items[0].ID)
		}},
		{"delete environment", func() error {
			return svc.DeleteEnvironment(ctx, sala.ID)
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		assertCachesFresh(t, svc, b.ID)
	}

	d, err := svc.Detail(ctx, b.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(d.Environments) != 1 || d.TotalAmount != 0 {
		t.Fatalf("expected one empty environment and zero total, got %d environments and %v", len(d.Environments), d.TotalAmount)
	}
}

func TestRulesChangeRepricesEveryItem(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{Name: "Cozinha"})
	it, err := svc.AddItem(ctx, env.ID, budget.ItemInput{PurchasePrice: ptr(100.0)})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	nearlyEqual(t, "sale_price before", it.SalePrice, 100)

	if _, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{MarkupPercentage: 20, RTType: pricing.FeePercentage, RTDistribution: pricing.Diluted, LaborType: pricing.FeePercentage}); err != nil {
		t.Fatalf("update rules: %v", err)
	}

	d, _ := svc.Detail(ctx, b.ID)
	nearlyEqual(t, "sale_price after", d.Environments[0].Items[0].SalePrice, 120)
	nearlyEqual(t, "total_amount", d.TotalAmount, 120)
}

func TestMarkupAboveHundredIsAccepted(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{})
	if _, err := svc.AddItem(ctx, env.ID, budget.ItemInput{PurchasePrice: ptr(100.0)}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	updated, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{MarkupPercentage: 150, RTType: pricing.FeePercentage, RTDistribution: pricing.Diluted, LaborType: pricing.FeePercentage})
	if err != nil {
		t.Fatalf("update rules: %v", err)
	}
	if updated.Rules == nil || updated.Rules.MarkupPercentage != 150 {
		t.Fatalf("rules = %+v, want markup 150", updated.Rules)
	}
	nearlyEqual(t, "total_amount", updated.TotalAmount, 250)
	assertCachesFresh(t, svc, b.ID)
}

func TestExplicitSalePriceLastsUntilNextTrigger(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{Name: "Sala"})
	it, _ := svc.AddItem(ctx, env.ID, budget.ItemInput{Quantity: ptr(2.0), PurchasePrice: ptr(100.0)})

	overridden, err := svc.UpdateItem(ctx, it.ID, budget.ItemPatch{SalePrice: ptr(150.0)})
	if err != nil {
		t.Fatalf("update sale price: %v", err)
	}
	nearlyEqual(t, "sale_price", overridden.SalePrice, 150)
	nearlyEqual(t, "subtotal", overridden.Subtotal, 300)
	d, _ := svc.Detail(ctx, b.ID)
	nearlyEqual(t, "total_amount", d.TotalAmount, 300)
	nearlyEqual(t, "environment subtotal", d.Environments[0].Subtotal, 300)

	sum, err := svc.Summary(ctx, b.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	nearlyEqual(t, "summary items total", sum.Project.ItemsTotal, 300)
	nearlyEqual(t, "summary final total", sum.Project.FinalTotal, d.TotalAmount)
	nearlyEqual(t, "summary profit", sum.Project.ProfitTotal, 100)
	nearlyEqual(t, "payment total", sum.Payment.Total, 300)

	other, _ := svc.AddItem(ctx, env.ID, budget.ItemInput{PurchasePrice: ptr(10.0)})
	_ = other

	repriced, err := svc.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	nearlyEqual(t, "total_amount after trigger", repriced.TotalAmount, 210)
	sum, _ = svc.Summary(ctx, b.ID)
	nearlyEqual(t, "summary final after trigger", sum.Project.FinalTotal, 210)

	d, _ = svc.Detail(ctx, b.ID)
	for _, item := range d.Environments[0].Items {
		if item.ID == it.ID {
			nearlyEqual(t, "sale_price after trigger", item.SalePrice, 100)
		}
	}
}

func TestSalePriceIgnoredWithQuantityChange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{})
	it, _ := svc.AddItem(ctx, env.ID, budget.ItemInput{PurchasePrice: ptr(40.0)})

	got, err := svc.UpdateItem(ctx, it.ID, budget.ItemPatch{Quantity: ptr(3.0), SalePrice: ptr(999.0)})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	nearlyEqual(t, "sale_price", got.SalePrice, 40)
	nearlyEqual(t, "subtotal", got.Subtotal, 120)
}

func TestCreateBudgetCopiesSettingsRules(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	settings.Rules = scenarioRules
	if _, err := svc.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	b, err := svc.CreateBudget(ctx, store.Client{Name: "  Daniel  "})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if b.Client.Name != "Daniel" {
		t.Fatalf("client name = %q", b.Client.Name)
	}
	if b.Rules == nil || *b.Rules != scenarioRules {
		t.Fatalf("rules = %+v, want %+v", b.Rules, scenarioRules)
	}

	settings.Rules = pricing.DefaultRules()
	if _, err := svc.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	again, _ := svc.GetBudget(ctx, b.ID)
	if *again.Rules != scenarioRules {
		t.Fatalf("existing budget rules changed with settings: %+v", again.Rules)
	}

	next, _ := svc.CreateBudget(ctx, store.Client{})
	if next.ProtocolNumber != b.ProtocolNumber+1 {
		t.Fatalf("protocol = %d, want %d", next.ProtocolNumber, b.ProtocolNumber+1)
	}
}

func TestValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{})

	tests := []struct {
		name string
		run  func() error
	}{
		{"zero quantity", func() error {
			_, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Quantity: ptr(0.0)})
			return err
		}},
		{"NaN quantity", func() error {
			_, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Quantity: ptr(math.NaN())})
			return err
		}},
		{"negative purchase", func() error {
			_, err := svc.AddItem(ctx, env.ID, budget.ItemInput{PurchasePrice: ptr(-1.0)})
			return err
		}},
		{"negative markup", func() error {
			_, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{MarkupPercentage: -1, RTType: pricing.FeeFixed, RTDistribution: pricing.Diluted, LaborType: pricing.FeeFixed})
			return err
		}},
		{"NaN markup", func() error {
			_, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{MarkupPercentage: math.NaN(), RTType: pricing.FeeFixed, RTDistribution: pricing.Diluted, LaborType: pricing.FeeFixed})
			return err
		}},
		{"percentage RT above 100", func() error {
			_, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{RTType: pricing.FeePercentage, RTValue: 101, RTDistribution: pricing.Diluted, LaborType: pricing.FeeFixed})
			return err
		}},
		{"unknown rt type", func() error {
			_, err := svc.UpdateRules(ctx, b.ID, pricing.Rules{RTType: "other", RTDistribution: pricing.Diluted, LaborType: pricing.FeeFixed})
			return err
		}},
		{"unknown status", func() error {
			_, err := svc.SetStatus(ctx, b.ID, "archived")
			return err
		}},
		{"empty client name", func() error {
			_, err := svc.UpdateClient(ctx, b.ID, store.Client{Name: " "})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, budget.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "missing", budget.ItemInput{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("add item: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteEnvironment(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete environment: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AddEnvironment(ctx, "missing", budget.EnvironmentInput{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("add environment: expected ErrNotFound, got %v", err)
	}
	if err := svc.Recalculate(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("recalculate: expected ErrNotFound, got %v", err)
	}
}

func TestAddEnvironmentFromTemplate(t *testing.T) {
	svc, database := newService(t)
	ctx := context.Background()

	tmpl := store.EnvironmentTemplate{ID: store.NewID(), Name: "Home Theater", Description: "Sala de cinema", DefaultImageURL: "/files/ht.png"}
	if err := store.InsertTemplate(ctx, database, tmpl); err != nil {
		t.Fatalf("insert template: %v", err)
	}

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, err := svc.AddEnvironmentFromTemplate(ctx, b.ID, tmpl.ID)
	if err != nil {
		t.Fatalf("add from template: %v", err)
	}
	if env.Name != "Home Theater" || env.CoverImageURL != "/files/ht.png" || env.TemplateID != tmpl.ID {
		t.Fatalf("unexpected environment: %+v", env)
	}
}

func TestRecalculateRepairsStaleCaches(t *testing.T) {
	svc, database := newService(t)
	ctx := context.Background()

	b, _ := svc.CreateBudget(ctx, store.Client{})
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{})
	if _, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Quantity: ptr(2.0), PurchasePrice: ptr(10.0)}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := database.Exec(`UPDATE items SET sale_price = 1, subtotal = 1`); err != nil {
		t.Fatalf("corrupt items: %v", err)
	}
	if _, err := database.Exec(`UPDATE budgets SET total_amount = 0`); err != nil {
		t.Fatalf("corrupt budget: %v", err)
	}

	if err := svc.Recalculate(ctx, b.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	assertCachesFresh(t, svc, b.ID)
}
