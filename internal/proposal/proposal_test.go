package proposal

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/logger"
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

func buildScenario(t *testing.T, rules pricing.Rules) Document {
	t.Helper()
	ctx := context.Background()
	database := testhelpers.NewTestDB(t)
	svc := budget.NewService(database, logger.Discard(), nil)

	b, err := svc.CreateBudget(ctx, store.Client{Name: "Ana Souza", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := svc.UpdateRules(ctx, b.ID, rules); err != nil {
		t.Fatalf("update rules: %v", err)
	}
	env, err := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{Name: "Sala", Description: "Automação da sala"})
	if err != nil {
		t.Fatalf("add environment: %v", err)
	}
	if _, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Name: ptr("Sensor de presença"), Quantity: ptr(2.0), PurchasePrice: ptr(50.0)}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Name: ptr("=Central"), Quantity: ptr(1.0), PurchasePrice: ptr(30.0)}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	builder := NewBuilder(database)
	builder.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }
	doc, err := builder.Build(ctx, b.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return doc
}

var scenarioRules = pricing.Rules{
	MarkupPercentage: 10,
	RTType:           pricing.FeePercentage,
	RTValue:          5,
	RTDistribution:   pricing.Diluted,
	LaborType:        pricing.FeeFixed,
	LaborValue:       20,
}

func TestBuild(t *testing.T) {
	doc := buildScenario(t, scenarioRules)

	if doc.ProtocolNumber != 1 || doc.Client.Name != "Ana Souza" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	if doc.Layout.CoverTitle != store.DefaultPageLayout().CoverTitle {
		t.Fatalf("cover title = %q", doc.Layout.CoverTitle)
	}
	if len(doc.Environments) != 1 || len(doc.Environments[0].Lines) != 2 {
		t.Fatalf("unexpected environments: %+v", doc.Environments)
	}
	nearlyEqual(t, "line sale price", doc.Environments[0].Lines[0].SalePrice, 57.75)
	nearlyEqual(t, "finalTotal", math.Round(doc.Totals.FinalTotal*100)/100, 210.15)
	nearlyEqual(t, "payment total", doc.Payment.Total, doc.Totals.FinalTotal)
	if doc.SeparateRT() {
		t.Fatalf("diluted RT must not be shown apart")
	}
}

func TestBuildUsesStoredSalePrices(t *testing.T) {
	ctx := context.Background()
	database := testhelpers.NewTestDB(t)
	svc := budget.NewService(database, logger.Discard(), nil)

	b, _ := svc.CreateBudget(ctx, store.Client{Name: "Ana Souza"})
	if _, err := svc.UpdateRules(ctx, b.ID, scenarioRules); err != nil {
		t.Fatalf("update rules: %v", err)
	}
	env, _ := svc.AddEnvironment(ctx, b.ID, budget.EnvironmentInput{Name: "Sala"})
	sensor, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Quantity: ptr(2.0), PurchasePrice: ptr(50.0)})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(ctx, env.ID, budget.ItemInput{Quantity: ptr(1.0), PurchasePrice: ptr(30.0)}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.UpdateItem(ctx, sensor.ID, budget.ItemPatch{SalePrice: ptr(60.0)}); err != nil {
		t.Fatalf("set sale price: %v", err)
	}

	doc, err := NewBuilder(database).Build(ctx, b.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	nearlyEqual(t, "line sale price", doc.Environments[0].Lines[0].SalePrice, 60)
	nearlyEqual(t, "line subtotal", doc.Environments[0].Lines[0].Subtotal, 120)
	nearlyEqual(t, "items total", doc.Totals.ItemsTotal, 154.65)
	nearlyEqual(t, "final total", doc.Totals.FinalTotal, 214.65)

	stored, err := svc.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	nearlyEqual(t, "total_amount", stored.TotalAmount, math.Round(doc.Totals.FinalTotal*100)/100)

	sum, err := svc.Summary(ctx, b.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	nearlyEqual(t, "summary final total", sum.Project.FinalTotal, doc.Totals.FinalTotal)
	nearlyEqual(t, "payment total", doc.Payment.Total, doc.Totals.FinalTotal)
}

func TestRenderHTML(t *testing.T) {
	doc := buildScenario(t, scenarioRules)

	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("render html: %v", err)
	}
	testhelpers.AssertContains(t, buf.String(),
		"Proposta Comercial",
		"Ana Souza | ana@example.com",
		"Protocolo nº 1 | 09/03/2026",
		"Sensor de presença",
		"R$ 57,75",
		"R$ 210,15",
		"6x de",
	)
	if strings.Contains(buf.String(), "RT (cobrada à parte)") {
		t.Fatalf("diluted RT line rendered")
	}
}

func TestRenderHTMLSeparateRT(t *testing.T) {
	rules := scenarioRules
	rules.RTDistribution = pricing.Separate
	doc := buildScenario(t, rules)

	if !doc.SeparateRT() {
		t.Fatalf("expected separate RT")
	}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("render html: %v", err)
	}
	testhelpers.AssertContains(t, buf.String(), "RT (cobrada à parte)", "R$ 7,15")
}

func TestRenderPDF(t *testing.T) {
	doc := buildScenario(t, scenarioRules)

	out, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", out[:min(len(out), 8)])
	}
}

func TestRenderXLSX(t *testing.T) {
	doc := buildScenario(t, scenarioRules)

	tests := []struct {
		name     string
		internal bool
		headers  int
	}{
		{name: "client", internal: false, headers: 5},
		{name: "internal", internal: true, headers: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderXLSX(doc, tt.internal)
			if err != nil {
				t.Fatalf("render xlsx: %v", err)
			}

			f, err := excelize.OpenReader(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("open xlsx: %v", err)
			}
			defer f.Close()

			rows, err := f.GetRows(itemsSheet)
			if err != nil {
				t.Fatalf("get rows: %v", err)
			}
			if len(rows) != 3 || len(rows[0]) != tt.headers {
				t.Fatalf("unexpected item rows: %v", rows)
			}
			if rows[2][1] != "'=Central" {
				t.Fatalf("formula-like item name not escaped: %q", rows[2][1])
			}

			summary, err := f.GetRows(summarySheet)
			if err != nil {
				t.Fatalf("get summary rows: %v", err)
			}
			var hasProfit bool
			for _, r := range summary {
				if len(r) > 0 && r[0] == "Lucro" {
					hasProfit = true
				}
			}
			if hasProfit != tt.internal {
				t.Fatalf("profit row present = %v, want %v", hasProfit, tt.internal)
			}
		})
	}
}
