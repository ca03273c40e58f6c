// Package proposal assembles the commercial proposal of a budget and
// renders it as HTML, PDF or XLSX.
package proposal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cubo-casa/orcamentos/internal/budget"
	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// Line is one item row of an environment page.
type Line struct {
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	Subtotal      float64 `json:"subtotal"`
}

// EnvironmentPage is the page of one environment.
type EnvironmentPage struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CoverURL    string         `json:"cover_url,omitempty"`
	Lines       []Line         `json:"lines"`
	Totals      pricing.Totals `json:"totals"`
}

// Document is everything a renderer needs. Prices are derived from
// quantities, purchase prices and rules at build time.
type Document struct {
	ProtocolNumber int64             `json:"protocol_number"`
	Client         store.Client      `json:"client"`
	Status         string            `json:"status"`
	Date           time.Time         `json:"date"`
	MainCoverURL   string            `json:"main_cover_url,omitempty"`
	Layout         store.PageLayout  `json:"layout"`
	Rules          pricing.Rules     `json:"rules"`
	Environments   []EnvironmentPage `json:"environments"`
	Totals         pricing.Totals    `json:"totals"`
	Payment        pricing.Payment   `json:"payment"`
	PaymentTerms   string            `json:"payment_terms"`
}

// SeparateRT reports whether the RT fee is charged apart from the items.
func (d Document) SeparateRT() bool {
	return d.Rules.RTDistribution == pricing.Separate && d.Totals.SeparateRTTotal > 0
}

// Builder loads proposal documents.
type Builder struct {
	db  *sql.DB
	now func() time.Time
}

func NewBuilder(db *sql.DB) *Builder {
	return &Builder{db: db, now: time.Now}
}

// Build assembles the proposal of a budget.
func (b *Builder) Build(ctx context.Context, budgetID string) (Document, error) {
	bud, err := store.GetBudget(ctx, b.db, budgetID)
	if err != nil {
		return Document{}, err
	}
	rules := bud.Rules.OrDefault()

	settings, err := store.GetSettings(ctx, b.db)
	if err != nil {
		return Document{}, err
	}
	layout, err := store.GetPageLayout(ctx, b.db)
	if err != nil {
		return Document{}, err
	}
	mainCover, err := b.mainCoverURL(ctx)
	if err != nil {
		return Document{}, err
	}

	envs, err := store.ListEnvironments(ctx, b.db, budgetID)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ProtocolNumber: bud.ProtocolNumber,
		Client:         bud.Client,
		Status:         bud.Status,
		Date:           b.now(),
		MainCoverURL:   mainCover,
		Layout:         layout,
		Rules:          rules,
		Environments:   make([]EnvironmentPage, 0, len(envs)),
		PaymentTerms:   settings.PaymentTerms,
	}

	for _, env := range envs {
		items, err := store.ListItems(ctx, b.db, env.ID)
		if err != nil {
			return Document{}, err
		}

		lines := make([]Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, Line{
				Name:          it.Name,
				Quantity:      it.Quantity,
				PurchasePrice: it.PurchasePrice,
				SalePrice:     it.SalePrice,
				Subtotal:      it.Subtotal,
			})
		}

		totals := budget.EnvironmentTotals(items, rules)
		doc.Environments = append(doc.Environments, EnvironmentPage{
			Name:        env.Name,
			Description: env.Description,
			CoverURL:    env.CoverImageURL,
			Lines:       lines,
			Totals:      totals,
		})
		doc.Totals = doc.Totals.Add(totals)
	}

	doc.Payment = pricing.PaymentOptions(doc.Totals.FinalTotal, settings.PaymentPlan)
	return doc, nil
}

func (b *Builder) mainCoverURL(ctx context.Context) (string, error) {
	ts, err := store.GetTemplateSettings(ctx, b.db)
	if err != nil {
		return "", err
	}
	if ts.MainCoverAssetID == "" {
		return "", nil
	}
	a, err := store.GetAsset(ctx, b.db, ts.MainCoverAssetID)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.URL, nil
}
