package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cubo-casa/orcamentos/internal/pricing"
)

// Settings is the pricing template copied into every new budget, plus the
// proposal payment defaults.
type Settings struct {
	Rules        pricing.Rules       `json:"rules"`
	PaymentTerms string              `json:"payment_terms"`
	PaymentPlan  pricing.PaymentPlan `json:"payment_plan"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// DefaultSettings is used when the singleton row is missing.
func DefaultSettings() Settings {
	return Settings{
		Rules:        pricing.DefaultRules(),
		PaymentTerms: "Pagamento à vista com desconto de 5%. Parcelamento em até 12x no cartão.",
		PaymentPlan:  pricing.DefaultPaymentPlan(),
	}
}

// GetSettings reads the settings singleton, falling back to defaults.
func GetSettings(ctx context.Context, q Querier) (Settings, error) {
	var s Settings
	var updated timestamp
	err := q.QueryRowContext(ctx, `
		SELECT markup_percentage, rt_type, rt_value, rt_distribution, labor_type, labor_value,
			payment_terms, upfront_discount_percentage, down_payment_percentage, installments, updated_at
		FROM settings
		WHERE id = 1
	`).Scan(
		&s.Rules.MarkupPercentage,
		&s.Rules.RTType,
		&s.Rules.RTValue,
		&s.Rules.RTDistribution,
		&s.Rules.LaborType,
		&s.Rules.LaborValue,
		&s.PaymentTerms,
		&s.PaymentPlan.UpfrontDiscountPercentage,
		&s.PaymentPlan.DownPaymentPercentage,
		&s.PaymentPlan.Installments,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}
	s.UpdatedAt = updated.Time
	return s, nil
}

// SaveSettings upserts the settings singleton.
func SaveSettings(ctx context.Context, q Querier, s Settings) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO settings (
			id, markup_percentage, rt_type, rt_value, rt_distribution, labor_type, labor_value,
			payment_terms, upfront_discount_percentage, down_payment_percentage, installments
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			markup_percentage = excluded.markup_percentage,
			rt_type = excluded.rt_type,
			rt_value = excluded.rt_value,
			rt_distribution = excluded.rt_distribution,
			labor_type = excluded.labor_type,
			labor_value = excluded.labor_value,
			payment_terms = excluded.payment_terms,
			upfront_discount_percentage = excluded.upfront_discount_percentage,
			down_payment_percentage = excluded.down_payment_percentage,
			installments = excluded.installments,
			updated_at = CURRENT_TIMESTAMP
	`,
		s.Rules.MarkupPercentage,
		s.Rules.RTType,
		s.Rules.RTValue,
		s.Rules.RTDistribution,
		s.Rules.LaborType,
		s.Rules.LaborValue,
		s.PaymentTerms,
		s.PaymentPlan.UpfrontDiscountPercentage,
		s.PaymentPlan.DownPaymentPercentage,
		s.PaymentPlan.Installments,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
