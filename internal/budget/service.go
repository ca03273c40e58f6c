// Package budget edits budgets, environments and items. Every mutation
// runs in one transaction that performs the write and then recomputes the
// cached prices and totals of the whole budget.
package budget

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cubo-casa/orcamentos/internal/metrics"
	"github.com/cubo-casa/orcamentos/internal/pricing"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// ErrInvalidInput wraps every validation failure.
var ErrInvalidInput = errors.New("dados inválidos")

// Recalculation triggers.
const (
	TriggerRules       = "rules"
	TriggerItem        = "item"
	TriggerEnvironment = "environment"
	TriggerManual      = "manual"
)

const (
	defaultClientName      = "Novo Cliente"
	defaultEnvironmentName = "Novo Ambiente"
	defaultItemName        = "Novo Item"
)

// Service owns the recalculation cascade.
type Service struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService returns a Service. m may be nil.
func NewService(db *sql.DB, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{db: db, logger: logger, metrics: m}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// mutate runs write and the full recompute of budgetID in one transaction.
// write returns the budget it touched when budgetID is not known upfront.
func (s *Service) mutate(ctx context.Context, trigger string, write func(tx *sql.Tx) (budgetID string, overrides map[string]float64, err error)) error {
	start := time.Now()
	var budgetID string

	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		id, overrides, err := write(tx)
		if err != nil {
			return err
		}
		budgetID = id
		return recompute(ctx, tx, id, overrides)
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveRecalculation(trigger, time.Since(start))
	s.logger.Debug("budget recalculated", "budget_id", budgetID, "trigger", trigger, "duration", time.Since(start))
	return nil
}

// Settings returns the pricing template copied into new budgets.
func (s *Service) Settings(ctx context.Context) (store.Settings, error) {
	return store.GetSettings(ctx, s.db)
}

// SaveSettings validates and stores the settings. Existing budgets keep
// their own rules.
func (s *Service) SaveSettings(ctx context.Context, settings store.Settings) (store.Settings, error) {
	if err := ValidateRules(settings.Rules); err != nil {
		return store.Settings{}, err
	}
	plan := settings.PaymentPlan
	if !validPercent(plan.UpfrontDiscountPercentage) || !validPercent(plan.DownPaymentPercentage) {
		return store.Settings{}, invalid("percentuais de pagamento devem estar entre 0 e 100")
	}
	if plan.Installments < 1 {
		return store.Settings{}, invalid("número de parcelas deve ser no mínimo 1")
	}

	if err := store.SaveSettings(ctx, s.db, settings); err != nil {
		return store.Settings{}, err
	}
	return store.GetSettings(ctx, s.db)
}

// ValidateRules rejects negative or non-finite values, RT and labor
// percentages above 100 and unknown enum values. Markup has no upper bound.
func ValidateRules(r pricing.Rules) error {
	if math.IsNaN(r.MarkupPercentage) || math.IsInf(r.MarkupPercentage, 0) || r.MarkupPercentage < 0 {
		return invalid("markup deve ser maior ou igual a zero")
	}
	if !r.RTType.Valid() {
		return invalid("tipo de RT inválido")
	}
	if !r.LaborType.Valid() {
		return invalid("tipo de mão de obra inválido")
	}
	if !r.RTDistribution.Valid() {
		return invalid("distribuição de RT inválida")
	}
	if err := validateFee("RT", r.RTType, r.RTValue); err != nil {
		return err
	}
	return validateFee("mão de obra", r.LaborType, r.LaborValue)
}

func validateFee(label string, t pricing.FeeType, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid("valor de %s deve ser maior ou igual a zero", label)
	}
	if t == pricing.FeePercentage && v > 100 {
		return invalid("percentual de %s deve estar entre 0 e 100", label)
	}
	return nil
}

func validPercent(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}
