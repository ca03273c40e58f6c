package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cubo-casa/orcamentos/internal/pricing"
)

// Budget statuses.
const (
	StatusEditing  = "editing"
	StatusFinished = "finished"
)

// Client identifies who a budget is for.
type Client struct {
	Name     string `json:"client_name"`
	Document string `json:"client_cpf_cnpj"`
	Phone    string `json:"client_phone"`
	Email    string `json:"client_email"`
}

// Budget is a client proposal. Rules is nil when the row predates per-budget
// rules; callers use Rules.OrDefault.
type Budget struct {
	ID             string         `json:"id"`
	ProtocolNumber int64          `json:"protocol_number"`
	Client         Client         `json:"client"`
	Status         string         `json:"status"`
	Rules          *pricing.Rules `json:"rules"`
	TotalAmount    float64        `json:"total_amount"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

const budgetColumns = `
	id, protocol_number, client_name, client_cpf_cnpj, client_phone, client_email, status,
	markup_percentage, rt_type, rt_value, rt_distribution, labor_type, labor_value,
	total_amount, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (Budget, error) {
	var b Budget
	var markup, rtValue, laborValue sql.NullFloat64
	var rtType, rtDist, laborType sql.NullString
	var created, updated timestamp

	err := row.Scan(
		&b.ID,
		&b.ProtocolNumber,
		&b.Client.Name,
		&b.Client.Document,
		&b.Client.Phone,
		&b.Client.Email,
		&b.Status,
		&markup,
		&rtType,
		&rtValue,
		&rtDist,
		&laborType,
		&laborValue,
		&b.TotalAmount,
		&created,
		&updated,
	)
	if err != nil {
		return Budget{}, err
	}

	if markup.Valid || rtType.Valid || rtValue.Valid || rtDist.Valid || laborType.Valid || laborValue.Valid {
		r := pricing.Rules{
			MarkupPercentage: markup.Float64,
			RTType:           pricing.FeeType(rtType.String),
			RTValue:          rtValue.Float64,
			RTDistribution:   pricing.Distribution(rtDist.String),
			LaborType:        pricing.FeeType(laborType.String),
			LaborValue:       laborValue.Float64,
		}.Normalized()
		b.Rules = &r
	}
	b.CreatedAt = created.Time
	b.UpdatedAt = updated.Time
	return b, nil
}

// NextProtocolNumber returns the protocol number for a new budget.
func NextProtocolNumber(ctx context.Context, q Querier) (int64, error) {
	var next int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(protocol_number), 0) + 1 FROM budgets`).Scan(&next); err != nil {
		return 0, fmt.Errorf("query next protocol number: %w", err)
	}
	return next, nil
}

// InsertBudget stores a new budget. ID and ProtocolNumber must be set.
func InsertBudget(ctx context.Context, q Querier, b Budget) error {
	rules := b.Rules.OrDefault()
	_, err := q.ExecContext(ctx, `
		INSERT INTO budgets (
			id, protocol_number, client_name, client_cpf_cnpj, client_phone, client_email, status,
			markup_percentage, rt_type, rt_value, rt_distribution, labor_type, labor_value, total_amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.ProtocolNumber, b.Client.Name, b.Client.Document, b.Client.Phone, b.Client.Email, b.Status,
		rules.MarkupPercentage, rules.RTType, rules.RTValue, rules.RTDistribution, rules.LaborType, rules.LaborValue,
		b.TotalAmount,
	)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// GetBudget loads one budget.
func GetBudget(ctx context.Context, q Querier, id string) (Budget, error) {
	b, err := scanBudget(q.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Budget{}, ErrNotFound
	}
	if err != nil {
		return Budget{}, fmt.Errorf("query budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns budgets newest first. query filters by client name or
// protocol number when not empty.
func ListBudgets(ctx context.Context, q Querier, query string) ([]Budget, error) {
	protocol, _ := strconv.ParseInt(query, 10, 64)
	rows, err := q.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE (? = '' OR client_name LIKE ? OR protocol_number = ?)
		ORDER BY datetime(created_at) DESC, protocol_number DESC
	`, query, "%"+query+"%", protocol)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

// UpdateClient replaces the client data of a budget.
func UpdateClient(ctx context.Context, q Querier, id string, c Client) error {
	result, err := q.ExecContext(ctx, `
		UPDATE budgets
		SET client_name = ?, client_cpf_cnpj = ?, client_phone = ?, client_email = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, c.Name, c.Document, c.Phone, c.Email, id)
	if err != nil {
		return fmt.Errorf("update budget client: %w", err)
	}
	return checkAffected(result)
}

// UpdateStatus sets the status of a budget.
func UpdateStatus(ctx context.Context, q Querier, id, status string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE budgets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	if err != nil {
		return fmt.Errorf("update budget status: %w", err)
	}
	return checkAffected(result)
}

// UpdateRules stores the pricing rules of a budget.
func UpdateRules(ctx context.Context, q Querier, id string, r pricing.Rules) error {
	result, err := q.ExecContext(ctx, `
		UPDATE budgets
		SET
			markup_percentage = ?,
			rt_type = ?,
			rt_value = ?,
			rt_distribution = ?,
			labor_type = ?,
			labor_value = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.MarkupPercentage, r.RTType, r.RTValue, r.RTDistribution, r.LaborType, r.LaborValue, id)
	if err != nil {
		return fmt.Errorf("update budget rules: %w", err)
	}
	return checkAffected(result)
}

// SetBudgetTotal stores the cached grand total.
func SetBudgetTotal(ctx context.Context, q Querier, id string, total float64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE budgets SET total_amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, total, id)
	if err != nil {
		return fmt.Errorf("update budget total: %w", err)
	}
	return checkAffected(result)
}

// DeleteBudget removes a budget with its environments and items.
func DeleteBudget(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return checkAffected(result)
}
