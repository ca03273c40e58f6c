package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Environment is a room or area of a budget.
type Environment struct {
	ID            string    `json:"id"`
	BudgetID      string    `json:"budget_id"`
	TemplateID    string    `json:"template_id,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Position      int       `json:"position"`
	Subtotal      float64   `json:"subtotal"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const environmentColumns = `
	id, budget_id, template_id, name, description, cover_image_url, position, subtotal, created_at, updated_at`

func scanEnvironment(row rowScanner) (Environment, error) {
	var e Environment
	var templateID, cover sql.NullString
	var created, updated timestamp
	err := row.Scan(
		&e.ID,
		&e.BudgetID,
		&templateID,
		&e.Name,
		&e.Description,
		&cover,
		&e.Position,
		&e.Subtotal,
		&created,
		&updated,
	)
	if err != nil {
		return Environment{}, err
	}
	e.TemplateID = templateID.String
	e.CoverImageURL = cover.String
	e.CreatedAt = created.Time
	e.UpdatedAt = updated.Time
	return e, nil
}

// InsertEnvironment appends an environment at the end of its budget.
func InsertEnvironment(ctx context.Context, q Querier, e Environment) (Environment, error) {
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1 FROM environments WHERE budget_id = ?
	`, e.BudgetID).Scan(&e.Position)
	if err != nil {
		return Environment{}, fmt.Errorf("query environment position: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO environments (id, budget_id, template_id, name, description, cover_image_url, position, subtotal)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`, e.ID, e.BudgetID, nullString(e.TemplateID), e.Name, e.Description, nullString(e.CoverImageURL), e.Position)
	if err != nil {
		return Environment{}, fmt.Errorf("insert environment: %w", err)
	}
	return e, nil
}

// GetEnvironment loads one environment.
func GetEnvironment(ctx context.Context, q Querier, id string) (Environment, error) {
	e, err := scanEnvironment(q.QueryRowContext(ctx, `SELECT `+environmentColumns+` FROM environments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Environment{}, ErrNotFound
	}
	if err != nil {
		return Environment{}, fmt.Errorf("query environment: %w", err)
	}
	return e, nil
}

// ListEnvironments returns the environments of a budget in display order.
func ListEnvironments(ctx context.Context, q Querier, budgetID string) ([]Environment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+environmentColumns+`
		FROM environments
		WHERE budget_id = ?
		ORDER BY position, datetime(created_at)
	`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("query environments: %w", err)
	}
	defer rows.Close()

	envs := make([]Environment, 0)
	for rows.Next() {
		e, err := scanEnvironment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan environment: %w", err)
		}
		envs = append(envs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate environments: %w", err)
	}
	return envs, nil
}

// EnvironmentPatch holds the editable fields of an environment. Nil fields
// are left unchanged.
type EnvironmentPatch struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	CoverImageURL *string `json:"cover_image_url"`
}

// UpdateEnvironment applies patch to an environment.
func UpdateEnvironment(ctx context.Context, q Querier, id string, patch EnvironmentPatch) error {
	e, err := GetEnvironment(ctx, q, id)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		e.Name = *patch.Name
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.CoverImageURL != nil {
		e.CoverImageURL = *patch.CoverImageURL
	}

	result, err := q.ExecContext(ctx, `
		UPDATE environments
		SET name = ?, description = ?, cover_image_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, e.Name, e.Description, nullString(e.CoverImageURL), id)
	if err != nil {
		return fmt.Errorf("update environment: %w", err)
	}
	return checkAffected(result)
}

// SetEnvironmentCover stores the cover image of an environment.
func SetEnvironmentCover(ctx context.Context, q Querier, id, url string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE environments SET cover_image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, nullString(url), id)
	if err != nil {
		return fmt.Errorf("update environment cover: %w", err)
	}
	return checkAffected(result)
}

// SetEnvironmentSubtotal stores the cached subtotal of an environment.
func SetEnvironmentSubtotal(ctx context.Context, q Querier, id string, subtotal float64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE environments SET subtotal = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, subtotal, id)
	if err != nil {
		return fmt.Errorf("update environment subtotal: %w", err)
	}
	return checkAffected(result)
}

// DeleteEnvironment removes an environment and its items.
func DeleteEnvironment(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM environments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete environment: %w", err)
	}
	return checkAffected(result)
}
