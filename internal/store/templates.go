package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EnvironmentTemplate is a reusable environment preset.
type EnvironmentTemplate struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DefaultImageURL string    `json:"default_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

const templateColumns = `id, name, description, default_image_url, created_at, updated_at`

func scanTemplate(row rowScanner) (EnvironmentTemplate, error) {
	var t EnvironmentTemplate
	var created, updated timestamp
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.DefaultImageURL, &created, &updated); err != nil {
		return EnvironmentTemplate{}, err
	}
	t.CreatedAt = created.Time
	t.UpdatedAt = updated.Time
	return t, nil
}

// InsertTemplate stores a new environment template.
func InsertTemplate(ctx context.Context, q Querier, t EnvironmentTemplate) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO environment_templates (id, name, description, default_image_url)
		VALUES (?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, t.DefaultImageURL)
	if err != nil {
		return fmt.Errorf("insert environment template: %w", err)
	}
	return nil
}

// GetTemplate loads one environment template.
func GetTemplate(ctx context.Context, q Querier, id string) (EnvironmentTemplate, error) {
	t, err := scanTemplate(q.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM environment_templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return EnvironmentTemplate{}, ErrNotFound
	}
	if err != nil {
		return EnvironmentTemplate{}, fmt.Errorf("query environment template: %w", err)
	}
	return t, nil
}

// ListTemplates returns every environment template by name.
func ListTemplates(ctx context.Context, q Querier) ([]EnvironmentTemplate, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+templateColumns+` FROM environment_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query environment templates: %w", err)
	}
	defer rows.Close()

	templates := make([]EnvironmentTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan environment template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate environment templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate replaces the fields of an environment template.
func UpdateTemplate(ctx context.Context, q Querier, t EnvironmentTemplate) error {
	result, err := q.ExecContext(ctx, `
		UPDATE environment_templates
		SET name = ?, description = ?, default_image_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, t.Name, t.Description, t.DefaultImageURL, t.ID)
	if err != nil {
		return fmt.Errorf("update environment template: %w", err)
	}
	return checkAffected(result)
}

// DeleteTemplate removes an environment template. Environments created from
// it keep their data.
func DeleteTemplate(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM environment_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete environment template: %w", err)
	}
	return checkAffected(result)
}
