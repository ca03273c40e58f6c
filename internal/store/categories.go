package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Category groups assets. Categories may nest through ParentID.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const categoryColumns = `id, name, slug, parent_id, created_at, updated_at`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	var parent sql.NullString
	var created, updated timestamp
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &parent, &created, &updated); err != nil {
		return Category{}, err
	}
	c.ParentID = parent.String
	c.CreatedAt = created.Time
	c.UpdatedAt = updated.Time
	return c, nil
}

// InsertCategory stores a new category.
func InsertCategory(ctx context.Context, q Querier, c Category) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO asset_categories (id, name, slug, parent_id) VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, c.Slug, nullString(c.ParentID))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetCategory loads one category.
func GetCategory(ctx context.Context, q Querier, id string) (Category, error) {
	c, err := scanCategory(q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM asset_categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// SlugExists reports whether a category already uses slug.
func SlugExists(ctx context.Context, q Querier, slug string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset_categories WHERE slug = ?`, slug).Scan(&n); err != nil {
		return false, fmt.Errorf("query category slug: %w", err)
	}
	return n > 0, nil
}

// ListCategories returns every category by name.
func ListCategories(ctx context.Context, q Querier) ([]Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+categoryColumns+` FROM asset_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category. Children become top-level.
func DeleteCategory(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM asset_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkAffected(result)
}
