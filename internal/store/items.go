package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Item is a line item of an environment. Quantity and PurchasePrice are
// authoritative; SalePrice and Subtotal are cached.
type Item struct {
	ID            string    `json:"id"`
	EnvironmentID string    `json:"environment_id"`
	Name          string    `json:"name"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchase_price"`
	SalePrice     float64   `json:"sale_price"`
	Subtotal      float64   `json:"subtotal"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const itemColumns = `
	id, environment_id, name, quantity, purchase_price, sale_price, subtotal, created_at, updated_at`

func scanItem(row rowScanner) (Item, error) {
	var it Item
	var created, updated timestamp
	err := row.Scan(
		&it.ID,
		&it.EnvironmentID,
		&it.Name,
		&it.Quantity,
		&it.PurchasePrice,
		&it.SalePrice,
		&it.Subtotal,
		&created,
		&updated,
	)
	if err != nil {
		return Item{}, err
	}
	it.CreatedAt = created.Time
	it.UpdatedAt = updated.Time
	return it, nil
}

// InsertItem stores a new item.
func InsertItem(ctx context.Context, q Querier, it Item) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO items (id, environment_id, name, quantity, purchase_price, sale_price, subtotal)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.EnvironmentID, it.Name, it.Quantity, it.PurchasePrice, it.SalePrice, it.Subtotal)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetItem loads one item.
func GetItem(ctx context.Context, q Querier, id string) (Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("query item: %w", err)
	}
	return it, nil
}

// ListItems returns the items of one environment in insertion order.
func ListItems(ctx context.Context, q Querier, environmentID string) ([]Item, error) {
	return queryItems(ctx, q, `
		SELECT `+itemColumns+`
		FROM items
		WHERE environment_id = ?
		ORDER BY datetime(created_at), rowid
	`, environmentID)
}

// ListBudgetItems returns every item of a budget in insertion order.
func ListBudgetItems(ctx context.Context, q Querier, budgetID string) ([]Item, error) {
	return queryItems(ctx, q, `
		SELECT i.id, i.environment_id, i.name, i.quantity, i.purchase_price, i.sale_price, i.subtotal, i.created_at, i.updated_at
		FROM items i
		JOIN environments e ON e.id = i.environment_id
		WHERE e.budget_id = ?
		ORDER BY datetime(i.created_at), i.rowid
	`, budgetID)
}

func queryItems(ctx context.Context, q Querier, query string, args ...any) ([]Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// UpdateItem stores the editable fields and cached values of an item.
func UpdateItem(ctx context.Context, q Querier, it Item) error {
	result, err := q.ExecContext(ctx, `
		UPDATE items
		SET name = ?, quantity = ?, purchase_price = ?, sale_price = ?, subtotal = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, it.Name, it.Quantity, it.PurchasePrice, it.SalePrice, it.Subtotal, it.ID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return checkAffected(result)
}

// SetItemPricing stores the cached sale price and subtotal of an item.
func SetItemPricing(ctx context.Context, q Querier, id string, salePrice, subtotal float64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE items SET sale_price = ?, subtotal = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, salePrice, subtotal, id)
	if err != nil {
		return fmt.Errorf("update item pricing: %w", err)
	}
	return checkAffected(result)
}

// DeleteItem removes one item.
func DeleteItem(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return checkAffected(result)
}
