package store

import (
	"context"
	"fmt"
	"time"
)

// Mapping links an environment name pattern to a cover asset. Higher
// priority wins.
type Mapping struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"asset_id"`
	AssetURL  string    `json:"asset_url"`
	Pattern   string    `json:"environment_name_pattern"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertMapping stores a new mapping.
func InsertMapping(ctx context.Context, q Querier, m Mapping) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO asset_environment_mappings (id, asset_id, environment_name_pattern, priority)
		VALUES (?, ?, ?, ?)
	`, m.ID, m.AssetID, m.Pattern, m.Priority)
	if err != nil {
		return fmt.Errorf("insert mapping: %w", err)
	}
	return nil
}

// ListMappings returns every mapping with its asset URL, highest priority
// first.
func ListMappings(ctx context.Context, q Querier) ([]Mapping, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT m.id, m.asset_id, a.url, m.environment_name_pattern, m.priority, m.created_at
		FROM asset_environment_mappings m
		JOIN assets a ON a.id = m.asset_id
		ORDER BY m.priority DESC, datetime(m.created_at), m.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	mappings := make([]Mapping, 0)
	for rows.Next() {
		var m Mapping
		var created timestamp
		if err := rows.Scan(&m.ID, &m.AssetID, &m.AssetURL, &m.Pattern, &m.Priority, &created); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		m.CreatedAt = created.Time
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}
	return mappings, nil
}

// DeleteMapping removes one mapping.
func DeleteMapping(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM asset_environment_mappings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return checkAffected(result)
}
