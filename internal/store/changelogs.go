package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Change log entity types and actions.
const (
	EntityAsset    = "asset"
	EntityCategory = "category"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeLog records one mutation of the asset library.
type ChangeLog struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	Changes    json.RawMessage `json:"changes"`
	CreatedAt  time.Time       `json:"created_at"`
}

// InsertChangeLog stores a change log entry. changes is encoded as JSON.
func InsertChangeLog(ctx context.Context, q Querier, entityType, entityID, action string, changes any) error {
	raw := []byte("{}")
	if changes != nil {
		encoded, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("encode changes: %w", err)
		}
		raw = encoded
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO asset_change_logs (id, entity_type, entity_id, action, changes)
		VALUES (?, ?, ?, ?, ?)
	`, NewID(), entityType, entityID, action, string(raw))
	if err != nil {
		return fmt.Errorf("insert change log: %w", err)
	}
	return nil
}

// ListChangeLogs returns the change log of one entity, newest first.
func ListChangeLogs(ctx context.Context, q Querier, entityType, entityID string) ([]ChangeLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, changes, created_at
		FROM asset_change_logs
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY datetime(created_at) DESC, rowid DESC
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query change logs: %w", err)
	}
	defer rows.Close()

	logs := make([]ChangeLog, 0)
	for rows.Next() {
		var l ChangeLog
		var changes string
		var created timestamp
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Action, &changes, &created); err != nil {
			return nil, fmt.Errorf("scan change log: %w", err)
		}
		l.Changes = json.RawMessage(changes)
		l.CreatedAt = created.Time
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change logs: %w", err)
	}
	return logs, nil
}
