package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Asset is an image of the asset library.
type Asset struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	StorageKey    string    `json:"storage_key"`
	MimeType      string    `json:"mime_type"`
	Checksum      string    `json:"checksum"`
	SizeBytes     int64     `json:"size_bytes"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	Categories    []string  `json:"categories"`
	Tags          []string  `json:"tags"`
	CopyrightInfo string    `json:"copyright_info"`
	UsageCount    int       `json:"usage_count"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssetFilter narrows ListAssets. Categories and Tags match when the asset
// shares at least one value. Search matches a tag exactly or the copyright
// info as a case-insensitive substring.
type AssetFilter struct {
	Categories []string
	Tags       []string
	Search     string
}

const assetColumns = `
	id, url, storage_key, mime_type, checksum, size_bytes, width, height,
	categories, tags, copyright_info, usage_count, is_default, created_at, updated_at`

func scanAsset(row rowScanner) (Asset, error) {
	var a Asset
	var width, height sql.NullInt64
	var categories, tags stringList
	var created, updated timestamp
	err := row.Scan(
		&a.ID,
		&a.URL,
		&a.StorageKey,
		&a.MimeType,
		&a.Checksum,
		&a.SizeBytes,
		&width,
		&height,
		&categories,
		&tags,
		&a.CopyrightInfo,
		&a.UsageCount,
		&a.IsDefault,
		&created,
		&updated,
	)
	if err != nil {
		return Asset{}, err
	}
	a.Width = int(width.Int64)
	a.Height = int(height.Int64)
	a.Categories = categories
	a.Tags = tags
	a.CreatedAt = created.Time
	a.UpdatedAt = updated.Time
	return a, nil
}

// InsertAsset stores a new asset.
func InsertAsset(ctx context.Context, q Querier, a Asset) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO assets (
			id, url, storage_key, mime_type, checksum, size_bytes, width, height,
			categories, tags, copyright_info, usage_count, is_default
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, FALSE)
	`,
		a.ID, a.URL, a.StorageKey, a.MimeType, a.Checksum, a.SizeBytes,
		nullInt(a.Width), nullInt(a.Height),
		encodeList(a.Categories), encodeList(a.Tags), a.CopyrightInfo,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetAsset loads one asset.
func GetAsset(ctx context.Context, q Querier, id string) (Asset, error) {
	return getAssetWhere(ctx, q, `id = ?`, id)
}

// GetAssetByChecksum loads the asset with the given content checksum.
func GetAssetByChecksum(ctx context.Context, q Querier, checksum string) (Asset, error) {
	return getAssetWhere(ctx, q, `checksum = ?`, checksum)
}

// GetDefaultAsset loads the asset flagged as default.
func GetDefaultAsset(ctx context.Context, q Querier) (Asset, error) {
	return getAssetWhere(ctx, q, `is_default = TRUE`)
}

func getAssetWhere(ctx context.Context, q Querier, where string, args ...any) (Asset, error) {
	a, err := scanAsset(q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE `+where+` LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, ErrNotFound
	}
	if err != nil {
		return Asset{}, fmt.Errorf("query asset: %w", err)
	}
	return a, nil
}

// ListAssets returns the assets matching f, newest first.
func ListAssets(ctx context.Context, q Querier, f AssetFilter) ([]Asset, error) {
	var where []string
	var args []any

	if len(f.Categories) > 0 {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(assets.categories) WHERE value IN (`+placeholders(len(f.Categories))+`))`)
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if len(f.Tags) > 0 {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(assets.tags) WHERE value IN (`+placeholders(len(f.Tags))+`))`)
		for _, t := range f.Tags {
			args = append(args, t)
		}
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		where = append(where, `(EXISTS (SELECT 1 FROM json_each(assets.tags) WHERE value = ?) OR lower(copyright_info) LIKE ?)`)
		args = append(args, search, "%"+strings.ToLower(search)+"%")
	}

	query := `SELECT ` + assetColumns + ` FROM assets`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY datetime(created_at) DESC, rowid DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

// UpdateAssetMetadata replaces the categories, tags and copyright of an asset.
func UpdateAssetMetadata(ctx context.Context, q Querier, id string, categories, tags []string, copyright string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE assets
		SET categories = ?, tags = ?, copyright_info = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, encodeList(categories), encodeList(tags), copyright, id)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return checkAffected(result)
}

// SetDefaultAsset clears the default flag on every asset and sets it on id.
// An empty id only clears.
func SetDefaultAsset(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, `UPDATE assets SET is_default = FALSE WHERE is_default = TRUE`); err != nil {
		return fmt.Errorf("clear default asset: %w", err)
	}
	if id == "" {
		return nil
	}
	result, err := q.ExecContext(ctx, `
		UPDATE assets SET is_default = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("set default asset: %w", err)
	}
	return checkAffected(result)
}

// IncrementAssetUsage bumps the usage counter of the asset served at url.
func IncrementAssetUsage(ctx context.Context, q Querier, url string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE assets SET usage_count = usage_count + 1, updated_at = CURRENT_TIMESTAMP WHERE url = ?
	`, url)
	if err != nil {
		return fmt.Errorf("increment asset usage: %w", err)
	}
	return nil
}

// DeleteAsset removes one asset.
func DeleteAsset(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return checkAffected(result)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v > 0}
}
