package assets

import (
	"context"
	"database/sql"

	"github.com/cubo-casa/orcamentos/internal/store"
)

// TemplateSettings returns the proposal asset selection.
func (s *Service) TemplateSettings(ctx context.Context) (store.TemplateSettings, error) {
	return store.GetTemplateSettings(ctx, s.db)
}

// DefaultAsset returns the asset used for environments without a cover.
func (s *Service) DefaultAsset(ctx context.Context) (store.Asset, error) {
	return store.GetDefaultAsset(ctx, s.db)
}

// SetDefault marks id as the only default asset. An empty id clears it.
func (s *Service) SetDefault(ctx context.Context, id string) (store.TemplateSettings, error) {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := store.SetDefaultAsset(ctx, tx, id); err != nil {
			return err
		}
		ts, err := store.GetTemplateSettings(ctx, tx)
		if err != nil {
			return err
		}
		ts.DefaultEnvironmentAssetID = id
		if err := store.SaveTemplateSettings(ctx, tx, ts); err != nil {
			return err
		}
		if id == "" {
			return nil
		}
		return store.InsertChangeLog(ctx, tx, store.EntityAsset, id, store.ActionUpdate, map[string]bool{"is_default": true})
	})
	if err != nil {
		return store.TemplateSettings{}, err
	}
	return store.GetTemplateSettings(ctx, s.db)
}

// SetMainCover selects the asset printed on the proposal cover. An empty
// id clears it.
func (s *Service) SetMainCover(ctx context.Context, id string) (store.TemplateSettings, error) {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if id != "" {
			if _, err := store.GetAsset(ctx, tx, id); err != nil {
				return err
			}
		}
		ts, err := store.GetTemplateSettings(ctx, tx)
		if err != nil {
			return err
		}
		ts.MainCoverAssetID = id
		return store.SaveTemplateSettings(ctx, tx, ts)
	})
	if err != nil {
		return store.TemplateSettings{}, err
	}
	return store.GetTemplateSettings(ctx, s.db)
}
