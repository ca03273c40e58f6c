package assets

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cubo-casa/orcamentos/internal/slug"
	"github.com/cubo-casa/orcamentos/internal/store"
)

// CreateCategory adds a category with a unique slug derived from name.
func (s *Service) CreateCategory(ctx context.Context, name, parentID string) (store.Category, error) {
	name = strings.TrimSpace(name)
	base := slug.Make(name)
	if base == "" {
		return store.Category{}, fmt.Errorf("%w: nome da categoria é obrigatório", ErrInvalidInput)
	}

	c := store.Category{ID: store.NewID(), Name: name, ParentID: strings.TrimSpace(parentID)}
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if c.ParentID != "" {
			if _, err := store.GetCategory(ctx, tx, c.ParentID); err != nil {
				return err
			}
		}

		c.Slug = base
		for n := 2; ; n++ {
			taken, err := store.SlugExists(ctx, tx, c.Slug)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			c.Slug = fmt.Sprintf("%s-%d", base, n)
		}

		if err := store.InsertCategory(ctx, tx, c); err != nil {
			return err
		}
		return store.InsertChangeLog(ctx, tx, store.EntityCategory, c.ID, store.ActionCreate, map[string]string{"name": c.Name, "slug": c.Slug})
	})
	if err != nil {
		return store.Category{}, err
	}
	return store.GetCategory(ctx, s.db, c.ID)
}

// ListCategories returns every category by name.
func (s *Service) ListCategories(ctx context.Context) ([]store.Category, error) {
	return store.ListCategories(ctx, s.db)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := store.DeleteCategory(ctx, tx, id); err != nil {
			return err
		}
		return store.InsertChangeLog(ctx, tx, store.EntityCategory, id, store.ActionDelete, nil)
	})
}

// CreateMapping links an environment name pattern to an asset.
func (s *Service) CreateMapping(ctx context.Context, assetID, pattern string, priority int) (store.Mapping, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return store.Mapping{}, fmt.Errorf("%w: padrão do ambiente é obrigatório", ErrInvalidInput)
	}

	a, err := store.GetAsset(ctx, s.db, assetID)
	if err != nil {
		return store.Mapping{}, err
	}

	m := store.Mapping{ID: store.NewID(), AssetID: a.ID, AssetURL: a.URL, Pattern: pattern, Priority: priority}
	if err := store.InsertMapping(ctx, s.db, m); err != nil {
		return store.Mapping{}, err
	}
	return m, nil
}

// ListMappings returns every mapping, highest priority first.
func (s *Service) ListMappings(ctx context.Context) ([]store.Mapping, error) {
	return store.ListMappings(ctx, s.db)
}

// DeleteMapping removes one mapping.
func (s *Service) DeleteMapping(ctx context.Context, id string) error {
	return store.DeleteMapping(ctx, s.db, id)
}
