// Package covers assigns library images to environments by name.
package covers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/cubo-casa/orcamentos/internal/store"
)

// Resolve picks the cover of an environment. Mappings are tried by
// descending priority; a mapping matches when its pattern contains the
// environment name or the name contains the pattern, ignoring case. With
// no match the default URL is returned, which may be empty.
func Resolve(envName string, mappings []store.Mapping, defaultURL string) string {
	name := strings.ToLower(strings.TrimSpace(envName))
	if name == "" {
		return defaultURL
	}

	sorted := make([]store.Mapping, len(mappings))
	copy(sorted, mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	for _, m := range sorted {
		pattern := strings.ToLower(strings.TrimSpace(m.Pattern))
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, name) || strings.Contains(name, pattern) {
			return m.AssetURL
		}
	}
	return defaultURL
}

// Service applies covers to stored environments.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Apply sets a cover on every environment of the budget that has none and
// returns how many were set. Each applied asset has its usage counted.
func (s *Service) Apply(ctx context.Context, budgetID string) (int, error) {
	applied := 0
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := store.GetBudget(ctx, tx, budgetID); err != nil {
			return err
		}

		mappings, err := store.ListMappings(ctx, tx)
		if err != nil {
			return err
		}
		var defaultURL string
		def, err := store.GetDefaultAsset(ctx, tx)
		switch {
		case err == nil:
			defaultURL = def.URL
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		envs, err := store.ListEnvironments(ctx, tx, budgetID)
		if err != nil {
			return err
		}
		for _, env := range envs {
			if env.CoverImageURL != "" {
				continue
			}
			url := Resolve(env.Name, mappings, defaultURL)
			if url == "" {
				continue
			}
			if err := store.SetEnvironmentCover(ctx, tx, env.ID, url); err != nil {
				return err
			}
			if err := store.IncrementAssetUsage(ctx, tx, url); err != nil {
				return err
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("environment covers applied", "budget_id", budgetID, "applied", applied)
	return applied, nil
}
