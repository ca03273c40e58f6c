package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cubo-casa/orcamentos/internal/store"
)

var defaultTemplates = []store.EnvironmentTemplate{
	{Name: "Cozinha", Description: "Ambiente da cozinha residencial"},
	{Name: "Sala de Estar", Description: "Ambiente da sala de estar"},
	{Name: "Quarto", Description: "Ambiente do quarto"},
}

var defaultCategories = []store.Category{
	{Name: "Capas", Slug: "capas"},
	{Name: "Ambientes", Slug: "ambientes"},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	stats := Stats{}

	err := store.InTx(ctx, db, func(tx *sql.Tx) error {
		if err := ensureSettings(ctx, tx, &stats); err != nil {
			return err
		}
		if err := ensurePageLayout(ctx, tx, &stats); err != nil {
			return err
		}
		if err := ensureTemplateSettings(ctx, tx, &stats); err != nil {
			return err
		}
		if err := ensureTemplates(ctx, tx, &stats); err != nil {
			return err
		}
		return ensureCategories(ctx, tx, &stats)
	})
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var ok bool
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func ensureSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	ok, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM settings WHERE id = 1)`)
	if err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}
	if ok {
		return nil
	}

	if err := store.SaveSettings(ctx, tx, store.DefaultSettings()); err != nil {
		return fmt.Errorf("insert settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensurePageLayout(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	ok, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM page_layouts WHERE id = 1)`)
	if err != nil {
		return fmt.Errorf("check page layout existence: %w", err)
	}
	if ok {
		return nil
	}

	if err := store.SavePageLayout(ctx, tx, store.DefaultPageLayout()); err != nil {
		return fmt.Errorf("insert page layout singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureTemplateSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	ok, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM proposal_template_settings WHERE id = 1)`)
	if err != nil {
		return fmt.Errorf("check template settings existence: %w", err)
	}
	if ok {
		return nil
	}

	if err := store.SaveTemplateSettings(ctx, tx, store.TemplateSettings{}); err != nil {
		return fmt.Errorf("insert template settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureTemplates(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, t := range defaultTemplates {
		ok, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM environment_templates WHERE name = ? LIMIT 1)`, t.Name)
		if err != nil {
			return fmt.Errorf("check environment template existence: %w", err)
		}
		if ok {
			continue
		}

		t.ID = store.NewID()
		if err := store.InsertTemplate(ctx, tx, t); err != nil {
			return fmt.Errorf("insert default environment template: %w", err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureCategories(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	for _, c := range defaultCategories {
		ok, err := store.SlugExists(ctx, tx, c.Slug)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		c.ID = store.NewID()
		if err := store.InsertCategory(ctx, tx, c); err != nil {
			return fmt.Errorf("insert default category: %w", err)
		}
		stats.Inserts++
	}
	return nil
}
