// Package testhelpers provides a migrated and seeded SQLite database for tests.
package testhelpers

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cubo-casa/orcamentos/internal/db"
	"github.com/cubo-casa/orcamentos/internal/migrations"
	"github.com/cubo-casa/orcamentos/internal/seed"
)

// NewTestDB opens a SQLite database in a temporary directory, runs every
// migration and the startup seed. The database is closed when the test
// finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(ctx, database); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	return database
}

// AssertContains checks that body contains all specified fragments.
func AssertContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q", frag)
		}
	}
}
