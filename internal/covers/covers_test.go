package covers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cubo-casa/orcamentos/internal/covers"
	"github.com/cubo-casa/orcamentos/internal/logger"
	"github.com/cubo-casa/orcamentos/internal/store"
	"github.com/cubo-casa/orcamentos/internal/testhelpers"
)

func TestResolve(t *testing.T) {
	mappings := []store.Mapping{
		{Pattern: "sala", Priority: 1, AssetURL: "/files/sala.png"},
		{Pattern: "Sala de Estar", Priority: 10, AssetURL: "/files/estar.png"},
		{Pattern: "cozinha gourmet", Priority: 5, AssetURL: "/files/gourmet.png"},
		{Pattern: "  ", Priority: 99, AssetURL: "/files/blank.png"},
	}

	tests := []struct {
		name string
		env  string
		def  string
		want string
	}{
		{name: "higher priority wins", env: "Sala de Estar", want: "/files/estar.png"},
		{name: "name contains pattern", env: "Sala de Jantar", want: "/files/sala.png"},
		{name: "pattern contains name", env: "Cozinha", want: "/files/gourmet.png"},
		{name: "case insensitive", env: "COZINHA GOURMET", want: "/files/gourmet.png"},
		{name: "fallback to default", env: "Garagem", def: "/files/default.png", want: "/files/default.png"},
		{name: "no default", env: "Garagem", want: ""},
		{name: "empty name uses default", env: "", def: "/files/default.png", want: "/files/default.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := covers.Resolve(tt.env, mappings, tt.def); got != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	database := testhelpers.NewTestDB(t)
	ctx := context.Background()

	for _, a := range []store.Asset{
		{ID: "sala", URL: "/files/sala.png", StorageKey: "sala.png", MimeType: "image/png", Checksum: "1"},
		{ID: "def", URL: "/files/def.png", StorageKey: "def.png", MimeType: "image/png", Checksum: "2"},
	} {
		if err := store.InsertAsset(ctx, database, a); err != nil {
			t.Fatalf("insert asset: %v", err)
		}
	}
	if err := store.SetDefaultAsset(ctx, database, "def"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if err := store.InsertMapping(ctx, database, store.Mapping{ID: "m1", AssetID: "sala", Pattern: "sala", Priority: 1}); err != nil {
		t.Fatalf("insert mapping: %v", err)
	}

	b := store.Budget{ID: "b1", ProtocolNumber: 1, Client: store.Client{Name: "Cliente"}, Status: store.StatusEditing}
	if err := store.InsertBudget(ctx, database, b); err != nil {
		t.Fatalf("insert budget: %v", err)
	}
	envs := []store.Environment{
		{ID: "e1", BudgetID: "b1", Name: "Sala de TV"},
		{ID: "e2", BudgetID: "b1", Name: "Garagem"},
		{ID: "e3", BudgetID: "b1", Name: "Quarto", CoverImageURL: "/files/custom.png"},
	}
	for _, e := range envs {
		if _, err := store.InsertEnvironment(ctx, database, e); err != nil {
			t.Fatalf("insert environment: %v", err)
		}
	}

	svc := covers.NewService(database, logger.Discard())
	applied, err := svc.Apply(ctx, "b1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}

	want := map[string]string{"e1": "/files/sala.png", "e2": "/files/def.png", "e3": "/files/custom.png"}
	for id, url := range want {
		env, err := store.GetEnvironment(ctx, database, id)
		if err != nil {
			t.Fatalf("get environment: %v", err)
		}
		if env.CoverImageURL != url {
			t.Fatalf("environment %s cover = %q, want %q", id, env.CoverImageURL, url)
		}
	}

	sala, _ := store.GetAsset(ctx, database, "sala")
	if sala.UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", sala.UsageCount)
	}

	again, err := svc.Apply(ctx, "b1")
	if err != nil || again != 0 {
		t.Fatalf("second apply = %d (%v), want 0", again, err)
	}

	if _, err := svc.Apply(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
