package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpen_EnablesForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	database, err := Open(ctx, filepath.Join(t.TempDir(), "fk.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	database.SetMaxOpenConns(3)
	for i := 0; i < 3; i++ {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatalf("conn: %v", err)
		}
		var on int
		if err := conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&on); err != nil {
			t.Fatalf("query pragma: %v", err)
		}
		if on != 1 {
			t.Fatalf("foreign_keys = %d on connection %d, want 1", on, i)
		}
		defer conn.Close()
	}
}
