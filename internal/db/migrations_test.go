package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestMigrationsIdempotentAndLatestVersionApplied(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "migrations.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("first migration apply: %v", err)
	}
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("second migration apply: %v", err)
	}

	latest, err := SchemaVersion(ctx, database)
	if err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if latest != len(migrations) {
		t.Fatalf("expected latest schema version %d, got %d", len(migrations), latest)
	}

	var rows int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_version`).Scan(&rows); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if rows != len(migrations) {
		t.Fatalf("expected %d schema_version rows after re-apply, got %d", len(migrations), rows)
	}
}

func TestForeignKeysEnabledOnEveryConnection(t *testing.T) {
	database, _ := openTestDB(t, "pragmas.db")
	defer database.Close()

	ctx := context.Background()
	conns := make([]*sql.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		conns = append(conns, conn)
		var fk int
		if err := conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
			t.Fatalf("read pragma: %v", err)
		}
		if fk != 1 {
			t.Fatalf("connection %d has foreign_keys=%d", i, fk)
		}
	}
	for _, c := range conns {
		_ = c.Close()
	}
}

func openTestDB(t *testing.T, name string) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	database, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database, path
}

func strPtr(v string) *string { return &v }
