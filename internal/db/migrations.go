package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Schema steps are append-only. A step is recorded in schema_version in the
// same transaction that applies it.
var migrations = []struct {
	version int
	name    string
	sql     string
}{
	{1, "initial_schema", initialSchemaV1},
	{2, "notifications", notificationsSchemaV2},
	{3, "webhooks", webhooksSchemaV3},
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	applied_at  TEXT NOT NULL
);`

// ApplyMigrations brings database up to the latest schema. Running it on an
// up-to-date database is a no-op.
func ApplyMigrations(database *sql.DB) error {
	ctx := context.Background()
	if _, err := database.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	applied, err := appliedVersions(ctx, database)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := withTx(ctx, database, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, formatTime(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied schema version, or 0 on a fresh
// database.
func SchemaVersion(ctx context.Context, database *sql.DB) (int, error) {
	var v int
	err := database.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v)
	return v, err
}

func appliedVersions(ctx context.Context, database *sql.DB) (map[int]bool, error) {
	rows, err := database.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("read schema_version: %w", err)
	}
	defer rows.Close()

	out := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}
