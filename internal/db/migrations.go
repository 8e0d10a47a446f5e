package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the schema version this code writes and expects.
const SchemaVersion = 3

type migration struct {
	version int
	stmts   []string
}

// migrations bring the items table from an empty file to SchemaVersion.
// Each step is guarded by the stored version and runs in one transaction
// together with the version bump. Append new steps at the end; never drop or
// rename columns.
var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS items (
			    id       INTEGER PRIMARY KEY AUTOINCREMENT,
			    name     TEXT NOT NULL,
			    quantity INTEGER NOT NULL,
			    price    REAL NOT NULL
			)`,
		},
	},
	{
		version: 2,
		stmts: []string{
			`ALTER TABLE items ADD COLUMN warehouse TEXT NOT NULL DEFAULT 'Main'`,
			`ALTER TABLE items ADD COLUMN description TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_items_name ON items(name)`,
			`CREATE INDEX IF NOT EXISTS idx_items_warehouse ON items(warehouse)`,
		},
	},
	{
		version: 3,
		stmts: []string{
			// Existing rows keep a NULL updatedAt.
			`ALTER TABLE items ADD COLUMN updatedAt TEXT`,
		},
	},
}

// Version returns the schema version stored in the database file.
func Version(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Migrate upgrades the database to SchemaVersion.
func Migrate(ctx context.Context, db *sql.DB) error {
	return MigrateTo(ctx, db, SchemaVersion)
}

// MigrateTo applies every migration above the stored version up to and
// including target. A database already at or past target is left alone.
func MigrateTo(ctx context.Context, db *sql.DB, target int) error {
	current, err := Version(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current || m.version > target {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("running migration %d: %w", m.version, err)
		}
		current = m.version
	}

	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	return tx.Commit()
}
