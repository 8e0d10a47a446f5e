package db

import (
	"context"
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database migrated to SchemaVersion.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return NewTestDBAt(t, SchemaVersion)
}

// NewTestDBAt creates a fresh in-memory SQLite database migrated to version.
func NewTestDBAt(t *testing.T, version int) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := MigrateTo(context.Background(), db, version); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
