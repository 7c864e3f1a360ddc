// Package testutil provides test utilities for database setup.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"
)

// Schema mirrors the migrated store schema so tests can seed rows
// directly without running migrations.
const Schema = `
CREATE TABLE restock_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX idx_restock_sessions_user_status ON restock_sessions(user_id, status);

CREATE TABLE restock_items (
	session_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	supplier_id TEXT,
	supplier_name TEXT,
	supplier_email TEXT NOT NULL,
	notes TEXT,
	position INTEGER NOT NULL,
	PRIMARY KEY (session_id, product_id),
	FOREIGN KEY (session_id) REFERENCES restock_sessions(id) ON DELETE CASCADE
);
`

// NewTestDB creates an in-memory SQLite database with the store schema.
// The caller is responsible for closing the database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Each pooled connection gets its own ":memory:" database, so the
	// schema only exists on one of them. Pin the pool to a single conn.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return db
}
