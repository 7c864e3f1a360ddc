package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// Builder accumulates test data and inserts it in the correct order.
type Builder struct {
	t        *testing.T
	db       *sql.DB
	sessions []sessionData
}

// NewBuilder creates a builder for the given test database.
func NewBuilder(t *testing.T, db *sql.DB) *Builder {
	t.Helper()
	return &Builder{t: t, db: db}
}

// WithSession adds a session with optional configuration.
func (b *Builder) WithSession(id string, opts ...SessionOption) *Builder {
	session := defaultSession(id)
	for _, opt := range opts {
		opt(&session)
	}
	b.sessions = append(b.sessions, session)
	return b
}

// Build inserts all accumulated data into the database.
func (b *Builder) Build() {
	b.t.Helper()
	for _, session := range b.sessions {
		b.insertSession(session)
		b.insertItems(session.id, session.items)
	}
}

func (b *Builder) insertSession(session sessionData) {
	b.t.Helper()
	_, err := b.db.Exec(`
		INSERT INTO restock_sessions (id, user_id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.id, session.userID, session.name, session.status,
		session.createdAt.Unix(), session.updatedAt.Unix(),
	)
	require.NoError(b.t, err)
}

func (b *Builder) insertItems(sessionID string, items []ItemData) {
	b.t.Helper()
	for position, item := range items {
		_, err := b.db.Exec(`
			INSERT INTO restock_items (session_id, product_id, product_name, quantity,
				supplier_id, supplier_name, supplier_email, notes, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, item.ProductID, item.ProductName, item.Quantity,
			nullable(item.SupplierID), nullable(item.SupplierName),
			item.SupplierEmail, nullable(item.Notes), position,
		)
		require.NoError(b.t, err)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
