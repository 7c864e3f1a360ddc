package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuilder_WithSession(t *testing.T) {
	db := NewTestDB(t)
	defer func() { _ = db.Close() }()

	NewBuilder(t, db).
		WithSession("sess-1").
		Build()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM restock_sessions`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var id, userID, name, status string
	err = db.QueryRow(`SELECT id, user_id, name, status FROM restock_sessions WHERE id = ?`, "sess-1").
		Scan(&id, &userID, &name, &status)
	require.NoError(t, err)
	require.Equal(t, "sess-1", id)
	require.Equal(t, "user-test", userID)
	require.Equal(t, "sess-1", name) // default name is the ID
	require.Equal(t, "draft", status)
}

func TestBuilder_WithSession_AllOptions(t *testing.T) {
	db := NewTestDB(t)
	defer func() { _ = db.Close() }()

	now := time.Now().Truncate(time.Second)

	NewBuilder(t, db).
		WithSession("sess-1",
			ForUser("user-amy"),
			Name("Weekly restock"),
			Status("email_generated"),
			CreatedAt(now),
			UpdatedAt(now),
		).
		Build()

	var userID, name, status string
	var createdAt, updatedAt int64
	err := db.QueryRow(`SELECT user_id, name, status, created_at, updated_at FROM restock_sessions WHERE id = ?`, "sess-1").
		Scan(&userID, &name, &status, &createdAt, &updatedAt)
	require.NoError(t, err)
	require.Equal(t, "user-amy", userID)
	require.Equal(t, "Weekly restock", name)
	require.Equal(t, "email_generated", status)
	require.Equal(t, now.Unix(), createdAt)
	require.Equal(t, now.Unix(), updatedAt)
}

func TestBuilder_Items_PreserveOrderAndNulls(t *testing.T) {
	db := NewTestDB(t)
	defer func() { _ = db.Close() }()

	second := Item("prod-2", 5, "b@supplier.example")
	second.Notes = "back shelf"

	NewBuilder(t, db).
		WithSession("sess-1", Items(
			Item("prod-1", 3, "a@supplier.example"),
			second,
		)).
		Build()

	rows, err := db.Query(`SELECT product_id, position, notes FROM restock_items WHERE session_id = ? ORDER BY position`, "sess-1")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	type line struct {
		productID string
		position  int
		notes     *string
	}
	var lines []line
	for rows.Next() {
		var l line
		require.NoError(t, rows.Scan(&l.productID, &l.position, &l.notes))
		lines = append(lines, l)
	}
	require.NoError(t, rows.Err())
	require.Len(t, lines, 2)
	require.Equal(t, "prod-1", lines[0].productID)
	require.Equal(t, 0, lines[0].position)
	require.Nil(t, lines[0].notes)
	require.Equal(t, "prod-2", lines[1].productID)
	require.Equal(t, 1, lines[1].position)
	require.NotNil(t, lines[1].notes)
	require.Equal(t, "back shelf", *lines[1].notes)
}
