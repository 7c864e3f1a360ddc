package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	before := time.Now()
	session, err := NewSession("sess-1", "user-1", "January restock")
	after := time.Now()

	require.NoError(t, err)
	require.Equal(t, "sess-1", session.ID())
	require.Equal(t, "user-1", session.UserID())
	require.Equal(t, "January restock", session.Name())
	require.Equal(t, StatusDraft, session.Status())
	require.Zero(t, session.ItemCount())

	require.False(t, session.CreatedAt().Before(before), "createdAt should be >= before")
	require.False(t, session.CreatedAt().After(after), "createdAt should be <= after")
	require.Equal(t, session.CreatedAt(), session.UpdatedAt(), "createdAt and updatedAt should match for new session")
}

func TestNewSession_EmptyUserID(t *testing.T) {
	_, err := NewSession("sess-1", "", "name")
	require.ErrorIs(t, err, ErrEmptyUserID)

	_, err = NewSession("sess-1", "   ", "name")
	require.ErrorIs(t, err, ErrEmptyUserID)
}

func TestNewSession_Defaults(t *testing.T) {
	session, err := NewSession("", "user-1", "")
	require.NoError(t, err)

	require.True(t, session.HasLocalID(), "empty id should be replaced with a local id")
	require.True(t, IsLocalID(session.ID()))
	require.Equal(t, DefaultName(session.CreatedAt()), session.Name())
	require.Contains(t, session.Name(), "Restock ")
}

func TestNewLocalID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := NewLocalID()
		require.True(t, IsLocalID(id))
		_, dup := seen[id]
		require.False(t, dup, "local ids should not repeat")
		seen[id] = struct{}{}
	}
	require.False(t, IsLocalID("srv-123"))
}

func TestSession_ItemsReturnsCopy(t *testing.T) {
	session, err := NewSession("sess-1", "user-1", "")
	require.NoError(t, err)
	session, _, err = AddItemToSession(session, validInput())
	require.NoError(t, err)

	items := session.Items()
	require.Len(t, items, 1)

	// Mutating the returned slice must not reach the entity.
	items[0] = RestockItem{}
	fresh, ok := session.Item("prod-1")
	require.True(t, ok)
	require.Equal(t, "Widget", fresh.ProductName())
}

func TestSession_Item(t *testing.T) {
	session, err := NewSession("sess-1", "user-1", "")
	require.NoError(t, err)

	_, ok := session.Item("prod-1")
	require.False(t, ok)

	session, _, err = AddItemToSession(session, validInput())
	require.NoError(t, err)

	item, ok := session.Item("prod-1")
	require.True(t, ok)
	require.Equal(t, 5, item.Quantity())
}

func TestSession_WithID(t *testing.T) {
	session, err := NewSession("", "user-1", "")
	require.NoError(t, err)
	require.True(t, session.HasLocalID())

	durable := session.WithID("srv-42")
	require.Equal(t, "srv-42", durable.ID())
	require.False(t, durable.HasLocalID())

	// Original unchanged.
	require.True(t, session.HasLocalID())
	require.Equal(t, session.UserID(), durable.UserID())
	require.Equal(t, session.Status(), durable.Status())
}

func TestSession_WithName(t *testing.T) {
	session, err := NewSession("sess-1", "user-1", "old")
	require.NoError(t, err)

	renamed := session.WithName("new")
	require.Equal(t, "new", renamed.Name())
	require.Equal(t, "old", session.Name(), "original should be untouched")
	require.False(t, renamed.UpdatedAt().Before(session.UpdatedAt()))
}

func TestDefaultName(t *testing.T) {
	ts := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "Restock Mar 9, 2026", DefaultName(ts))
}
