package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSessionSnapshot_RoundTrip(t *testing.T) {
	session, err := CreateSession(CreateSessionParams{ID: "sess-1", UserID: "user-1", Name: "weekly"})
	require.NoError(t, err)
	session, _, err = AddItemToSession(session, validInput())
	require.NoError(t, err)
	second := validInput()
	second.ProductID = "prod-2"
	second.ProductName = "Gadget"
	second.Notes = ""
	session, _, err = AddItemToSession(session, second)
	require.NoError(t, err)
	session, err = MarkSessionReadyForEmails(session)
	require.NoError(t, err)

	restored, err := SessionFromSnapshot(session.Snapshot())
	require.NoError(t, err)

	require.Equal(t, session.ID(), restored.ID())
	require.Equal(t, session.UserID(), restored.UserID())
	require.Equal(t, session.Name(), restored.Name())
	require.Equal(t, session.Status(), restored.Status())
	require.Equal(t, session.CreatedAt(), restored.CreatedAt())
	require.Equal(t, session.UpdatedAt(), restored.UpdatedAt())
	require.Equal(t, session.Items(), restored.Items())
}

func TestSessionFromSnapshot_Corrupted(t *testing.T) {
	base := func() SessionSnapshot {
		return SessionSnapshot{
			ID:        "sess-1",
			UserID:    "user-1",
			Name:      "weekly",
			Status:    "draft",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
			Items: []ItemSnapshot{{
				ProductID:     "prod-1",
				ProductName:   "Widget",
				Quantity:      5,
				SupplierEmail: "orders@acme.example",
			}},
		}
	}

	t.Run("empty id", func(t *testing.T) {
		snap := base()
		snap.ID = ""
		_, err := SessionFromSnapshot(snap)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		require.Equal(t, "id", ve.Field)
	})

	t.Run("missing owner", func(t *testing.T) {
		snap := base()
		snap.UserID = ""
		_, err := SessionFromSnapshot(snap)
		require.ErrorIs(t, err, ErrEmptyUserID)
	})

	t.Run("unknown status", func(t *testing.T) {
		snap := base()
		snap.Status = "archived"
		_, err := SessionFromSnapshot(snap)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		require.Equal(t, "status", ve.Field)
	})

	t.Run("zero createdAt", func(t *testing.T) {
		snap := base()
		snap.CreatedAt = time.Time{}
		_, err := SessionFromSnapshot(snap)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		require.Equal(t, "createdAt", ve.Field)
	})

	t.Run("tampered quantity", func(t *testing.T) {
		snap := base()
		snap.Items[0].Quantity = -7
		_, err := SessionFromSnapshot(snap)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		require.Equal(t, "quantity", ve.Field)
	})

	t.Run("duplicate product", func(t *testing.T) {
		snap := base()
		snap.Items = append(snap.Items, snap.Items[0])
		_, err := SessionFromSnapshot(snap)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		require.Equal(t, "items", ve.Field)
	})
}

func TestSessionFromSnapshot_FillsDefaults(t *testing.T) {
	created := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)
	snap := SessionSnapshot{
		ID:        "sess-1",
		UserID:    "user-1",
		Status:    "draft",
		CreatedAt: created,
	}

	session, err := SessionFromSnapshot(snap)
	require.NoError(t, err)
	require.Equal(t, DefaultName(created), session.Name())
	require.Equal(t, created, session.UpdatedAt(), "zero updatedAt falls back to createdAt")
}

// TestSessionSnapshot_RoundTrip_Property builds random valid sessions through
// the domain service and verifies snapshot round-trips are lossless.
func TestSessionSnapshot_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		session, err := CreateSession(CreateSessionParams{
			UserID: rapid.StringMatching(`user-[a-z0-9]{4,10}`).Draw(r, "userId"),
			Name:   rapid.StringMatching(`[A-Za-z ]{0,20}`).Draw(r, "name"),
		})
		require.NoError(t, err)

		numItems := rapid.IntRange(0, 8).Draw(r, "numItems")
		for i := 0; i < numItems; i++ {
			session, _, err = AddItemToSession(session, ItemInput{
				ProductID:     rapid.StringMatching(`prod-[a-z0-9]{4}`).Draw(r, "productId") + string(rune('a'+i)),
				ProductName:   rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(r, "productName"),
				Quantity:      rapid.IntRange(1, 9999).Draw(r, "quantity"),
				SupplierEmail: rapid.StringMatching(`[a-z]{1,8}@[a-z]{1,8}\.[a-z]{2,4}`).Draw(r, "email"),
				Notes:         rapid.StringMatching(`[a-z ]{0,16}`).Draw(r, "notes"),
			})
			require.NoError(t, err)
		}

		restored, err := SessionFromSnapshot(session.Snapshot())
		require.NoError(t, err)
		require.Equal(t, session.Snapshot(), restored.Snapshot())
	})
}
