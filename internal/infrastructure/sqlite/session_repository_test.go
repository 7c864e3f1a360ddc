package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/restock/internal/restock/domain"
	"github.com/zjrosen/restock/internal/testutil"
)

// setupTestRepo creates a new DB and returns the repository for testing.
// The DB is closed when the test completes.
func setupTestRepo(t *testing.T) *SessionRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })
	return NewSessionRepository(db)
}

func newDraft(t *testing.T, userID, name string) *domain.RestockSession {
	t.Helper()
	session, err := domain.NewSession("", userID, name)
	require.NoError(t, err)
	return session
}

func testItem(t *testing.T, productID string, quantity int) domain.RestockItem {
	t.Helper()
	item, err := domain.NewItem(domain.ItemInput{
		ProductID:     productID,
		ProductName:   "Widget " + productID,
		Quantity:      quantity,
		SupplierID:    "sup-1",
		SupplierName:  "Acme Supply",
		SupplierEmail: "orders@acme.example",
		Notes:         "back shelf",
	})
	require.NoError(t, err)
	return item
}

func TestSessionRepository_CreateAndFindByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	session := newDraft(t, "user-1", "January restock")
	withItem, _, err := domain.AddItemToSession(session, domain.ItemInput{
		ProductID:     "prod-1",
		ProductName:   "Widget",
		Quantity:      5,
		SupplierID:    "sup-1",
		SupplierName:  "Acme Supply",
		SupplierEmail: "orders@acme.example",
	})
	require.NoError(t, err)

	id, err := repo.Create(ctx, withItem)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NotEqual(t, withItem.ID(), id, "durable id replaces the client id")

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, found.ID())
	require.Equal(t, "user-1", found.UserID())
	require.Equal(t, "January restock", found.Name())
	require.Equal(t, domain.StatusDraft, found.Status())
	require.Equal(t, 1, found.ItemCount())
	require.WithinDuration(t, withItem.CreatedAt(), found.CreatedAt(), time.Second)

	item, ok := found.Item("prod-1")
	require.True(t, ok)
	require.Equal(t, "Widget", item.ProductName())
	require.Equal(t, 5, item.Quantity())
	require.Equal(t, "orders@acme.example", item.SupplierEmail())
}

func TestSessionRepository_FindByIDNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindByID(context.Background(), "missing")
	var nf *domain.SessionNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "missing", nf.SessionID)
}

func TestSessionRepository_AddItemPreservesOrderAndUpserts(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDraft(t, "user-1", ""))
	require.NoError(t, err)

	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-1", 5)))
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-2", 3)))
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-3", 7)))

	// Re-adding prod-1 replaces quantity but keeps its first position.
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-1", 11)))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	items := found.Items()
	require.Len(t, items, 3)
	require.Equal(t, "prod-1", items[0].ProductID())
	require.Equal(t, 11, items[0].Quantity())
	require.Equal(t, "prod-2", items[1].ProductID())
	require.Equal(t, "prod-3", items[2].ProductID())
}

func TestSessionRepository_AddItemMissingSession(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.AddItem(context.Background(), "missing", testItem(t, "prod-1", 5))
	var nf *domain.SessionNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSessionRepository_RemoveItemIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDraft(t, "user-1", ""))
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-1", 5)))

	require.NoError(t, repo.RemoveItem(ctx, id, "prod-1"))
	require.NoError(t, repo.RemoveItem(ctx, id, "prod-1"))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, found.ItemCount())
}

func TestSessionRepository_UpdateItemPartial(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDraft(t, "user-1", ""))
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-1", 5)))

	qty := 9
	email := "purchasing@acme.example"
	require.NoError(t, repo.UpdateItem(ctx, id, "prod-1", domain.ItemUpdate{
		Quantity:      &qty,
		SupplierEmail: &email,
	}))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	item, ok := found.Item("prod-1")
	require.True(t, ok)
	require.Equal(t, 9, item.Quantity())
	require.Equal(t, "purchasing@acme.example", item.SupplierEmail())
	// Untouched fields survive.
	require.Equal(t, "back shelf", item.Notes())
}

func TestSessionRepository_UpdateItemNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDraft(t, "user-1", ""))
	require.NoError(t, err)

	qty := 2
	err = repo.UpdateItem(ctx, id, "ghost", domain.ItemUpdate{Quantity: &qty})
	var nf *domain.ItemNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "ghost", nf.ProductID)
}

func TestSessionRepository_StatusLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDraft(t, "user-1", ""))
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-1", 5)))

	require.NoError(t, repo.UpdateStatus(ctx, id, domain.StatusEmailGenerated))
	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusEmailGenerated, found.Status())

	require.NoError(t, repo.MarkAsSent(ctx, id))
	found, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSent, found.Status())
}

func TestSessionRepository_FindUnfinishedExcludesSent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	sentID, err := repo.Create(ctx, newDraft(t, "user-1", "done"))
	require.NoError(t, err)
	require.NoError(t, repo.MarkAsSent(ctx, sentID))

	openID, err := repo.Create(ctx, newDraft(t, "user-1", "open"))
	require.NoError(t, err)

	unfinished, err := repo.FindUnfinishedByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	require.Equal(t, openID, unfinished[0].ID())

	all, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSessionRepository_UpdateNameAndDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newDraft(t, "user-1", ""))
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, id, testItem(t, "prod-1", 5)))

	require.NoError(t, repo.UpdateName(ctx, id, "Spring order"))
	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Spring order", found.Name())

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.FindByID(ctx, id)
	var nf *domain.SessionNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSessionRepository_UpdateNameMissingSession(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.UpdateName(context.Background(), "missing", "name")
	var nf *domain.SessionNotFoundError
	require.ErrorAs(t, err, &nf)
}

// TestSessionRepository_UserIsolation is a property-based test using rapid.
// Sessions created for one user must never leak into another user's list.
func TestSessionRepository_UserIsolation(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		repo := setupTestRepo(t)
		ctx := context.Background()

		numUsers := rapid.IntRange(2, 4).Draw(r, "numUsers")
		users := make([]string, numUsers)
		for i := range users {
			users[i] = rapid.StringMatching(`user-[a-z]{3,8}`).Draw(r, "user")
		}

		counts := make(map[string]int, numUsers)
		for _, user := range users {
			numSessions := rapid.IntRange(0, 5).Draw(r, "numSessions")
			for i := 0; i < numSessions; i++ {
				session, err := domain.NewSession("", user, "")
				if err != nil {
					r.Fatalf("new session: %v", err)
				}
				if _, err := repo.Create(ctx, session); err != nil {
					r.Fatalf("create: %v", err)
				}
			}
			counts[user] += numSessions
		}

		for _, user := range users {
			sessions, err := repo.FindByUserID(ctx, user)
			if err != nil {
				r.Fatalf("find by user: %v", err)
			}
			if len(sessions) != counts[user] {
				r.Fatalf("user %s: got %d sessions, want %d", user, len(sessions), counts[user])
			}
			for _, session := range sessions {
				if session.UserID() != user {
					r.Fatalf("session %s leaked into %s's list", session.ID(), user)
				}
			}
		}
	})
}

func TestSessionRepository_ReadsSeededRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewSessionRepository(db)
	ctx := context.Background()

	testutil.NewBuilder(t, db).WithStandardTestData().Build()

	found, err := repo.FindByID(ctx, "sess-draft")
	require.NoError(t, err)
	require.Equal(t, "Restock 2026-08-30", found.Name())
	require.Equal(t, domain.StatusDraft, found.Status())
	require.Equal(t, 2, found.ItemCount())
	require.Equal(t, "prod-espresso", found.Items()[0].ProductID())

	unfinished, err := repo.FindUnfinishedByUserID(ctx, "user-test")
	require.NoError(t, err)
	require.Len(t, unfinished, 2)
	for _, session := range unfinished {
		require.NotEqual(t, domain.StatusSent, session.Status())
	}
}
