// Package memory provides an in-memory SessionRepository. It backs tests
// and offline development where no SQLite store is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/restock/internal/restock/domain"
)

// SessionRepository is an in-memory implementation of domain.SessionRepository.
// It is thread-safe using sync.RWMutex for concurrent access.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionSnapshot
}

// NewSessionRepository creates an empty in-memory repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]domain.SessionSnapshot),
	}
}

// Create persists a new session under a freshly assigned durable id and
// returns that id. The caller's client-generated id is discarded.
func (r *SessionRepository) Create(ctx context.Context, session *domain.RestockSession) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := session.Snapshot()
	snap.ID = uuid.NewString()
	r.sessions[snap.ID] = snap
	return snap.ID, nil
}

// FindByID retrieves a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.RestockSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.sessions[id]
	if !ok {
		return nil, &domain.SessionNotFoundError{SessionID: id}
	}
	return domain.SessionFromSnapshot(snap)
}

// FindByUserID retrieves all of the user's sessions, newest first.
func (r *SessionRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.RestockSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(snap domain.SessionSnapshot) bool {
		return snap.UserID == userID
	})
}

// FindUnfinishedByUserID retrieves the user's draft and email_generated
// sessions, newest first.
func (r *SessionRepository) FindUnfinishedByUserID(ctx context.Context, userID string) ([]*domain.RestockSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(snap domain.SessionSnapshot) bool {
		return snap.UserID == userID && !domain.SessionStatus(snap.Status).IsTerminal()
	})
}

// collect filters, sorts, and rehydrates sessions. Callers hold the lock.
func (r *SessionRepository) collect(match func(domain.SessionSnapshot) bool) ([]*domain.RestockSession, error) {
	snaps := make([]domain.SessionSnapshot, 0)
	for _, snap := range r.sessions {
		if match(snap) {
			snaps = append(snaps, snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})

	sessions := make([]*domain.RestockSession, 0, len(snaps))
	for _, snap := range snaps {
		session, err := domain.SessionFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// AddItem upserts an item on the stored session, keyed by product id.
func (r *SessionRepository) AddItem(ctx context.Context, sessionID string, item domain.RestockItem) error {
	return r.mutate(sessionID, func(snap *domain.SessionSnapshot) error {
		is := domain.ItemSnapshot{
			ProductID:     item.ProductID(),
			ProductName:   item.ProductName(),
			Quantity:      item.Quantity(),
			SupplierID:    item.SupplierID(),
			SupplierName:  item.SupplierName(),
			SupplierEmail: item.SupplierEmail(),
			Notes:         item.Notes(),
		}
		for i, existing := range snap.Items {
			if existing.ProductID == is.ProductID {
				snap.Items[i] = is
				return nil
			}
		}
		snap.Items = append(snap.Items, is)
		return nil
	})
}

// RemoveItem deletes the item for the given product. Removing a product
// that is not present is not an error.
func (r *SessionRepository) RemoveItem(ctx context.Context, sessionID, productID string) error {
	return r.mutate(sessionID, func(snap *domain.SessionSnapshot) error {
		for i, existing := range snap.Items {
			if existing.ProductID == productID {
				snap.Items = append(snap.Items[:i], snap.Items[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// UpdateItem applies a partial update to the stored line.
func (r *SessionRepository) UpdateItem(ctx context.Context, sessionID, productID string, update domain.ItemUpdate) error {
	return r.mutate(sessionID, func(snap *domain.SessionSnapshot) error {
		for i := range snap.Items {
			if snap.Items[i].ProductID != productID {
				continue
			}
			if update.ProductName != nil {
				snap.Items[i].ProductName = *update.ProductName
			}
			if update.Quantity != nil {
				snap.Items[i].Quantity = *update.Quantity
			}
			if update.SupplierName != nil {
				snap.Items[i].SupplierName = *update.SupplierName
			}
			if update.SupplierEmail != nil {
				snap.Items[i].SupplierEmail = *update.SupplierEmail
			}
			if update.Notes != nil {
				snap.Items[i].Notes = *update.Notes
			}
			return nil
		}
		return &domain.ItemNotFoundError{ProductID: productID}
	})
}

// UpdateName renames the stored session.
func (r *SessionRepository) UpdateName(ctx context.Context, sessionID, name string) error {
	return r.mutate(sessionID, func(snap *domain.SessionSnapshot) error {
		snap.Name = name
		return nil
	})
}

// UpdateStatus records a status transition.
func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	return r.mutate(sessionID, func(snap *domain.SessionSnapshot) error {
		snap.Status = status.String()
		return nil
	})
}

// MarkAsSent records the terminal transition.
func (r *SessionRepository) MarkAsSent(ctx context.Context, sessionID string) error {
	return r.UpdateStatus(ctx, sessionID, domain.StatusSent)
}

// Delete removes the session and its items.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// Reset clears all state from the repository. Useful for test setup/teardown.
func (r *SessionRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[string]domain.SessionSnapshot)
}

// AddSession stores a preset session under its existing id. This is a
// convenience method for test setup that bypasses id assignment.
func (r *SessionRepository) AddSession(session *domain.RestockSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID()] = session.Snapshot()
}

func (r *SessionRepository) mutate(sessionID string, apply func(*domain.SessionSnapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.sessions[sessionID]
	if !ok {
		return &domain.SessionNotFoundError{SessionID: sessionID}
	}
	if err := apply(&snap); err != nil {
		return err
	}
	snap.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = snap
	return nil
}
