// Package domain provides the pure domain layer for restock sessions with no
// infrastructure dependencies.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code (standard library plus uuid for local ids)
//   - Defines the RestockSession entity as an immutable value holder
//   - Defines the SessionRepository interface for persistence abstraction
//   - Provides domain-specific error types
//
// The domain layer has no knowledge of infrastructure concerns (databases,
// caches, file I/O, etc.). Every mutation returns a new session instance;
// no in-place field assignment is exposed.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix marks client-generated session ids that have not yet been
// replaced by a durable store-assigned id.
const localIDPrefix = "local-"

// NewLocalID generates a temporary client-side session id. The remote store
// assigns a durable id on create, after which the coordinator merges it back.
func NewLocalID() string {
	return localIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id is a temporary client-generated id.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// DefaultName returns the date-stamped label used when a session is created
// without an explicit name.
func DefaultName(t time.Time) string {
	return "Restock " + t.Format("Jan 2, 2006")
}

// RestockSession is an ordered collection of restock items plus identity,
// name, status, and creation time. Instances are immutable: all fields are
// unexported and every mutating method returns a fresh instance.
type RestockSession struct {
	id        string
	userID    string
	name      string
	status    SessionStatus
	items     []RestockItem
	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates a session in draft status with zero items.
// The user id is set once here and never mutated. An empty name defaults
// to a date-stamped label. Returns ErrEmptyUserID when userID is blank.
func NewSession(id, userID, name string) (*RestockSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	if strings.TrimSpace(id) == "" {
		id = NewLocalID()
	}
	now := time.Now()
	if name == "" {
		name = DefaultName(now)
	}
	return &RestockSession{
		id:        id,
		userID:    userID,
		name:      name,
		status:    StatusDraft,
		items:     nil,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ID returns the session identifier. May be a temporary local id until the
// remote store assigns a durable one.
func (s *RestockSession) ID() string { return s.id }

// UserID returns the owning user. Set once at creation.
func (s *RestockSession) UserID() string { return s.userID }

// Name returns the session label.
func (s *RestockSession) Name() string { return s.name }

// Status returns the current lifecycle status.
func (s *RestockSession) Status() SessionStatus { return s.status }

// Items returns the session items in insertion order. The returned slice is
// a copy; mutating it does not affect the session.
func (s *RestockSession) Items() []RestockItem {
	items := make([]RestockItem, len(s.items))
	copy(items, s.items)
	return items
}

// ItemCount returns the number of items in the session.
func (s *RestockSession) ItemCount() int { return len(s.items) }

// Item returns the item for the given product id, if present.
func (s *RestockSession) Item(productID string) (RestockItem, bool) {
	for _, item := range s.items {
		if item.ProductID() == productID {
			return item, true
		}
	}
	return RestockItem{}, false
}

// CreatedAt returns when this session was created.
func (s *RestockSession) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when this session was last touched. The coordinator uses
// this to pick the most recently touched non-terminal session on load.
func (s *RestockSession) UpdatedAt() time.Time { return s.updatedAt }

// IsTerminal reports whether the session reached its terminal status.
func (s *RestockSession) IsTerminal() bool { return s.status.IsTerminal() }

// HasLocalID reports whether the session still carries a client-generated id,
// meaning the remote store has not acknowledged it yet.
func (s *RestockSession) HasLocalID() bool { return IsLocalID(s.id) }

// WithID returns a copy of the session carrying the given id. Used by the
// coordinator to merge a store-assigned durable id back into the snapshot.
func (s *RestockSession) WithID(id string) *RestockSession {
	next := s.clone()
	next.id = id
	return next
}

// WithName returns a copy of the session carrying the given name.
func (s *RestockSession) WithName(name string) *RestockSession {
	next := s.clone()
	next.name = name
	next.updatedAt = time.Now()
	return next
}

// withItems returns a copy with the given item sequence.
func (s *RestockSession) withItems(items []RestockItem) *RestockSession {
	next := s.clone()
	next.items = items
	next.updatedAt = time.Now()
	return next
}

// withStatus returns a copy in the given status. Callers are responsible for
// checking transition legality first; this is the only status assignment in
// the package.
func (s *RestockSession) withStatus(status SessionStatus) *RestockSession {
	next := s.clone()
	next.status = status
	next.updatedAt = time.Now()
	return next
}

// clone returns a field-for-field copy with its own item slice.
func (s *RestockSession) clone() *RestockSession {
	items := make([]RestockItem, len(s.items))
	copy(items, s.items)
	return &RestockSession{
		id:        s.id,
		userID:    s.userID,
		name:      s.name,
		status:    s.status,
		items:     items,
		createdAt: s.createdAt,
		updatedAt: s.updatedAt,
	}
}
