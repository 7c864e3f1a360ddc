package cache

import (
	"encoding/json"
	"time"

	"github.com/zjrosen/restock/internal/log"
	"github.com/zjrosen/restock/internal/restock/domain"
)

// CurrentSessionKey is the well-known key under which the current session
// envelope is stored.
const CurrentSessionKey = "current-session"

// Envelope is the persisted shape of the current-session cache entry:
// the session snapshot plus bookkeeping the coordinator needs on restart.
type Envelope struct {
	Session      domain.SessionSnapshot `json:"session"`
	SavedAt      time.Time              `json:"savedAt"`
	RetryPending bool                   `json:"retryPending,omitempty"`
}

// SessionCache persists the current session to the device store.
// Corrupted entries are reported as CacheCorruptedError so callers can
// discard them and fall back to remote state; they are never fatal.
type SessionCache struct {
	store Store
}

// NewSessionCache wraps a Store.
func NewSessionCache(store Store) *SessionCache {
	return &SessionCache{store: store}
}

// Load reads and re-validates the cached current session.
// Returns (nil, Envelope{}, nil) when no entry exists.
func (c *SessionCache) Load() (*domain.RestockSession, Envelope, error) {
	raw, ok, err := c.store.Get(CurrentSessionKey)
	if err != nil {
		return nil, Envelope{}, err
	}
	if !ok {
		return nil, Envelope{}, nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, Envelope{}, &domain.CacheCorruptedError{Key: CurrentSessionKey, Err: err}
	}

	session, err := domain.SessionFromSnapshot(env.Session)
	if err != nil {
		return nil, Envelope{}, &domain.CacheCorruptedError{Key: CurrentSessionKey, Err: err}
	}

	log.Debug(log.CatCache, "loaded cached session", "id", session.ID(), "status", session.Status(), "retryPending", env.RetryPending)
	return session, env, nil
}

// Save writes the session snapshot under the well-known key.
// The retryPending flag records that a remote mutation is still owed.
func (c *SessionCache) Save(session *domain.RestockSession, retryPending bool) error {
	env := Envelope{
		Session:      session.Snapshot(),
		SavedAt:      time.Now(),
		RetryPending: retryPending,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := c.store.Set(CurrentSessionKey, string(data)); err != nil {
		return err
	}
	log.Debug(log.CatCache, "saved session snapshot", "id", session.ID(), "retryPending", retryPending)
	return nil
}

// Clear removes the current-session entry.
func (c *SessionCache) Clear() error {
	log.Debug(log.CatCache, "clearing session cache")
	return c.store.Remove(CurrentSessionKey)
}
