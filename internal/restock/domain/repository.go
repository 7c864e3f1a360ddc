package domain

import "context"

// SessionRepository defines the remote-store surface for restock sessions.
// Implementations may use SQLite, an HTTP API, or in-memory storage.
//
// Every operation takes a context and may fail with a transport-level error;
// callers should wrap those as RemoteUnavailableError and treat them as
// "remote unavailable, retain local state". Domain validation never happens
// here — sessions arriving at this boundary are already valid.
type SessionRepository interface {
	// Create persists a new draft session and returns the durable id the
	// store assigned to it. The caller merges that id back into its local
	// snapshot, replacing any temporary client-generated id.
	Create(ctx context.Context, session *RestockSession) (string, error)

	// FindByID retrieves a session by id.
	// Returns SessionNotFoundError if no matching session exists.
	FindByID(ctx context.Context, id string) (*RestockSession, error)

	// FindByUserID retrieves all sessions owned by the user, newest first.
	FindByUserID(ctx context.Context, userID string) ([]*RestockSession, error)

	// FindUnfinishedByUserID retrieves the user's non-terminal sessions
	// (draft or email_generated), newest first. Server-side filter.
	FindUnfinishedByUserID(ctx context.Context, userID string) ([]*RestockSession, error)

	// AddItem persists a single item upsert for the session.
	AddItem(ctx context.Context, sessionID string, item RestockItem) error

	// RemoveItem deletes the item for the given product from the session.
	RemoveItem(ctx context.Context, sessionID, productID string) error

	// UpdateItem applies a partial item update against the stored line.
	UpdateItem(ctx context.Context, sessionID, productID string, update ItemUpdate) error

	// UpdateName renames the session.
	UpdateName(ctx context.Context, sessionID, name string) error

	// UpdateStatus records a status transition.
	UpdateStatus(ctx context.Context, sessionID string, status SessionStatus) error

	// MarkAsSent records the terminal transition.
	MarkAsSent(ctx context.Context, sessionID string) error

	// Delete removes the session and its items.
	Delete(ctx context.Context, sessionID string) error
}
