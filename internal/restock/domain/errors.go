package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyUserID is returned when a session operation requires an
// authenticated user and none is present.
var ErrEmptyUserID = errors.New("user id must not be empty")

// ValidationError indicates malformed input to a domain operation.
// It is field-identified so the caller can render a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidStateTransitionError indicates an operation was attempted against
// a session in the wrong status. This is a workflow-level failure, distinct
// from field-level validation.
type InvalidStateTransitionError struct {
	Operation string
	Status    SessionStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while session is %s", e.Operation, e.Status)
}

// ItemNotFoundError indicates a referenced product does not exist in the
// target session.
type ItemNotFoundError struct {
	ProductID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("no item for product %q in session", e.ProductID)
}

// SessionNotFoundError indicates a referenced session does not exist in
// the store.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

// RemoteUnavailableError wraps a transport or store failure during a remote
// call. It is always non-fatal to local optimistic state.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote store unavailable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// CacheCorruptedError indicates a cached snapshot failed re-validation on
// load. The handling policy is to discard the entry, never to crash.
type CacheCorruptedError struct {
	Key string
	Err error
}

func (e *CacheCorruptedError) Error() string {
	return fmt.Sprintf("cached snapshot under %q is corrupted: %v", e.Key, e.Err)
}

func (e *CacheCorruptedError) Unwrap() error {
	return e.Err
}

// IsValidation returns true if err is a field-level validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidTransition returns true if err is a workflow-level state
// machine violation.
func IsInvalidTransition(err error) bool {
	var te *InvalidStateTransitionError
	return errors.As(err, &te)
}

// IsRemoteUnavailable returns true if err is a transport-level failure.
func IsRemoteUnavailable(err error) bool {
	var re *RemoteUnavailableError
	return errors.As(err, &re)
}
