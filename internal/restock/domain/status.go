package domain

// SessionStatus represents the lifecycle status of a restock session.
// The progression is linear: draft -> email_generated -> sent.
// Backward transitions are never permitted and sent is terminal.
type SessionStatus string

const (
	// StatusDraft indicates the session is editable: items may be added,
	// removed, or updated.
	StatusDraft SessionStatus = "draft"

	// StatusEmailGenerated indicates supplier emails have been generated.
	// Item membership is frozen; only in-place field corrections remain
	// possible.
	StatusEmailGenerated SessionStatus = "email_generated"

	// StatusSent indicates the supplier emails were dispatched.
	// This status is terminal.
	StatusSent SessionStatus = "sent"
)

// String returns the string representation of the session status.
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized session status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusEmailGenerated, StatusSent:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions are possible.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusSent
}

// CanTransitionTo reports whether moving from s to target is a legal
// step in the lifecycle. Only draft -> email_generated and
// email_generated -> sent are allowed.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusEmailGenerated
	case StatusEmailGenerated:
		return target == StatusSent
	default:
		return false
	}
}
