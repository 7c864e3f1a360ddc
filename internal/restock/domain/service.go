package domain

// The functions in this file are the business rules for restock sessions.
// They are total over their preconditions: a violated precondition comes back
// as a typed error (ValidationError, InvalidStateTransitionError,
// ItemNotFoundError), never a panic, and the input session is never mutated.
// Storage is somebody else's problem.

// CreateSessionParams carries the inputs for CreateSession.
type CreateSessionParams struct {
	// ID is optional; when empty a temporary local id is generated.
	ID string

	// UserID is the owning user. Required.
	UserID string

	// Name is optional; defaults to a date-stamped label.
	Name string
}

// CreateSession produces a new draft session with zero items.
// Fails with ErrEmptyUserID when no user is supplied.
func CreateSession(params CreateSessionParams) (*RestockSession, error) {
	return NewSession(params.ID, params.UserID, params.Name)
}

// AddItemToSession adds a line item to a draft session and returns the new
// session together with the resolved item.
//
// If an item with the same product id already exists, its quantity and notes
// are replaced (not summed) and its position in the sequence is preserved.
// This is an upsert, not an append-or-reject.
func AddItemToSession(session *RestockSession, input ItemInput) (*RestockSession, RestockItem, error) {
	if session.Status() != StatusDraft {
		return nil, RestockItem{}, &InvalidStateTransitionError{Operation: "add item", Status: session.Status()}
	}

	item, err := NewItem(input)
	if err != nil {
		return nil, RestockItem{}, err
	}

	items := session.Items()
	for i, existing := range items {
		if existing.ProductID() == item.ProductID() {
			quantity := item.Quantity()
			notes := item.Notes()
			replaced := existing.apply(ItemUpdate{Quantity: &quantity, Notes: &notes})
			items[i] = replaced
			return session.withItems(items), replaced, nil
		}
	}

	items = append(items, item)
	return session.withItems(items), item, nil
}

// RemoveItemFromSession excises the item for the given product id from a
// draft session. Removal is idempotent: a missing product is a no-op success,
// so callers never need an existence check first.
func RemoveItemFromSession(session *RestockSession, productID string) (*RestockSession, error) {
	if session.Status() != StatusDraft {
		return nil, &InvalidStateTransitionError{Operation: "remove item", Status: session.Status()}
	}

	items := session.Items()
	for i, existing := range items {
		if existing.ProductID() == productID {
			items = append(items[:i], items[i+1:]...)
			return session.withItems(items), nil
		}
	}
	return session, nil
}

// UpdateItemInSession applies a partial update to an existing item, validating
// only the fields present in the update. Fails with ItemNotFoundError when the
// product does not exist in the session.
//
// Unlike add and remove, updating is also allowed after email generation so a
// typo in a line can be corrected against the generated emails. This is a
// deliberate, narrow exception; a sent session stays frozen.
func UpdateItemInSession(session *RestockSession, productID string, update ItemUpdate) (*RestockSession, error) {
	if session.Status().IsTerminal() {
		return nil, &InvalidStateTransitionError{Operation: "update item", Status: session.Status()}
	}
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	items := session.Items()
	for i, existing := range items {
		if existing.ProductID() == productID {
			items[i] = existing.apply(update)
			return session.withItems(items), nil
		}
	}
	return nil, &ItemNotFoundError{ProductID: productID}
}

// MarkSessionReadyForEmails transitions a draft session with at least one
// item to email_generated. An empty session cannot be marked ready.
func MarkSessionReadyForEmails(session *RestockSession) (*RestockSession, error) {
	if session.Status() != StatusDraft {
		return nil, &InvalidStateTransitionError{Operation: "mark ready for emails", Status: session.Status()}
	}
	if session.ItemCount() == 0 {
		return nil, NewValidationError("items", "session has no items")
	}
	return session.withStatus(StatusEmailGenerated), nil
}

// MarkSessionCompleted transitions an email_generated session to sent.
// A draft session can never jump straight to sent.
func MarkSessionCompleted(session *RestockSession) (*RestockSession, error) {
	if session.Status() != StatusEmailGenerated {
		return nil, &InvalidStateTransitionError{Operation: "mark completed", Status: session.Status()}
	}
	return session.withStatus(StatusSent), nil
}
