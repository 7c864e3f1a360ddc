package testutil

import "time"

// ItemData holds data for one product line to be inserted.
type ItemData struct {
	ProductID     string
	ProductName   string
	Quantity      int
	SupplierID    string
	SupplierName  string
	SupplierEmail string
	Notes         string
}

// Item creates an ItemData with the required fields.
func Item(productID string, quantity int, email string) ItemData {
	return ItemData{
		ProductID:     productID,
		ProductName:   productID, // default name is the ID
		Quantity:      quantity,
		SupplierEmail: email,
	}
}

// sessionData holds all data for a session to be inserted.
type sessionData struct {
	id        string
	userID    string
	name      string
	status    string
	items     []ItemData
	createdAt time.Time
	updatedAt time.Time
}

// defaultSession returns a sessionData with sensible defaults.
func defaultSession(id string) sessionData {
	now := time.Now()
	return sessionData{
		id:        id,
		userID:    "user-test",
		name:      id, // default name is the ID
		status:    "draft",
		createdAt: now,
		updatedAt: now,
	}
}

// SessionOption configures a session during builder setup.
type SessionOption func(*sessionData)

// ForUser sets the owning user.
func ForUser(userID string) SessionOption {
	return func(s *sessionData) { s.userID = userID }
}

// Name sets the session name.
func Name(name string) SessionOption {
	return func(s *sessionData) { s.name = name }
}

// Status sets the session status (draft, email_generated, sent).
func Status(status string) SessionOption {
	return func(s *sessionData) { s.status = status }
}

// Items adds product lines to the session, in order.
func Items(items ...ItemData) SessionOption {
	return func(s *sessionData) { s.items = append(s.items, items...) }
}

// CreatedAt sets the created_at timestamp.
func CreatedAt(t time.Time) SessionOption {
	return func(s *sessionData) { s.createdAt = t }
}

// UpdatedAt sets the updated_at timestamp.
func UpdatedAt(t time.Time) SessionOption {
	return func(s *sessionData) { s.updatedAt = t }
}
