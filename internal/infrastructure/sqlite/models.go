package sqlite

import (
	"time"

	"github.com/zjrosen/restock/internal/restock/domain"
)

// SessionModel represents the database row for the restock_sessions table.
// Fields map directly to SQL columns with Unix timestamps for time values.
type SessionModel struct {
	ID        string
	UserID    string
	Name      string
	Status    string
	CreatedAt int64 // Unix timestamp
	UpdatedAt int64 // Unix timestamp
}

// ItemModel represents the database row for the restock_items table.
// Supplier metadata and notes are nullable; position preserves the
// insertion order of lines within a session.
type ItemModel struct {
	SessionID     string
	ProductID     string
	ProductName   string
	Quantity      int
	SupplierID    *string // nullable
	SupplierName  *string // nullable
	SupplierEmail string
	Notes         *string // nullable
	Position      int
}

// toItemModel converts an item snapshot to its database row.
func toItemModel(sessionID string, position int, is domain.ItemSnapshot) ItemModel {
	return ItemModel{
		SessionID:     sessionID,
		ProductID:     is.ProductID,
		ProductName:   is.ProductName,
		Quantity:      is.Quantity,
		SupplierID:    nullable(is.SupplierID),
		SupplierName:  nullable(is.SupplierName),
		SupplierEmail: is.SupplierEmail,
		Notes:         nullable(is.Notes),
		Position:      position,
	}
}

// toDomain rehydrates a session entity from its rows. The items must be
// ordered by position.
func toDomain(model *SessionModel, items []ItemModel) (*domain.RestockSession, error) {
	snaps := make([]domain.ItemSnapshot, len(items))
	for i, im := range items {
		snaps[i] = domain.ItemSnapshot{
			ProductID:     im.ProductID,
			ProductName:   im.ProductName,
			Quantity:      im.Quantity,
			SupplierID:    deref(im.SupplierID),
			SupplierName:  deref(im.SupplierName),
			SupplierEmail: im.SupplierEmail,
			Notes:         deref(im.Notes),
		}
	}
	return domain.SessionFromSnapshot(domain.SessionSnapshot{
		ID:        model.ID,
		UserID:    model.UserID,
		Name:      model.Name,
		Status:    model.Status,
		Items:     snaps,
		CreatedAt: time.Unix(model.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(model.UpdatedAt, 0).UTC(),
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
