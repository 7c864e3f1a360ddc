package domain

import "time"

// ItemSnapshot is the serialized form of a RestockItem.
type ItemSnapshot struct {
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	Quantity      int    `json:"quantity"`
	SupplierID    string `json:"supplierId"`
	SupplierName  string `json:"supplierName"`
	SupplierEmail string `json:"supplierEmail"`
	Notes         string `json:"notes,omitempty"`
}

// SessionSnapshot is the serialized form of a RestockSession, used for the
// device cache and the store mapping layer. A snapshot is plain data; it can
// only be turned back into an entity through SessionFromSnapshot, which
// re-validates every field.
type SessionSnapshot struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	Items     []ItemSnapshot `json:"items"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Snapshot exports the session as plain data for persistence.
func (s *RestockSession) Snapshot() SessionSnapshot {
	items := make([]ItemSnapshot, len(s.items))
	for i, item := range s.items {
		items[i] = ItemSnapshot{
			ProductID:     item.productID,
			ProductName:   item.productName,
			Quantity:      item.quantity,
			SupplierID:    item.supplierID,
			SupplierName:  item.supplierName,
			SupplierEmail: item.supplierEmail,
			Notes:         item.notes,
		}
	}
	return SessionSnapshot{
		ID:        s.id,
		UserID:    s.userID,
		Name:      s.name,
		Status:    string(s.status),
		Items:     items,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// SessionFromSnapshot reconstructs an entity from a previously serialized
// snapshot, re-validating all invariants. Corrupted or tampered data is
// rejected with the same error taxonomy as the validated factories:
// ValidationError for malformed fields, ErrEmptyUserID for a missing owner.
func SessionFromSnapshot(snap SessionSnapshot) (*RestockSession, error) {
	if snap.ID == "" {
		return nil, NewValidationError("id", "must not be empty")
	}
	if snap.UserID == "" {
		return nil, ErrEmptyUserID
	}
	status := SessionStatus(snap.Status)
	if !status.IsValid() {
		return nil, NewValidationError("status", "unknown status "+snap.Status)
	}
	if snap.CreatedAt.IsZero() {
		return nil, NewValidationError("createdAt", "must be set")
	}

	items := make([]RestockItem, 0, len(snap.Items))
	seen := make(map[string]struct{}, len(snap.Items))
	for _, is := range snap.Items {
		item, err := NewItem(ItemInput{
			ProductID:     is.ProductID,
			ProductName:   is.ProductName,
			Quantity:      is.Quantity,
			SupplierID:    is.SupplierID,
			SupplierName:  is.SupplierName,
			SupplierEmail: is.SupplierEmail,
			Notes:         is.Notes,
		})
		if err != nil {
			return nil, err
		}
		if _, dup := seen[item.ProductID()]; dup {
			return nil, NewValidationError("items", "duplicate product "+item.ProductID())
		}
		seen[item.ProductID()] = struct{}{}
		items = append(items, item)
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = snap.CreatedAt
	}
	name := snap.Name
	if name == "" {
		name = DefaultName(snap.CreatedAt)
	}

	return &RestockSession{
		id:        snap.ID,
		userID:    snap.UserID,
		name:      name,
		status:    status,
		items:     items,
		createdAt: snap.CreatedAt,
		updatedAt: updatedAt,
	}, nil
}
