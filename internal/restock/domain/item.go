package domain

import (
	"regexp"
	"strings"
)

// emailPattern accepts a basic local@domain.tld shape. It is deliberately
// loose; the store of record for supplier contacts lives elsewhere.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ItemInput carries the caller-supplied fields for adding an item to a
// session. Validation happens in NewItem; the input itself is inert.
type ItemInput struct {
	ProductID     string
	ProductName   string
	Quantity      int
	SupplierID    string
	SupplierName  string
	SupplierEmail string
	Notes         string
}

// ItemUpdate carries a partial update for an existing item. Only non-nil
// fields are validated and applied.
type ItemUpdate struct {
	ProductName   *string
	Quantity      *int
	SupplierName  *string
	SupplierEmail *string
	Notes         *string
}

// RestockItem is one product line within a session: product, quantity,
// supplier contact, and optional notes. Items are immutable value objects;
// all fields are unexported and exposed through getters.
type RestockItem struct {
	productID     string
	productName   string
	quantity      int
	supplierID    string
	supplierName  string
	supplierEmail string
	notes         string
}

// NewItem validates the input and constructs a RestockItem.
// It returns a ValidationError naming the offending field on bad input:
// empty product name, non-positive quantity, or a malformed supplier email.
func NewItem(input ItemInput) (RestockItem, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return RestockItem{}, NewValidationError("productId", "must not be empty")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return RestockItem{}, NewValidationError("productName", "must not be empty")
	}
	if input.Quantity <= 0 {
		return RestockItem{}, NewValidationError("quantity", "must be greater than zero")
	}
	if !emailPattern.MatchString(input.SupplierEmail) {
		return RestockItem{}, NewValidationError("supplierEmail", "must look like local@domain.tld")
	}

	return RestockItem{
		productID:     input.ProductID,
		productName:   input.ProductName,
		quantity:      input.Quantity,
		supplierID:    input.SupplierID,
		supplierName:  input.SupplierName,
		supplierEmail: input.SupplierEmail,
		notes:         input.Notes,
	}, nil
}

// ProductID returns the product identifier. Unique within a session.
func (i RestockItem) ProductID() string { return i.productID }

// ProductName returns the human-readable product name.
func (i RestockItem) ProductName() string { return i.productName }

// Quantity returns the quantity to reorder. Always positive.
func (i RestockItem) Quantity() int { return i.quantity }

// SupplierID returns the supplier identifier, if known.
func (i RestockItem) SupplierID() string { return i.supplierID }

// SupplierName returns the supplier display name.
func (i RestockItem) SupplierName() string { return i.supplierName }

// SupplierEmail returns the supplier contact address.
func (i RestockItem) SupplierEmail() string { return i.supplierEmail }

// Notes returns the optional free-form notes for this line.
func (i RestockItem) Notes() string { return i.notes }

// apply returns a copy of the item with the non-nil fields of the update
// applied. Validation of those fields happens before this is called.
func (i RestockItem) apply(update ItemUpdate) RestockItem {
	next := i
	if update.ProductName != nil {
		next.productName = *update.ProductName
	}
	if update.Quantity != nil {
		next.quantity = *update.Quantity
	}
	if update.SupplierName != nil {
		next.supplierName = *update.SupplierName
	}
	if update.SupplierEmail != nil {
		next.supplierEmail = *update.SupplierEmail
	}
	if update.Notes != nil {
		next.notes = *update.Notes
	}
	return next
}

// validateUpdate checks only the fields present in the update.
// Returns a ValidationError naming the first offending field.
func validateUpdate(update ItemUpdate) error {
	if update.ProductName != nil && strings.TrimSpace(*update.ProductName) == "" {
		return NewValidationError("productName", "must not be empty")
	}
	if update.Quantity != nil && *update.Quantity <= 0 {
		return NewValidationError("quantity", "must be greater than zero")
	}
	if update.SupplierEmail != nil && !emailPattern.MatchString(*update.SupplierEmail) {
		return NewValidationError("supplierEmail", "must look like local@domain.tld")
	}
	return nil
}
