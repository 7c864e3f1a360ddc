package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/restock/internal/restock/domain"
)

// sessionColumns is the list of columns to select for session queries.
const sessionColumns = `id, user_id, name, status, created_at, updated_at`

// itemColumns is the list of columns to select for item queries.
const itemColumns = `session_id, product_id, product_name, quantity,
	supplier_id, supplier_name, supplier_email, notes, position`

// SessionRepository implements domain.SessionRepository using SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a repository over an open database.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Ensure SessionRepository implements domain.SessionRepository.
var _ domain.SessionRepository = (*SessionRepository)(nil)

// scanSession scans a row into a SessionModel.
func scanSession(scanner interface{ Scan(...any) error }) (*SessionModel, error) {
	var model SessionModel
	err := scanner.Scan(
		&model.ID, &model.UserID, &model.Name, &model.Status,
		&model.CreatedAt, &model.UpdatedAt,
	)
	return &model, err
}

// scanItem scans a row into an ItemModel.
func scanItem(scanner interface{ Scan(...any) error }) (ItemModel, error) {
	var model ItemModel
	err := scanner.Scan(
		&model.SessionID, &model.ProductID, &model.ProductName, &model.Quantity,
		&model.SupplierID, &model.SupplierName, &model.SupplierEmail,
		&model.Notes, &model.Position,
	)
	return model, err
}

// Create inserts the session and its items under a freshly assigned
// durable id, which is returned. The caller's temporary id is discarded.
func (r *SessionRepository) Create(ctx context.Context, session *domain.RestockSession) (string, error) {
	snap := session.Snapshot()
	id := uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO restock_sessions (id, user_id, name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, snap.UserID, snap.Name, snap.Status, snap.CreatedAt.Unix(), snap.UpdatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	for i, is := range snap.Items {
		if err := insertItem(ctx, tx, toItemModel(id, i, is)); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create: %w", err)
	}
	return id, nil
}

// FindByID retrieves a session with its items.
// Returns SessionNotFoundError if no matching session exists.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.RestockSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM restock_sessions WHERE id = ?`, id)
	model, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.SessionNotFoundError{SessionID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomain(model, items)
}

// FindByUserID retrieves all of the user's sessions, newest first.
func (r *SessionRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.RestockSession, error) {
	return r.findSessions(ctx,
		`SELECT `+sessionColumns+` FROM restock_sessions WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
}

// FindUnfinishedByUserID retrieves the user's draft and email_generated
// sessions, newest first.
func (r *SessionRepository) FindUnfinishedByUserID(ctx context.Context, userID string) ([]*domain.RestockSession, error) {
	return r.findSessions(ctx,
		`SELECT `+sessionColumns+` FROM restock_sessions
		 WHERE user_id = ? AND status != ? ORDER BY created_at DESC, id`,
		userID, domain.StatusSent.String())
}

func (r *SessionRepository) findSessions(ctx context.Context, query string, args ...any) ([]*domain.RestockSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*domain.RestockSession, 0)
	for rows.Next() {
		model, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		items, err := r.itemsFor(ctx, model.ID)
		if err != nil {
			return nil, err
		}
		session, err := toDomain(model, items)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) itemsFor(ctx context.Context, sessionID string) ([]ItemModel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM restock_items WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]ItemModel, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// AddItem upserts an item row: a new product is appended at the next
// position, an existing product keeps its position and takes the new
// quantity and notes.
func (r *SessionRepository) AddItem(ctx context.Context, sessionID string, item domain.RestockItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add item: %w", err)
	}
	defer tx.Rollback()

	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}

	var position int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM restock_items WHERE session_id = ?`, sessionID).
		Scan(&position)
	if err != nil {
		return fmt.Errorf("next item position: %w", err)
	}

	model := ItemModel{
		SessionID:     sessionID,
		ProductID:     item.ProductID(),
		ProductName:   item.ProductName(),
		Quantity:      item.Quantity(),
		SupplierID:    nullable(item.SupplierID()),
		SupplierName:  nullable(item.SupplierName()),
		SupplierEmail: item.SupplierEmail(),
		Notes:         nullable(item.Notes()),
		Position:      position,
	}
	if err := insertItem(ctx, tx, model); err != nil {
		return err
	}
	return tx.Commit()
}

func insertItem(ctx context.Context, tx *sql.Tx, model ItemModel) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO restock_items (
			session_id, product_id, product_name, quantity,
			supplier_id, supplier_name, supplier_email, notes, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, product_id) DO UPDATE SET
			quantity = excluded.quantity,
			notes = excluded.notes`,
		model.SessionID, model.ProductID, model.ProductName, model.Quantity,
		model.SupplierID, model.SupplierName, model.SupplierEmail, model.Notes, model.Position,
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// RemoveItem deletes the item row for the product. Deleting an absent
// product is not an error.
func (r *SessionRepository) RemoveItem(ctx context.Context, sessionID, productID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove item: %w", err)
	}
	defer tx.Rollback()

	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM restock_items WHERE session_id = ? AND product_id = ?`,
		sessionID, productID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return tx.Commit()
}

// UpdateItem applies the non-nil fields of the update to the item row.
// Returns ItemNotFoundError when the product is not in the session.
func (r *SessionRepository) UpdateItem(ctx context.Context, sessionID, productID string, update domain.ItemUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update item: %w", err)
	}
	defer tx.Rollback()

	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}

	set := ""
	args := make([]any, 0, 6)
	appendSet := func(column string, value any) {
		if set != "" {
			set += ", "
		}
		set += column + " = ?"
		args = append(args, value)
	}
	if update.ProductName != nil {
		appendSet("product_name", *update.ProductName)
	}
	if update.Quantity != nil {
		appendSet("quantity", *update.Quantity)
	}
	if update.SupplierName != nil {
		appendSet("supplier_name", *update.SupplierName)
	}
	if update.SupplierEmail != nil {
		appendSet("supplier_email", *update.SupplierEmail)
	}
	if update.Notes != nil {
		appendSet("notes", *update.Notes)
	}
	if set == "" {
		// Nothing to change; still verify the item exists.
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM restock_items WHERE session_id = ? AND product_id = ?`,
			sessionID, productID).Scan(&count); err != nil {
			return fmt.Errorf("check item: %w", err)
		}
		if count == 0 {
			return &domain.ItemNotFoundError{ProductID: productID}
		}
		return tx.Commit()
	}

	args = append(args, sessionID, productID)
	result, err := tx.ExecContext(ctx,
		`UPDATE restock_items SET `+set+` WHERE session_id = ? AND product_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item rows: %w", err)
	}
	if affected == 0 {
		return &domain.ItemNotFoundError{ProductID: productID}
	}
	return tx.Commit()
}

// UpdateName renames the session.
func (r *SessionRepository) UpdateName(ctx context.Context, sessionID, name string) error {
	return r.updateSession(ctx, sessionID,
		`UPDATE restock_sessions SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().Unix(), sessionID)
}

// UpdateStatus records a status transition.
func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	return r.updateSession(ctx, sessionID,
		`UPDATE restock_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status.String(), time.Now().Unix(), sessionID)
}

// MarkAsSent records the terminal transition.
func (r *SessionRepository) MarkAsSent(ctx context.Context, sessionID string) error {
	return r.UpdateStatus(ctx, sessionID, domain.StatusSent)
}

// Delete removes the session; items cascade.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM restock_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) updateSession(ctx context.Context, sessionID, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows: %w", err)
	}
	if affected == 0 {
		return &domain.SessionNotFoundError{SessionID: sessionID}
	}
	return nil
}

// touchSession bumps updated_at, doubling as the existence check for
// item mutations.
func touchSession(ctx context.Context, tx *sql.Tx, sessionID string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE restock_sessions SET updated_at = ? WHERE id = ?`,
		time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session rows: %w", err)
	}
	if affected == 0 {
		return &domain.SessionNotFoundError{SessionID: sessionID}
	}
	return nil
}
