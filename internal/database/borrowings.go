package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventaris/internal/models"

	"github.com/google/uuid"
)

// UnknownName stands in for a borrower or item that no longer exists.
const UnknownName = "Unknown"

// BorrowingFilter narrows borrowing listings. Dates are inclusive
// YYYY-MM-DD bounds on the borrow date.
type BorrowingFilter struct {
	UserID string
	ItemID string
	Status models.BorrowingStatus
	From   string
	To     string
	// ByBorrowDate orders by borrow date instead of creation time, newest first.
	ByBorrowDate bool
	Limit        int
}

type queryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

const borrowingSelect = `
	SELECT b.id, b.user_id, b.item_id, b.quantity, b.borrow_date, b.return_date, b.purpose, b.status,
	       b.rejection_reason, b.approved_at, b.returned_at, b.created_at, b.updated_at,
	       COALESCE(u.full_name, '` + UnknownName + `'), COALESCE(i.name, '` + UnknownName + `')
	FROM borrowings b
	LEFT JOIN users u ON u.id = b.user_id
	LEFT JOIN items i ON i.id = b.item_id
`

func scanBorrowing(row rowScanner) (*models.Borrowing, error) {
	b := &models.Borrowing{}
	var approvedAt, returnedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ItemID,
		&b.Quantity,
		&b.BorrowDate,
		&b.ReturnDate,
		&b.Purpose,
		&b.Status,
		&b.RejectionReason,
		&approvedAt,
		&returnedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.UserName,
		&b.ItemName,
	)
	if err != nil {
		return nil, err
	}

	if approvedAt.Valid {
		t := approvedAt.Time
		b.ApprovedAt = &t
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		b.ReturnedAt = &t
	}

	return b, nil
}

// CreateBorrowing records a new request in the Pending state.
func CreateBorrowing(db *sql.DB, b models.Borrowing) (*models.Borrowing, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	b.UpdatedAt = b.CreatedAt

	query := `
		INSERT INTO borrowings (id, user_id, item_id, quantity, borrow_date, return_date, purpose, status,
		                        rejection_reason, approved_at, returned_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.UserID, b.ItemID, b.Quantity, b.BorrowDate, b.ReturnDate, b.Purpose, b.Status,
		b.RejectionReason, b.ApprovedAt, b.ReturnedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create borrowing: %w", err)
	}

	return GetBorrowing(db, b.ID)
}

func GetBorrowing(db *sql.DB, borrowingID string) (*models.Borrowing, error) {
	return getBorrowing(db, borrowingID)
}

func getBorrowing(q queryRower, borrowingID string) (*models.Borrowing, error) {
	b, err := scanBorrowing(q.QueryRow(borrowingSelect+` WHERE b.id = ?`, borrowingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query borrowing: %w", err)
	}
	return b, nil
}

func GetBorrowings(db *sql.DB, filter BorrowingFilter) ([]models.Borrowing, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.UserID != "" {
		conditions = append(conditions, "b.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ItemID != "" {
		conditions = append(conditions, "b.item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "b.status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != "" {
		conditions = append(conditions, "b.borrow_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conditions = append(conditions, "b.borrow_date <= ?")
		args = append(args, filter.To)
	}

	query := borrowingSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.ByBorrowDate {
		query += " ORDER BY b.borrow_date DESC, b.created_at DESC, b.rowid DESC"
	} else {
		query += " ORDER BY b.created_at DESC, b.rowid DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrowings: %w", err)
	}
	defer rows.Close()

	borrowings := []models.Borrowing{}
	for rows.Next() {
		b, err := scanBorrowing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrowing: %w", err)
		}
		borrowings = append(borrowings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating borrowings: %w", err)
	}

	return borrowings, nil
}

// GetOverdueBorrowings returns approved borrowings whose return date is
// before today (YYYY-MM-DD).
func GetOverdueBorrowings(db *sql.DB, today string) ([]models.Borrowing, error) {
	rows, err := db.Query(borrowingSelect+` WHERE b.status = ? AND b.return_date < ? ORDER BY b.return_date ASC`,
		models.StatusApproved, today)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue borrowings: %w", err)
	}
	defer rows.Close()

	borrowings := []models.Borrowing{}
	for rows.Next() {
		b, err := scanBorrowing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrowing: %w", err)
		}
		borrowings = append(borrowings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue borrowings: %w", err)
	}
	return borrowings, nil
}

// transition loads the borrowing inside tx and checks the workflow allows
// moving it to next.
func transition(tx *sql.Tx, borrowingID string, next models.BorrowingStatus) (*models.Borrowing, error) {
	b, err := getBorrowing(tx, borrowingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, next)
	}
	return b, nil
}

// ApproveBorrowing moves a Pending request to Approved and takes the
// requested units out of the item's available stock.
func ApproveBorrowing(db *sql.DB, borrowingID string) (*models.Borrowing, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := transition(tx, borrowingID, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	var available int
	err = tx.QueryRow(`SELECT available_quantity FROM items WHERE id = ?`, b.ItemID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", b.ItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query item stock: %w", err)
	}
	if available < b.Quantity {
		return nil, &InsufficientStockError{Available: available, Requested: b.Quantity}
	}

	ts := now()
	if _, err := tx.Exec(`UPDATE items SET available_quantity = available_quantity - ?, updated_at = ? WHERE id = ?`,
		b.Quantity, ts, b.ItemID); err != nil {
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	if _, err := tx.Exec(`UPDATE borrowings SET status = ?, approved_at = ?, updated_at = ? WHERE id = ?`,
		models.StatusApproved, ts, ts, b.ID); err != nil {
		return nil, fmt.Errorf("failed to approve borrowing: %w", err)
	}

	approved, err := getBorrowing(tx, b.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	return approved, nil
}

// RejectBorrowing moves a Pending request to Rejected. Stock is untouched.
func RejectBorrowing(db *sql.DB, borrowingID, reason string) (*models.Borrowing, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := transition(tx, borrowingID, models.StatusRejected)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE borrowings SET status = ?, rejection_reason = ?, updated_at = ? WHERE id = ?`,
		models.StatusRejected, strings.TrimSpace(reason), now(), b.ID); err != nil {
		return nil, fmt.Errorf("failed to reject borrowing: %w", err)
	}

	rejected, err := getBorrowing(tx, b.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}

	return rejected, nil
}

// ReturnBorrowing moves an Approved borrowing to Returned and puts the units
// back, never above the item's total. A deleted item is skipped.
func ReturnBorrowing(db *sql.DB, borrowingID string) (*models.Borrowing, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	b, err := transition(tx, borrowingID, models.StatusReturned)
	if err != nil {
		return nil, err
	}

	ts := now()
	if _, err := tx.Exec(`
		UPDATE items
		SET available_quantity = MIN(total_quantity, available_quantity + ?), updated_at = ?
		WHERE id = ?
	`, b.Quantity, ts, b.ItemID); err != nil {
		return nil, fmt.Errorf("failed to restock item: %w", err)
	}

	if _, err := tx.Exec(`UPDATE borrowings SET status = ?, returned_at = ?, updated_at = ? WHERE id = ?`,
		models.StatusReturned, ts, ts, b.ID); err != nil {
		return nil, fmt.Errorf("failed to mark borrowing returned: %w", err)
	}

	returned, err := getBorrowing(tx, b.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit return: %w", err)
	}

	return returned, nil
}

// Today formats t as the calendar date used by borrow and return dates.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// DateLayout is the format of borrow and return dates.
const DateLayout = "2006-01-02"
