package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventaris/internal/models"

	"github.com/google/uuid"
)

// ItemFilter narrows catalog listings. Zero values match everything.
type ItemFilter struct {
	Search        string
	Category      string
	AvailableOnly bool
}

const itemColumns = `id, code, name, category, total_quantity, available_quantity, condition,
		location, description, photo_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.Name,
		&item.Category,
		&item.TotalQuantity,
		&item.AvailableQuantity,
		&item.Condition,
		&item.Location,
		&item.Description,
		&item.PhotoURL,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func CreateItem(db *sql.DB, item models.Item) (*models.Item, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Condition == "" {
		item.Condition = models.ConditionGood
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	item.UpdatedAt = item.CreatedAt

	query := `
		INSERT INTO items (id, code, name, category, total_quantity, available_quantity, condition,
		                   location, description, photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, item.ID, item.Code, item.Name, item.Category, item.TotalQuantity, item.AvailableQuantity,
		item.Condition, item.Location, item.Description, item.PhotoURL, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return &item, nil
}

func GetItem(db *sql.DB, itemID string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := scanItem(db.QueryRow(query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

// GetItems returns items matching the filter in insertion order, the way the
// catalog was originally kept.
func GetItems(db *sql.DB, filter ItemFilter) ([]models.Item, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, `(unicode_lower(name) LIKE ? ESCAPE '\' OR unicode_lower(code) LIKE ? ESCAPE '\')`)
		pattern := likePattern(search)
		args = append(args, pattern, pattern)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "available_quantity > 0")
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// GetItemCategories lists the distinct categories in use.
func GetItemCategories(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT category FROM items ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func UpdateItem(db *sql.DB, itemID string, updatedItem models.Item) (*models.Item, error) {
	query := `
		UPDATE items
		SET code = ?, name = ?, category = ?, total_quantity = ?, available_quantity = ?, condition = ?,
		    location = ?, description = ?, photo_url = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, updatedItem.Code, updatedItem.Name, updatedItem.Category, updatedItem.TotalQuantity,
		updatedItem.AvailableQuantity, updatedItem.Condition, updatedItem.Location, updatedItem.Description,
		updatedItem.PhotoURL, now(), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return GetItem(db, itemID)
}

func UpdateItemPhoto(db *sql.DB, itemID, photoURL string) error {
	result, err := db.Exec(`UPDATE items SET photo_url = ?, updated_at = ? WHERE id = ?`, photoURL, now(), itemID)
	if err != nil {
		return fmt.Errorf("failed to update item photo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes the item. Borrowings that reference it are kept for
// history and resolve its name as unknown.
func DeleteItem(db *sql.DB, itemID string) error {
	result, err := db.Exec(`DELETE FROM items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
