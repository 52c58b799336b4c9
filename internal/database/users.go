package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventaris/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

const userColumns = `id, full_name, username, password_hash, role, class_or_position, id_number, email, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.ClassOrPosition,
		&user.IDNumber,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateUser stores a new user with the given plaintext password hashed.
func CreateUser(db *sql.DB, user models.User, password string) (*models.User, error) {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	user.UpdatedAt = user.CreatedAt
	user.PasswordHash = hashedPassword

	query := `
		INSERT INTO users (id, full_name, username, password_hash, role, class_or_position, id_number, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.Exec(query, user.ID, user.FullName, user.Username, user.PasswordHash, user.Role,
		user.ClassOrPosition, user.IDNumber, user.Email, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func GetUserByID(db *sql.DB, userID string) (*models.User, error) {
	user, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func GetUserByUsername(db *sql.DB, username string) (*models.User, error) {
	user, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetUsers lists the roster, optionally narrowed by a case-insensitive match
// on full name or username.
func GetUsers(db *sql.DB, search string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE unicode_lower(full_name) LIKE ? ESCAPE '\' OR unicode_lower(username) LIKE ? ESCAPE '\'`
		pattern := likePattern(search)
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	return queryUsers(db, query, args...)
}

// GetAdmins lists all administrators, used for notifications.
func GetAdmins(db *sql.DB) ([]models.User, error) {
	return queryUsers(db, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY username ASC`, models.RoleAdmin)
}

func queryUsers(db *sql.DB, query string, args ...interface{}) ([]models.User, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateUser applies an admin edit. The password changes only when
// newPassword is non-empty.
func UpdateUser(db *sql.DB, userID string, updated models.User, newPassword string) (*models.User, error) {
	var (
		result sql.Result
		err    error
	)

	if newPassword != "" {
		hashedPassword, hashErr := hashPassword(newPassword)
		if hashErr != nil {
			return nil, hashErr
		}
		result, err = db.Exec(`
			UPDATE users
			SET full_name = ?, username = ?, role = ?, class_or_position = ?, id_number = ?, email = ?,
			    password_hash = ?, updated_at = ?
			WHERE id = ?
		`, updated.FullName, updated.Username, updated.Role, updated.ClassOrPosition, updated.IDNumber,
			updated.Email, hashedPassword, now(), userID)
	} else {
		result, err = db.Exec(`
			UPDATE users
			SET full_name = ?, username = ?, role = ?, class_or_position = ?, id_number = ?, email = ?, updated_at = ?
			WHERE id = ?
		`, updated.FullName, updated.Username, updated.Role, updated.ClassOrPosition, updated.IDNumber,
			updated.Email, now(), userID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return GetUserByID(db, userID)
}

// ProfileUpdate holds the fields a user may change about themselves.
type ProfileUpdate struct {
	FullName        string
	ClassOrPosition string
	IDNumber        string
	Email           string
	NewPassword     string
}

func UpdateProfile(db *sql.DB, userID string, p ProfileUpdate) (*models.User, error) {
	current, err := GetUserByID(db, userID)
	if err != nil {
		return nil, err
	}

	current.FullName = p.FullName
	current.ClassOrPosition = p.ClassOrPosition
	current.IDNumber = p.IDNumber
	current.Email = p.Email

	return UpdateUser(db, userID, *current, p.NewPassword)
}

// DeleteUser removes the user and, through the foreign key, their sessions.
// Borrowing history is kept.
func DeleteUser(db *sql.DB, userID string) error {
	result, err := db.Exec(`DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

func AuthenticateUser(db *sql.DB, username, password string) (*models.User, error) {
	user, err := GetUserByUsername(db, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return user, nil
}
