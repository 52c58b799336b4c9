package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"inventaris/internal/models"
)

var ErrSessionExpired = errors.New("session not found or expired")

func CreateSession(db *sql.DB, userID string, sessionDuration time.Duration) (*models.Session, error) {
	sessionID, err := GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now(),
	}
	session.ExpiresAt = session.CreatedAt.Add(sessionDuration)

	_, err = db.Exec(`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession returns the owner of a live session and pushes its expiry
// forward by sessionDuration.
func ValidateSession(db *sql.DB, sessionID string, sessionDuration time.Duration) (string, error) {
	var userID string
	err := db.QueryRow(`SELECT user_id FROM sessions WHERE id = ? AND expires_at > ?`, sessionID, now()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionExpired
		}
		return "", fmt.Errorf("failed to validate session: %w", err)
	}

	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, now().Add(sessionDuration), sessionID); err != nil {
		return "", fmt.Errorf("failed to renew session: %w", err)
	}

	return userID, nil
}

func DeleteSession(db *sql.DB, sessionID string) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func DeleteUserSessions(db *sql.DB, userID string) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired rows and reports how many went.
func CleanupExpiredSessions(db *sql.DB) (int64, error) {
	result, err := db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
