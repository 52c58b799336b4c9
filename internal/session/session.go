package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"inventaris/internal/database"
)

// ErrInvalid is returned for unknown or expired session ids.
var ErrInvalid = errors.New("session not found or expired")

// Store keeps the mapping from an opaque session id to its user.
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Validate(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, userID string) error
}

type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// SQLStore keeps sessions in the sessions table of the main database.
type SQLStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLStore(db *sql.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, ttl: ttl}
}

func (s *SQLStore) Create(_ context.Context, userID string) (*Session, error) {
	sess, err := database.CreateSession(s.db, userID, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Session{ID: sess.ID, UserID: sess.UserID, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *SQLStore) Validate(_ context.Context, id string) (string, error) {
	userID, err := database.ValidateSession(s.db, id, s.ttl)
	if errors.Is(err, database.ErrSessionExpired) {
		return "", ErrInvalid
	}
	return userID, err
}

func (s *SQLStore) Delete(_ context.Context, id string) error {
	return database.DeleteSession(s.db, id)
}

func (s *SQLStore) DeleteUser(_ context.Context, userID string) error {
	return database.DeleteUserSessions(s.db, userID)
}

// Cleanup drops expired rows. Redis expires keys on its own.
func (s *SQLStore) Cleanup(_ context.Context) (int64, error) {
	return database.CleanupExpiredSessions(s.db)
}
