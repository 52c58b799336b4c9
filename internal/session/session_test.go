package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventaris/internal/database"
	"inventaris/internal/models"
)

func newTestStore(t *testing.T, ttl time.Duration) (*SQLStore, string) {
	t.Helper()

	db, err := database.Initialize(":memory:")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}

	user, err := database.CreateUser(db, models.User{FullName: "Budi", Username: "budi", Role: models.RoleUser}, "user123")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	return NewSQLStore(db, ttl), user.ID
}

func TestSQLStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, userID := newTestStore(t, time.Hour)

	sess, err := store.Create(ctx, userID)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}

	got, err := store.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatal("Failed to validate session:", err)
	}
	if got != userID {
		t.Errorf("Expected user %s, got %s", userID, got)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal("Failed to delete session:", err)
	}
	if _, err := store.Validate(ctx, sess.ID); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid after logout, got %v", err)
	}
}

func TestSQLStoreDeleteUser(t *testing.T) {
	ctx := context.Background()
	store, userID := newTestStore(t, time.Hour)

	first, _ := store.Create(ctx, userID)
	second, _ := store.Create(ctx, userID)

	if err := store.DeleteUser(ctx, userID); err != nil {
		t.Fatal("Failed to revoke sessions:", err)
	}

	for _, id := range []string{first.ID, second.ID} {
		if _, err := store.Validate(ctx, id); !errors.Is(err, ErrInvalid) {
			t.Errorf("Expected session to be revoked, got %v", err)
		}
	}
}

func TestSQLStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, userID := newTestStore(t, -time.Second)

	sess, err := store.Create(ctx, userID)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}
	if _, err := store.Validate(ctx, sess.ID); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected expired session to be invalid, got %v", err)
	}

	removed, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatal("Failed to cleanup:", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 session removed, got %d", removed)
	}
}

func TestRedisKeys(t *testing.T) {
	if got := sessionKey("abc"); got != "inventaris:session:abc" {
		t.Errorf("Unexpected session key %s", got)
	}
	if got := userSessionsKey("u1"); got != "inventaris:user_sessions:u1" {
		t.Errorf("Unexpected user set key %s", got)
	}
}
