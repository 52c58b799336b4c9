package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStore(rdb, ttl), mr
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t, time.Hour)

	sess, err := store.Create(ctx, "user-1")
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}
	if len(sess.ID) != 64 {
		t.Errorf("Expected a 64 character session id, got %d", len(sess.ID))
	}
	if !mr.Exists(sessionKey(sess.ID)) {
		t.Fatal("Expected the session key to be stored")
	}
	if ok, _ := mr.SIsMember(userSessionsKey("user-1"), sess.ID); !ok {
		t.Error("Expected the session to be listed under its user")
	}

	userID, err := store.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatal("Failed to validate session:", err)
	}
	if userID != "user-1" {
		t.Errorf("Expected user-1, got %s", userID)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal("Failed to delete session:", err)
	}
	if _, err := store.Validate(ctx, sess.ID); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid after delete, got %v", err)
	}
	if ok, _ := mr.SIsMember(userSessionsKey("user-1"), sess.ID); ok {
		t.Error("Expected the session to leave its user's set")
	}
}

func TestRedisStoreDeleteUnknown(t *testing.T) {
	store, _ := newRedisTestStore(t, time.Hour)

	if err := store.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("Expected deleting an unknown session to succeed, got %v", err)
	}
	if _, err := store.Validate(context.Background(), "missing"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for an unknown session, got %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t, time.Hour)

	sess, err := store.Create(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	mr.FastForward(61 * time.Minute)

	if _, err := store.Validate(ctx, sess.ID); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid after the TTL, got %v", err)
	}
}

func TestRedisStoreValidateSlidesTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t, time.Hour)

	sess, err := store.Create(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	mr.FastForward(40 * time.Minute)
	if _, err := store.Validate(ctx, sess.ID); err != nil {
		t.Fatal("Expected session to be valid after 40 minutes:", err)
	}
	if ttl := mr.TTL(sessionKey(sess.ID)); ttl != time.Hour {
		t.Errorf("Expected TTL reset to 1h, got %v", ttl)
	}
	if ttl := mr.TTL(userSessionsKey("user-1")); ttl != time.Hour {
		t.Errorf("Expected user set TTL reset to 1h, got %v", ttl)
	}

	mr.FastForward(40 * time.Minute)
	if _, err := store.Validate(ctx, sess.ID); err != nil {
		t.Errorf("Expected renewed session to outlive the original TTL, got %v", err)
	}
}

func TestRedisStoreDeleteUser(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t, time.Hour)

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := store.Create(ctx, "user-1")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, sess.ID)
	}
	other, err := store.Create(ctx, "user-2")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatal("Failed to delete user sessions:", err)
	}

	for _, id := range ids {
		if _, err := store.Validate(ctx, id); !errors.Is(err, ErrInvalid) {
			t.Errorf("Expected session %s to be revoked, got %v", id, err)
		}
	}
	if mr.Exists(userSessionsKey("user-1")) {
		t.Error("Expected the user's session set to be removed")
	}
	if userID, err := store.Validate(ctx, other.ID); err != nil || userID != "user-2" {
		t.Errorf("Expected other user's session to survive, got %q, %v", userID, err)
	}
}
