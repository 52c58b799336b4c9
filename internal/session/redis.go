package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventaris/internal/database"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions as JSON values with a TTL, plus a per-user set
// so every session of a deleted user can be revoked.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

type redisSession struct {
	UserID    string `json:"uid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func sessionKey(id string) string      { return fmt.Sprintf("inventaris:session:%s", id) }
func userSessionsKey(uid string) string { return fmt.Sprintf("inventaris:user_sessions:%s", uid) }

func (s *RedisStore) Create(ctx context.Context, userID string) (*Session, error) {
	id, err := database.GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)
	b, err := json.Marshal(redisSession{UserID: userID, IssuedAt: now.Unix(), ExpiresAt: expiresAt.Unix()})
	if err != nil {
		return nil, err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(id), b, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), id)
	pipe.Expire(ctx, userSessionsKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{ID: id, UserID: userID, ExpiresAt: expiresAt}, nil
}

func (s *RedisStore) get(ctx context.Context, id string) (*redisSession, error) {
	b, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalid
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var rs redisSession
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &rs, nil
}

// Validate returns the session owner and slides both keys' TTL forward.
func (s *RedisStore) Validate(ctx context.Context, id string) (string, error) {
	rs, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Expire(ctx, sessionKey(id), s.ttl)
	pipe.Expire(ctx, userSessionsKey(rs.UserID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to renew session: %w", err)
	}

	return rs.UserID, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	rs, err := s.get(ctx, id)
	if err != nil && !errors.Is(err, ErrInvalid) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	if rs != nil {
		pipe.SRem(ctx, userSessionsKey(rs.UserID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeleteUser(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, sessionKey(id))
	}
	pipe.Del(ctx, userSessionsKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rdb, nil
}
