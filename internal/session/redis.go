package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	// Abandoned conversations disappear after a day.
	defaultTTL = 24 * time.Hour
)

// RedisStore keeps sessions as JSON documents in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-based session store. A non-positive ttl
// falls back to 24 hours.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Get implements Store. GETEX refreshes the TTL in the same round trip as the
// read (Redis 6.2+).
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	val, err := s.client.GetEx(ctx, s.key(userID), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", userID, err)
	}

	var data Session
	if err := json.Unmarshal(val, &data); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", userID, err)
	}

	return &data, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, data *Session) error {
	if !data.State.Valid() {
		return ErrInvalidState
	}

	now := time.Now()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = now
	}
	data.UpdatedAt = now

	val, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", data.UserID, err)
	}
	if err := s.client.Set(ctx, s.key(data.UserID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", data.UserID, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("delete session %d: %w", userID, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}
