package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of plain Redis strings and sets.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client. The store owns the client from now on.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("escrow put %s: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrAbsent
	}
	if err != nil {
		return "", fmt.Errorf("escrow get %s: %w", key, err)
	}
	return val, nil
}

// SetAdd implements Store.
func (s *RedisStore) SetAdd(ctx context.Context, setKey, member string) error {
	if err := s.client.SAdd(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("escrow sadd %s: %w", setKey, err)
	}
	return nil
}

// SetRemove implements Store.
func (s *RedisStore) SetRemove(ctx context.Context, setKey, member string) error {
	if err := s.client.SRem(ctx, setKey, member).Err(); err != nil {
		return fmt.Errorf("escrow srem %s: %w", setKey, err)
	}
	return nil
}

// SetContains implements Store.
func (s *RedisStore) SetContains(ctx context.Context, setKey, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, setKey, member).Result()
	if err != nil {
		return false, fmt.Errorf("escrow sismember %s: %w", setKey, err)
	}
	return ok, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
