package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps slots as plain string values under "<prefix><owner>:<name>".
type RedisStore struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, Prefix: "booking:", TTL: ttl}
}

func (s *RedisStore) redisKey(key Key) string {
	return s.Prefix + key.String()
}

func (s *RedisStore) Persist(ctx context.Context, key Key, value []byte) error {
	return s.set(ctx, key, value, s.TTL)
}

// PersistDurable writes with no expiration; SET without EX also drops an
// existing TTL on the key.
func (s *RedisStore) PersistDurable(ctx context.Context, key Key, value []byte) error {
	return s.set(ctx, key, value, 0)
}

func (s *RedisStore) set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := s.Client.Set(ctx, s.redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("persist %s: %w", key.Name, err)
	}
	return nil
}

func (s *RedisStore) Restore(ctx context.Context, key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	v, err := s.Client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", key.Name, err)
	}
	return v, nil
}

func (s *RedisStore) Remove(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := s.Client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", key.Name, err)
	}
	return nil
}
