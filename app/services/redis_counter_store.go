package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterCmdable is the subset of the go-redis client used for counters
type RedisCounterCmdable interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisCounterStore keeps counters as plain Redis integers. INCR is atomic on
// the server, so every caller gets a distinct value even across processes.
type RedisCounterStore struct {
	client    RedisCounterCmdable
	keyPrefix string
}

// NewRedisCounterStore creates a counter store on top of a go-redis client
func NewRedisCounterStore(client RedisCounterCmdable, keyPrefix string) *RedisCounterStore {
	return &RedisCounterStore{client: client, keyPrefix: keyPrefix}
}

// CounterKey returns the Redis key holding the counter for scope
func (s *RedisCounterStore) CounterKey(scope string) string {
	return s.keyPrefix + "counter:" + scope
}

func (s *RedisCounterStore) IncrementAndGet(ctx context.Context, scope string) (int64, error) {
	n, err := s.client.Incr(ctx, s.CounterKey(scope)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", scope, err)
	}
	return n, nil
}

func (s *RedisCounterStore) ResetTo(ctx context.Context, scope string, value int64) error {
	if err := s.client.Set(ctx, s.CounterKey(scope), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", scope, err)
	}
	return nil
}

// Get returns the stored value for scope, 0 when the key does not exist
func (s *RedisCounterStore) Get(ctx context.Context, scope string) (int64, error) {
	n, err := s.client.Get(ctx, s.CounterKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", scope, err)
	}
	return n, nil
}
