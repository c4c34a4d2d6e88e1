package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const taskKeyPrefix = "task:"

// RedisStore is the durable backend: one hash per task keyed by
// "task:<id>", field-level merge via HSET and whole-key expiry via EXPIRE.
// Transient connectivity errors are not retried here; they propagate to the
// caller wrapped in ErrStoreUnavailable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at redisURL and verifies the connection
// with a ping before returning.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &RedisStore{client: client}, nil
}

func taskKey(taskID string) string {
	return taskKeyPrefix + taskID
}

// Put merges fields into the task hash, creating it if absent
func (s *RedisStore) Put(ctx context.Context, taskID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make(map[string]any, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	if err := s.client.HSet(ctx, taskKey(taskID), args).Err(); err != nil {
		return fmt.Errorf("%w: hset %s: %v", ErrStoreUnavailable, taskID, err)
	}
	return nil
}

// Get returns the task hash as a field map, empty if the key is absent
func (s *RedisStore) Get(ctx context.Context, taskID string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, taskKey(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s: %v", ErrStoreUnavailable, taskID, err)
	}
	return fields, nil
}

// Exists reports whether the task key exists
func (s *RedisStore) Exists(ctx context.Context, taskID string) (bool, error) {
	n, err := s.client.Exists(ctx, taskKey(taskID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", ErrStoreUnavailable, taskID, err)
	}
	return n > 0, nil
}

// Delete removes the task key
func (s *RedisStore) Delete(ctx context.Context, taskID string) error {
	n, err := s.client.Del(ctx, taskKey(taskID)).Result()
	if err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrStoreUnavailable, taskID, err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Expire schedules the whole task key for removal after ttl
func (s *RedisStore) Expire(ctx context.Context, taskID string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, taskKey(taskID), ttl).Err(); err != nil {
		return fmt.Errorf("%w: expire %s: %v", ErrStoreUnavailable, taskID, err)
	}
	return nil
}

// Ping probes Redis liveness
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Name identifies the backend
func (s *RedisStore) Name() string {
	return "redis"
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
