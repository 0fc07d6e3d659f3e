package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "selah:cache:"

// RedisStore is a Store backed by Redis, for deployments where multiple
// instances should share one bundle cache. Keys are namespaced
// "selah:cache:<version>:<key>".
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key string) string {
	return redisKeyPrefix + Version + ":" + key
}

// Get returns the entry under the current version, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Put writes an entry under the current version. Entries do not expire.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys lists all keys under the current version.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	prefix := redisKeyPrefix + Version + ":"
	full, err := s.scan(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, nil
}

// Purge removes every entry under the current version.
func (s *RedisStore) Purge(ctx context.Context) error {
	return s.deleteMatching(ctx, redisKeyPrefix+Version+":*", nil)
}

// PurgeStaleVersions removes entries written under other versions.
func (s *RedisStore) PurgeStaleVersions(ctx context.Context) error {
	keep := redisKeyPrefix + Version + ":"
	return s.deleteMatching(ctx, redisKeyPrefix+"*", func(key string) bool {
		return !strings.HasPrefix(key, keep)
	})
}

func (s *RedisStore) scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (s *RedisStore) deleteMatching(ctx context.Context, pattern string, match func(string) bool) error {
	keys, err := s.scan(ctx, pattern)
	if err != nil {
		return err
	}
	var doomed []string
	for _, key := range keys {
		if match == nil || match(key) {
			doomed = append(doomed, key)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, doomed...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Verify interface
var _ Store = (*RedisStore)(nil)
