package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "storefront:resp:"

// Redis is a ResponseCache backed by a shared Redis instance, for
// server-side rendered storefront deployments where several processes
// serve the same customer. Expiry is delegated to Redis TTLs.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. A non-positive ttl falls back to
// DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func redisKey(key Key) string {
	if key.Query == "" {
		return redisKeyPrefix + key.Path
	}
	return redisKeyPrefix + key.Path + "?" + key.Query
}

// Get returns the live payload for key, or ErrMiss.
func (r *Redis) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Set stores payload under key with the cache TTL.
func (r *Redis) Set(ctx context.Context, key Key, payload []byte) error {
	if err := r.client.Set(ctx, redisKey(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate removes the single entry for key.
func (r *Redis) Invalidate(ctx context.Context, key Key) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// InvalidatePath removes every entry whose path starts with prefix.
func (r *Redis) InvalidatePath(ctx context.Context, prefix string) error {
	return r.deleteByPattern(ctx, redisKeyPrefix+prefix+"*")
}

// Clear drops every entry this cache owns.
func (r *Redis) Clear(ctx context.Context) error {
	return r.deleteByPattern(ctx, redisKeyPrefix+"*")
}

func (r *Redis) deleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Close releases the underlying client connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
