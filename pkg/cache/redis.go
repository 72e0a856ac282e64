// Package cache provides shared verdict cache backends for hierarchy registries.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

// RedisConfig holds Redis connection and keying configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to all verdict keys. Registries sharing a prefix
	// must be built from the same class set.
	Prefix string
	// TTL bounds how long a verdict lives. Zero keeps verdicts until cleared.
	TTL time.Duration
}

// DefaultRedisConfig returns a default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "lineage:",
	}
}

// RedisCache stores inheritance verdicts in Redis so several processes
// can share them. It implements hierarchy.Cache.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ hierarchy.Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, config RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisCacheWithClient(client, config), nil
}

// NewRedisCacheWithClient creates a verdict cache over an existing client
func NewRedisCacheWithClient(client *redis.Client, config RedisConfig) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Key returns the Redis key holding the verdict for pair
func (r *RedisCache) Key(pair hierarchy.Pair) string {
	var b strings.Builder
	b.WriteString(r.prefix)
	b.WriteString("verdict:")
	b.WriteString(pair.Child)
	b.WriteString(">")
	b.WriteString(pair.Parent)
	return b.String()
}

// Get retrieves a verdict
func (r *RedisCache) Get(ctx context.Context, pair hierarchy.Pair) (bool, bool, error) {
	value, err := r.client.Get(ctx, r.Key(pair)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, err
	}

	switch value {
	case "1":
		return true, true, nil
	case "0":
		return false, true, nil
	}
	return false, false, fmt.Errorf("corrupt verdict %q for %s", value, pair)
}

// Set stores a verdict, replacing any previous one
func (r *RedisCache) Set(ctx context.Context, pair hierarchy.Pair, verdict bool) error {
	value := "0"
	if verdict {
		value = "1"
	}
	return r.client.Set(ctx, r.Key(pair), value, r.ttl).Err()
}

// Invalidate removes one verdict
func (r *RedisCache) Invalidate(ctx context.Context, pair hierarchy.Pair) error {
	return r.client.Del(ctx, r.Key(pair)).Err()
}

// Clear removes every verdict under the configured prefix
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"verdict:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
