package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the Redis backend writes.
const DefaultRedisPrefix = "bastion:"

// Redis is a cache shared between processes. Values are stored as JSON
// under "<prefix>rp:<key>" and every role ID keeps an index set
// "<prefix>role:<id>" of the entry keys it participates in, so partial
// invalidation does not need a keyspace scan.
//
// Redis failures degrade to cache misses and are logged; they never fail the
// caller.
type Redis[V any] struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// WithRedisTTL sets the entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(o *redisOptions) { o.ttl = ttl }
}

// WithRedisPrefix sets the key namespace.
func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

// WithRedisLogger sets the logger used for degraded operations.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(o *redisOptions) { o.logger = l }
}

// NewRedis wraps an existing client.
func NewRedis[V any](client redis.UniversalClient, opts ...RedisOption) *Redis[V] {
	o := redisOptions{ttl: DefaultTTL, prefix: DefaultRedisPrefix, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	return &Redis[V]{client: client, ttl: o.ttl, prefix: o.prefix, logger: o.logger}
}

// DialRedis parses a redis:// URL, connects, and verifies the connection.
func DialRedis[V any](ctx context.Context, url string, opts ...RedisOption) (*Redis[V], error) {
	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}
	ro.DialTimeout = 5 * time.Second
	ro.ReadTimeout = 3 * time.Second
	ro.WriteTimeout = 3 * time.Second

	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}
	return NewRedis[V](client, opts...), nil
}

// Close closes the underlying client.
func (c *Redis[V]) Close() error { return c.client.Close() }

func (c *Redis[V]) entryKey(key string) string { return c.prefix + "rp:" + key }
func (c *Redis[V]) indexKey(roleID string) string { return c.prefix + "role:" + roleID }

// Get returns the cached value for key.
func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	data, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		c.logger.Warn("cache: redis get failed", slog.String("key", key), slog.String("error", err.Error()))
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache: dropping corrupt entry", slog.String("key", key), slog.String("error", err.Error()))
		c.client.Del(ctx, c.entryKey(key))
		return zero, false
	}
	return v, true
}

// Set stores a value for key and records the key in each member's index.
func (c *Redis[V]) Set(ctx context.Context, key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache: marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.entryKey(key), data, c.ttl)
		for _, m := range Members(key) {
			idx := c.indexKey(m)
			pipe.SAdd(ctx, idx, key)
			pipe.Expire(ctx, idx, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("cache: redis set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Invalidate removes every entry whose key contains one of roleIDs.
// Calling it with no IDs clears every key under the prefix.
func (c *Redis[V]) Invalidate(ctx context.Context, roleIDs []string) {
	if len(roleIDs) == 0 {
		c.purge(ctx)
		return
	}

	for _, r := range roleIDs {
		idx := c.indexKey(r)
		keys, err := c.client.SMembers(ctx, idx).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache: redis index read failed", slog.String("role_id", r), slog.String("error", err.Error()))
			continue
		}
		del := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			del = append(del, c.entryKey(k))
		}
		del = append(del, idx)
		if err := c.client.Del(ctx, del...).Err(); err != nil {
			c.logger.Warn("cache: redis delete failed", slog.String("role_id", r), slog.String("error", err.Error()))
		}
	}
}

func (c *Redis[V]) purge(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 200).Result()
		if err != nil {
			c.logger.Warn("cache: redis scan failed", slog.String("error", err.Error()))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("cache: redis purge failed", slog.String("error", err.Error()))
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
