// Package cache provides a Redis-backed read cache.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"time"

	"dealer_ops_backend/platform/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by Get when the key is not present.
var ErrMiss = errors.New("cache: miss")

// Cache wraps a Redis client with JSON marshaling and request collapsing.
// A nil *Cache is valid and behaves as an always-miss cache, so callers can
// run without Redis configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// New connects to Redis using the configured URL. Returns (nil, nil) when
// caching is not enabled.
func New(cfg config.RedisConfig) (*Cache, error) {
	if !cfg.IsCacheEnabled() {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Cache{
		client: redis.NewClient(opt),
		ttl:    cfg.GetCacheTTL(),
	}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get unmarshals the cached value for key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if c == nil {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Set marshals value and stores it under key with the given TTL.
// A zero ttl falls back to the cache default.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeletePrefix removes all keys matching prefix*.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

// Fetch reads key into dest, calling fill on a miss and caching its result
// with the default TTL. Concurrent fills for the same key are collapsed
// into a single call.
func (c *Cache) Fetch(ctx context.Context, key string, dest interface{}, fill func(ctx context.Context) (interface{}, error)) error {
	return c.FetchTTL(ctx, key, 0, dest, fill)
}

// FetchTTL is Fetch with an explicit TTL for the filled value. A zero ttl
// falls back to the cache default.
func (c *Cache) FetchTTL(ctx context.Context, key string, ttl time.Duration, dest interface{}, fill func(ctx context.Context) (interface{}, error)) error {
	if c == nil {
		value, err := fill(ctx)
		if err != nil {
			return err
		}
		return reassign(value, dest)
	}

	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrMiss) {
		return err
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		fresh, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, fresh, ttl); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return err
	}
	return reassign(value, dest)
}

// reassign copies value into dest through JSON, matching what a cache hit
// would have produced.
func reassign(value interface{}, dest interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
