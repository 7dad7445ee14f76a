package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub/internal/platform/metrics"
	"learnhub/pkg/platform/sentinel"
)

// RedisCache is the production Cache shared by every instance of the service.
type RedisCache struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// RedisCacheOption configures a RedisCache instance.
type RedisCacheOption func(*RedisCache)

// WithCacheMetrics records per-operation latency.
func WithCacheMetrics(m *metrics.Metrics) RedisCacheOption {
	return func(c *RedisCache) {
		c.metrics = m
	}
}

// NewRedisCache wraps client. The client lifecycle is managed by the caller.
func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	defer c.metrics.ObserveCacheOp("get", time.Now())

	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(sentinel.ErrUnavailable, err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer c.metrics.ObserveCacheOp("set", time.Now())

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return nil
}

// Replace uses SET XX so a concurrent delete is never undone.
func (c *RedisCache) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	defer c.metrics.ObserveCacheOp("replace", time.Now())

	if ttl == KeepTTL {
		ttl = redis.KeepTTL
	}
	ok, err := c.client.SetXX(ctx, key, value, ttl).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(sentinel.ErrUnavailable, err)
	}
	return ok, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	defer c.metrics.ObserveCacheOp("delete", time.Now())

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	return nil
}
