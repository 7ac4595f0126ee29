// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/urbanthreads/storefront-backend/internal/config"
)

// Cache is a thin read-through cache over Redis. When no Redis host is
// configured every operation is a no-op, so callers never need to branch
// on whether caching is enabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Cache {
	c := &Cache{
		ttl: time.Duration(cfg.CacheTTL) * time.Second,
	}

	if cfg.Host == "" {
		return c
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, caching disabled")
		c.client = nil
	}

	return c
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON reports whether the key was present and unmarshaled into dest.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache entry corrupt, dropping")
		c.client.Del(ctx, key)
		return false
	}

	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).Warn("Cache invalidation failed")
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
