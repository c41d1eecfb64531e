package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/gravadigital/residencia-api/internal/logger"
)

// Redis caches JSON documents in redis
type Redis struct {
	client *redis.Client
	log    *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, log: logger.Cache()}
}

func (c *Redis) Get(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("cache entry undecodable, dropping", "key", key, "error", err)
		c.Delete(ctx, key)
		return false
	}
	return true
}

func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache value not encodable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
		return
	}
	c.log.Debug("cache set", "key", key, "ttl", ttl)
}

func (c *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache delete failed", "keys", keys, "error", err)
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}
