// Package cache is a best-effort key/value layer. Nothing here ever fails the
// caller: misses and backend errors look the same from outside.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// DefaultTTL applies to cached complaints
const DefaultTTL = 15 * time.Minute

// Cache stores JSON-encodable values with a per-key TTL
type Cache interface {
	// Get decodes the cached value into dst and reports a hit
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Close() error
}

// ComplaintKey is the cache key of a complaint by id
func ComplaintKey(id uuid.UUID) string {
	return fmt.Sprintf("complaint:%s", id)
}

// New returns a redis-backed cache, or Noop when no URL is configured or the
// server cannot be reached.
func New(ctx context.Context, cfg *config.Config) Cache {
	log := logger.Cache()

	if cfg.Cache.RedisURL == "" {
		log.Info("REDIS_URL not set, caching disabled")
		return Noop{}
	}

	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, caching disabled", "error", err)
		return Noop{}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, caching disabled", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return Noop{}
	}

	log.Info("connected to redis cache", "addr", opts.Addr)
	return NewRedis(client)
}
