package bus

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// Connect dials the broker named by BUS_URL. After the configured number of
// failed attempts it gives up for the life of the process and returns a
// NullClient.
func Connect(ctx context.Context, cfg *config.Config) Client {
	log := logger.Bus()

	if cfg.Bus.URL == "" {
		log.Info("BUS_URL not set, running without event bus")
		return NewNullClient()
	}

	opts, err := redis.ParseURL(cfg.Bus.URL)
	if err != nil {
		log.Error("invalid BUS_URL, running without event bus", "error", err)
		return NewNullClient()
	}

	retries := cfg.Bus.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	client := redis.NewClient(opts)
	for attempt := 1; attempt <= retries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Bus.ConnectTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("connected to event bus", "addr", opts.Addr)
			return NewRedisClient(client, cfg.Bus.RequestTimeout)
		}

		log.Warn("event bus connection failed", "attempt", attempt, "max_attempts", retries, "error", err)
		if attempt < retries {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return NewNullClient()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}

	_ = client.Close()
	log.Error("event bus unreachable, continuing in disconnected mode", "addr", opts.Addr)
	return NewNullClient()
}
