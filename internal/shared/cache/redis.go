// Package cache opens the Redis connection shared by the notifier, the rate
// limiter and the idempotency store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventsync/server/internal/shared/config"
)

const pingTimeout = 3 * time.Second

// NewRedisClient connects to Redis and pings it once.
// A nil client and nil error mean Redis is disabled.
func NewRedisClient(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Address, err)
	}
	return client, nil
}

// Ping checks the connection. A nil client is reported as disabled.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if client == nil {
		return ErrDisabled
	}
	return client.Ping(ctx).Err()
}

// ErrDisabled is returned by Ping when no Redis address is configured.
var ErrDisabled = errors.New("redis disabled")

// Close closes the client if one was opened.
func Close(client redis.UniversalClient) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
