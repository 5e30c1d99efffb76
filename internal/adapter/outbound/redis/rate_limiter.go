package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eventsync/server/internal/port/outbound"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter implements outbound.RateLimiterPort with a sliding window log
// kept in a sorted set per key.
type RateLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter adapter.
func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*outbound.RateLimitResult, error) {
	fullKey := rateLimitKeyPrefix + key
	now := r.now()
	windowStart := now.Add(-window).UnixMilli()
	member := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()

	// Record the request optimistically and count the window in one round trip.
	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, fullKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, fullKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, fullKey, 0, 0)
	pipe.PExpire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(countCmd.Val())
	result := &outbound.RateLimitResult{
		Limit:   limit,
		ResetAt: now.Add(window),
	}
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		result.ResetAt = time.UnixMilli(int64(oldest[0].Score)).UTC().Add(window)
	}

	if count > limit {
		// Rejected requests do not consume the window.
		if err := r.client.ZRem(ctx, fullKey, member).Err(); err != nil {
			return nil, fmt.Errorf("rate limit %s: %w", key, err)
		}
		return result, nil
	}

	result.Allowed = true
	result.Remaining = limit - count
	return result, nil
}

// Compile-time check
var _ outbound.RateLimiterPort = (*RateLimiter)(nil)
