package outbound

import (
	"context"
	"time"
)

// RateLimitResult describes one rate limit decision.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiterPort defines rate limiting operations.
type RateLimiterPort interface {
	// Allow records one request for key and reports whether it fits in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}
