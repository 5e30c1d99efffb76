package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/port/outbound"
	"github.com/eventsync/server/internal/shared/response"
)

const (
	// RateLimitRemaining is the header for remaining requests.
	RateLimitRemaining = "X-RateLimit-Remaining"
	// RateLimitLimit is the header for the limit.
	RateLimitLimit = "X-RateLimit-Limit"
	// RateLimitReset is the header for reset time.
	RateLimitReset = "X-RateLimit-Reset"
	// RetryAfter is the header for retry time.
	RetryAfter = "Retry-After"
)

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	// Limit is the maximum number of requests per window.
	Limit int
	// Window is the time window.
	Window time.Duration
	// KeyFunc generates the rate limit key from request.
	// Default uses the actor, falling back to client IP.
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   120,
		Window:  time.Minute,
		KeyFunc: actorOrIP,
	}
}

// RateLimit returns a middleware that limits requests using the given limiter.
// Limiter errors let the request through.
func RateLimit(limiter outbound.RateLimiterPort, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = actorOrIP
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRateLimitConfig().Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultRateLimitConfig().Window
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		result, err := limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header(RateLimitLimit, strconv.Itoa(result.Limit))
		c.Header(RateLimitRemaining, strconv.Itoa(result.Remaining))
		c.Header(RateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retry := int(time.Until(result.ResetAt).Seconds()) + 1
			if retry < 1 {
				retry = 1
			}
			c.Header(RetryAfter, strconv.Itoa(retry))
			response.Abort(c, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, please try again later")
			return
		}

		c.Next()
	}
}

func actorOrIP(c *gin.Context) string {
	if actor := GetActor(c); actor != "" {
		return "actor:" + actor
	}
	return "ip:" + c.ClientIP()
}
