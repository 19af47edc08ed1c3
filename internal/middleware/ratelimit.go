package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/pkg/response"
)

// RateLimiter is a fixed-window counter shared across instances through Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
}

// NewRateLimiter allows limit requests per window for each key.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{client: client, limit: limit, window: window, prefix: "ratelimit", logger: logger}
}

// Allow increments the counter for key and reports whether it is still within the limit.
// On Redis errors it allows the request and returns the error.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return true, fmt.Errorf("redis error: %w", err)
		}
	}
	return count <= int64(rl.limit), nil
}

// Limit throttles a route per client IP. The route name namespaces the counter.
func (rl *RateLimiter) Limit(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}
		key := route + ":" + c.ClientIP()
		allowed, err := rl.Allow(c.Request.Context(), key)
		if err != nil {
			rl.logger.Warn("rate limiter unavailable, allowing request", zap.Error(err), zap.String("route", route))
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.Error(c, nil, apperr.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
