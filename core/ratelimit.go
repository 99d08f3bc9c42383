package core

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyFunc           func(c *gin.Context) string
}

// DefaultRateLimitConfig limits per client IP over one minute.
func DefaultRateLimitConfig(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: perMinute,
		Window:            rateLimitWindow,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware counts requests per key and path in Redis.
// Redis failures let the request through.
func RateLimitMiddleware(client redis.Cmdable, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RequestsPerWindow <= 0 {
			c.Next()
			return
		}

		key := config.KeyFunc(c)
		rateLimitKey := "ratelimit:" + key + ":" + c.Request.URL.Path
		ctx := c.Request.Context()

		count, err := incrWindow(ctx, client, rateLimitKey, config.Window)
		if err != nil {
			log.Printf("[ratelimit] increment failed key=%s err=%v", rateLimitKey, err)
			c.Next()
			return
		}

		remaining := int64(config.RequestsPerWindow) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(config.RequestsPerWindow) {
			log.Printf("[ratelimit] exceeded for %s on %s (count: %d)", key, c.Request.URL.Path, count)
			abortWithError(c, http.StatusTooManyRequests, codeRateLimited, "Too many requests from this IP, please try again later.")
			return
		}
		c.Next()
	}
}

// incrWindow counts one hit in the window at key. The counter is created with
// its TTL in the same MULTI as the INCR, so a key never outlives its window.
func incrWindow(ctx context.Context, client redis.Cmdable, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
