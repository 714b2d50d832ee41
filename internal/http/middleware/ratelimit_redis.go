package middleware

import (
	"net/http"
	"strconv"
	"time"

	"tasks_api/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RedisRateLimit implements a fixed-window limiter shared by all replicas
// using INCR/EXPIRE. Keys look like rl:<window_seconds>:<owner or ip>.
// Redis errors fail open.
func RedisRateLimit(client *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	windowSeconds := strconv.FormatInt(int64(window.Seconds()), 10)

	return func(c *gin.Context) {
		key := "rl:" + windowSeconds + ":" + rateLimitKey(c)
		ctx := c.Request.Context()

		val, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.FromContext(ctx).Warn("rate limiter unavailable", "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			client.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
