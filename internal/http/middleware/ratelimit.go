package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// rateLimitKey prefers the authenticated owner and falls back to the client IP.
func rateLimitKey(c *gin.Context) string {
	if owner, ok := Owner(c); ok {
		return "owner:" + owner
	}
	return "ip:" + c.ClientIP()
}

// SimpleRateLimit is an in-process fixed window limiter, used when Redis
// is not configured. State is per process.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientInfo)
		sweep   = time.Now()
	)

	return func(c *gin.Context) {
		key := rateLimitKey(c)
		now := time.Now()

		mu.Lock()
		if now.Sub(sweep) > window {
			for k, ci := range clients {
				if now.Sub(ci.start) > window {
					delete(clients, k)
				}
			}
			sweep = now
		}
		ci, ok := clients[key]
		if !ok || now.Sub(ci.start) > window {
			ci = &clientInfo{start: now}
			clients[key] = ci
		}
		ci.count++
		count := ci.count
		mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))

		if count > maxRequests {
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
