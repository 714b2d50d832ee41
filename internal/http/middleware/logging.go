package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"tasks_api/internal/logger"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-Id"

// RequestLogger tags the request with an id and logs one line when it ends.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = newRequestID()
		}
		c.Header(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(logger.ContextWith(c.Request.Context(), "request_id", rid))

		c.Next()

		// c.Request may carry the owner by now
		l := logger.FromContext(c.Request.Context())
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", args...)
		default:
			l.Info("request", args...)
		}
	}
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
