package middleware

import (
	"net/http"

	"tasks_api/internal/logger"
	"tasks_api/internal/service"

	"github.com/gin-gonic/gin"
)

const ownerKey = "owner"

// Identity resolves the caller from the Authorization header and stores the
// owner in the gin context. Requests without a usable credential stop here
// with 401.
func Identity(extractor *service.IdentityExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := extractor.Owner(c.GetHeader("Authorization"))
		if err != nil {
			AuthFailures.Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ownerKey, owner)
		c.Request = c.Request.WithContext(logger.ContextWith(c.Request.Context(), "owner", owner))
		c.Next()
	}
}

// Owner returns the identity stored by Identity.
func Owner(c *gin.Context) (string, bool) {
	v, ok := c.Get(ownerKey)
	if !ok {
		return "", false
	}
	owner, ok := v.(string)
	return owner, ok && owner != ""
}
