package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthRequired guards the mutating endpoints with a shared service key.
// User-facing authentication lives in the serving layer, not here; the
// only callers of this service are the scheduler and internal tooling.
func AuthRequired(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			// No key configured: local development.
			c.Next()
			return
		}
		got := c.GetHeader("X-API-KEY")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid service key"})
			return
		}
		c.Next()
	}
}
