package middleware

import (
	"wasender/internal/repository"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware gates server-to-server callers on the X-API-Key header,
// validated against registered API clients.
func APIKeyMiddleware(repo repository.APIKeyInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")

		if apiKey == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing API key"})
			return
		}

		ok, err := repo.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil || !ok {
			c.AbortWithStatusJSON(403, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
