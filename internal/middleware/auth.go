package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/macrochef/backend/internal/identity"
)

// UserIDKey is the gin context key holding the resolved user ID.
const UserIDKey = "user_id"

// AuthMiddleware resolves the bearer token to a user ID and stores it in the context
func AuthMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := identity.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the user ID stored by AuthMiddleware.
func UserID(c *gin.Context) (string, bool) {
	userID := c.GetString(UserIDKey)
	return userID, userID != ""
}
