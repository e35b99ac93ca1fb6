package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsContextKey is the gin context key under which RequireAuth stores
// the verified claims.
const ClaimsContextKey = "auth_claims"

// RequireAuth rejects requests that do not carry a valid Bearer token.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing bearer token."})
			return
		}

		claims, err := Parse(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token."})
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}
