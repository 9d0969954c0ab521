package middleware

import (
	"net/http"

	"collab-app/internal/domain/access"
	"collab-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

// RequireRole gates a route group on an explicit access rule. Use
// access.AnyRole for routes open to every authenticated user.
func RequireRole(rule access.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Role not found in token"})
			c.Abort()
			return
		}

		roleStr, _ := value.(string)
		if !rule.Allows(users.Role(roleStr)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}
