// server/internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"disaster-relief-api-server/internal/auth"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
	ContextUser   = "user"
)

// Authenticate verifies the bearer token and loads the account behind it,
// so a blocked or deleted user is turned away even with a live token.
func Authenticate(tokens *auth.Tokens, users store.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token format"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, user not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Your account has been disabled. Please contact an administrator."})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextUser, user)

		c.Next()
	}
}

// Authorize only lets the listed roles through. It must run after Authenticate.
func Authorize(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(ContextRole)
		userRole, ok := v.(models.Role)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "User role not found in context"})
			return
		}

		for _, role := range allowedRoles {
			if role == userRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "You do not have permission to access this resource"})
	}
}

// CurrentUser returns the account loaded by Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	v, _ := c.Get(ContextUser)
	u, _ := v.(*models.User)
	return u
}
