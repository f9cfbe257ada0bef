package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docbridge/internal/gateway/service"
	"docbridge/internal/models"
)

const currentUserKey = "current_user"

// Auth resolves the bearer token to the current user record and stashes it
// in the request context.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		user, err := auth.UserFromToken(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid_token"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole rejects callers whose account role differs from required.
func RequireRole(required models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}

		if user.UserType != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "only " + string(required) + " users can access this resource",
			})
			return
		}

		c.Next()
	}
}

// CurrentUser returns the user installed by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
