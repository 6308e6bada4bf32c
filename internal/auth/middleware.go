package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	handleKey  = "handle"
	isAdminKey = "is_admin"
)

// AuthMiddleware validates JWT tokens and protects routes
func AuthMiddleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(handleKey, claims.Handle)
		c.Set(isAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// RequireAdmin rejects callers whose token lacks the admin capability.
// It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetHandle retrieves the caller's handle from the context
func GetHandle(c *gin.Context) (string, bool) {
	v, exists := c.Get(handleKey)
	if !exists {
		return "", false
	}
	handle, ok := v.(string)
	return handle, ok && handle != ""
}

// IsAdmin reports whether the caller holds the admin capability
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(isAdminKey)
}
