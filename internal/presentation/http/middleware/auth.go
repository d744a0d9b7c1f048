// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"
	"strings"

	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
	"github.com/formflowhq/formflow-go/pkg/config"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

// AuthMiddleware verifies the Bearer access token and stores the caller's
// identity on the request context.
func AuthMiddleware(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"data": nil, "error": gin.H{
				"code": "UNAUTHORIZED", "message": "authentication required",
			}})
			c.Abort()
			return
		}

		claims, err := security.VerifyToken(token, config.JWTAccessSecret)
		if err != nil {
			logger.Auth().Debug("Rejected access token", "path", c.Request.URL.Path, "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{"data": nil, "error": gin.H{
				"code": "UNAUTHORIZED", "message": "invalid or expired token",
			}})
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated caller's id, set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
