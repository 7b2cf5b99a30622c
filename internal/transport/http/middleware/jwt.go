package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"remobot/internal/pkg/jwtutil"
	"remobot/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// Identity returns the authenticated user set by AuthJWT.
func Identity(c *gin.Context) (uint, string, bool) {
	userID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, "", false
	}
	id, ok := userID.(uint)
	if !ok || id == 0 {
		return 0, "", false
	}
	username := c.GetString(ContextUsernameKey)
	return id, username, username != ""
}
