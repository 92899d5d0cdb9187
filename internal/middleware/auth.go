package middleware

import (
	"net/http"
	"strings"

	"spacerental/internal/pkg/jwt"
	"spacerental/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth validates the bearer token and stores user_id and role in the context.
// Browsers cannot set headers on websocket upgrades, so GET requests may pass
// the token as the access_token query parameter instead.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, code, message := bearerToken(c)
		if code != "" {
			response.Abort(c, http.StatusUnauthorized, code, message)
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, message string) {
	h := c.GetHeader("Authorization")
	if h == "" {
		if q := c.Query("access_token"); q != "" && c.Request.Method == http.MethodGet {
			return q, "", ""
		}
		return "", "AUTH_HEADER_MISSING", "Missing Authorization header"
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}

	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "INVALID_AUTH_FORMAT", "Empty token"
	}
	return token, "", ""
}

// UserID returns the authenticated user set by JWTAuth, or 0.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}
