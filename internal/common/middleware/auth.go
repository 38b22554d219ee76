package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bandscope-backend/internal/platform/authapi"
)

const (
	ctxUserKey  = "auth_user"
	ctxTokenKey = "auth_token"
)

// SessionValidator resolves a bearer token to its auth user.
type SessionValidator interface {
	GetUser(ctx context.Context, accessToken string) (*authapi.User, error)
}

// Authenticate validates the Authorization bearer token against the hosted
// auth service and stashes the user in the request context. Missing or
// invalid tokens are rejected; downstream handlers can rely on CurrentUser.
func Authenticate(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization"})
			return
		}

		user, err := validator.GetUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Authenticate.
func CurrentUser(c *gin.Context) (*authapi.User, bool) {
	v, exists := c.Get(ctxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*authapi.User)
	return user, ok
}

// AccessToken returns the validated bearer token for pass-through calls.
func AccessToken(c *gin.Context) string {
	v, exists := c.Get(ctxTokenKey)
	if !exists {
		return ""
	}
	token, _ := v.(string)
	return token
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
