package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/auth"
)

const identityKey = "identity"

// RequireAuth rejects requests without a valid bearer token and stores the caller's identity in the context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseBearer(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuth stores the identity when a valid token is present and never rejects.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := parseBearer(c, secret); ok {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// IdentityFrom returns the identity set by RequireAuth or OptionalAuth.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func parseBearer(c *gin.Context, secret []byte) (auth.Identity, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return auth.Identity{}, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return auth.Identity{}, false
	}
	id, err := auth.Parse(secret, strings.TrimSpace(parts[1]))
	if err != nil {
		log.Printf("[auth] rejected token: %v", err)
		return auth.Identity{}, false
	}
	return id, true
}
