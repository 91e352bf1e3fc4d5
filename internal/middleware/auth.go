package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nilantra/furniture-api/internal/model"
)

const principalKey = "principal"

// TokenAuthenticator resolves a bearer token to the principal it was issued to.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (model.Principal, error)
}

// bearerToken reads the Authorization header, falling back to the "token"
// query parameter for WebSocket clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}

func AuthMiddleware(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// OptionalAuth attaches a principal when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if p, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := OptionalPrincipal(c)
		if !ok || !p.Has(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": string(role) + " only"})
			return
		}
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) model.Principal {
	p, _ := OptionalPrincipal(c)
	return p
}

func OptionalPrincipal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
