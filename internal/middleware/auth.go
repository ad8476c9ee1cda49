// Package middleware provides the gin middleware chain: authentication,
// request logging and request metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/foresightlab/signalhub/internal/auth"
	"github.com/foresightlab/signalhub/internal/models"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// apiKeyHeader carries the shared read-only API key.
const apiKeyHeader = "X-Api-Key"

// GetIdentity extracts the authenticated identity from the context.
// It is only valid on handlers behind RequireAuth.
func GetIdentity(c *gin.Context) models.Identity {
	id, _ := c.Get(identityKey)
	identity, _ := id.(models.Identity)
	return identity
}

// RequireAuth authenticates every request with either a Bearer JWT or
// the shared API key and stores the resulting identity in the context.
// Requests carrying neither are rejected with 401.
func RequireAuth(jwtManager *auth.JWTManager, apiKeys *auth.APIKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
				return
			}
			identity, err := jwtManager.Verify(parts[1])
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			c.Set(identityKey, identity)
			c.Next()
			return
		}

		if key := c.GetHeader(apiKeyHeader); key != "" {
			identity, err := apiKeys.Verify(key)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			c.Set(identityKey, identity)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrMissingToken.Error()})
	}
}
