// README: JWT auth middleware; populates caller identity and role.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"souq/internal/modules/account"
)

// TokenVerifier abstracts token validation so tests can stub it.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, account.Role, error)
}

const (
	ctxCallerID   = "caller_id"
	ctxCallerRole = "caller_role"
)

// Auth rejects requests without a valid bearer token and stores the caller's
// identity on the context for handlers downstream.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		id, role, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxCallerID, id)
		c.Set(ctxCallerRole, role)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Admins pass every
// gate.
func RequireRole(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerRole(c)
		if caller == account.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if caller == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

// CallerID returns the authenticated account id, or uuid.Nil outside Auth.
func CallerID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxCallerID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CallerRole returns the authenticated role, or empty outside Auth.
func CallerRole(c *gin.Context) account.Role {
	if v, ok := c.Get(ctxCallerRole); ok {
		if r, ok := v.(account.Role); ok {
			return r
		}
	}
	return ""
}
