package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// TokenChecker answers whether a token id is on the revocation denylist.
// Implemented by auth.TokenStore.
type TokenChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWT returns a middleware that validates the bearer token, rejects revoked
// credentials, and stores the claims in the request context. The tenant
// claims it carries are NOT trusted yet; TenantContext re-validates them
// against live state before any tenant-scoped access.
func JWT(jwtService *auth.JWTService, tokens TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		revoked, err := tokens.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.ServiceUnavailable(c, "unable to verify credential")
			c.Abort()
			return
		}
		if revoked {
			response.Unauthorized(c, "token has been revoked")
			c.Abort()
			return
		}
		c.Set(auth.ContextClaims, claims)
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}
