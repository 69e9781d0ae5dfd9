package auth

import (
	"github.com/gin-gonic/gin"
)

// ContextClaims is the gin context key under which the JWT middleware stores
// the validated *Claims.
const ContextClaims = "auth_claims"

// MustClaims returns the validated claims set by the JWT middleware. It
// panics when called outside an authenticated route.
func MustClaims(c *gin.Context) *Claims {
	return c.MustGet(ContextClaims).(*Claims)
}
