package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/tenantctx"
	"github.com/villagio/backend/pkg/response"
)

const (
	// ContextMembership is the key for the validated *models.Membership.
	ContextMembership = "membership"
	// ContextTenantID is the key for the validated active tenant id.
	ContextTenantID = "tenant_id"
)

// TenantContext returns the gate every tenant-scoped route passes through:
// it re-validates the credential's tenant claims against live membership
// state on each request. Handlers downstream read the tenant id from the
// validated membership, never from client input.
func TenantContext(engine *tenantctx.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustClaims(c)
		result, err := engine.Validate(c.Request.Context(), claims.EngineClaims())
		if err != nil {
			response.ServiceUnavailable(c, "unable to validate session")
			c.Abort()
			return
		}
		if !result.Valid {
			// Stale context may indicate tampering or an administrative
			// revocation race: force a full re-authentication.
			if result.Kind == tenantctx.KindStale {
				response.Unauthorized(c, result.Reason)
			} else {
				response.Forbidden(c, result.Reason)
			}
			c.Abort()
			return
		}
		c.Set(ContextMembership, result.Membership)
		c.Set(ContextTenantID, result.Tenant.ID)
		c.Next()
	}
}

// MustMembership returns the validated membership set by TenantContext.
func MustMembership(c *gin.Context) *models.Membership {
	return c.MustGet(ContextMembership).(*models.Membership)
}
