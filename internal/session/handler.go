// Package session exposes the tenant context engine over HTTP: listing
// accessible tenants, switching the active tenant, validating the current
// session, and answering permission checks.
package session

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/middleware"
	"github.com/villagio/backend/internal/tenantctx"
	"github.com/villagio/backend/pkg/response"
)

// TokenRevoker denylists a token id until its expiry. Implemented by
// auth.TokenStore.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// Handler handles session and tenant-switch HTTP endpoints.
type Handler struct {
	engine *tenantctx.Engine
	jwt    *auth.JWTService
	tokens TokenRevoker
	logger *zap.Logger
}

// NewHandler creates a session handler.
func NewHandler(engine *tenantctx.Engine, jwt *auth.JWTService, tokens TokenRevoker, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, jwt: jwt, tokens: tokens, logger: logger}
}

// ListTenants handles GET /tenants: the tenants the current user can access.
func (h *Handler) ListTenants(c *gin.Context) {
	claims := auth.MustClaims(c)
	tenants, err := h.engine.ListAccessibleTenants(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Internal(c, "failed to load tenants")
		return
	}
	response.OK(c, tenants)
}

// SwitchRequest is the body for POST /tenants/switch.
type SwitchRequest struct {
	TenantID uuid.UUID `json:"tenant_id" binding:"required"`
}

// SwitchResponse carries the new context and the refreshed token. The switch
// is only effective for authorization once the caller starts presenting the
// new token.
type SwitchResponse struct {
	Success  bool      `json:"success"`
	TenantID uuid.UUID `json:"tenant_id"`
	RoleID   uuid.UUID `json:"role_id"`
	RoleCode string    `json:"role_code"`
	Token    string    `json:"token"`
}

// Switch handles POST /tenants/switch. On success the presented token is
// revoked and a new one embedding the target tenant's claims is returned.
// "Switched" and "token refreshed" are separate steps: a mint failure after
// a successful switch is surfaced as its own error so the caller does not
// believe it has moved tenants on a credential that has not changed.
func (h *Handler) Switch(c *gin.Context) {
	claims := auth.MustClaims(c)
	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "tenant_id required")
		return
	}

	result, err := h.engine.Switch(c.Request.Context(), claims.UserID, req.TenantID)
	if err != nil {
		response.Internal(c, "failed to switch tenant")
		return
	}
	if !result.Success {
		if result.Kind == tenantctx.KindNotFound {
			response.NotFound(c, result.Reason)
		} else {
			response.Forbidden(c, result.Reason)
		}
		return
	}

	token, err := h.jwt.Generate(claims.UserID, claims.Email, &tenantctx.SessionContext{
		UserID:   claims.UserID,
		TenantID: result.TenantID,
		RoleID:   result.RoleID,
		RoleCode: result.RoleCode,
	})
	if err != nil {
		response.Internal(c, "tenant switched but token refresh failed; retry refresh")
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.logger.Warn("revoke superseded token", zap.Error(err), zap.String("jti", claims.ID))
	}

	response.OK(c, SwitchResponse{
		Success:  true,
		TenantID: result.TenantID,
		RoleID:   result.RoleID,
		RoleCode: result.RoleCode,
		Token:    token,
	})
}

// Get handles GET /session: validates the current claims against live state.
func (h *Handler) Get(c *gin.Context) {
	claims := auth.MustClaims(c)
	result, err := h.engine.Validate(c.Request.Context(), claims.EngineClaims())
	if err != nil {
		response.Internal(c, "failed to validate session")
		return
	}
	response.OK(c, result)
}

// Permissions handles GET /session/permissions: the full effective
// permission set for the validated membership.
func (h *Handler) Permissions(c *gin.Context) {
	m := middleware.MustMembership(c)
	response.OK(c, tenantctx.Resolve(m))
}

// CheckRequest is the body for POST /session/permissions/check.
type CheckRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

// CheckPermissions handles POST /session/permissions/check: answers a batch
// of permission keys from one resolved snapshot.
func (h *Handler) CheckPermissions(c *gin.Context) {
	m := middleware.MustMembership(c)
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "keys required")
		return
	}
	response.OK(c, tenantctx.CheckMany(m, req.Keys))
}
