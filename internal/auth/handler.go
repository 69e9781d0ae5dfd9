package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/tenantctx"
	"github.com/villagio/backend/pkg/response"
	"github.com/villagio/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response: the JWT plus the tenant context
// decision made at bootstrap. When ActiveTenant is set, the token already
// carries its claims.
type TokenResponse struct {
	Token                   string                     `json:"token"`
	User                    models.UserPublic          `json:"user"`
	Tenants                 []tenantctx.TenantAccess   `json:"tenants"`
	ActiveTenant            *tenantctx.SessionContext  `json:"active_tenant,omitempty"`
	RequiresTenantSelection bool                       `json:"requires_tenant_selection"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	engine *tenantctx.Engine
	tokens *TokenStore
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, engine *tenantctx.Engine, tokens *TokenStore, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, engine: engine, tokens: tokens, logger: logger}
}

// Register handles POST /auth/register. New accounts hold no memberships;
// tenant administrators assign them later.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to check email")
		return
	}
	if existing != nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FirstName, req.LastName)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, nil)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{
		Token:   token,
		User:    user.ToPublic(),
		Tenants: []tenantctx.TenantAccess{},
	})
}

// Login handles POST /auth/login. It verifies credentials, bootstraps tenant
// context, and issues a token that embeds the auto-selected tenant when the
// user has exactly one active community.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		response.Internal(c, "login failed")
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	boot, err := h.engine.Bootstrap(c.Request.Context(), user.ID)
	if err != nil {
		response.Internal(c, "failed to initialize tenant context")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, boot.Active)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	h.logger.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.Bool("auto_selected", boot.Active != nil),
		zap.Int("tenants", len(boot.Tenants)),
	)
	response.OK(c, TokenResponse{
		Token:                   token,
		User:                    user.ToPublic(),
		Tenants:                 boot.Tenants,
		ActiveTenant:            boot.Active,
		RequiresTenantSelection: boot.RequiresSelection,
	})
}

// Refresh handles POST /auth/refresh. It re-derives tenant context from live
// state, mints a fresh token, and revokes the presented one. A stale context
// (claims no longer matching live state) forces a full re-authentication.
func (h *Handler) Refresh(c *gin.Context) {
	claims := MustClaims(c)

	user, err := h.repo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || user == nil {
		response.Unauthorized(c, "account no longer exists")
		return
	}

	var active *tenantctx.SessionContext
	if claims.TenantID != nil {
		v, err := h.engine.Validate(c.Request.Context(), claims.EngineClaims())
		if err != nil {
			response.Internal(c, "failed to validate session")
			return
		}
		if !v.Valid {
			if v.Kind == tenantctx.KindStale {
				response.Unauthorized(c, "session context is stale; re-authenticate")
				return
			}
			response.Forbidden(c, v.Reason)
			return
		}
		active = &tenantctx.SessionContext{
			UserID:   claims.UserID,
			TenantID: v.Tenant.ID,
			RoleID:   v.Role.ID,
			RoleCode: v.Role.Code,
		}
	} else {
		// No context yet: a membership may have been assigned since login,
		// so re-run the bootstrap decision.
		boot, err := h.engine.Bootstrap(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Internal(c, "failed to initialize tenant context")
			return
		}
		active = boot.Active
	}

	token, err := h.jwt.Generate(user.ID, user.Email, active)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.logger.Warn("revoke superseded token", zap.Error(err), zap.String("jti", claims.ID))
	}

	response.OK(c, TokenResponse{
		Token:        token,
		User:         user.ToPublic(),
		Tenants:      []tenantctx.TenantAccess{},
		ActiveTenant: active,
	})
}
