package tenants

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/memberships"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/roles"
	"github.com/villagio/backend/pkg/response"
)

// Slug must be lowercase alphanumeric and hyphens only, 2–64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Handler handles tenant HTTP endpoints.
type Handler struct {
	repo        *Repository
	memberships *memberships.Repository
	roles       *roles.Repository
	logger      *zap.Logger
}

// NewHandler creates a tenants handler.
func NewHandler(repo *Repository, members *memberships.Repository, roleRepo *roles.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, memberships: members, roles: roleRepo, logger: logger}
}

// CreateRequest is the body for POST /tenants.
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// Create handles POST /tenants. The new community starts in trial status and
// the creator becomes its admin-head. Trial tenants appear at bootstrap but
// cannot be switched into until activated.
func (h *Handler) Create(c *gin.Context) {
	claims := auth.MustClaims(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugRegex.MatchString(req.Slug) {
		response.BadRequest(c, "slug must be 2–64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 1 || len(req.Name) > 255 {
		response.BadRequest(c, "name must be 1–255 characters")
		return
	}

	taken, err := h.repo.GetBySlug(c.Request.Context(), req.Slug)
	if err != nil {
		response.Internal(c, "failed to check slug")
		return
	}
	if taken != nil {
		response.Conflict(c, "a community with this slug already exists")
		return
	}

	adminRole, err := h.roles.GetByCode(c.Request.Context(), models.RoleAdminHead)
	if err != nil || adminRole == nil {
		response.Internal(c, "role catalog unavailable")
		return
	}

	tenant := &models.Tenant{Name: req.Name, Slug: req.Slug, Status: models.TenantTrial}
	if err := h.repo.Create(c.Request.Context(), tenant); err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "a community with this slug already exists")
			return
		}
		response.Internal(c, "failed to create tenant")
		return
	}

	m := &models.Membership{
		TenantID: tenant.ID,
		UserID:   claims.UserID,
		RoleID:   adminRole.ID,
		IsActive: true,
	}
	if err := h.memberships.Create(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to add you as admin")
		return
	}

	h.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
		zap.String("created_by", claims.UserID.String()),
	)
	response.Created(c, tenant)
}

// UpdateStatusRequest is the body for PATCH /tenants/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /tenants/:id/status. Platform admins only:
// lifecycle transitions take effect on the next validate of every session in
// the tenant, so suspension immediately locks members out.
func (h *Handler) UpdateStatus(c *gin.Context) {
	claims := auth.MustClaims(c)
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tenant id")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidTenantStatus(req.Status) {
		response.BadRequest(c, "status must be one of active, trial, suspended, cancelled, inactive")
		return
	}

	isAdmin, err := h.repo.UserIsPlatformAdmin(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Internal(c, "failed to check permissions")
		return
	}
	if !isAdmin {
		response.Forbidden(c, "platform administrator required")
		return
	}

	tenant, err := h.repo.UpdateStatus(c.Request.Context(), tenantID, models.TenantStatus(req.Status))
	if err != nil {
		response.Internal(c, "failed to update tenant status")
		return
	}
	if tenant == nil {
		response.NotFound(c, "tenant not found")
		return
	}

	h.logger.Info("tenant status updated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("status", string(tenant.Status)),
	)
	response.OK(c, tenant)
}
