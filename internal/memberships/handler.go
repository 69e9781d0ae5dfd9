package memberships

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/middleware"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/notifications"
	"github.com/villagio/backend/internal/roles"
	"github.com/villagio/backend/pkg/queue"
	"github.com/villagio/backend/pkg/response"
)

// Handler handles member administration for the active tenant.
type Handler struct {
	repo      *Repository
	users     *auth.Repository
	roles     *roles.Repository
	notifRepo *notifications.Repository
	jobs      *queue.Queue
	logger    *zap.Logger
}

// NewHandler creates a memberships handler.
func NewHandler(repo *Repository, users *auth.Repository, roleRepo *roles.Repository, notifRepo *notifications.Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, roles: roleRepo, notifRepo: notifRepo, jobs: jobs, logger: logger}
}

// List handles GET /members: all members of the active tenant.
func (h *Handler) List(c *gin.Context) {
	m := middleware.MustMembership(c)
	members, err := h.repo.ListMembers(c.Request.Context(), m.TenantID)
	if err != nil {
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}

// AssignRequest is the body for POST /members.
type AssignRequest struct {
	Email               string               `json:"email" binding:"required,email"`
	RoleCode            string               `json:"role_code" binding:"required"`
	PermissionOverrides models.PermissionMap `json:"permission_overrides"`
}

// Assign handles POST /members: adds a platform user to the active tenant
// with a role. One membership per (user, tenant): a second assignment is a
// conflict, checked here and enforced by the database constraint.
func (h *Handler) Assign(c *gin.Context) {
	actor := middleware.MustMembership(c)
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and role_code required")
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		response.Internal(c, "failed to look up user")
		return
	}
	if user == nil {
		response.NotFound(c, "no account with this email")
		return
	}

	role, err := h.roles.GetByCode(c.Request.Context(), req.RoleCode)
	if err != nil {
		response.Internal(c, "failed to look up role")
		return
	}
	if role == nil {
		response.BadRequest(c, "unknown role code")
		return
	}
	if role.Scope == models.ScopePlatform {
		response.Forbidden(c, "platform roles cannot be assigned here")
		return
	}
	if actor.Role != nil && !actor.Role.OutranksOrEquals(role) {
		response.Forbidden(c, "cannot assign a role senior to your own")
		return
	}

	existing, err := h.repo.GetMembership(c.Request.Context(), user.ID, actor.TenantID)
	if err != nil {
		response.Internal(c, "failed to check membership")
		return
	}
	if existing != nil {
		response.Conflict(c, "user is already a member of this community")
		return
	}

	m := &models.Membership{
		TenantID:            actor.TenantID,
		UserID:              user.ID,
		RoleID:              role.ID,
		IsActive:            true,
		PermissionOverrides: req.PermissionOverrides,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "user is already a member of this community")
			return
		}
		response.Internal(c, "failed to add member")
		return
	}

	h.notifyAssigned(c, m, user, role)
	h.logger.Info("member assigned",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role_code", role.Code),
	)
	response.Created(c, m)
}

// notifyAssigned queues a membership-assigned notification; delivery is
// best-effort and never fails the assignment.
func (h *Handler) notifyAssigned(c *gin.Context, m *models.Membership, user *models.User, role *models.Role) {
	tenant := middleware.MustMembership(c).Tenant
	tenantName := ""
	if tenant != nil {
		tenantName = tenant.Name
	}
	n := &models.Notification{
		TenantID:    m.TenantID,
		RecipientID: user.ID,
		Kind:        models.NotifyMembershipAssigned,
		Subject:     "You have been added to " + tenantName,
		Body:        fmt.Sprintf("You now have the %s role in %s. Sign in and switch to this community to get started.", role.Name, tenantName),
		Status:      models.NotificationQueued,
	}
	if err := h.notifRepo.Create(c.Request.Context(), n); err != nil {
		h.logger.Warn("create notification", zap.Error(err))
		return
	}
	if err := h.jobs.EnqueueNotification(c.Request.Context(), queue.NotificationPayload{
		NotificationID: n.ID,
		TenantID:       n.TenantID,
	}); err != nil {
		h.logger.Warn("enqueue notification", zap.Error(err))
	}
}

// UpdateRequest is the body for PATCH /members/:id. Omitted fields are
// unchanged; permission_overrides replaces the whole override map when set.
type UpdateRequest struct {
	RoleCode            *string               `json:"role_code"`
	IsActive            *bool                 `json:"is_active"`
	PermissionOverrides *models.PermissionMap `json:"permission_overrides"`
}

// Update handles PATCH /members/:id: role change, activation flag, and
// per-member permission overrides. Changes take effect on the member's next
// request: the validator re-reads live state every time.
func (h *Handler) Update(c *gin.Context) {
	actor := middleware.MustMembership(c)
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	params := UpdateParams{
		IsActive:            req.IsActive,
		PermissionOverrides: req.PermissionOverrides,
	}
	if req.RoleCode != nil {
		role, err := h.roles.GetByCode(c.Request.Context(), *req.RoleCode)
		if err != nil {
			response.Internal(c, "failed to look up role")
			return
		}
		if role == nil {
			response.BadRequest(c, "unknown role code")
			return
		}
		if role.Scope == models.ScopePlatform {
			response.Forbidden(c, "platform roles cannot be assigned here")
			return
		}
		if actor.Role != nil && !actor.Role.OutranksOrEquals(role) {
			response.Forbidden(c, "cannot assign a role senior to your own")
			return
		}
		params.RoleID = &role.ID
	}

	updated, err := h.repo.Update(c.Request.Context(), actor.TenantID, memberID, params)
	if err != nil {
		response.Internal(c, "failed to update member")
		return
	}
	if updated == nil {
		response.NotFound(c, "member not found in this community")
		return
	}

	h.logger.Info("member updated",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("membership_id", memberID.String()),
	)
	response.OK(c, updated)
}
