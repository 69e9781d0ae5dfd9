// Package households manages tenant-scoped residence units and their
// residents.
package households

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/villagio/backend/internal/middleware"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/pkg/response"
)

// Handler handles household HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a households handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /households.
func (h *Handler) List(c *gin.Context) {
	m := middleware.MustMembership(c)
	list, err := h.repo.List(c.Request.Context(), m.TenantID)
	if err != nil {
		response.Internal(c, "failed to load households")
		return
	}
	response.OK(c, list)
}

// CreateRequest is the body for POST /households.
type CreateRequest struct {
	Name  string `json:"name" binding:"required"`
	Block string `json:"block"`
	Lot   string `json:"lot"`
}

// Create handles POST /households.
func (h *Handler) Create(c *gin.Context) {
	m := middleware.MustMembership(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	hh := &models.Household{
		TenantID: m.TenantID,
		Name:     strings.TrimSpace(req.Name),
		Block:    strings.TrimSpace(req.Block),
		Lot:      strings.TrimSpace(req.Lot),
		Status:   models.HouseholdActive,
	}
	if err := h.repo.Create(c.Request.Context(), hh); err != nil {
		response.Internal(c, "failed to create household")
		return
	}
	response.Created(c, hh)
}

// Get handles GET /households/:id.
func (h *Handler) Get(c *gin.Context) {
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid household id")
		return
	}
	hh, err := h.repo.GetByID(c.Request.Context(), m.TenantID, id)
	if err != nil {
		response.Internal(c, "failed to load household")
		return
	}
	if hh == nil {
		response.NotFound(c, "household not found")
		return
	}
	response.OK(c, hh)
}

// UpdateRequest is the body for PATCH /households/:id.
type UpdateRequest struct {
	Name   *string `json:"name"`
	Block  *string `json:"block"`
	Lot    *string `json:"lot"`
	Status *string `json:"status"`
}

// Update handles PATCH /households/:id.
func (h *Handler) Update(c *gin.Context) {
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid household id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}

	hh, err := h.repo.GetByID(c.Request.Context(), m.TenantID, id)
	if err != nil {
		response.Internal(c, "failed to load household")
		return
	}
	if hh == nil {
		response.NotFound(c, "household not found")
		return
	}
	if req.Name != nil {
		hh.Name = strings.TrimSpace(*req.Name)
	}
	if req.Block != nil {
		hh.Block = strings.TrimSpace(*req.Block)
	}
	if req.Lot != nil {
		hh.Lot = strings.TrimSpace(*req.Lot)
	}
	if req.Status != nil {
		switch models.HouseholdStatus(*req.Status) {
		case models.HouseholdActive, models.HouseholdInactive, models.HouseholdSuspended:
			hh.Status = models.HouseholdStatus(*req.Status)
		default:
			response.BadRequest(c, "status must be one of active, inactive, suspended")
			return
		}
	}

	updated, err := h.repo.Update(c.Request.Context(), hh)
	if err != nil || updated == nil {
		response.Internal(c, "failed to update household")
		return
	}
	response.OK(c, updated)
}

// AddResidentRequest is the body for POST /households/:id/residents.
type AddResidentRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	IsOwner   bool   `json:"is_owner"`
}

// AddResident handles POST /households/:id/residents.
func (h *Handler) AddResident(c *gin.Context) {
	m := middleware.MustMembership(c)
	householdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid household id")
		return
	}
	var req AddResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "first_name and last_name required")
		return
	}

	hh, err := h.repo.GetByID(c.Request.Context(), m.TenantID, householdID)
	if err != nil {
		response.Internal(c, "failed to load household")
		return
	}
	if hh == nil {
		response.NotFound(c, "household not found")
		return
	}

	res := &models.Resident{
		TenantID:    m.TenantID,
		HouseholdID: householdID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		IsOwner:     req.IsOwner,
	}
	if err := h.repo.AddResident(c.Request.Context(), res); err != nil {
		response.Internal(c, "failed to add resident")
		return
	}
	response.Created(c, res)
}

// ListResidents handles GET /households/:id/residents.
func (h *Handler) ListResidents(c *gin.Context) {
	m := middleware.MustMembership(c)
	householdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid household id")
		return
	}
	list, err := h.repo.ListResidents(c.Request.Context(), m.TenantID, householdID)
	if err != nil {
		response.Internal(c, "failed to load residents")
		return
	}
	response.OK(c, list)
}

// RemoveResident handles DELETE /residents/:id.
func (h *Handler) RemoveResident(c *gin.Context) {
	m := middleware.MustMembership(c)
	residentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid resident id")
		return
	}
	removed, err := h.repo.RemoveResident(c.Request.Context(), m.TenantID, residentID)
	if err != nil {
		response.Internal(c, "failed to remove resident")
		return
	}
	if !removed {
		response.NotFound(c, "resident not found")
		return
	}
	response.NoContent(c)
}
