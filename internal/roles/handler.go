package roles

import (
	"github.com/gin-gonic/gin"

	"github.com/villagio/backend/pkg/response"
)

// Handler handles role catalog HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a roles handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /roles: the full role catalog with hierarchy levels and
// default permission maps, for member-management UIs.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	response.OK(c, list)
}
