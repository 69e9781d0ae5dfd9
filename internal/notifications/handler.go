package notifications

import (
	"github.com/gin-gonic/gin"

	"github.com/villagio/backend/internal/middleware"
	"github.com/villagio/backend/pkg/response"
)

// Handler handles notification HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /notifications: the current member's notifications in the
// active tenant, newest first.
func (h *Handler) List(c *gin.Context) {
	m := middleware.MustMembership(c)
	list, err := h.repo.ListForRecipient(c.Request.Context(), m.TenantID, m.UserID)
	if err != nil {
		response.Internal(c, "failed to load notifications")
		return
	}
	response.OK(c, list)
}
