// Package stickers manages tenant-scoped vehicle gate passes and their
// photos in the documents bucket.
package stickers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/middleware"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/pkg/response"
	"github.com/villagio/backend/pkg/storage"
)

// DefaultValidity is how long a new or renewed sticker stays valid.
const DefaultValidity = 365 * 24 * time.Hour

// Handler handles vehicle sticker HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a stickers handler.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// List handles GET /stickers.
func (h *Handler) List(c *gin.Context) {
	m := middleware.MustMembership(c)
	list, err := h.repo.List(c.Request.Context(), m.TenantID)
	if err != nil {
		response.Internal(c, "failed to load stickers")
		return
	}
	response.OK(c, list)
}

// CreateRequest is the body for POST /stickers.
type CreateRequest struct {
	HouseholdID string `json:"household_id" binding:"required"`
	PlateNumber string `json:"plate_number" binding:"required"`
	ValidDays   int    `json:"valid_days"`
}

// Create handles POST /stickers.
func (h *Handler) Create(c *gin.Context) {
	m := middleware.MustMembership(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "household_id and plate_number required")
		return
	}
	householdID, err := uuid.Parse(req.HouseholdID)
	if err != nil {
		response.BadRequest(c, "invalid household id")
		return
	}
	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))
	if plate == "" {
		response.BadRequest(c, "plate_number required")
		return
	}
	validity := DefaultValidity
	if req.ValidDays > 0 {
		validity = time.Duration(req.ValidDays) * 24 * time.Hour
	}

	s := &models.VehicleSticker{
		TenantID:    m.TenantID,
		HouseholdID: householdID,
		PlateNumber: plate,
		Status:      models.StickerActive,
		ValidUntil:  time.Now().Add(validity),
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			response.BadRequest(c, "household not found in this community")
			return
		}
		response.Internal(c, "failed to create sticker")
		return
	}
	h.logger.Info("sticker issued",
		zap.String("tenant_id", m.TenantID.String()),
		zap.String("sticker_id", s.ID.String()),
		zap.String("plate", plate),
	)
	response.Created(c, s)
}

// Get handles GET /stickers/:id.
func (h *Handler) Get(c *gin.Context) {
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid sticker id")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), m.TenantID, id)
	if err != nil {
		response.Internal(c, "failed to load sticker")
		return
	}
	if s == nil {
		response.NotFound(c, "sticker not found")
		return
	}
	response.OK(c, s)
}

// UpdateStatusRequest is the body for PATCH /stickers/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /stickers/:id/status (revoke, mark pending
// renewal). Renewal with a new validity goes through POST /stickers/:id/renew.
func (h *Handler) UpdateStatus(c *gin.Context) {
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid sticker id")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	status := models.StickerStatus(req.Status)
	switch status {
	case models.StickerActive, models.StickerExpired, models.StickerRevoked, models.StickerPendingRenewal:
	default:
		response.BadRequest(c, "status must be one of active, expired, revoked, pending_renewal")
		return
	}

	s, err := h.repo.UpdateStatus(c.Request.Context(), m.TenantID, id, status)
	if err != nil {
		response.Internal(c, "failed to update sticker")
		return
	}
	if s == nil {
		response.NotFound(c, "sticker not found")
		return
	}
	if status == models.StickerRevoked {
		h.removePhoto(c.Request.Context(), s)
	}
	response.OK(c, s)
}

// removePhoto deletes a revoked sticker's photo object and clears the key.
// Best effort: a delete failure never fails the revocation.
func (h *Handler) removePhoto(ctx context.Context, s *models.VehicleSticker) {
	if s.PhotoKey == "" || h.s3 == nil {
		return
	}
	if err := h.s3.DeleteStickerPhoto(ctx, s.PhotoKey); err != nil {
		h.logger.Warn("delete sticker photo", zap.Error(err), zap.String("key", s.PhotoKey))
		return
	}
	if err := h.repo.SetPhotoKey(ctx, s.TenantID, s.ID, ""); err != nil {
		h.logger.Warn("clear sticker photo key", zap.Error(err), zap.String("sticker_id", s.ID.String()))
		return
	}
	s.PhotoKey = ""
}

// RenewRequest is the body for POST /stickers/:id/renew.
type RenewRequest struct {
	ValidDays int `json:"valid_days"`
}

// Renew handles POST /stickers/:id/renew: extends validity and reactivates.
func (h *Handler) Renew(c *gin.Context) {
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid sticker id")
		return
	}
	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.ValidDays = 0
	}
	validity := DefaultValidity
	if req.ValidDays > 0 {
		validity = time.Duration(req.ValidDays) * 24 * time.Hour
	}

	s, err := h.repo.Renew(c.Request.Context(), m.TenantID, id, time.Now().Add(validity))
	if err != nil {
		response.Internal(c, "failed to renew sticker")
		return
	}
	if s == nil {
		response.NotFound(c, "sticker not found")
		return
	}
	h.logger.Info("sticker renewed",
		zap.String("tenant_id", m.TenantID.String()),
		zap.String("sticker_id", s.ID.String()),
		zap.Time("valid_until", s.ValidUntil),
	)
	response.OK(c, s)
}

// PhotoUploadRequest is the body for POST /stickers/:id/photo-url.
type PhotoUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// PhotoUploadURL handles POST /stickers/:id/photo-url: returns a pre-signed
// PUT URL for direct upload of the vehicle photo, and records the object key
// on the sticker.
func (h *Handler) PhotoUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "photo storage unavailable")
		return
	}
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid sticker id")
		return
	}
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename required")
		return
	}
	if !storage.ValidatePhotoFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "photo must be jpeg, png, or webp")
		return
	}

	s, err := h.repo.GetByID(c.Request.Context(), m.TenantID, id)
	if err != nil {
		response.Internal(c, "failed to load sticker")
		return
	}
	if s == nil {
		response.NotFound(c, "sticker not found")
		return
	}

	key := storage.StickerPhotoKey(m.TenantID.String(), s.ID.String(), req.Filename)
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(),
		h.s3.DocumentsBucket(), key, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign sticker photo upload", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to generate upload URL")
		return
	}
	if err := h.repo.SetPhotoKey(c.Request.Context(), m.TenantID, s.ID, key); err != nil {
		response.Internal(c, "failed to record photo key")
		return
	}

	response.OK(c, gin.H{
		"upload_url":   url,
		"key":          key,
		"content_type": contentType,
		"expires_in":   int(h.s3.PresignExpire().Seconds()),
		"max_size":     storage.MaxPhotoSize,
	})
}

// UploadPhoto handles POST /stickers/:id/photo: server-side multipart upload
// for clients that cannot use the presigned PUT flow (no bucket CORS needed).
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "photo storage unavailable")
		return
	}
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid sticker id")
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "photo file required")
		return
	}
	defer file.Close()
	if header.Size > storage.MaxPhotoSize {
		response.BadRequest(c, "photo exceeds the 10MB limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidatePhotoFileType(contentType, header.Filename) {
		response.BadRequest(c, "photo must be jpeg, png, or webp")
		return
	}

	s, err := h.repo.GetByID(c.Request.Context(), m.TenantID, id)
	if err != nil {
		response.Internal(c, "failed to load sticker")
		return
	}
	if s == nil {
		response.NotFound(c, "sticker not found")
		return
	}

	if contentType == "" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}
	key := storage.StickerPhotoKey(m.TenantID.String(), s.ID.String(), header.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), h.s3.DocumentsBucket(), key, contentType, file, header.Size); err != nil {
		h.logger.Error("upload sticker photo", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload photo")
		return
	}
	if err := h.repo.SetPhotoKey(c.Request.Context(), m.TenantID, s.ID, key); err != nil {
		response.Internal(c, "failed to record photo key")
		return
	}
	response.OK(c, gin.H{"key": key})
}

// PhotoDownloadURL handles GET /stickers/:id/photo-url: returns a pre-signed
// GET URL for the sticker photo.
func (h *Handler) PhotoDownloadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "photo storage unavailable")
		return
	}
	m := middleware.MustMembership(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid sticker id")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), m.TenantID, id)
	if err != nil {
		response.Internal(c, "failed to load sticker")
		return
	}
	if s == nil {
		response.NotFound(c, "sticker not found")
		return
	}
	if s.PhotoKey == "" {
		response.NotFound(c, "sticker has no photo")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(),
		h.s3.DocumentsBucket(), s.PhotoKey, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign sticker photo download", zap.Error(err), zap.String("key", s.PhotoKey))
		response.Internal(c, "failed to generate download URL")
		return
	}
	response.OK(c, gin.H{
		"download_url": url,
		"expires_in":   int(h.s3.PresignExpire().Seconds()),
	})
}
