package models

import (
	"time"

	"github.com/google/uuid"
)

// StickerStatus is the lifecycle status of a vehicle sticker.
type StickerStatus string

const (
	StickerActive         StickerStatus = "active"
	StickerExpired        StickerStatus = "expired"
	StickerRevoked        StickerStatus = "revoked"
	StickerPendingRenewal StickerStatus = "pending_renewal"
)

// VehicleSticker is a tenant-scoped gate pass for a household vehicle.
// PhotoKey points at the vehicle photo object in the documents bucket.
type VehicleSticker struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenant_id"`
	HouseholdID uuid.UUID     `json:"household_id"`
	PlateNumber string        `json:"plate_number"`
	Status      StickerStatus `json:"status"`
	PhotoKey    string        `json:"photo_key,omitempty"`
	ValidUntil  time.Time     `json:"valid_until"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
