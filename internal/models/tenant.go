package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus is the lifecycle status of a tenant (community).
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantTrial     TenantStatus = "trial"
	TenantSuspended TenantStatus = "suspended"
	TenantCancelled TenantStatus = "cancelled"
	TenantInactive  TenantStatus = "inactive"
)

// Tenant represents an isolated residential community. Members of one tenant
// must never see another tenant's data.
type Tenant struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Switchable reports whether a session may switch into this tenant.
// Trial tenants are visible at bootstrap but cannot be switched into.
func (t *Tenant) Switchable() bool {
	return t.Status == TenantActive
}

// Operable reports whether an already-established session context on this
// tenant is still valid. Trial tenants remain operable so that sessions
// established during onboarding keep working.
func (t *Tenant) Operable() bool {
	return t.Status == TenantActive || t.Status == TenantTrial
}

// ValidTenantStatus reports whether s is a known tenant status.
func ValidTenantStatus(s string) bool {
	switch TenantStatus(s) {
	case TenantActive, TenantTrial, TenantSuspended, TenantCancelled, TenantInactive:
		return true
	}
	return false
}
