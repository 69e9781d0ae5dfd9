package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership ties one user to one tenant with one role. At most one
// membership exists per (user, tenant) pair; the database owns that
// uniqueness constraint.
//
// PermissionOverrides is sparse: only keys that deviate from the role default
// are present, and an override wins in both directions (it can grant a
// permission the role lacks or revoke one it has).
type Membership struct {
	ID                  uuid.UUID     `json:"id"`
	TenantID            uuid.UUID     `json:"tenant_id"`
	UserID              uuid.UUID     `json:"user_id"`
	RoleID              uuid.UUID     `json:"role_id"`
	IsActive            bool          `json:"is_active"`
	PermissionOverrides PermissionMap `json:"permission_overrides"`
	JoinedAt            time.Time     `json:"joined_at"`

	// Populated by joined reads; nil when loaded bare.
	Role   *Role   `json:"role,omitempty"`
	Tenant *Tenant `json:"tenant,omitempty"`
}
