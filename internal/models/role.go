package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleScope groups roles by the level they operate at.
type RoleScope string

const (
	ScopePlatform  RoleScope = "platform"
	ScopeTenant    RoleScope = "tenant"
	ScopeHousehold RoleScope = "household"
	ScopeSecurity  RoleScope = "security"
)

// Role codes seeded by migration.
const (
	RoleAdminHead       = "admin-head"
	RoleAdminOfficer    = "admin-officer"
	RoleSecurityOfficer = "security-officer"
	RoleHouseholdHead   = "household-head"
	RoleHouseholdMember = "household-member"
)

// Permission keys used across the platform.
const (
	PermManageTenant     = "manage_tenant"
	PermManageUsers      = "manage_users"
	PermManageHouseholds = "manage_households"
	PermViewHouseholds   = "view_households"
	PermManageStickers   = "manage_stickers"
	PermViewStickers     = "view_stickers"
	PermViewReports      = "view_reports"
)

// PermissionMap maps a permission key to whether it is granted.
// Keys not present are implicitly denied.
type PermissionMap map[string]bool

// Clone returns an independent copy of the map.
func (p PermissionMap) Clone() PermissionMap {
	if p == nil {
		return PermissionMap{}
	}
	out := make(PermissionMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Role is a catalog entry: a unique code, a hierarchy level (lower = more
// privileged, used only for administrative ordering) and the default
// permission map applied to every membership holding the role.
type Role struct {
	ID             uuid.UUID     `json:"id"`
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	HierarchyLevel int           `json:"hierarchy_level"`
	Scope          RoleScope     `json:"scope"`
	Permissions    PermissionMap `json:"permissions"`
	CreatedAt      time.Time     `json:"created_at"`
}

// OutranksOrEquals reports whether this role sits at or above other in the
// hierarchy. Advisory only: permission decisions never consult hierarchy.
func (r *Role) OutranksOrEquals(other *Role) bool {
	return r.HierarchyLevel <= other.HierarchyLevel
}
