// Package tenantctx implements the tenant context and permission resolution
// engine: deciding which tenant a session operates under, switching that
// context, and resolving effective permissions from role defaults plus
// per-membership overrides.
//
// The engine is stateless per call and always reads live store state; a
// credential (JWT) is treated as an intentionally-stale cache of context that
// callers must refresh after every successful switch.
package tenantctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/villagio/backend/internal/models"
)

// Store is the narrow read contract the engine needs from the membership and
// role catalog storage. All reads must reflect the latest committed state,
// no caching; staleness here is a security defect, not a performance issue.
type Store interface {
	// GetMembership returns the membership for (userID, tenantID) with Role
	// and Tenant populated in a single joined lookup, or nil when no row
	// exists. An error means the store itself failed.
	GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error)
	// ListMemberships returns all memberships for the user with Role and
	// Tenant populated, ordered by join time ascending.
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error)
	// GetRole returns a role by id, or nil when it does not exist.
	GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error)
	// GetTenant returns a tenant by id, or nil when it does not exist.
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
}

// FailureKind classifies an expected (non-fault) engine failure.
type FailureKind string

const (
	// KindNone marks a successful result.
	KindNone FailureKind = ""
	// KindNotFound: the referenced tenant, role, or membership does not exist.
	KindNotFound FailureKind = "not_found"
	// KindInactive: the membership or tenant exists but is disabled.
	KindInactive FailureKind = "inactive"
	// KindForbidden: the membership lacks the permission for the operation.
	KindForbidden FailureKind = "forbidden"
	// KindStale: credential claims no longer match live state. Callers should
	// force a full re-authentication, not just a token refresh.
	KindStale FailureKind = "stale_context"
)

// Reasons returned in structured results. These are stable API strings.
const (
	ReasonNoContext          = "no tenant context established"
	ReasonNoAccess           = "user does not have access to tenant"
	ReasonMembershipInactive = "membership is inactive"
	ReasonTenantNotActive    = "tenant is not active"
	ReasonRoleNotFound       = "role no longer exists"
	ReasonStaleContext       = "session context does not match live state"
)

// SessionContext is the (tenant, role) pair active for a session. It is never
// mutated in place: a switch produces a new context that must be re-embedded
// in a new credential by the issuer.
type SessionContext struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	RoleID   uuid.UUID `json:"role_id"`
	RoleCode string    `json:"role_code"`
}

// Claims are the credential fields the engine cares about. TenantID and
// RoleID are absent when no tenant context has been established.
type Claims struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	RoleID   *uuid.UUID
}
