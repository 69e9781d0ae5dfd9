package tenantctx

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/models"
)

// Engine resolves tenant context against live store state. It holds no
// mutable state of its own; concurrent sessions for the same user are
// serialized only by the store's (user, tenant) uniqueness constraint.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// NewEngine creates a tenant context engine.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// TenantAccess describes one tenant a user can reach, for tenant pickers and
// the accessible-tenants listing.
type TenantAccess struct {
	TenantID     uuid.UUID           `json:"tenant_id"`
	TenantName   string              `json:"tenant_name"`
	TenantSlug   string              `json:"tenant_slug"`
	TenantStatus models.TenantStatus `json:"tenant_status"`
	RoleID       uuid.UUID           `json:"role_id"`
	RoleCode     string              `json:"role_code"`
	RoleName     string              `json:"role_name"`
	JoinedAt     string              `json:"joined_at"`
}

// ListAccessibleTenants returns the tenants behind the user's active
// memberships, ordered by join time ascending.
func (e *Engine) ListAccessibleTenants(ctx context.Context, userID uuid.UUID) ([]TenantAccess, error) {
	memberships, err := e.activeMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TenantAccess, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, accessFromMembership(m))
	}
	return out, nil
}

// activeMemberships loads the user's memberships and keeps only those with
// the active flag set and both joins present.
func (e *Engine) activeMemberships(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	all, err := e.store.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]*models.Membership, 0, len(all))
	for _, m := range all {
		if m.IsActive && m.Role != nil && m.Tenant != nil {
			active = append(active, m)
		}
	}
	return active, nil
}

func accessFromMembership(m *models.Membership) TenantAccess {
	return TenantAccess{
		TenantID:     m.TenantID,
		TenantName:   m.Tenant.Name,
		TenantSlug:   m.Tenant.Slug,
		TenantStatus: m.Tenant.Status,
		RoleID:       m.RoleID,
		RoleCode:     m.Role.Code,
		RoleName:     m.Role.Name,
		JoinedAt:     m.JoinedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
