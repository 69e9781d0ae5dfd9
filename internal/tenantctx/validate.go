package tenantctx

import (
	"context"

	"github.com/villagio/backend/internal/models"
)

// ValidationResult is the structured outcome of re-checking a credential's
// claims against live state.
type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Membership *models.Membership `json:"-"`
	Tenant     *models.Tenant     `json:"tenant,omitempty"`
	Role       *models.Role       `json:"role,omitempty"`
	Kind       FailureKind        `json:"-"`
	Reason     string             `json:"reason,omitempty"`
}

// Validate is the single gate all tenant-scoped access passes through. It
// re-checks live state even though the credential already carries tenant and
// role claims, because the credential may be stale relative to a concurrent
// deactivation, suspension, or role change.
//
// It costs one joined store lookup and runs on every tenant-scoped request.
// A role claim that no longer matches the live membership is reported as
// KindStale: the caller should force a full re-authentication since it may
// indicate tampering or a race with administrative revocation.
func (e *Engine) Validate(ctx context.Context, claims Claims) (*ValidationResult, error) {
	if claims.TenantID == nil {
		return &ValidationResult{Kind: KindStale, Reason: ReasonNoContext}, nil
	}

	m, err := e.store.GetMembership(ctx, claims.UserID, *claims.TenantID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &ValidationResult{Kind: KindNotFound, Reason: ReasonNoAccess}, nil
	}
	if !m.IsActive {
		return &ValidationResult{Kind: KindInactive, Reason: ReasonMembershipInactive}, nil
	}
	if m.Tenant == nil || !m.Tenant.Operable() {
		return &ValidationResult{Kind: KindInactive, Reason: ReasonTenantNotActive}, nil
	}
	if m.Role == nil {
		return &ValidationResult{Kind: KindNotFound, Reason: ReasonRoleNotFound}, nil
	}
	if claims.RoleID != nil && *claims.RoleID != m.RoleID {
		return &ValidationResult{Kind: KindStale, Reason: ReasonStaleContext}, nil
	}

	return &ValidationResult{
		Valid:      true,
		Membership: m,
		Tenant:     m.Tenant,
		Role:       m.Role,
	}, nil
}
