package tenantctx

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SwitchResult is the structured outcome of a tenant switch. Business
// failures are never returned as Go errors: switching to an invalid or
// inaccessible tenant is an expected, recoverable condition.
type SwitchResult struct {
	Success  bool        `json:"success"`
	TenantID uuid.UUID   `json:"tenant_id,omitempty"`
	RoleID   uuid.UUID   `json:"role_id,omitempty"`
	RoleCode string      `json:"role_code,omitempty"`
	Kind     FailureKind `json:"-"`
	Reason   string      `json:"reason,omitempty"`
}

// Switch changes the active tenant for a user's session, re-checking live
// membership state. Preconditions in order, first failure wins:
//
//  1. a membership exists for (user, tenant)
//  2. that membership is active
//  3. the tenant's status is active (trial is enough to bootstrap into, but
//     not to switch into)
//
// A success is immediately visible to subsequent Validate calls, but not in
// any already-issued credential: the caller must revoke the old credential
// and mint a new one carrying the returned claims, and must surface a failed
// mint as its own error.
func (e *Engine) Switch(ctx context.Context, userID, tenantID uuid.UUID) (*SwitchResult, error) {
	m, err := e.store.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &SwitchResult{Kind: KindNotFound, Reason: ReasonNoAccess}, nil
	}
	if !m.IsActive {
		return &SwitchResult{Kind: KindInactive, Reason: ReasonMembershipInactive}, nil
	}

	tenant := m.Tenant
	if tenant == nil {
		if tenant, err = e.store.GetTenant(ctx, tenantID); err != nil {
			return nil, err
		}
	}
	if tenant == nil {
		return &SwitchResult{Kind: KindNotFound, Reason: ReasonNoAccess}, nil
	}
	if !tenant.Switchable() {
		return &SwitchResult{Kind: KindInactive, Reason: ReasonTenantNotActive}, nil
	}

	role := m.Role
	if role == nil {
		if role, err = e.store.GetRole(ctx, m.RoleID); err != nil {
			return nil, err
		}
	}
	if role == nil {
		return &SwitchResult{Kind: KindNotFound, Reason: ReasonRoleNotFound}, nil
	}

	e.logger.Info("tenant context switched",
		zap.String("user_id", userID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("role_code", role.Code),
	)
	return &SwitchResult{
		Success:  true,
		TenantID: tenantID,
		RoleID:   m.RoleID,
		RoleCode: role.Code,
	}, nil
}
