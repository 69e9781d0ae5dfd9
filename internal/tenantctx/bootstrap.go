package tenantctx

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/models"
)

// BootstrapResult is the outcome of the login-time context decision.
//
// RequiresRefresh signals that the caller must mint a fresh credential
// embedding Active's claims; Bootstrap itself never mints credentials.
type BootstrapResult struct {
	Tenants           []TenantAccess  `json:"tenants"`
	Active            *SessionContext `json:"active,omitempty"`
	RequiresSelection bool            `json:"requires_selection"`
	RequiresRefresh   bool            `json:"requires_refresh"`
}

// Bootstrap runs once at login: it loads the user's active memberships and
// decides whether a default tenant can be auto-selected.
//
// Exactly one active membership in an active-status tenant auto-selects that
// tenant. More than one membership requires an explicit choice. A single
// membership in a non-active tenant (trial included) is listed but not
// auto-selected: trial onboarding requires explicit confirmation.
func (e *Engine) Bootstrap(ctx context.Context, userID uuid.UUID) (*BootstrapResult, error) {
	memberships, err := e.activeMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &BootstrapResult{Tenants: make([]TenantAccess, 0, len(memberships))}
	for _, m := range memberships {
		result.Tenants = append(result.Tenants, accessFromMembership(m))
	}

	switch {
	case len(memberships) == 0:
		// Nothing to select: the caller stays unauthenticated for
		// tenant-scoped data.
	case len(memberships) == 1 && memberships[0].Tenant.Status == models.TenantActive:
		m := memberships[0]
		result.Active = &SessionContext{
			UserID:   userID,
			TenantID: m.TenantID,
			RoleID:   m.RoleID,
			RoleCode: m.Role.Code,
		}
		result.RequiresRefresh = true
		e.logger.Debug("tenant auto-selected",
			zap.String("user_id", userID.String()),
			zap.String("tenant_id", m.TenantID.String()),
			zap.String("role_code", m.Role.Code),
		)
	default:
		result.RequiresSelection = len(memberships) > 1
	}
	return result, nil
}
