package tenantctx

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagio/backend/internal/models"
)

// fakeStore is an in-memory Store for engine tests. Joined reads are built
// from the role and tenant maps on every call, so mutating a tenant's status
// between calls behaves like a live database.
type fakeStore struct {
	memberships []*models.Membership
	roles       map[uuid.UUID]*models.Role
	tenants     map[uuid.UUID]*models.Tenant
	err         error
}

func (s *fakeStore) join(m *models.Membership) *models.Membership {
	joined := *m
	joined.Role = s.roles[m.RoleID]
	joined.Tenant = s.tenants[m.TenantID]
	return &joined
}

func (s *fakeStore) GetMembership(_ context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, m := range s.memberships {
		if m.UserID == userID && m.TenantID == tenantID {
			return s.join(m), nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListMemberships(_ context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, s.join(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *fakeStore) GetRole(_ context.Context, roleID uuid.UUID) (*models.Role, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[roleID], nil
}

func (s *fakeStore) GetTenant(_ context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tenants[tenantID], nil
}

type fixture struct {
	store  *fakeStore
	engine *Engine
	userID uuid.UUID
	admin  *models.Role
	member *models.Role
}

func newFixture() *fixture {
	admin := &models.Role{
		ID:             uuid.New(),
		Code:           models.RoleAdminHead,
		Name:           "Community Admin",
		HierarchyLevel: 1,
		Scope:          models.ScopeTenant,
		Permissions: models.PermissionMap{
			models.PermManageTenant:     true,
			models.PermManageUsers:      true,
			models.PermManageHouseholds: true,
			models.PermViewHouseholds:   true,
		},
	}
	member := &models.Role{
		ID:             uuid.New(),
		Code:           models.RoleHouseholdMember,
		Name:           "Household Member",
		HierarchyLevel: 5,
		Scope:          models.ScopeHousehold,
		Permissions: models.PermissionMap{
			models.PermViewHouseholds: true,
		},
	}
	store := &fakeStore{
		roles:   map[uuid.UUID]*models.Role{admin.ID: admin, member.ID: member},
		tenants: map[uuid.UUID]*models.Tenant{},
	}
	return &fixture{
		store:  store,
		engine: NewEngine(store, nil),
		userID: uuid.New(),
		admin:  admin,
		member: member,
	}
}

func (f *fixture) addTenant(status models.TenantStatus) *models.Tenant {
	t := &models.Tenant{ID: uuid.New(), Name: "Tenant " + string(status), Slug: uuid.NewString()[:8], Status: status}
	f.store.tenants[t.ID] = t
	return t
}

func (f *fixture) addMembership(userID uuid.UUID, tenant *models.Tenant, role *models.Role, active bool, joined time.Time) *models.Membership {
	m := &models.Membership{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		UserID:   userID,
		RoleID:   role.ID,
		IsActive: active,
		JoinedAt: joined,
	}
	f.store.memberships = append(f.store.memberships, m)
	return m
}

func TestBootstrapNoMemberships(t *testing.T) {
	f := newFixture()

	res, err := f.engine.Bootstrap(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, res.Active)
	assert.False(t, res.RequiresSelection)
	assert.False(t, res.RequiresRefresh)
	assert.Empty(t, res.Tenants)
}

func TestBootstrapSingleActiveTenantAutoSelects(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.admin, true, time.Now())

	res, err := f.engine.Bootstrap(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, res.Active)
	assert.Equal(t, tenant.ID, res.Active.TenantID)
	assert.Equal(t, f.admin.ID, res.Active.RoleID)
	assert.Equal(t, models.RoleAdminHead, res.Active.RoleCode)
	assert.False(t, res.RequiresSelection)
	assert.True(t, res.RequiresRefresh)
	assert.Len(t, res.Tenants, 1)
}

func TestBootstrapSingleTrialTenantDoesNotAutoSelect(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantTrial)
	f.addMembership(f.userID, tenant, f.admin, true, time.Now())

	res, err := f.engine.Bootstrap(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, res.Active)
	// One tenant only: no picker needed, but no refresh either.
	assert.False(t, res.RequiresSelection)
	assert.False(t, res.RequiresRefresh)
	assert.Len(t, res.Tenants, 1)
}

func TestBootstrapMultipleTenantsRequiresSelection(t *testing.T) {
	f := newFixture()
	first := f.addTenant(models.TenantActive)
	second := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, second, f.member, true, time.Now())
	f.addMembership(f.userID, first, f.admin, true, time.Now().Add(-time.Hour))

	res, err := f.engine.Bootstrap(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, res.Active)
	assert.True(t, res.RequiresSelection)
	require.Len(t, res.Tenants, 2)
	// Ordered by join time ascending: the earlier membership comes first.
	assert.Equal(t, first.ID, res.Tenants[0].TenantID)
	assert.Equal(t, second.ID, res.Tenants[1].TenantID)
}

func TestBootstrapIgnoresInactiveMemberships(t *testing.T) {
	f := newFixture()
	active := f.addTenant(models.TenantActive)
	other := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, active, f.admin, true, time.Now())
	f.addMembership(f.userID, other, f.member, false, time.Now())

	res, err := f.engine.Bootstrap(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, res.Active)
	assert.Equal(t, active.ID, res.Active.TenantID)
	assert.Len(t, res.Tenants, 1)
}

func TestSwitchNoMembership(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)

	res, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
	assert.Equal(t, ReasonNoAccess, res.Reason)
}

func TestSwitchInactiveMembership(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.admin, false, time.Now())

	res, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, KindInactive, res.Kind)
	assert.Equal(t, ReasonMembershipInactive, res.Reason)
}

func TestSwitchInactiveMembershipWinsOverTenantStatus(t *testing.T) {
	// The membership check runs before the tenant status check.
	f := newFixture()
	tenant := f.addTenant(models.TenantSuspended)
	f.addMembership(f.userID, tenant, f.admin, false, time.Now())

	res, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonMembershipInactive, res.Reason)
}

func TestSwitchTenantNotActive(t *testing.T) {
	for _, status := range []models.TenantStatus{
		models.TenantTrial,
		models.TenantSuspended,
		models.TenantCancelled,
		models.TenantInactive,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			tenant := f.addTenant(status)
			f.addMembership(f.userID, tenant, f.admin, true, time.Now())

			res, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, KindInactive, res.Kind)
			assert.Equal(t, ReasonTenantNotActive, res.Reason)
		})
	}
}

func TestSwitchSuccessAndIdempotence(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.member, true, time.Now())

	first, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
	require.NoError(t, err)
	require.True(t, first.Success)
	assert.Equal(t, tenant.ID, first.TenantID)
	assert.Equal(t, f.member.ID, first.RoleID)
	assert.Equal(t, models.RoleHouseholdMember, first.RoleCode)

	// No intervening state change: the second switch returns the same result.
	second, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSwitchStoreFaultPropagates(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("connection refused")

	_, err := f.engine.Switch(context.Background(), f.userID, uuid.New())
	assert.Error(t, err)
}

func TestValidateNoTenantClaim(t *testing.T) {
	f := newFixture()

	res, err := f.engine.Validate(context.Background(), Claims{UserID: f.userID})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, KindStale, res.Kind)
	assert.Equal(t, ReasonNoContext, res.Reason)
}

func TestValidateMembershipGone(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)

	res, err := f.engine.Validate(context.Background(), Claims{UserID: f.userID, TenantID: &tenant.ID})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestValidateInactiveMembership(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.admin, false, time.Now())

	res, err := f.engine.Validate(context.Background(), Claims{UserID: f.userID, TenantID: &tenant.ID})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonMembershipInactive, res.Reason)
}

func TestValidateSuspendedTenantInvalidatesExistingCredential(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.admin, true, time.Now())

	claims := Claims{UserID: f.userID, TenantID: &tenant.ID, RoleID: &f.admin.ID}
	res, err := f.engine.Validate(context.Background(), claims)
	require.NoError(t, err)
	require.True(t, res.Valid)

	// Administrator suspends the tenant; the same credential must now fail.
	tenant.Status = models.TenantSuspended
	res, err = f.engine.Validate(context.Background(), claims)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonTenantNotActive, res.Reason)
}

func TestValidateTrialTenantRemainsOperable(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantTrial)
	f.addMembership(f.userID, tenant, f.admin, true, time.Now())

	res, err := f.engine.Validate(context.Background(), Claims{UserID: f.userID, TenantID: &tenant.ID, RoleID: &f.admin.ID})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateStaleRoleClaim(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.admin, true, time.Now())

	// Credential still claims a role the membership no longer holds.
	staleRole := f.member.ID
	res, err := f.engine.Validate(context.Background(), Claims{UserID: f.userID, TenantID: &tenant.ID, RoleID: &staleRole})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, KindStale, res.Kind)
	assert.Equal(t, ReasonStaleContext, res.Reason)
}

func TestSwitchThenValidateReadAfterWrite(t *testing.T) {
	f := newFixture()
	tenant := f.addTenant(models.TenantActive)
	f.addMembership(f.userID, tenant, f.member, true, time.Now())

	sw, err := f.engine.Switch(context.Background(), f.userID, tenant.ID)
	require.NoError(t, err)
	require.True(t, sw.Success)

	res, err := f.engine.Validate(context.Background(), Claims{UserID: f.userID, TenantID: &sw.TenantID, RoleID: &sw.RoleID})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, sw.RoleID, res.Role.ID)
}

func TestListAccessibleTenants(t *testing.T) {
	f := newFixture()
	active := f.addTenant(models.TenantActive)
	trial := f.addTenant(models.TenantTrial)
	f.addMembership(f.userID, active, f.admin, true, time.Now().Add(-time.Hour))
	f.addMembership(f.userID, trial, f.member, true, time.Now())

	list, err := f.engine.ListAccessibleTenants(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, active.ID, list[0].TenantID)
	assert.Equal(t, models.TenantTrial, list[1].TenantStatus)
}
