package tenantctx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagio/backend/internal/models"
)

func membershipWithRole(defaults, overrides models.PermissionMap) *models.Membership {
	role := &models.Role{
		ID:          uuid.New(),
		Code:        models.RoleAdminHead,
		Permissions: defaults,
	}
	return &models.Membership{
		ID:                  uuid.New(),
		RoleID:              role.ID,
		IsActive:            true,
		PermissionOverrides: overrides,
		Role:                role,
	}
}

func TestResolveNoOverridesEqualsRoleDefaults(t *testing.T) {
	defaults := models.PermissionMap{
		models.PermManageUsers:    true,
		models.PermViewHouseholds: true,
		models.PermViewReports:    false,
	}
	m := membershipWithRole(defaults, nil)

	effective := Resolve(m)
	assert.Equal(t, defaults, effective)
}

func TestResolveDoesNotMutateRoleDefaults(t *testing.T) {
	defaults := models.PermissionMap{models.PermManageUsers: true}
	m := membershipWithRole(defaults, models.PermissionMap{models.PermManageUsers: false})

	_ = Resolve(m)
	assert.True(t, m.Role.Permissions[models.PermManageUsers])
}

func TestResolveOverrideWinsBothDirections(t *testing.T) {
	m := membershipWithRole(
		models.PermissionMap{
			models.PermManageUsers:  true,  // revoked below
			models.PermViewReports:  false, // granted below
			models.PermViewStickers: true,  // untouched
		},
		models.PermissionMap{
			models.PermManageUsers:    false,
			models.PermViewReports:    true,
			models.PermManageStickers: true, // key the role does not list at all
		},
	)

	effective := Resolve(m)
	assert.False(t, effective[models.PermManageUsers])
	assert.True(t, effective[models.PermViewReports])
	assert.True(t, effective[models.PermViewStickers])
	assert.True(t, effective[models.PermManageStickers])
}

func TestCheckUnlistedKeyIsDenied(t *testing.T) {
	m := membershipWithRole(models.PermissionMap{models.PermViewHouseholds: true}, nil)

	assert.True(t, Check(m, models.PermViewHouseholds))
	assert.False(t, Check(m, models.PermManageTenant))
	assert.False(t, Check(m, "never_defined_anywhere"))
}

func TestCheckNilMembership(t *testing.T) {
	assert.False(t, Check(nil, models.PermViewHouseholds))

	bare := &models.Membership{} // no role joined
	assert.False(t, Check(bare, models.PermViewHouseholds))
}

func TestCheckMany(t *testing.T) {
	m := membershipWithRole(
		models.PermissionMap{models.PermManageUsers: true, models.PermViewHouseholds: true},
		models.PermissionMap{models.PermManageUsers: false},
	)

	got := CheckMany(m, []string{models.PermManageUsers, models.PermViewHouseholds, models.PermViewReports})
	require.Len(t, got, 3)
	assert.False(t, got[models.PermManageUsers])
	assert.True(t, got[models.PermViewHouseholds])
	assert.False(t, got[models.PermViewReports])
}

// Overrides are per membership: the same user can have a permission revoked
// in one tenant while keeping the role default in another.
func TestOverridesAreScopedToMembership(t *testing.T) {
	adminDefaults := models.PermissionMap{models.PermManageUsers: true}
	memberDefaults := models.PermissionMap{models.PermViewHouseholds: true}

	t1 := membershipWithRole(adminDefaults, models.PermissionMap{models.PermManageUsers: false})
	t2 := membershipWithRole(memberDefaults, nil)

	assert.False(t, Check(t1, models.PermManageUsers))
	assert.False(t, Check(t2, models.PermManageUsers)) // member role default: unlisted
	assert.True(t, Check(t2, models.PermViewHouseholds))
}
