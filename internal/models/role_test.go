package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutranksOrEquals(t *testing.T) {
	head := &Role{Code: RoleAdminHead, HierarchyLevel: 1}
	officer := &Role{Code: RoleAdminOfficer, HierarchyLevel: 2}
	member := &Role{Code: RoleHouseholdMember, HierarchyLevel: 5}

	assert.True(t, head.OutranksOrEquals(officer))
	assert.True(t, head.OutranksOrEquals(head))
	assert.True(t, officer.OutranksOrEquals(member))
	assert.False(t, member.OutranksOrEquals(officer), "a junior role cannot hand out senior roles")
	assert.False(t, officer.OutranksOrEquals(head))
}

func TestPermissionMapCloneIsIndependent(t *testing.T) {
	orig := PermissionMap{PermViewStickers: true}
	clone := orig.Clone()
	clone[PermViewStickers] = false
	clone[PermManageUsers] = true

	assert.True(t, orig[PermViewStickers])
	assert.NotContains(t, orig, PermManageUsers)
}

func TestNilPermissionMapCloneIsEmpty(t *testing.T) {
	var p PermissionMap
	assert.NotNil(t, p.Clone())
	assert.Empty(t, p.Clone())
}
