package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/villagio/backend/internal/models"
)

func membershipWith(perms models.PermissionMap, overrides models.PermissionMap) *models.Membership {
	return &models.Membership{
		ID:                  uuid.New(),
		TenantID:            uuid.New(),
		UserID:              uuid.New(),
		IsActive:            true,
		PermissionOverrides: overrides,
		Role: &models.Role{
			ID:          uuid.New(),
			Code:        models.RoleHouseholdMember,
			Permissions: perms,
		},
	}
}

func runWith(m *models.Membership, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(ContextMembership, m)
	mw(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequirePermissionGranted(t *testing.T) {
	m := membershipWith(models.PermissionMap{models.PermViewStickers: true}, nil)
	w := runWith(m, RequirePermission(models.PermViewStickers))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionDenied(t *testing.T) {
	m := membershipWith(models.PermissionMap{models.PermViewStickers: true}, nil)
	w := runWith(m, RequirePermission(models.PermManageStickers))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionOverrideRevokes(t *testing.T) {
	m := membershipWith(
		models.PermissionMap{models.PermViewStickers: true},
		models.PermissionMap{models.PermViewStickers: false},
	)
	w := runWith(m, RequirePermission(models.PermViewStickers))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAnyPermission(t *testing.T) {
	m := membershipWith(models.PermissionMap{models.PermViewHouseholds: true}, nil)

	w := runWith(m, RequireAnyPermission(models.PermManageHouseholds, models.PermViewHouseholds))
	assert.Equal(t, http.StatusOK, w.Code)

	w = runWith(m, RequireAnyPermission(models.PermManageHouseholds, models.PermManageUsers))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
