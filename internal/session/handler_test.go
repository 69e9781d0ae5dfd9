package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/tenantctx"
)

type switchStore struct {
	memberships map[uuid.UUID]*models.Membership // keyed by tenant id
}

func (s *switchStore) GetMembership(_ context.Context, _, tenantID uuid.UUID) (*models.Membership, error) {
	return s.memberships[tenantID], nil
}

func (s *switchStore) ListMemberships(_ context.Context, _ uuid.UUID) ([]*models.Membership, error) {
	return nil, nil
}

func (s *switchStore) GetRole(_ context.Context, _ uuid.UUID) (*models.Role, error) {
	return nil, nil
}

func (s *switchStore) GetTenant(_ context.Context, _ uuid.UUID) (*models.Tenant, error) {
	return nil, nil
}

type recordingRevoker struct {
	jtis []string
}

func (r *recordingRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	r.jtis = append(r.jtis, jti)
	return nil
}

func switchRequest(t *testing.T, h *Handler, claims *auth.Claims, tenantID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(gin.H{"tenant_id": tenantID})
	require.NoError(t, err)
	c.Request = httptest.NewRequest(http.MethodPost, "/tenants/switch", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(auth.ContextClaims, claims)
	h.Switch(c)
	return w
}

func TestSwitchMintsTokenMatchingResult(t *testing.T) {
	userID := uuid.New()
	role := &models.Role{ID: uuid.New(), Code: models.RoleAdminHead, Name: "Head Administrator"}
	tenant := &models.Tenant{ID: uuid.New(), Name: "Greenfield", Slug: "greenfield", Status: models.TenantActive}
	store := &switchStore{memberships: map[uuid.UUID]*models.Membership{
		tenant.ID: {
			ID:       uuid.New(),
			TenantID: tenant.ID,
			UserID:   userID,
			RoleID:   role.ID,
			IsActive: true,
			Role:     role,
			Tenant:   tenant,
		},
	}}

	svc := auth.NewJWTService("test-secret", 1)
	oldToken, err := svc.Generate(userID, "ana@example.com", nil)
	require.NoError(t, err)
	oldClaims, err := svc.Validate(oldToken)
	require.NoError(t, err)

	revoker := &recordingRevoker{}
	h := NewHandler(tenantctx.NewEngine(store, zap.NewNop()), svc, revoker, zap.NewNop())

	w := switchRequest(t, h, oldClaims, tenant.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data SwitchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Success)
	assert.Equal(t, tenant.ID, body.Data.TenantID)
	assert.Equal(t, role.ID, body.Data.RoleID)
	assert.Equal(t, role.Code, body.Data.RoleCode)

	// The returned token must already carry the new context.
	newClaims, err := svc.Validate(body.Data.Token)
	require.NoError(t, err)
	require.NotNil(t, newClaims.TenantID)
	require.NotNil(t, newClaims.RoleID)
	assert.Equal(t, tenant.ID, *newClaims.TenantID)
	assert.Equal(t, role.ID, *newClaims.RoleID)
	assert.Equal(t, role.Code, newClaims.RoleCode)

	// The superseded credential is denylisted by jti.
	assert.Equal(t, []string{oldClaims.ID}, revoker.jtis)
}

func TestSwitchToInaccessibleTenantDoesNotRevoke(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	oldToken, err := svc.Generate(uuid.New(), "ana@example.com", nil)
	require.NoError(t, err)
	oldClaims, err := svc.Validate(oldToken)
	require.NoError(t, err)

	revoker := &recordingRevoker{}
	h := NewHandler(tenantctx.NewEngine(&switchStore{}, zap.NewNop()), svc, revoker, zap.NewNop())

	w := switchRequest(t, h, oldClaims, uuid.New())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, revoker.jtis, "failed switch must leave the current credential usable")
}

func TestSwitchToInactiveTenantForbidden(t *testing.T) {
	userID := uuid.New()
	role := &models.Role{ID: uuid.New(), Code: models.RoleAdminHead}
	tenant := &models.Tenant{ID: uuid.New(), Name: "Dormant", Slug: "dormant", Status: models.TenantSuspended}
	store := &switchStore{memberships: map[uuid.UUID]*models.Membership{
		tenant.ID: {
			ID:       uuid.New(),
			TenantID: tenant.ID,
			UserID:   userID,
			RoleID:   role.ID,
			IsActive: true,
			Role:     role,
			Tenant:   tenant,
		},
	}}

	svc := auth.NewJWTService("test-secret", 1)
	oldToken, err := svc.Generate(userID, "ana@example.com", nil)
	require.NoError(t, err)
	oldClaims, err := svc.Validate(oldToken)
	require.NoError(t, err)

	revoker := &recordingRevoker{}
	h := NewHandler(tenantctx.NewEngine(store, zap.NewNop()), svc, revoker, zap.NewNop())

	w := switchRequest(t, h, oldClaims, tenant.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, revoker.jtis)
}
