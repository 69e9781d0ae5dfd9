package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagio/backend/internal/tenantctx"
)

func TestGenerateWithoutTenantContext(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "ana@example.com", nil)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Nil(t, claims.TenantID)
	assert.Nil(t, claims.RoleID)
	assert.Empty(t, claims.RoleCode)
	assert.NotEmpty(t, claims.ID, "jti is required for revocation")
}

func TestGenerateWithTenantContext(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()
	sc := &tenantctx.SessionContext{
		UserID:   userID,
		TenantID: uuid.New(),
		RoleID:   uuid.New(),
		RoleCode: "admin-head",
	}

	token, err := svc.Generate(userID, "ana@example.com", sc)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.NotNil(t, claims.TenantID)
	require.NotNil(t, claims.RoleID)
	assert.Equal(t, sc.TenantID, *claims.TenantID)
	assert.Equal(t, sc.RoleID, *claims.RoleID)
	assert.Equal(t, "admin-head", claims.RoleCode)

	ec := claims.EngineClaims()
	assert.Equal(t, userID, ec.UserID)
	assert.Equal(t, sc.TenantID, *ec.TenantID)
	assert.Equal(t, sc.RoleID, *ec.RoleID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "x@example.com", nil)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", 1).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEachTokenGetsFreshJTI(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	t1, err := svc.Generate(userID, "a@example.com", nil)
	require.NoError(t, err)
	t2, err := svc.Generate(userID, "a@example.com", nil)
	require.NoError(t, err)

	c1, err := svc.Validate(t1)
	require.NoError(t, err)
	c2, err := svc.Validate(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}
