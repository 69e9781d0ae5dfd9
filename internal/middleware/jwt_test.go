package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagio/backend/internal/auth"
)

type fakeTokenChecker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeTokenChecker) IsRevoked(_ context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[jti], nil
}

func jwtTestRouter(svc *auth.JWTService, checker TokenChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(svc, checker), func(c *gin.Context) {
		claims := auth.MustClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return r
}

func doJWTRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	token, err := svc.Generate(uuid.New(), "ana@example.com", nil)
	require.NoError(t, err)

	r := jwtTestRouter(svc, &fakeTokenChecker{})
	w := doJWTRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	r := jwtTestRouter(svc, &fakeTokenChecker{})

	assert.Equal(t, http.StatusUnauthorized, doJWTRequest(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJWTRequest(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doJWTRequest(r, "Bearer not-a-token").Code)
}

func TestJWTMiddlewareRejectsRevokedToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	token, err := svc.Generate(uuid.New(), "ana@example.com", nil)
	require.NoError(t, err)
	claims, err := svc.Validate(token)
	require.NoError(t, err)

	r := jwtTestRouter(svc, &fakeTokenChecker{revoked: map[string]bool{claims.ID: true}})
	w := doJWTRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "token has been revoked", body.Error)
}

func TestJWTMiddlewareFailsClosedOnDenylistError(t *testing.T) {
	svc := auth.NewJWTService("test-secret", 1)
	token, err := svc.Generate(uuid.New(), "ana@example.com", nil)
	require.NoError(t, err)

	// The denylist being unreachable must never let a possibly revoked
	// credential through.
	r := jwtTestRouter(svc, &fakeTokenChecker{err: errors.New("redis down")})
	w := doJWTRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
