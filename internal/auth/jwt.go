package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/villagio/backend/internal/tenantctx"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds JWT claims: identity plus the active tenant context. TenantID
// and RoleID are nil until a tenant has been selected; the token is the
// session's cached copy of context and is only trustworthy after it passes
// the live-state validator on each tenant-scoped request.
type Claims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Email    string     `json:"email"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	RoleID   *uuid.UUID `json:"role_id,omitempty"`
	RoleCode string     `json:"role_code,omitempty"`
	jwt.RegisteredClaims
}

// EngineClaims converts token claims to the engine's claim shape.
func (c *Claims) EngineClaims() tenantctx.Claims {
	return tenantctx.Claims{
		UserID:   c.UserID,
		TenantID: c.TenantID,
		RoleID:   c.RoleID,
	}
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// Generate creates a new JWT for the user. A nil session context issues a
// token with no tenant claims (login before tenant selection).
func (s *JWTService) Generate(userID uuid.UUID, email string, sc *tenantctx.SessionContext) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	if sc != nil {
		tenantID, roleID := sc.TenantID, sc.RoleID
		claims.TenantID = &tenantID
		claims.RoleID = &roleID
		claims.RoleCode = sc.RoleCode
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
