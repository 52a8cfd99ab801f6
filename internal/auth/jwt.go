// Package auth validates bearer tokens. Token issuance belongs to the
// external identity service; this backend only verifies.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/config"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

// RoleAdmin is the role claim value granting elevated privileges.
const RoleAdmin = "admin"

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID uuid.UUID
	Admin  bool
}

// Validator verifies HS256-signed tokens against the shared secret.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a token validator from configuration.
func NewValidator(cfg config.AuthConfig) *Validator {
	return &Validator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
	}
}

// ValidateToken parses and verifies a token string, returning the caller's
// identity. Every failure maps to domain.ErrUnauthorized; callers never see
// parser internals.
func (v *Validator) ValidateToken(tokenString string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid subject", domain.ErrUnauthorized)
	}

	return Identity{
		UserID: userID,
		Admin:  c.Role == RoleAdmin,
	}, nil
}
