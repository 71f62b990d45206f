// Package token issues and verifies the dev backend's access tokens and
// password reset tokens.
package token

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/token/keys"
	"github.com/dream1290/dbxui-sub000/users"
)

const (
	DefaultIssuer   = "http://localhost:8000"
	DefaultAudience = "flight-dashboard"

	purposeReset = "password_reset"
)

// Claims is the verified content of an access token
type Claims struct {
	Subject        string     `json:"sub"`
	Email          string     `json:"email"`
	Role           users.Role `json:"role"`
	OrganizationID string     `json:"org,omitempty"`
	ID             string     `json:"jti"`
	ExpiresAt      time.Time  `json:"-"`
}

type Manager struct {
	accessSigner      *keys.KeyPairSigner // Access token signing
	resetSigner       keys.Signer         // Password reset token signing and verification
	verifier          *oidc.IDTokenVerifier
	issuer            string
	audience          string
	denylist          Denylist
	accessTokenExpiry time.Duration
	resetTokenExpiry  time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry, resetTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.resetTokenExpiry = resetTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithAudience(audience string) ManagerOption {
	return func(m *Manager) {
		m.audience = audience
	}
}

// WithDenylist replaces the in-memory denylist used for logout and reset
// token reuse checks.
func WithDenylist(d Denylist) ManagerOption {
	return func(m *Manager) {
		m.denylist = d
	}
}

// New returns a Manager signing access tokens with accessSigner and reset
// tokens with resetSigner.
func New(accessSigner *keys.KeyPairSigner, resetSigner keys.Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		accessSigner: accessSigner,
		resetSigner:  resetSigner,
		issuer:       DefaultIssuer,
		audience:     DefaultAudience,
		denylist:     NewMemoryDenylist(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.resetTokenExpiry == 0 {
		m.resetTokenExpiry = time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{accessSigner.KeyPair().PublicKey}}
	m.verifier = oidc.NewVerifier(m.issuer, keySet, &oidc.Config{
		ClientID:             m.audience,
		SupportedSigningAlgs: []string{oidc.ES256},
		Now:                  m.nowFunc,
	})
	return m
}

// AccessTokenExpiry is the lifetime of issued access tokens
func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

// CreateAccessToken creates a signed access token for user
func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":   m.issuer,                            // The issuer of the token
		"aud":   m.audience,                          // The audience for which the token is intended
		"sub":   user.ID,                             // The user the token represents
		"email": user.Email,                          // Convenience copy for logging
		"role":  string(user.Role),                   // Authorization role at issue time
		"iat":   now.Unix(),                          // Issued At
		"exp":   now.Add(m.accessTokenExpiry).Unix(), // Expiry
		"jti":   uuid.New().String(),                 // Unique token ID for revocation
	}
	if user.OrganizationID != "" {
		claims["org"] = user.OrganizationID
	}

	signed, err := m.accessSigner.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks signature, issuer, audience, expiry and
// revocation and returns the token's claims.
func (m *Manager) VerifyAccessToken(ctx context.Context, rawToken string) (*Claims, error) {
	idToken, err := m.verifier.Verify(ctx, rawToken)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "decode claims: %v", err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "missing sub or jti")
	}
	if m.denylist.Denied(claims.ID) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "token revoked")
	}
	claims.ExpiresAt = idToken.Expiry
	return &claims, nil
}

// RevokeAccessToken rejects the token's id until it expires
func (m *Manager) RevokeAccessToken(claims *Claims) error {
	return m.denylist.Deny(claims.ID, claims.ExpiresAt)
}

// CreateResetToken creates a single-use password reset token for user
func (m *Manager) CreateResetToken(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":     m.issuer,
		"sub":     user.ID,
		"purpose": purposeReset,
		"iat":     now.Unix(),
		"exp":     now.Add(m.resetTokenExpiry).Unix(),
		"jti":     uuid.New().String(),
	}
	signed, err := m.resetSigner.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// ConsumeResetToken validates a reset token, marks it used and returns the
// user id it was issued for.
func (m *Manager) ConsumeResetToken(rawToken string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.resetSigner.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	tok, err := parser.Parse(rawToken, m.resetSigner.GetVerificationKey)
	if err != nil || !tok.Valid {
		return "", apperrors.ErrInvalidResetToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.ErrInvalidResetToken
	}

	purpose, _ := claims["purpose"].(string)
	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)
	if purpose != purposeReset || jti == "" || sub == "" {
		return "", apperrors.ErrInvalidResetToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", apperrors.ErrInvalidResetToken
	}

	fresh, err := m.denylist.DenyOnce(jti, exp.Time)
	if err != nil {
		return "", fmt.Errorf("failed to record used reset token: %w", err)
	}
	if !fresh {
		return "", apperrors.ErrInvalidResetToken
	}
	return sub, nil
}

// GetJWKS returns the public key set access tokens verify against
func (m *Manager) GetJWKS() (*keys.JWKS, error) {
	return m.accessSigner.GetJWKS()
}

// PruneDenylist drops denylist entries for tokens that have expired and
// returns how many were removed.
func (m *Manager) PruneDenylist() int {
	return m.denylist.Prune(m.nowFunc())
}
