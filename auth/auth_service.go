// Package auth implements the dev backend's account flows on top of the
// user, organization and token stores.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/organizations"
	"github.com/dream1290/dbxui-sub000/token"
	"github.com/dream1290/dbxui-sub000/token/refresh"
	"github.com/dream1290/dbxui-sub000/users"
)

// Repos holds all repository dependencies for the AuthService
type Repos struct {
	Users         users.UserRepo     // Repository for user data
	Organizations organizations.Repo // Repository for operator organizations
}

// TokenPair is what a successful sign-in hands back to the client
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *users.User
}

// RegisterParameters carries a self-service sign-up
type RegisterParameters struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	OrganizationID string `json:"organization_id"`
}

type AuthService struct {
	repos         Repos
	tokens        *token.Manager
	refreshTokens *refresh.Manager
	defaultRole   users.Role
	nowTime       func() time.Time
}

type AuthServiceOption func(*AuthService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthServiceOption {
	return func(as *AuthService) {
		as.nowTime = nowFunc
	}
}

// WithDefaultRole sets the role self-registered users receive
func WithDefaultRole(role users.Role) AuthServiceOption {
	return func(as *AuthService) {
		as.defaultRole = role
	}
}

func NewAuthService(repos Repos, tokens *token.Manager, refreshTokens *refresh.Manager, options ...AuthServiceOption) (*AuthService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthService] Users repo is required")
	}
	if repos.Organizations == nil {
		return nil, errors.New("[NewAuthService] Organizations repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewAuthService] token manager is required")
	}
	if refreshTokens == nil {
		return nil, errors.New("[NewAuthService] refresh token manager is required")
	}

	as := &AuthService{
		repos:         repos,
		tokens:        tokens,
		refreshTokens: refreshTokens,
		defaultRole:   users.RoleViewer,
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// Login checks the credentials and issues a new token pair. Unknown emails
// and wrong passwords fail identically.
func (as *AuthService) Login(email, password string) (*TokenPair, error) {
	user, err := as.repos.Users.GetByEmail(users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("[Login] failed to load user: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserBlocked
	}

	user.LastLogin = as.nowTime()
	if err := as.repos.Users.Upsert(user); err != nil {
		return nil, fmt.Errorf("[Login] failed to record login: %w", err)
	}
	return as.issue(user)
}

// Register validates a sign-up, stores the user and signs them in
func (as *AuthService) Register(params RegisterParameters) (*TokenPair, error) {
	email := users.NormalizeEmail(params.Email)
	var fields []apperrors.FieldError
	if email == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "Field required"})
	} else if err := users.ValidateEmail(email); err != nil {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: err.Error()})
	}
	if params.Password == "" {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "Field required"})
	} else if err := users.ValidatePasswordStrength(params.Password); err != nil {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: err.Error()})
	}
	if strings.TrimSpace(params.FullName) == "" {
		fields = append(fields, apperrors.FieldError{Field: "full_name", Message: "Field required"})
	}

	orgID := strings.TrimSpace(params.OrganizationID)
	if orgID == "" {
		orgID = organizations.DefaultOrganizationID
	}
	if _, err := as.repos.Organizations.Get(orgID); err != nil {
		fields = append(fields, apperrors.FieldError{Field: "organization_id", Message: InvalidOrganizationErr.Error()})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields...)
	}

	if _, err := as.repos.Users.GetByEmail(email); err == nil {
		return nil, apperrors.ErrUserExists
	}

	user := &users.User{
		Email:          email,
		FullName:       strings.TrimSpace(params.FullName),
		OrganizationID: orgID,
		Role:           as.defaultRole,
		IsActive:       true,
		CreatedAt:      as.nowTime(),
	}
	if err := user.SetPassword(params.Password); err != nil {
		return nil, fmt.Errorf("[Register] %w", err)
	}
	if err := as.repos.Users.Upsert(user); err != nil {
		return nil, fmt.Errorf("[Register] failed to store user: %w", err)
	}
	log.Info().Str("user_id", user.ID).Str("organization_id", orgID).Msg("user registered")
	return as.issue(user)
}

// Refresh rotates refreshToken and issues a new access token with it
func (as *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	userID, next, err := as.refreshTokens.Rotate(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := as.repos.Users.GetByID(userID)
	if err != nil {
		_ = as.refreshTokens.RevokeUser(userID)
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if !user.IsActive {
		_ = as.refreshTokens.RevokeUser(userID)
		return nil, apperrors.ErrUserBlocked
	}

	access, err := as.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: next, User: user}, nil
}

// Authenticate verifies a bearer access token and loads its user
func (as *AuthService) Authenticate(ctx context.Context, accessToken string) (*token.Claims, *users.User, error) {
	claims, err := as.tokens.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	user, err := as.repos.Users.GetByID(claims.Subject)
	if err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "unknown subject")
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrUserBlocked
	}
	return claims, user, nil
}

// Logout revokes the presented access token and the user's refresh token
func (as *AuthService) Logout(claims *token.Claims) error {
	if err := as.tokens.RevokeAccessToken(claims); err != nil {
		return fmt.Errorf("[Logout] failed to revoke access token: %w", err)
	}
	if err := as.refreshTokens.RevokeUser(claims.Subject); err != nil {
		return fmt.Errorf("[Logout] failed to revoke refresh token: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token for email. An unknown email yields an
// empty token and no error so callers cannot enumerate accounts.
func (as *AuthService) ForgotPassword(email string) (resetToken string, user *users.User, err error) {
	user, err = as.repos.Users.GetByEmail(users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("[ForgotPassword] failed to load user: %w", err)
	}
	if !user.IsActive {
		return "", nil, nil
	}
	resetToken, err = as.tokens.CreateResetToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("[ForgotPassword] %w", err)
	}
	return resetToken, user, nil
}

// ResetPassword sets newPassword for the reset token's user and signs out
// their other sessions. The token is only consumed once the password passes
// the strength check.
func (as *AuthService) ResetPassword(resetToken, newPassword string) error {
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %v", WeakPasswordErr, err)
	}
	userID, err := as.tokens.ConsumeResetToken(resetToken)
	if err != nil {
		return err
	}
	user, err := as.repos.Users.GetByID(userID)
	if err != nil {
		return apperrors.ErrInvalidResetToken
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("[ResetPassword] %w", err)
	}
	if err := as.repos.Users.Upsert(user); err != nil {
		return fmt.Errorf("[ResetPassword] failed to store user: %w", err)
	}
	if err := as.refreshTokens.RevokeUser(userID); err != nil {
		return fmt.Errorf("[ResetPassword] failed to revoke refresh token: %w", err)
	}
	return nil
}

// AccessTokenExpiry is the lifetime of issued access tokens
func (as *AuthService) AccessTokenExpiry() time.Duration {
	return as.tokens.AccessTokenExpiry()
}

func (as *AuthService) issue(user *users.User) (*TokenPair, error) {
	access, err := as.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := as.refreshTokens.Create(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken, User: user}, nil
}
