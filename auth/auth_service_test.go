package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/dream1290/dbxui-sub000/auth"
	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/organizations"
	orgrepofake "github.com/dream1290/dbxui-sub000/organizations/repofake"
	"github.com/dream1290/dbxui-sub000/token"
	"github.com/dream1290/dbxui-sub000/token/keys"
	"github.com/dream1290/dbxui-sub000/token/refresh"
	refreshrepofake "github.com/dream1290/dbxui-sub000/token/refresh/repofake"
	"github.com/dream1290/dbxui-sub000/users"
	fakeuserrepo "github.com/dream1290/dbxui-sub000/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "pilot@example.com"
	testUserPassword = "Password123"
	testOrgID        = "org-1"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	tokens   *token.Manager
	service  *auth.AuthService
	now      time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		now:      time.Now(),
	}
	orgRepo := orgrepofake.NewFakeOrganizationRepo()
	require.NoError(t, orgRepo.Upsert(&organizations.Organization{ID: organizations.DefaultOrganizationID, Name: "Default"}))
	require.NoError(t, orgRepo.Upsert(&organizations.Organization{ID: testOrgID, Name: "Operator One"}))

	kp, err := keys.GenerateECDSAKeyPair("test-key")
	require.NoError(t, err)
	nowFunc := func() time.Time { return f.now }
	f.tokens = token.New(keys.NewKeyPairSigner(kp), keys.NewHMACSigner("reset-secret"),
		token.WithTokenExpiry(time.Minute, time.Hour),
		token.WithNowFunc(nowFunc),
	)
	refreshTokens := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour, refresh.WithNowFunc(nowFunc))

	f.service, err = auth.NewAuthService(auth.Repos{Users: f.userRepo, Organizations: orgRepo}, f.tokens, refreshTokens,
		auth.WithNowTime(nowFunc))
	require.NoError(t, err)
	return f
}

func (f *testFixture) register(t *testing.T) *auth.TokenPair {
	t.Helper()
	pair, err := f.service.Register(auth.RegisterParameters{
		Email:          testUserEmail,
		Password:       testUserPassword,
		FullName:       "Test Pilot",
		OrganizationID: testOrgID,
	})
	require.NoError(t, err)
	return pair
}

func TestNewAuthService_RequiresDependencies(t *testing.T) {
	_, err := auth.NewAuthService(auth.Repos{}, nil, nil)
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, users.RoleViewer, pair.User.Role)
	require.Equal(t, testOrgID, pair.User.OrganizationID)
	require.True(t, pair.User.IsActive)

	_, err := f.service.Register(auth.RegisterParameters{
		Email:    "PILOT@example.com",
		Password: testUserPassword,
		FullName: "Someone Else",
	})
	require.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestRegister_Validation(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Register(auth.RegisterParameters{
		Email:          "not-an-email",
		Password:       "short",
		OrganizationID: "missing-org",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	require.ElementsMatch(t, []string{"email", "password", "full_name", "organization_id"}, fields)
}

func TestRegister_DefaultOrganization(t *testing.T) {
	f := setupTestFixture(t)
	pair, err := f.service.Register(auth.RegisterParameters{
		Email:    testUserEmail,
		Password: testUserPassword,
		FullName: "Test Pilot",
	})
	require.NoError(t, err)
	require.Equal(t, organizations.DefaultOrganizationID, pair.User.OrganizationID)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	pair, err := f.service.Login(" Pilot@Example.com ", testUserPassword)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, pair.User.Email)
	require.False(t, pair.User.LastLogin.IsZero())

	_, err = f.service.Login(testUserEmail, "WrongPassword1")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.service.Login("nobody@example.com", testUserPassword)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, f.userRepo.SetActive(pair.User.ID, false))
	_, err = f.service.Login(testUserEmail, testUserPassword)
	require.ErrorIs(t, err, apperrors.ErrUserBlocked)
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	next, err := f.service.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.NotEmpty(t, next.AccessToken)

	_, err = f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.service.Refresh(next.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
}

func TestRefresh_BlockedUser(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)
	require.NoError(t, f.userRepo.SetActive(pair.User.ID, false))

	_, err := f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUserBlocked)
}

func TestAuthenticate(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)
	ctx := context.Background()

	claims, user, err := f.service.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, pair.User.ID, claims.Subject)
	require.Equal(t, testUserEmail, user.Email)

	f.now = f.now.Add(2 * time.Minute)
	_, _, err = f.service.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, _, err = f.service.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)
	ctx := context.Background()

	claims, _, err := f.service.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(claims))

	_, _, err = f.service.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	_, err = f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestPasswordReset(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.register(t)

	resetToken, user, err := f.service.ForgotPassword(testUserEmail)
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)
	require.Equal(t, pair.User.ID, user.ID)

	err = f.service.ResetPassword(resetToken, "weak")
	require.ErrorIs(t, err, auth.WeakPasswordErr)

	require.NoError(t, f.service.ResetPassword(resetToken, "NewPassword456"))
	require.ErrorIs(t, f.service.ResetPassword(resetToken, "OtherPassword789"), apperrors.ErrInvalidResetToken)

	_, err = f.service.Login(testUserEmail, testUserPassword)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.service.Login(testUserEmail, "NewPassword456")
	require.NoError(t, err)

	_, err = f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := setupTestFixture(t)
	resetToken, user, err := f.service.ForgotPassword("nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, resetToken)
	require.Nil(t, user)
}
