package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dream1290/dbxui-sub000/devserver"
	fakeflightrepo "github.com/dream1290/dbxui-sub000/flights/repofake"
	"github.com/dream1290/dbxui-sub000/internal/config"
	orgrepofake "github.com/dream1290/dbxui-sub000/organizations/repofake"
	"github.com/dream1290/dbxui-sub000/token"
	"github.com/dream1290/dbxui-sub000/token/keys"
	"github.com/dream1290/dbxui-sub000/token/refresh"
	refreshrepofake "github.com/dream1290/dbxui-sub000/token/refresh/repofake"
	fakeuserrepo "github.com/dream1290/dbxui-sub000/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "AdminPass123"
)

func startDevServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("DASHBOARD_ENV", "TEST")
	t.Setenv("DASHBOARD_ADMIN_EMAIL", testAdminEmail)
	t.Setenv("DASHBOARD_ADMIN_PASSWORD", testAdminPassword)
	t.Setenv("DASHBOARD_DATA_FOLDER", t.TempDir())
	t.Setenv("DASHBOARD_SESSION_STORE", "file")
	cfg, err := config.New()
	require.NoError(t, err)

	kp, err := keys.GenerateECDSAKeyPair("cli-test")
	require.NoError(t, err)
	s, err := devserver.New(cfg, devserver.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Organizations: orgrepofake.NewFakeOrganizationRepo(),
		Flights:       fakeflightrepo.NewFakeFlightRepo(),
	},
		token.New(keys.NewKeyPairSigner(kp), keys.NewHMACSigner("secret")),
		refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

// run executes one dashctl invocation and returns its stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	srv := startDevServer(t)
	url := "--api-url=" + srv.URL

	out, err := run(t, "login", url, "--email", testAdminEmail, "--password", testAdminPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as admin@example.com (admin)")

	out, err = run(t, "whoami", url)
	require.NoError(t, err)
	require.Contains(t, out, testAdminEmail)

	out, err = run(t, "flights", "list", url)
	require.NoError(t, err)
	require.Contains(t, out, "FLIGHT")

	out, err = run(t, "status", url)
	require.NoError(t, err)
	require.Contains(t, out, "Database: healthy")

	out, err = run(t, "logout", url)
	require.NoError(t, err)
	require.Contains(t, out, "Logged out")

	_, err = run(t, "whoami", url)
	require.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	srv := startDevServer(t)
	url := "--api-url=" + srv.URL

	_, err := run(t, "login", url, "--email", testAdminEmail, "--password", testAdminPassword)
	require.NoError(t, err)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("ok\nalert\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("ok\n"), 0o600))

	out, err := run(t, "analyze", url, a)
	require.NoError(t, err)
	require.Contains(t, out, "a.csv")
	require.Contains(t, out, "0.50")

	out, err = run(t, "analyze", url, a, b)
	require.NoError(t, err)
	require.Contains(t, out, "b.csv")
}

func TestPasswordFromEnv(t *testing.T) {
	t.Setenv("DASHBOARD_PASSWORD", "")
	_, err := passwordFromFlagOrEnv("")
	require.Error(t, err)

	t.Setenv("DASHBOARD_PASSWORD", "FromEnv123")
	pw, err := passwordFromFlagOrEnv("")
	require.NoError(t, err)
	require.Equal(t, "FromEnv123", pw)

	pw, err = passwordFromFlagOrEnv("FromFlag123")
	require.NoError(t, err)
	require.Equal(t, "FromFlag123", pw)
}

func TestOpenStore_Unknown(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	_, _, err = openStore(t.Context(), "cookie", cfg)
	require.Error(t, err)
}
