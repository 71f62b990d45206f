package config_test

import (
	"testing"
	"time"

	"github.com/dream1290/dbxui-sub000/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8000", c.GetAPIBaseURL())
	require.Equal(t, config.SessionStoreFile, c.GetSessionStore())
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:5173"))
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("DASHBOARD_API_BASE_URL", "https://ops.example.com/")
	t.Setenv("DASHBOARD_SESSION_STORE", "redis")
	t.Setenv("DASHBOARD_REDIS_PREFIX", "ops:")
	t.Setenv("DASHBOARD_PORT", ":9000")
	t.Setenv("DASHBOARD_DEBUG", "true")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "https://ops.example.com", c.GetAPIBaseURL())
	require.Equal(t, config.SessionStoreRedis, c.GetSessionStore())
	require.Equal(t, "ops:", c.GetRedisPrefix())
	require.Equal(t, ":9000", c.GetPort())
	require.True(t, c.GetDebug())
}

func TestNew_Invalid(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		t.Setenv("DASHBOARD_SESSION_STORE", "cookie")
		_, err := config.New()
		require.Error(t, err)
	})
	t.Run("base url", func(t *testing.T) {
		t.Setenv("DASHBOARD_API_BASE_URL", "not a url")
		_, err := config.New()
		require.Error(t, err)
	})
}
