package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable read by New.
const EnvPrefix = "DASHBOARD"

type Config interface {
	EnvConfig
	ClientConfig
	SessionConfig
	BackendConfig
	CorsConfig
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetPort() string
	GetDataFolder() string
}

// ClientConfig configures the API client.
type ClientConfig interface {
	GetAPIBaseURL() string
	GetDebug() bool
	GetHTTPTimeout() time.Duration
}

// SessionConfig selects where the token pair is persisted.
type SessionConfig interface {
	GetSessionStore() SessionStoreKind
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

// BackendConfig configures the development backend.
type BackendConfig interface {
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetResetTokenExpiry() time.Duration
	GetTokenIssuer() string
	GetSigningKeyPEM() string
	GetAdminEmail() string
	GetAdminPassword() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
}

// New reads the configuration from DASHBOARD_* environment variables.
func New() (Config, error) {
	var vars EnvVars
	if err := envconfig.Process(EnvPrefix, &vars); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := vars.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return mainConfig{EnvVars: vars, Cors: Cors{origins: vars.AllowedOrigins}}, nil
}
