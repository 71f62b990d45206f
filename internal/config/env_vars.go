package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SessionStoreKind names a session.Store implementation.
type SessionStoreKind string

const (
	SessionStoreMemory SessionStoreKind = "memory"
	SessionStoreFile   SessionStoreKind = "file"
	SessionStoreRedis  SessionStoreKind = "redis"
)

// EnvVars holds every DASHBOARD_* variable. Tag names are also looked up
// without the prefix, so DEBUG=true enables debug logging as well.
type EnvVars struct {
	Env     string `envconfig:"ENV" default:"DEV"`
	AppName string `envconfig:"APP_NAME" default:"Flight Ops Dev"`
	Port    string `envconfig:"PORT" default:"8000"`

	APIBaseURL  string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	Debug       bool          `envconfig:"DEBUG" default:"false"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	SessionStore  SessionStoreKind `envconfig:"SESSION_STORE" default:"file"`
	DataFolder    string           `envconfig:"DATA_FOLDER" default:"./data"`
	RedisAddr     string           `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string           `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int              `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string           `envconfig:"REDIS_PREFIX" default:"dashboard:"`

	TokenSecret        string        `envconfig:"TOKEN_SECRET" default:"dev-secret"`
	AccessTokenExpiry  time.Duration `envconfig:"ACCESS_TOKEN_EXPIRY" default:"15m"`
	RefreshTokenExpiry time.Duration `envconfig:"REFRESH_TOKEN_EXPIRY" default:"168h"`
	RefreshTokenLength int           `envconfig:"REFRESH_TOKEN_LENGTH" default:"32"`
	ResetTokenExpiry   time.Duration `envconfig:"RESET_TOKEN_EXPIRY" default:"1h"`
	TokenIssuer        string        `envconfig:"TOKEN_ISSUER" default:"http://localhost:8000"`
	SigningKeyPEM      string        `envconfig:"SIGNING_KEY_PEM" default:""`
	AdminEmail         string        `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword      string        `envconfig:"ADMIN_PASSWORD" default:""`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

var _ EnvConfig = EnvVars{}
var _ ClientConfig = EnvVars{}
var _ SessionConfig = EnvVars{}
var _ BackendConfig = EnvVars{}

func (e EnvVars) validate() error {
	u, err := url.Parse(e.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q", e.APIBaseURL)
	}
	switch e.SessionStore {
	case SessionStoreMemory, SessionStoreFile, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", e.SessionStore)
	}
	if e.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	return nil
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

// GetPort returns the listen address, always prefixed with ':'.
func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.APIBaseURL, "/")
}

func (e EnvVars) GetDebug() bool {
	return e.Debug
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	return e.HTTPTimeout
}

func (e EnvVars) GetSessionStore() SessionStoreKind {
	return e.SessionStore
}

func (e EnvVars) GetRedisAddr() string {
	return e.RedisAddr
}

func (e EnvVars) GetRedisPassword() string {
	return e.RedisPassword
}

func (e EnvVars) GetRedisDB() int {
	return e.RedisDB
}

func (e EnvVars) GetRedisPrefix() string {
	return e.RedisPrefix
}

func (e EnvVars) GetTokenSecret() string {
	return e.TokenSecret
}

func (e EnvVars) GetAccessTokenExpiry() time.Duration {
	return e.AccessTokenExpiry
}

func (e EnvVars) GetRefreshTokenExpiry() time.Duration {
	return e.RefreshTokenExpiry // 7 days by default
}

func (e EnvVars) GetRefreshTokenLength() int {
	if e.RefreshTokenLength <= 0 {
		return 32 // 32 bytes = 256 bits
	}
	return e.RefreshTokenLength
}

func (e EnvVars) GetResetTokenExpiry() time.Duration {
	return e.ResetTokenExpiry
}

func (e EnvVars) GetTokenIssuer() string {
	return e.TokenIssuer
}

// GetSigningKeyPEM returns the EC private key access tokens are signed
// with. Empty means a fresh key is generated at startup.
func (e EnvVars) GetSigningKeyPEM() string {
	return e.SigningKeyPEM
}

func (e EnvVars) GetAdminEmail() string {
	return e.AdminEmail
}

// GetAdminPassword returns the seeded admin's password. Empty means one is
// generated and logged at startup.
func (e EnvVars) GetAdminPassword() string {
	return e.AdminPassword
}
