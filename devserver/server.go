// Package devserver is an in-memory backend serving the dashboard API so the
// client can be exercised end to end.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dream1290/dbxui-sub000/auth"
	"github.com/dream1290/dbxui-sub000/flights"
	"github.com/dream1290/dbxui-sub000/internal/config"
	"github.com/dream1290/dbxui-sub000/organizations"
	"github.com/dream1290/dbxui-sub000/token"
	"github.com/dream1290/dbxui-sub000/token/refresh"
	"github.com/dream1290/dbxui-sub000/users"
)

// Repos holds the stores the server reads and writes
type Repos struct {
	Users         users.UserRepo
	Organizations organizations.Repo
	Flights       flights.Repo
}

// ResetNotifier delivers a password reset token to its user
type ResetNotifier func(ctx context.Context, user *users.User, resetToken string)

type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	repos         Repos
	auth          *auth.AuthService
	tokens        *token.Manager
	resetNotifier ResetNotifier
	adminPassword string // Set when bootstrap generated the admin password
}

type Option func(*Server)

// WithResetNotifier replaces the default notifier, which logs the token
func WithResetNotifier(n ResetNotifier) Option {
	return func(s *Server) {
		s.resetNotifier = n
	}
}

func New(cfg config.Config, repos Repos, tokens *token.Manager, refreshTokens *refresh.Manager, options ...Option) (*Server, error) {
	if repos.Flights == nil {
		return nil, errors.New("[Server New] Flights repo is required")
	}
	authService, err := auth.NewAuthService(auth.Repos{Users: repos.Users, Organizations: repos.Organizations}, tokens, refreshTokens)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create auth service: %w", err)
	}

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		repos:         repos,
		auth:          authService,
		tokens:        tokens,
		resetNotifier: logResetToken,
	}
	for _, opt := range options {
		opt(s)
	}

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// GeneratedAdminPassword returns the bootstrap admin password when none was
// configured, or "" otherwise.
func (s *Server) GeneratedAdminPassword() string {
	return s.adminPassword
}

// PruneDenylist drops expired denylist entries every interval until ctx is
// done.
func (s *Server) PruneDenylist(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.tokens.PruneDenylist(); n > 0 {
				log.Debug().Int("dropped", n).Msg("pruned token denylist")
			}
		}
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logResetToken(_ context.Context, user *users.User, resetToken string) {
	log.Info().Str("email", user.Email).Str("reset_token", resetToken).Msg("password reset requested")
}
