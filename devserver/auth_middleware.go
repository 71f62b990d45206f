package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/token"
	"github.com/dream1290/dbxui-sub000/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyUser stores the authenticated user
	ContextKeyUser ContextKey = "user"
)

// RequireAuth is middleware that validates a Bearer access token and puts
// its claims and user on the request context
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "Not authenticated")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				writeUnauthorized(w, "Invalid Authorization header format")
				return
			}

			claims, user, err := s.auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrTokenExpired):
					writeUnauthorized(w, "Token has expired")
				case errors.Is(err, apperrors.ErrUserBlocked):
					writeDetail(w, http.StatusForbidden, "Inactive user")
				default:
					writeUnauthorized(w, "Could not validate credentials")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole is middleware that rejects users holding none of roles.
// Should be chained after RequireAuth.
func (s *Server) RequireRole(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := requestUser(r)
			if user == nil || !user.HasRole(roles...) {
				writeDetail(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			next(w, r)
		}
	}
}

func requestUser(r *http.Request) *users.User {
	user, _ := r.Context().Value(ContextKeyUser).(*users.User)
	return user
}

func requestClaims(r *http.Request) *token.Claims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*token.Claims)
	return claims
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}
