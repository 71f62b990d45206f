package devserver

import (
	"net/http"
	"time"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/users"
)

type roleUpdate struct {
	Role users.Role `json:"role"`
}

type userActivity struct {
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type databaseStatus struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Latency     string `json:"latency"`
}

func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, fields := pagination(r)
		if len(fields) > 0 {
			writeValidation(w, "query", fields...)
			return
		}
		list, err := s.repos.Users.List(offset, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) AdminUpdateRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in roleUpdate
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		if !in.Role.Valid() {
			writeValidation(w, "body", apperrors.FieldError{Field: "role", Message: "Unknown role"})
			return
		}

		id := r.PathValue("id")
		if err := s.repos.Users.SetRole(id, in.Role); err != nil {
			writeError(w, r, err)
			return
		}
		user, err := s.repos.Users.GetByID(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// AdminUserActivityHandler reports the account events the backend records
func (s *Server) AdminUserActivityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		activity := []userActivity{{Action: "register", Resource: "user", Timestamp: user.CreatedAt}}
		if !user.LastLogin.IsZero() {
			activity = append(activity, userActivity{Action: "login", Resource: "session", Timestamp: user.LastLogin})
		}
		writeJSON(w, http.StatusOK, activity)
	}
}

// DatabaseStatusHandler probes the stores with a one-row read
func (s *Server) DatabaseStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := "healthy"
		if _, err := s.repos.Users.List(0, 1); err != nil {
			status = "unhealthy"
		}
		if _, err := s.repos.Organizations.List(0, 1); err != nil {
			status = "unhealthy"
		}
		writeJSON(w, http.StatusOK, databaseStatus{
			Status:      status,
			Connections: 1,
			Latency:     time.Since(start).String(),
		})
	}
}

func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.tokens.GetJWKS()
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, jwks)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": s.config.GetAppName()})
	}
}

// PreflightHandler answers CORS preflight requests; CorsMiddleware writes
// the headers
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

