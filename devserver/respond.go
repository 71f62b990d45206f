package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dream1290/dbxui-sub000/auth"
	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
)

const maxJSONBody = 1 << 20

type detailResponse struct {
	Detail string `json:"detail"`
}

// validationItem is one entry of a 422 response's detail array
type validationItem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type validationResponse struct {
	Detail []validationItem `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// writeValidation reports every failed field as located under loc
func writeValidation(w http.ResponseWriter, loc string, fields ...apperrors.FieldError) {
	items := make([]validationItem, len(fields))
	for i, f := range fields {
		items[i] = validationItem{Loc: []string{loc, f.Field}, Msg: f.Message, Type: "value_error"}
	}
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Detail: items})
}

// writeError maps a service error onto the backend's status and detail
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, "body", verr.Fields...)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		writeUnauthorized(w, "Incorrect email or password")
	case errors.Is(err, apperrors.ErrUserExists):
		writeDetail(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, apperrors.ErrUserBlocked):
		writeDetail(w, http.StatusForbidden, "Inactive user")
	case errors.Is(err, apperrors.ErrInvalidRefreshToken):
		writeUnauthorized(w, "Invalid refresh token")
	case errors.Is(err, apperrors.ErrRefreshTokenExpired):
		writeUnauthorized(w, "Refresh token expired")
	case errors.Is(err, apperrors.ErrInvalidResetToken):
		writeDetail(w, http.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, auth.WeakPasswordErr):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, apperrors.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	default:
		logError(r.Method, r.URL.Path, err.Error())
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError(apperrors.FieldError{
			Field:   "json",
			Message: fmt.Sprintf("Invalid JSON body: %v", err),
		})
	}
	return nil
}
