package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
)

// Re-exported so callers compare against a single symbol.
var (
	ErrNoRefreshToken = apperrors.ErrNoRefreshToken
	ErrRefreshFailed  = apperrors.ErrRefreshFailed
	ErrNoSession      = apperrors.ErrSessionNotFound
)

// User-facing messages.
const (
	MsgNetworkError       = "Network error. Please check your connection and try again."
	MsgAuthRequired       = "Authentication required"
	MsgInvalidInput       = "Please check your input and try again"
	MsgSessionExpired     = "Your session has expired. Please log in again"
	MsgForbidden          = "You don't have permission to perform this action"
	MsgNotFound           = "The requested resource was not found"
	MsgServerError        = "Something went wrong. Please try again later"
	MsgServiceUnavailable = "Service temporarily unavailable. Please try again later"
	MsgUnexpected         = "An unexpected error occurred"
)

// APIError is every failure the client reports for an HTTP exchange.
// Status is 0 when no response was received. Detail holds the decoded
// backend error body, or the underlying error for network failures.
type APIError struct {
	Status  int
	Message string
	Detail  any
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
}

// Unwrap exposes the transport error of a network failure.
func (e *APIError) Unwrap() error {
	if err, ok := e.Detail.(error); ok {
		return err
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNetworkError reports whether err is an APIError for a failed exchange.
func IsNetworkError(err error) bool {
	return IsStatus(err, 0)
}

// IsRecoverable reports whether a caller-side retry could succeed: network
// failures, 408, 429 and 5xx.
func IsRecoverable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.Status == 0:
		return true
	case apiErr.Status == http.StatusRequestTimeout, apiErr.Status == http.StatusTooManyRequests:
		return true
	case apiErr.Status >= 500:
		return true
	default:
		return false
	}
}

func newNetworkError(err error) *APIError {
	return &APIError{Status: 0, Message: MsgNetworkError, Detail: err}
}

// newHTTPError maps a non-2xx response to its user-facing message.
func newHTTPError(status int, detail any) *APIError {
	return &APIError{Status: status, Message: errorMessage(status, detail), Detail: detail}
}

// errorMessage prefers the backend's "detail" field: a string is used as is,
// an array of validation objects is joined on their msg/message fields.
func errorMessage(status int, body any) string {
	if m, ok := body.(map[string]any); ok {
		switch detail := m["detail"].(type) {
		case string:
			if detail != "" {
				return detail
			}
		case []any:
			if msg := joinValidationMessages(detail); msg != "" {
				return msg
			}
		}
	}
	return statusMessage(status)
}

func joinValidationMessages(items []any) string {
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if msg, ok := obj["msg"].(string); ok && msg != "" {
			msgs = append(msgs, msg)
		} else if msg, ok := obj["message"].(string); ok && msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return strings.Join(msgs, ", ")
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return MsgInvalidInput
	case http.StatusUnauthorized:
		return MsgSessionExpired
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusInternalServerError:
		return MsgServerError
	case http.StatusServiceUnavailable:
		return MsgServiceUnavailable
	default:
		return MsgUnexpected
	}
}
