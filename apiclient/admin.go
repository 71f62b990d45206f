package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// UnknownDatabaseStatus is reported when the backend cannot say.
const UnknownDatabaseStatus = "unknown"

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return Do[[]User](ctx, c, http.MethodGet, RouteAdminUsers, nil)
}

type roleUpdate struct {
	Role Role `json:"role"`
}

func (c *Client) UpdateUserRole(ctx context.Context, userID string, role Role) (*User, error) {
	u, err := Do[User](ctx, c, http.MethodPut, RouteAdminUsers+"/"+url.PathEscape(userID)+"/role", roleUpdate{Role: role})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserActivity is best-effort: not every backend deployment serves it, so
// any failure yields an empty list.
func (c *Client) UserActivity(ctx context.Context, userID string) []UserActivity {
	activity, err := Do[[]UserActivity](ctx, c, http.MethodGet, RouteAdminUsers+"/"+url.PathEscape(userID)+"/activity", nil)
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("apiclient: user activity unavailable")
		return []UserActivity{}
	}
	return activity
}

// DatabaseStatus is best-effort; any failure yields UnknownDatabaseStatus.
func (c *Client) DatabaseStatus(ctx context.Context) DatabaseStatus {
	status, err := Do[DatabaseStatus](ctx, c, http.MethodGet, RouteAdminDatabaseStatus, nil)
	if err != nil || status.Status == "" {
		log.Debug().Err(err).Msg("apiclient: database status unavailable")
		return DatabaseStatus{Status: UnknownDatabaseStatus}
	}
	return status
}
