package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/rs/zerolog/log"
)

const refreshFlightKey = "refresh"

// RefreshAccessToken exchanges the refresh token for a new access token,
// joining a refresh already in flight if there is one.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	return c.handleTokenRefresh(ctx, c.session.AccessToken())
}

// handleTokenRefresh guarantees at most one refresh call at a time. Callers
// arriving while one is in flight share its outcome. staleToken is the
// access token the caller's failed request carried; if the session already
// holds a different one, another caller refreshed in the meantime and no
// new call is made.
func (c *Client) handleTokenRefresh(ctx context.Context, staleToken string) error {
	if current := c.session.AccessToken(); current != "" && current != staleToken {
		return nil
	}

	leader := false
	_, err, shared := c.refreshGroup.Do(refreshFlightKey, func() (any, error) {
		leader = true
		// Waiters share this call, so one caller's cancellation must not fail it.
		return nil, c.refresh(context.WithoutCancel(ctx))
	})
	if shared && !leader {
		refreshWaitersTotal.Inc()
	}

	// Listeners run after the flight has settled so they may issue requests.
	if leader && err != nil && !apperrors.Is(err, apperrors.ErrNoRefreshToken) {
		c.notifyLogout()
	}
	return err
}

// refresh performs the network call. The refresh token travels only in the
// query string: no body and no Authorization header.
func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		return ErrNoRefreshToken
	}
	log.Debug().Msg("apiclient: refreshing access token")

	path := RouteAuthRefresh + "?" + url.Values{"refresh_token": {refreshToken}}.Encode()
	resp, err := c.roundTrip(ctx, http.MethodPost, path, nil, "")
	if err != nil {
		c.logNetworkError(http.MethodPost, RouteAuthRefresh, err)
		return c.refreshFailed(ctx, newNetworkError(err))
	}
	if !resp.ok() {
		detail := resp.errorDetail()
		c.logHTTPError(http.MethodPost, RouteAuthRefresh, resp.status, detail)
		return c.refreshFailed(ctx, newHTTPError(resp.status, detail))
	}

	var out RefreshResponse
	if err := json.Unmarshal(resp.body, &out); err != nil || out.AccessToken == "" {
		return c.refreshFailed(ctx, fmt.Errorf("malformed refresh response"))
	}

	if err := c.session.SetAccessToken(ctx, out.AccessToken); err != nil {
		log.Warn().Err(err).Msg("apiclient: persisting refreshed access token")
	}
	// Rotation is optional: keep the old refresh token unless a new one came back.
	if out.RefreshToken != nil && *out.RefreshToken != "" {
		if err := c.session.SetRefreshToken(ctx, *out.RefreshToken); err != nil {
			log.Warn().Err(err).Msg("apiclient: persisting rotated refresh token")
		}
	}
	refreshTotal.WithLabelValues("success").Inc()
	log.Debug().Msg("apiclient: access token refreshed")
	return nil
}

func (c *Client) refreshFailed(ctx context.Context, cause error) error {
	refreshTotal.WithLabelValues("failure").Inc()
	if err := c.session.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("apiclient: clearing session after failed refresh")
	}
	return fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
}
