package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dream1290/dbxui-sub000/internal/utils"
	"github.com/dream1290/dbxui-sub000/session"
	"github.com/rs/zerolog/log"
)

// Login signs in with email and password. The backend expects a form body
// with the email in the "username" field.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	resp, err := do[LoginResponse](ctx, c, http.MethodPost, RouteAuthLogin, form, false)
	if err != nil {
		return nil, err
	}
	if err := c.storeTokens(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account. Tokens are stored when the backend signs the
// new user in directly.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	resp, err := do[LoginResponse](ctx, c, http.MethodPost, RouteAuthRegister, req, false)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken != "" {
		if err := c.storeTokens(ctx, &resp); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// Logout notifies the backend and always clears the local session, even
// when the remote call fails. Only a failure to clear local storage is
// returned.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := do[MessageResponse](ctx, c, http.MethodPost, RouteAuthLogout, nil, false); err != nil {
		log.Warn().Err(err).Msg("apiclient: remote logout failed, clearing local session anyway")
	}
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("apiclient: logout: %w", err)
	}
	return nil
}

// ForgotPassword asks the backend to send a reset link to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	path := RouteAuthForgotPassword + "?" + url.Values{"email": {email}}.Encode()
	resp, err := do[MessageResponse](ctx, c, http.MethodPost, path, nil, false)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using the emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	path := RouteAuthResetPassword + "?" + url.Values{
		"token":        {token},
		"new_password": {newPassword},
	}.Encode()
	resp, err := do[MessageResponse](ctx, c, http.MethodPost, path, nil, false)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser returns the signed-in user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	u, err := Do[User](ctx, c, http.MethodGet, RouteAuthMe, nil)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) storeTokens(ctx context.Context, resp *LoginResponse) error {
	if resp.AccessToken == "" {
		return fmt.Errorf("apiclient: login response carried no access token")
	}
	s := session.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: utils.Value(resp.RefreshToken),
	}
	if err := c.session.Set(ctx, s); err != nil {
		return fmt.Errorf("apiclient: store session: %w", err)
	}
	return nil
}
