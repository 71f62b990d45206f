package apiclient

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource exposes the session's access token to oauth2-aware HTTP
// clients. When only a refresh token is held, Token refreshes first.
func (c *Client) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{c: c}
}

type sessionTokenSource struct {
	c *Client
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	s := ts.c.session.Snapshot()
	if !s.HasAccessToken() && s.HasRefreshToken() {
		if err := ts.c.handleTokenRefresh(context.Background(), ""); err != nil {
			return nil, err
		}
		s = ts.c.session.Snapshot()
	}
	if !s.HasAccessToken() {
		return nil, ErrNoSession
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}, nil
}
