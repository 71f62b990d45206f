package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	path := RouteNotifications
	if unreadOnly {
		path += "?unread_only=true"
	}
	return Do[[]Notification](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := Do[struct{}](ctx, c, http.MethodPost, RouteNotifications+"/"+url.PathEscape(id)+"/read", nil)
	return err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := Do[struct{}](ctx, c, http.MethodPost, RouteNotifications+"/read-all", nil)
	return err
}
