package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

func aircraftPath(id string) string {
	return RouteAircraft + "/" + url.PathEscape(id)
}

// ListAircraft returns the fleet.
func (c *Client) ListAircraft(ctx context.Context) ([]Aircraft, error) {
	return Do[[]Aircraft](ctx, c, http.MethodGet, RouteAircraft, nil)
}

func (c *Client) GetAircraft(ctx context.Context, id string) (*Aircraft, error) {
	a, err := Do[Aircraft](ctx, c, http.MethodGet, aircraftPath(id), nil)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAircraft(ctx context.Context, in AircraftInput) (*Aircraft, error) {
	a, err := Do[Aircraft](ctx, c, http.MethodPost, RouteAircraft, in)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateAircraft(ctx context.Context, id string, in AircraftInput) (*Aircraft, error) {
	a, err := Do[Aircraft](ctx, c, http.MethodPut, aircraftPath(id), in)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteAircraft(ctx context.Context, id string) error {
	_, err := Do[struct{}](ctx, c, http.MethodDelete, aircraftPath(id), nil)
	return err
}
