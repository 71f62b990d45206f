package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// FlightFilter narrows ListFlights. Zero fields are omitted.
type FlightFilter struct {
	Status FlightStatus
	Limit  int
	Offset int
}

func (f FlightFilter) query() string {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func flightPath(id string) string {
	return RouteFlights + "/" + url.PathEscape(id)
}

func (c *Client) ListFlights(ctx context.Context, filter FlightFilter) ([]Flight, error) {
	return Do[[]Flight](ctx, c, http.MethodGet, RouteFlights+filter.query(), nil)
}

func (c *Client) GetFlight(ctx context.Context, id string) (*Flight, error) {
	f, err := Do[Flight](ctx, c, http.MethodGet, flightPath(id), nil)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) CreateFlight(ctx context.Context, in FlightInput) (*Flight, error) {
	f, err := Do[Flight](ctx, c, http.MethodPost, RouteFlights, in)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) UpdateFlight(ctx context.Context, id string, in FlightInput) (*Flight, error) {
	f, err := Do[Flight](ctx, c, http.MethodPut, flightPath(id), in)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFlight removes a flight. The backend answers 204 No Content.
func (c *Client) DeleteFlight(ctx context.Context, id string) error {
	_, err := Do[struct{}](ctx, c, http.MethodDelete, flightPath(id), nil)
	return err
}
