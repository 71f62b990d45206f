package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListReports(ctx context.Context) ([]Report, error) {
	return Do[[]Report](ctx, c, http.MethodGet, RouteReports, nil)
}

// GenerateReport queues report rendering on the backend.
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) (*Report, error) {
	r, err := Do[Report](ctx, c, http.MethodPost, RouteReports, req)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DownloadReport returns the rendered report body as sent by the backend.
func (c *Client) DownloadReport(ctx context.Context, id string) ([]byte, error) {
	return Do[[]byte](ctx, c, http.MethodGet, RouteReports+"/"+url.PathEscape(id)+"/download", nil)
}
