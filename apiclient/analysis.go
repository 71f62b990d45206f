package apiclient

import (
	"context"
	"io"
	"net/http"
)

// Analyze uploads one flight data file for analysis.
func (c *Client) Analyze(ctx context.Context, filename string, r io.Reader) (*AnalysisResult, error) {
	body := NewMultipart().AddFile("file", filename, r)
	res, err := Do[AnalysisResult](ctx, c, http.MethodPost, RouteAnalyze, body)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// BatchAnalyze uploads several files in one request under the "files" field.
func (c *Client) BatchAnalyze(ctx context.Context, files []UploadFile) (*BatchAnalysisResult, error) {
	body := NewMultipart()
	for _, f := range files {
		body.AddFile("files", f.Name, f.Content)
	}
	res, err := Do[BatchAnalysisResult](ctx, c, http.MethodPost, RouteBatchAnalyze, body)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
