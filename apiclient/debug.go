package apiclient

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog/log"
)

// debugTransport dumps every request and response at debug level.
//
// Activated with WithDebugLogging or DASHBOARD_DEBUG=true / DEBUG=true.
// The dumps contain bearer tokens and passwords sent to the login endpoint.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}

	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested reports whether DASHBOARD_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("DASHBOARD_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

func (c *Client) logHTTPError(method, path string, status int, detail any) {
	if !c.debug {
		return
	}
	log.Warn().Str("method", method).Str("path", path).Int("status", status).Interface("detail", detail).Msg("API error response")
}

func (c *Client) logNetworkError(method, path string, err error) {
	if !c.debug {
		return
	}
	log.Error().Err(err).Str("method", method).Str("path", path).Msg("API network error")
}
