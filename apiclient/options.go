package apiclient

import (
	"fmt"
	"net/http"
	"time"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPClient replaces the underlying http.Client. Apply it before
// transport-wrapping options such as WithDebugLogging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithHTTPTimeout sets the http.Client Timeout. The client enforces no
// timeout of its own beyond this transport-level bound.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging enables diagnostic logging of failed responses and
// network errors, and wraps the transport so each exchange is dumped at
// debug level.
//
// Dumps include the Authorization header and request bodies. Do not enable
// this outside development.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if !enabled || c.debug {
			return nil
		}
		c.debug = true
		c.http.Transport = &debugTransport{base: c.http.Transport}
		return nil
	}
}
