// Package apiclient is the typed HTTP client for the flight operations
// backend. It keeps the session token pair, attaches it to requests, and on
// an authentication failure performs one deduplicated token refresh before
// replaying the request.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dream1290/dbxui-sub000/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type Client struct {
	baseURL string
	http    *http.Client
	session *session.Manager
	debug   bool

	refreshGroup singleflight.Group

	listenersLock sync.RWMutex
	listeners     map[int]func()
	nextListener  int
}

// New constructs a Client for baseURL and bootstraps the session from store.
func New(ctx context.Context, baseURL string, store session.Store, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("apiclient: baseURL cannot be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("apiclient: invalid baseURL: %w", err)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		listeners: make(map[int]func()),
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("apiclient: %w", err)
		}
	}

	mgr, err := session.Load(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %w", err)
	}
	c.session = mgr
	return c, nil
}

// BaseURL returns the backend root all paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns a snapshot of the current token pair.
func (c *Client) Session() session.Session {
	return c.session.Snapshot()
}

// SetToken replaces the access token. An empty token clears it, including
// the legacy storage key.
func (c *Client) SetToken(ctx context.Context, token string) error {
	return c.session.SetAccessToken(ctx, token)
}

// SetRefreshToken replaces the refresh token. An empty token clears it.
func (c *Client) SetRefreshToken(ctx context.Context, token string) error {
	return c.session.SetRefreshToken(ctx, token)
}

// ClearSession drops both tokens without notifying logout listeners.
func (c *Client) ClearSession(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// OnLogout registers fn to run when the client invalidates the session
// itself, after a failed token refresh. The returned func unregisters it.
func (c *Client) OnLogout(fn func()) (unsubscribe func()) {
	c.listenersLock.Lock()
	defer c.listenersLock.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.listenersLock.Lock()
		defer c.listenersLock.Unlock()
		delete(c.listeners, id)
	}
}

// notifyLogout runs listeners in registration order.
func (c *Client) notifyLogout() {
	c.listenersLock.RLock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.listenersLock.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("apiclient: logout listener panicked")
				}
			}()
			fn()
		}()
	}
}
