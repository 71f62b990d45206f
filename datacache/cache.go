// Package datacache is a caller-side query cache for apiclient results.
// Entries live for a per-call TTL, concurrent misses on one key share a
// single fetch, and recoverable failures are retried with exponential
// backoff.
package datacache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dream1290/dbxui-sub000/apiclient"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
)

type entry struct {
	value   any
	expires time.Time
}

type Cache struct {
	lock    sync.RWMutex
	entries map[string]entry
	// generation changes on every Clear or Invalidate; a fetch started under
	// an older generation is returned to its callers but not stored.
	generation uint64

	group singleflight.Group

	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	now             func() time.Time
}

type Option func(*Cache)

// WithMaxRetries bounds the retries after the first failed fetch. Zero
// disables retrying.
func WithMaxRetries(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the first retry delay and the cap it doubles towards.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Cache) {
		if initial > 0 {
			c.initialInterval = initial
		}
		if max >= initial {
			c.maxInterval = max
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:         make(map[string]entry),
		maxRetries:      DefaultMaxRetries,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, or calls fetch and caches its result
// for ttl. A non-positive ttl still deduplicates concurrent fetches but
// stores nothing.
func Get[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.lookup(key); ok {
		if t, ok := v.(T); ok {
			lookupsTotal.WithLabelValues("hit").Inc()
			return t, nil
		}
	}
	lookupsTotal.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.currentGeneration()
		val, err := c.fetchWithRetry(ctx, key, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
		if err != nil {
			return nil, err
		}
		c.store(key, val, ttl, gen)
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("datacache: key %q holds %T, not %T", key, v, zero)
	}
	return t, nil
}

func (c *Cache) fetchWithRetry(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialInterval
	exp.Multiplier = 2
	exp.MaxInterval = c.maxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.maxRetries)), ctx)

	op := func() (any, error) {
		v, err := fetch(ctx)
		if err != nil && !apiclient.IsRecoverable(err) {
			return nil, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		retriesTotal.Inc()
		log.Debug().Err(err).Str("key", key).Dur("wait", wait).Msg("datacache: retrying fetch")
	}
	return backoff.RetryNotifyWithData[any](op, b, notify)
}

func (c *Cache) lookup(key string) (any, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, value any, ttl time.Duration, gen uint64) {
	if ttl <= 0 {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if gen != c.generation {
		return
	}
	c.entries[key] = entry{value: value, expires: c.now().Add(ttl)}
}

func (c *Cache) currentGeneration() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.generation
}

// Invalidate drops every entry whose key starts with prefix.
func (c *Cache) Invalidate(prefix string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.generation++
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries = make(map[string]entry)
	c.generation++
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.entries)
}

// Attach clears the cache whenever client forces a logout, so no data from
// the expired session outlives it. The returned func detaches.
func (c *Cache) Attach(client *apiclient.Client) (detach func()) {
	return client.OnLogout(func() {
		log.Debug().Msg("datacache: session ended, clearing cache")
		c.Clear()
	})
}
