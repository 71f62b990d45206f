package datacache_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dream1290/dbxui-sub000/apiclient"
	"github.com/dream1290/dbxui-sub000/datacache"
	"github.com/dream1290/dbxui-sub000/session"
	"github.com/dream1290/dbxui-sub000/session/memstore"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	lock sync.Mutex
	t    time.Time
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(opts ...datacache.Option) (*datacache.Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]datacache.Option{
		datacache.WithClock(clock.Now),
		datacache.WithBackoff(time.Millisecond, 2*time.Millisecond),
	}, opts...)
	return datacache.New(opts...), clock
}

func counting(calls *atomic.Int32, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestGet_ServesFreshEntries(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()
	var calls atomic.Int32

	v, err := datacache.Get(ctx, c, "flights", time.Minute, counting(&calls, "v1"))
	require.NoError(t, err)
	require.Equal(t, "v1", v)

	clock.Advance(30 * time.Second)
	v, err = datacache.Get(ctx, c, "flights", time.Minute, counting(&calls, "v2"))
	require.NoError(t, err)
	require.Equal(t, "v1", v)
	require.EqualValues(t, 1, calls.Load())

	clock.Advance(time.Minute)
	v, err = datacache.Get(ctx, c, "flights", time.Minute, counting(&calls, "v2"))
	require.NoError(t, err)
	require.Equal(t, "v2", v)
	require.EqualValues(t, 2, calls.Load())
}

func TestGet_ZeroTTLNotStored(t *testing.T) {
	c, _ := newTestCache()
	var calls atomic.Int32
	for i := 0; i < 2; i++ {
		_, err := datacache.Get(context.Background(), c, "k", 0, counting(&calls, "v"))
		require.NoError(t, err)
	}
	require.EqualValues(t, 2, calls.Load())
	require.Zero(t, c.Len())
}

func TestGet_ConcurrentMissesShareFetch(t *testing.T) {
	const n = 10
	c, _ := newTestCache()
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := datacache.Get(context.Background(), c, "answer", time.Minute, fetch)
			if err == nil {
				results <- v
			}
		}()
	}
	// Let every goroutine reach the flight before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	require.EqualValues(t, 1, calls.Load())
	count := 0
	for v := range results {
		require.Equal(t, 42, v)
		count++
	}
	require.Equal(t, n, count)
}

func TestGet_RetriesRecoverableFailures(t *testing.T) {
	c, _ := newTestCache()
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", &apiclient.APIError{Status: http.StatusServiceUnavailable, Message: apiclient.MsgServiceUnavailable}
		}
		return "ok", nil
	}

	v, err := datacache.Get(context.Background(), c, "k", time.Minute, fetch)
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.EqualValues(t, 3, calls.Load())
}

func TestGet_ClientErrorsAreNotRetried(t *testing.T) {
	c, _ := newTestCache()
	var calls atomic.Int32
	notFound := &apiclient.APIError{Status: http.StatusNotFound, Message: apiclient.MsgNotFound}
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "", notFound
	}

	_, err := datacache.Get(context.Background(), c, "k", time.Minute, fetch)
	require.True(t, apiclient.IsStatus(err, http.StatusNotFound))
	require.EqualValues(t, 1, calls.Load())
	require.Zero(t, c.Len())
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	c, _ := newTestCache(datacache.WithMaxRetries(2))
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "", &apiclient.APIError{Status: 0, Message: apiclient.MsgNetworkError, Detail: errors.New("dial tcp: refused")}
	}

	_, err := datacache.Get(context.Background(), c, "k", time.Minute, fetch)
	require.True(t, apiclient.IsNetworkError(err))
	require.EqualValues(t, 3, calls.Load())
}

func TestGet_TypeMismatch(t *testing.T) {
	c, _ := newTestCache()
	_, err := datacache.Get(context.Background(), c, "k", time.Minute, func(context.Context) (string, error) { return "s", nil })
	require.NoError(t, err)

	// A hit of the wrong type falls through to a fetch of the requested type.
	n, err := datacache.Get(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	var calls atomic.Int32
	for _, k := range []string{"flights:list", "flights:f1", "aircraft:list"} {
		_, err := datacache.Get(ctx, c, k, time.Minute, counting(&calls, k))
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Len())

	c.Invalidate("flights:")
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Zero(t, c.Len())
}

func TestAttach_ClearsOnForcedLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := memstore.NewWith(map[string]string{session.KeyRefreshToken: "expired"})
	client, err := apiclient.New(context.Background(), srv.URL, store, apiclient.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c, _ := newTestCache()
	detach := c.Attach(client)
	var calls atomic.Int32
	_, err = datacache.Get(context.Background(), c, "me", time.Minute, counting(&calls, "ada"))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	require.ErrorIs(t, client.RefreshAccessToken(context.Background()), apiclient.ErrRefreshFailed)
	require.Zero(t, c.Len())

	detach()
	_, err = datacache.Get(context.Background(), c, "me", time.Minute, counting(&calls, "ada"))
	require.NoError(t, err)
	require.NoError(t, client.SetRefreshToken(context.Background(), "expired"))
	require.Error(t, client.RefreshAccessToken(context.Background()))
	require.Equal(t, 1, c.Len())
}
