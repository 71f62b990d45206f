package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dream1290/dbxui-sub000/apiclient"
	"github.com/dream1290/dbxui-sub000/session"
	"github.com/dream1290/dbxui-sub000/session/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFixture is a fake backend plus a client pointed at it.
type testFixture struct {
	mux          *http.ServeMux
	srv          *httptest.Server
	store        *memstore.MemStore
	refreshCalls atomic.Int32
}

func setupTestFixture(t *testing.T, tokens map[string]string) *testFixture {
	t.Helper()
	f := &testFixture{
		mux:   http.NewServeMux(),
		store: memstore.NewWith(tokens),
	}
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *testFixture) client(t *testing.T, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()
	opts = append([]apiclient.Option{apiclient.WithHTTPClient(f.srv.Client())}, opts...)
	c, err := apiclient.New(context.Background(), f.srv.URL, f.store, opts...)
	require.NoError(t, err)
	return c
}

// handleRefresh installs a refresh endpoint returning access (and rotated
// refresh token when non-empty).
func (f *testFixture) handleRefresh(access, rotated string) {
	f.mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		resp := map[string]any{"access_token": access, "token_type": "bearer"}
		if rotated != "" {
			resp["refresh_token"] = rotated
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requireBearer answers 401 unless the request carries token.
func requireBearer(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func okA(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"a": 1})
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := apiclient.New(context.Background(), "", memstore.New())
	require.Error(t, err)
}

func TestDo_HappyPath(t *testing.T) {
	f := setupTestFixture(t, map[string]string{session.KeyAccessToken: "valid"})
	f.mux.HandleFunc("GET /x", requireBearer("valid", okA))
	c := f.client(t)

	got, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 1}, got)
	require.Zero(t, f.refreshCalls.Load())
}

func TestDo_NoTokenNoAuthorizationHeader(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		okA(w, r)
	})
	c := f.client(t)

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
}

func TestDo_RefreshThenSucceed(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "old",
		session.KeyRefreshToken: "r1",
	})
	f.mux.HandleFunc("GET /x", requireBearer("new", okA))
	f.mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		assert.Equal(t, "r1", r.URL.Query().Get("refresh_token"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEqual(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "new"})
	})
	c := f.client(t)

	got, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 1}, got)
	require.EqualValues(t, 1, f.refreshCalls.Load())

	require.Equal(t, "new", c.Session().AccessToken)
	require.Equal(t, "r1", c.Session().RefreshToken, "refresh token kept when not rotated")
	stored, _, _ := f.store.Get(context.Background(), session.KeyAccessToken)
	require.Equal(t, "new", stored)
}

func TestDo_RefreshRotatesRefreshToken(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "old",
		session.KeyRefreshToken: "r1",
	})
	f.mux.HandleFunc("GET /x", requireBearer("new", okA))
	f.handleRefresh("new", "r2")
	c := f.client(t)

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	require.Equal(t, session.Session{AccessToken: "new", RefreshToken: "r2"}, c.Session())
}

func TestDo_RetryBudgetIsOne(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "old",
		session.KeyRefreshToken: "r1",
	})
	var attempts atomic.Int32
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "nope"})
	})
	f.handleRefresh("new", "")
	c := f.client(t)

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, apiclient.MsgAuthRequired, apiErr.Message)
	require.EqualValues(t, 2, attempts.Load())
	require.EqualValues(t, 1, f.refreshCalls.Load())
}

func TestDo_NoRefreshWithoutRefreshToken(t *testing.T) {
	f := setupTestFixture(t, map[string]string{session.KeyAccessToken: "old"})
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.handleRefresh("new", "")
	c := f.client(t)

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, apiclient.MsgSessionExpired, apiErr.Message)
	require.Zero(t, f.refreshCalls.Load())
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const n = 8
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "old",
		session.KeyRefreshToken: "r1",
	})

	var unauthorized, authorized atomic.Int32
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new" {
			unauthorized.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		authorized.Add(1)
		okA(w, r)
	})
	f.mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		// Hold the refresh open until every request has been rejected.
		deadline := time.Now().Add(5 * time.Second)
		for unauthorized.Load() < n && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "new", "refresh_token": "r2"})
	})
	c := f.client(t)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
			if err == nil && got["a"] != 1 {
				err = errors.New("unexpected body")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.refreshCalls.Load())
	require.EqualValues(t, n, unauthorized.Load())
	require.EqualValues(t, n, authorized.Load())
	require.Equal(t, session.Session{AccessToken: "new", RefreshToken: "r2"}, c.Session())
}

func TestDo_RefreshFailureLogsOut(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "old",
		session.KeyRefreshToken: "expired",
	})
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
	})
	c := f.client(t)

	var logouts atomic.Int32
	c.OnLogout(func() { logouts.Add(1) })

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	require.EqualValues(t, 1, logouts.Load())
	require.Equal(t, session.Session{}, c.Session())
	require.False(t, f.store.Has(session.KeyAccessToken))
	require.False(t, f.store.Has(session.KeyRefreshToken))

	// The session is gone, so the next 401 is terminal without a refresh.
	_, err = apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))
	require.EqualValues(t, 1, f.refreshCalls.Load())
}

func TestDo_NewRefreshAfterSettle(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "a0",
		session.KeyRefreshToken: "r",
	})
	var current atomic.Value
	current.Store("a1")
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+current.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		okA(w, r)
	})
	f.mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": current.Load().(string)})
	})
	c := f.client(t)

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)

	current.Store("a2") // server-side expiry of a1
	_, err = apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.refreshCalls.Load())
}

func TestDo_NetworkError(t *testing.T) {
	f := setupTestFixture(t, nil)
	c := f.client(t)
	f.srv.Close()

	_, err := apiclient.Do[map[string]int](context.Background(), c, http.MethodGet, "/x", nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 0, apiErr.Status)
	require.Equal(t, apiclient.MsgNetworkError, apiErr.Message)
	require.NotNil(t, apiErr.Detail)
	require.True(t, apiclient.IsNetworkError(err))
	require.True(t, apiclient.IsRecoverable(err))
}

func TestDo_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"404 without detail", 404, "text/plain", "missing", apiclient.MsgNotFound},
		{"422 validation array", 422, "application/json", `{"detail":[{"msg":"bad field"}]}`, "bad field"},
		{"422 joined messages", 422, "application/json", `{"detail":[{"msg":"a"},{"message":"b"}]}`, "a, b"},
		{"400 string detail", 400, "application/json", `{"detail":"Email already registered"}`, "Email already registered"},
		{"400 without detail", 400, "application/json", `{}`, apiclient.MsgInvalidInput},
		{"401 no refresh token", 401, "", "", apiclient.MsgSessionExpired},
		{"403", 403, "application/json", `{"error":"x"}`, apiclient.MsgForbidden},
		{"500", 500, "", "", apiclient.MsgServerError},
		{"503", 503, "", "", apiclient.MsgServiceUnavailable},
		{"other", 418, "", "", apiclient.MsgUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, nil)
			f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c := f.client(t)

			_, err := apiclient.Do[map[string]any](context.Background(), c, http.MethodGet, "/x", nil)
			var apiErr *apiclient.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestDo_ErrorDetailIsParsedBody(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []any{map[string]any{"msg": "bad field", "loc": []string{"body", "email"}}}})
	})
	c := f.client(t)

	_, err := apiclient.Do[map[string]any](context.Background(), c, http.MethodGet, "/x", nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	detail, ok := apiErr.Detail.(map[string]any)
	require.True(t, ok)
	require.Contains(t, detail, "detail")
	require.False(t, apiclient.IsRecoverable(err))
}

func TestDo_TextResponse(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	c := f.client(t)

	got, err := apiclient.Do[string](context.Background(), c, http.MethodGet, "/health", nil)
	require.NoError(t, err)
	require.Equal(t, "ok", got)

	_, err = apiclient.Do[map[string]any](context.Background(), c, http.MethodGet, "/health", nil)
	require.Error(t, err)
}

func TestDo_JSONBody(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, in)
	})
	c := f.client(t)

	got, err := apiclient.Do[map[string]string](context.Background(), c, http.MethodPost, "/echo", map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, "v", got["k"])
}

func TestOnLogout_Unsubscribe(t *testing.T) {
	f := setupTestFixture(t, map[string]string{session.KeyRefreshToken: "bad"})
	f.mux.HandleFunc("POST "+apiclient.RouteAuthRefresh, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := f.client(t)

	var order []string
	unsubscribe := c.OnLogout(func() { order = append(order, "first") })
	c.OnLogout(func() { panic("listener failure") })
	c.OnLogout(func() { order = append(order, "third") })

	require.ErrorIs(t, c.RefreshAccessToken(context.Background()), apiclient.ErrRefreshFailed)
	require.Equal(t, []string{"first", "third"}, order)

	unsubscribe()
	require.NoError(t, c.SetRefreshToken(context.Background(), "bad"))
	require.Error(t, c.RefreshAccessToken(context.Background()))
	require.Equal(t, []string{"first", "third", "third"}, order)
}

func TestRefreshAccessToken_NoRefreshToken(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.handleRefresh("new", "")
	c := f.client(t)

	var logouts int
	c.OnLogout(func() { logouts++ })

	require.ErrorIs(t, c.RefreshAccessToken(context.Background()), apiclient.ErrNoRefreshToken)
	require.Zero(t, f.refreshCalls.Load())
	require.Zero(t, logouts)
}

func TestRefreshAccessToken_NetworkFailureClearsSession(t *testing.T) {
	f := setupTestFixture(t, map[string]string{
		session.KeyAccessToken:  "a",
		session.KeyRefreshToken: "r",
	})
	c := f.client(t)
	f.srv.Close()

	var logouts int
	c.OnLogout(func() { logouts++ })

	err := c.RefreshAccessToken(context.Background())
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	require.True(t, apiclient.IsNetworkError(err))
	require.Equal(t, 1, logouts)
	require.Equal(t, session.Session{}, c.Session())
}

func TestTokenSource(t *testing.T) {
	f := setupTestFixture(t, map[string]string{session.KeyRefreshToken: "r1"})
	f.handleRefresh("minted", "")
	c := f.client(t)

	tok, err := c.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, "minted", tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.EqualValues(t, 1, f.refreshCalls.Load())

	// Held token is returned without another refresh.
	_, err = c.TokenSource().Token()
	require.NoError(t, err)
	require.EqualValues(t, 1, f.refreshCalls.Load())

	require.NoError(t, c.ClearSession(context.Background()))
	_, err = c.TokenSource().Token()
	require.ErrorIs(t, err, apiclient.ErrNoSession)
}

func TestSetToken_Persistence(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, map[string]string{session.KeyLegacyToken: "legacy"})
	c := f.client(t)
	require.Equal(t, "legacy", c.Session().AccessToken)

	require.NoError(t, c.SetToken(ctx, "abc"))
	again := f.client(t)
	require.Equal(t, "abc", again.Session().AccessToken)

	require.NoError(t, c.SetToken(ctx, ""))
	require.False(t, f.store.Has(session.KeyAccessToken))
	require.False(t, f.store.Has(session.KeyLegacyToken))
}
