package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures side effects of the session-expiry path in call order
type recorder struct {
	mu     sync.Mutex
	events []string
	flags  []bool
	routes []string
}

func (r *recorder) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) SetLoggedIn(loggedIn bool) error {
	r.mu.Lock()
	r.flags = append(r.flags, loggedIn)
	r.mu.Unlock()
	r.record("flag")
	return nil
}

func (r *recorder) Navigate(route string) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
	r.record("navigate")
}

func (r *recorder) snapshot() ([]string, []bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), append([]bool(nil), r.flags...), append([]string(nil), r.routes...)
}

// mockBackend answers business endpoints with a fixed status and serves
// token health and logout, counting calls.
type mockBackend struct {
	businessStatus int
	health         TokenHealth
	healthHandler  http.HandlerFunc
	logoutStatus   int
	rec            *recorder

	healthCalls atomic.Int32
	logoutCalls atomic.Int32
}

func (m *mockBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case TokenHealthPath:
		m.healthCalls.Add(1)
		if m.rec != nil {
			m.rec.record("health")
		}
		if m.healthHandler != nil {
			m.healthHandler(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.health)
	case LogoutPath:
		m.logoutCalls.Add(1)
		if m.rec != nil {
			m.rec.record("logout")
		}
		status := m.logoutStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"Token was destroyed"}`))
	default:
		w.WriteHeader(m.businessStatus)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}
}

func newTestClient(t *testing.T, serverURL string, rec *recorder) *Client {
	t.Helper()

	c, err := New(serverURL, WithSessionFlag(rec), WithNavigator(rec))
	require.NoError(t, err)
	return c
}

func TestDo_NonUnauthorizedErrorSkipsHealthCheck(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		backend := &mockBackend{businessStatus: status}
		server := httptest.NewServer(backend)

		rec := &recorder{}
		c := newTestClient(t, server.URL, rec)

		err := c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)
		server.Close()

		require.Error(t, err)
		assert.True(t, IsStatus(err, status), "status %d", status)
		assert.Zero(t, backend.healthCalls.Load(), "status %d must not call token health", status)
		assert.Zero(t, backend.logoutCalls.Load())

		_, flags, routes := rec.snapshot()
		assert.Empty(t, flags)
		assert.Empty(t, routes)
	}
}

func TestDo_ExpiredSessionLogsOutThenNavigatesToLogin(t *testing.T) {
	rec := &recorder{}
	backend := &mockBackend{
		businessStatus: http.StatusUnauthorized,
		health:         TokenHealth{Valid: false, Reason: ReasonExpired},
		rec:            rec,
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	c := newTestClient(t, server.URL, rec)

	err := c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/api/business/packages", apiErr.Path)

	assert.Equal(t, int32(1), backend.healthCalls.Load())
	assert.Equal(t, int32(1), backend.logoutCalls.Load())

	events, flags, routes := rec.snapshot()
	assert.Equal(t, []string{"health", "logout", "flag", "navigate"}, events)
	assert.Equal(t, []bool{false}, flags)
	assert.Equal(t, []string{LoginRoute}, routes)
}

func TestDo_InvalidSessionLogsOut(t *testing.T) {
	rec := &recorder{}
	backend := &mockBackend{
		businessStatus: http.StatusUnauthorized,
		health:         TokenHealth{Valid: false, Reason: ReasonInvalid},
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	c := newTestClient(t, server.URL, rec)
	_ = c.Do(context.Background(), http.MethodGet, "/api/business/magazines", nil, nil)

	assert.Equal(t, int32(1), backend.logoutCalls.Load())
	_, flags, routes := rec.snapshot()
	assert.Equal(t, []bool{false}, flags)
	assert.Equal(t, []string{"/login"}, routes)
}

func TestDo_TransientUnauthorizedLeavesSessionAlone(t *testing.T) {
	cases := map[string]TokenHealth{
		"valid token":      {Valid: true, Reason: ReasonOK},
		"no cookie":        {Valid: false, Reason: ReasonNoCookie},
		"unexpected value": {Valid: false, Reason: "rate_limited"},
	}

	for name, health := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			backend := &mockBackend{businessStatus: http.StatusUnauthorized, health: health}
			server := httptest.NewServer(backend)
			defer server.Close()

			c := newTestClient(t, server.URL, rec)
			err := c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)

			assert.True(t, IsStatus(err, http.StatusUnauthorized))
			assert.Equal(t, int32(1), backend.healthCalls.Load())
			assert.Zero(t, backend.logoutCalls.Load())

			_, flags, routes := rec.snapshot()
			assert.Empty(t, flags, "logged-in flag must stay untouched")
			assert.Empty(t, routes)
		})
	}
}

func TestDo_ConcurrentUnauthorizedRunsSingleHealthCheck(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	backend := &mockBackend{businessStatus: http.StatusUnauthorized}
	backend.healthHandler = func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		_ = json.NewEncoder(w).Encode(TokenHealth{Valid: true, Reason: ReasonOK})
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	rec := &recorder{}
	c := newTestClient(t, server.URL, rec)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.Do(ctx, http.MethodGet, "/api/business/packages", nil, nil)
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("health check never started")
	}

	// While the health check is blocked, further 401s must return without another one
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Do(ctx, http.MethodGet, "/api/business/magazines", nil, nil)
		}()
	}

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent requests blocked behind the in-flight health check")
	}
	close(errs)
	for err := range errs {
		assert.True(t, IsStatus(err, http.StatusUnauthorized))
	}

	close(release)
	assert.True(t, IsStatus(<-firstDone, http.StatusUnauthorized))
	assert.Equal(t, int32(1), backend.healthCalls.Load())
}

func TestDo_HealthCheckFailureKeepsOriginalError(t *testing.T) {
	backend := &mockBackend{businessStatus: http.StatusUnauthorized}
	backend.healthHandler = func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot hijack")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack failed: %v", err)
			return
		}
		_ = conn.Close()
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	// Fresh connections only, so the transport never retries the dropped health check
	rec := &recorder{}
	c, err := New(server.URL,
		WithHTTPClient(&http.Client{Transport: &http.Transport{DisableKeepAlives: true}}),
		WithSessionFlag(rec),
		WithNavigator(rec),
	)
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodPost, "/api/business/packages", map[string]string{"size": "M"}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "/api/business/packages", apiErr.Path)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "nope", apiErr.Message())

	assert.Zero(t, backend.logoutCalls.Load())
	_, flags, routes := rec.snapshot()
	assert.Empty(t, flags)
	assert.Empty(t, routes)

	// The guard is released after the failed health check
	_ = c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)
	assert.Equal(t, int32(2), backend.healthCalls.Load())
}

func TestDo_LogoutFailureStillEndsLocalSession(t *testing.T) {
	rec := &recorder{}
	backend := &mockBackend{
		businessStatus: http.StatusUnauthorized,
		health:         TokenHealth{Valid: false, Reason: ReasonExpired},
		logoutStatus:   http.StatusUnauthorized,
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	c := newTestClient(t, server.URL, rec)
	_ = c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)

	// logout answering 401 must not re-enter the interceptor
	assert.Equal(t, int32(1), backend.healthCalls.Load())
	assert.Equal(t, int32(1), backend.logoutCalls.Load())

	_, flags, routes := rec.snapshot()
	assert.Equal(t, []bool{false}, flags)
	assert.Equal(t, []string{LoginRoute}, routes)
}

func TestDo_GuardIsPerClient(t *testing.T) {
	backend := &mockBackend{
		businessStatus: http.StatusUnauthorized,
		health:         TokenHealth{Valid: true, Reason: ReasonOK},
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	first := newTestClient(t, server.URL, &recorder{})
	second := newTestClient(t, server.URL, &recorder{})

	first.checkingToken.Store(true)
	defer first.checkingToken.Store(false)

	_ = first.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)
	assert.Zero(t, backend.healthCalls.Load())

	_ = second.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)
	assert.Equal(t, int32(1), backend.healthCalls.Load())
}

func TestDo_WithoutFlagOrNavigator(t *testing.T) {
	backend := &mockBackend{
		businessStatus: http.StatusUnauthorized,
		health:         TokenHealth{Valid: false, Reason: ReasonExpired},
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), backend.logoutCalls.Load())
}

func TestTokenHealth_SessionEnded(t *testing.T) {
	assert.True(t, TokenHealth{Valid: false, Reason: ReasonExpired}.SessionEnded())
	assert.True(t, TokenHealth{Valid: false, Reason: ReasonInvalid}.SessionEnded())
	assert.False(t, TokenHealth{Valid: false, Reason: ReasonNoCookie}.SessionEnded())
	assert.False(t, TokenHealth{Valid: true, Reason: ReasonExpired}.SessionEnded())
	assert.False(t, TokenHealth{Valid: true, Reason: ReasonOK}.SessionEnded())
}

func TestHealthCheckErrorIsNotSurfaced(t *testing.T) {
	backend := &mockBackend{businessStatus: http.StatusUnauthorized}
	backend.healthHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	c := newTestClient(t, server.URL, &recorder{})
	err := c.Do(context.Background(), http.MethodGet, "/api/business/packages", nil, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode, "health check failure must not replace the original error")
}

func TestLoginAndLogout_UnauthorizedSkipsHealthCheck(t *testing.T) {
	backend := &mockBackend{
		businessStatus: http.StatusUnauthorized,
		health:         TokenHealth{Valid: false, Reason: ReasonExpired},
		logoutStatus:   http.StatusUnauthorized,
	}
	server := httptest.NewServer(backend)
	defer server.Close()

	rec := &recorder{}
	c := newTestClient(t, server.URL, rec)

	_, err := c.Login(context.Background(), "biz@postmat.test", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	err = c.Logout(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	assert.Zero(t, backend.healthCalls.Load())
	assert.Equal(t, int32(1), backend.logoutCalls.Load())

	_, flags, routes := rec.snapshot()
	assert.Equal(t, []bool{false}, flags)
	assert.Empty(t, routes)
}
