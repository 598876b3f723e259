package npdsdk

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/npd/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fake Service
// ============================================================================

type recordedRequest struct {
	Method string
	Header http.Header
	Body   []byte
}

// decode unmarshals the recorded body into a generic map.
func (r recordedRequest) decode(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &m))
	return m
}

// fakeService stands in for the tax service API. Routes are keyed by the
// endpoint relative to the base URL, e.g. "auth/lkfl".
type fakeService struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests map[string][]recordedRequest
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	f := &fakeService{
		t:        t,
		routes:   make(map[string]http.HandlerFunc),
		requests: make(map[string][]recordedRequest),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) baseURL() string { return f.srv.URL + "/api/v1" }

func (f *fakeService) handle(endpoint string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[endpoint] = h
}

func (f *fakeService) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	endpoint := strings.TrimPrefix(r.URL.Path, "/api/v1/")

	f.mu.Lock()
	f.requests[endpoint] = append(f.requests[endpoint], recordedRequest{
		Method: r.Method,
		Header: r.Header.Clone(),
		Body:   body,
	})
	h := f.routes[endpoint]
	f.mu.Unlock()

	if h == nil {
		http.NotFound(w, r)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	h(w, r)
}

func (f *fakeService) hits(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests[endpoint])
}

func (f *fakeService) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, reqs := range f.requests {
		n += len(reqs)
	}
	return n
}

func (f *fakeService) last(endpoint string) recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	reqs := f.requests[endpoint]
	require.NotEmpty(f.t, reqs, "no request to %s", endpoint)
	return reqs[len(reqs)-1]
}

// ============================================================================
// Response Helpers
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func expireIn(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339Nano)
}

// loginOK answers like a successful password or SMS login.
func loginOK(inn, token, refresh string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"refreshToken":  refresh,
			"token":         token,
			"tokenExpireIn": expireIn(time.Hour),
			"profile":       map[string]any{"inn": inn, "displayName": "Test Taxpayer"},
		})
	}
}

// gated wraps h so it blocks until the returned release func is called. The
// release also runs at cleanup so a failing test never hangs the server.
func gated(t *testing.T, h http.HandlerFunc) (http.HandlerFunc, func()) {
	t.Helper()

	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)

	return func(w http.ResponseWriter, r *http.Request) {
		<-gate
		h(w, r)
	}, release
}

// ============================================================================
// Client Helpers
// ============================================================================

func newTestClient(t *testing.T, f *fakeService, opts ...Option) *Client {
	t.Helper()
	return newTestClientWithConfig(t, f, Config{}, opts...)
}

func newTestClientWithConfig(t *testing.T, f *fakeService, cfg Config, opts ...Option) *Client {
	t.Helper()

	cfg.BaseURL = f.baseURL()
	cfg.HTTPClient = f.srv.Client()
	cfg.Logger = slogx.Discard()

	c, err := New(cfg, opts...)
	require.NoError(t, err)
	return c
}

// resumed returns an option seeding a session whose access token expires
// after ttl.
func resumed(token, refresh string, ttl time.Duration) Option {
	return WithAuthInfo(AuthInfo{
		INN:            "123456789012",
		Token:          token,
		RefreshToken:   refresh,
		TokenExpiresAt: time.Now().Add(ttl),
	})
}
