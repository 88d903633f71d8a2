// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/feed"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// feedShows is how many shows the fake discover page returns.
const feedShows = 12

// fakeBackend serves one discover page of feedShows shows.
type fakeBackend struct {
	mu            sync.Mutex
	discoverCalls int
}

func showJSON(id int) string {
	return fmt.Sprintf(`{"id":%d,"name":"Show %d","first_air_date":"2020-01-01","vote_average":8,"vote_count":100,"genre_ids":[18],"topCast":["Actor %d"]}`, id, id, id)
}

func (b *fakeBackend) Fetch(_ context.Context, endpoint string, params url.Values) (tmdb.Response, error) {
	switch endpoint {
	case tmdb.EndpointDiscoverTV:
		b.mu.Lock()
		b.discoverCalls++
		b.mu.Unlock()
		if params.Get("page") != "1" {
			return tmdb.Response{Status: http.StatusOK, Body: []byte(`{"results":[],"total_pages":1}`)}, nil
		}
		parts := make([]string, feedShows)
		for i := range parts {
			parts[i] = showJSON(i + 1)
		}
		body := `{"results":[` + strings.Join(parts, ",") + `],"total_pages":1}`
		return tmdb.Response{Status: http.StatusOK, ContentType: "application/json", Body: []byte(body)}, nil
	case tmdb.EndpointTVGenres:
		return tmdb.Response{Status: http.StatusOK, Body: []byte(`{"genres":[{"id":18,"name":"Drama"},{"id":35,"name":"Comedy"}]}`)}, nil
	}
	return tmdb.Response{Status: http.StatusBadRequest, Body: []byte(`{"error":"unsupported_endpoint"}`)}, nil
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.discoverCalls
}

// fakeCritic answers every lookup with a Rotten Tomatoes score.
type fakeCritic struct{}

func (fakeCritic) Fetch(_ context.Context, _ omdb.Lookup) (*models.CriticScores, error) {
	return &models.CriticScores{RottenTomatoes: models.Int(91)}, nil
}

type testEnv struct {
	handler http.Handler
	api     *Handler
	manager *feed.Manager
	backend *fakeBackend
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Environment: "test"},
		Security: config.SecurityConfig{RateLimitDisabled: true, CORSOrigins: []string{"http://app.example"}},
	}
}

// newTestEnv builds the router over a feed manager backed by fakeBackend.
// Auto refill is off, so loads only happen on ?wait=true or a refill.
func newTestEnv(t *testing.T, deps Dependencies) *testEnv {
	t.Helper()
	cfg := testConfig()
	backend := &fakeBackend{}
	manager := feed.NewManager(cfg, nil, feed.Upstreams{ProxyBackend: backend, Critic: fakeCritic{}}, nil)
	manager.SetOptions(feed.Options{})
	t.Cleanup(func() { _ = manager.Close(context.Background()) })

	deps.Feed = manager
	h := NewHandler(cfg, deps)
	return &testEnv{handler: NewRouter(h).SetupChi(), api: h, manager: manager, backend: backend}
}

func (e *testEnv) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// loadFeed fills user's feed synchronously.
func (e *testEnv) loadFeed(t *testing.T, user string) FeedResponse {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/v1/feed?wait=true", user, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 loading feed, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp FeedResponse
	decodeData(t, rec, &resp)
	return resp
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("Expected success envelope, got %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("Expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("Expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("Expected error code %s, got %s", code, env.Error.Code)
	}
}

func TestUserIDFrom(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", "anonymous"},
		{"blank", "   ", "anonymous"},
		{"trimmed", "  alice ", "alice"},
		{"control characters", "bob\nadmin", "anonymous"},
		{"oversized", strings.Repeat("x", maxUserIDLength+1), "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			if got := userIDFrom(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\tc"); got != `a\x0ab\x09c` {
		t.Errorf("Expected escaped control characters, got %q", got)
	}
}

func TestFeed_FirstViewRequestsBatch(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	rec := env.do(t, http.MethodGet, "/api/v1/feed", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var resp FeedResponse
	decodeData(t, rec, &resp)

	if len(resp.Items) != 0 {
		t.Errorf("Expected no items before a load, got %d", len(resp.Items))
	}
	if resp.Status.Message != "Requesting the first batch of TV shows..." {
		t.Errorf("Expected first batch status, got %q", resp.Status.Message)
	}
	if env.backend.calls() != 0 {
		t.Errorf("Expected no discover calls without auto refill, got %d", env.backend.calls())
	}
}

func TestFeed_WaitLoadsShows(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	resp := env.loadFeed(t, "alice")
	if len(resp.Items) != feedShows {
		t.Fatalf("Expected %d items, got %d", feedShows, len(resp.Items))
	}
	if resp.Status.Tone != feed.ToneSuccess {
		t.Errorf("Expected success tone, got %s (%s)", resp.Status.Tone, resp.Status.Message)
	}
	if resp.Filters.SelectedGenres != models.GenreSelectionAll {
		t.Errorf("Expected default genre selection, got %q", resp.Filters.SelectedGenres)
	}

	// Another user's feed is independent.
	rec := env.do(t, http.MethodGet, "/api/v1/feed", "bob", "")
	var other FeedResponse
	decodeData(t, rec, &other)
	if len(other.Items) != 0 {
		t.Errorf("Expected bob's feed empty, got %d items", len(other.Items))
	}
	if env.manager.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", env.manager.Len())
	}
}

func TestRefill_InsideCooldownIsDeferred(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/feed/refill", "alice", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp FeedResponse
	decodeData(t, rec, &resp)
	if !resp.RefillPending {
		t.Error("Expected a pending refill")
	}
	if !strings.HasPrefix(resp.Status.Message, "Waiting ") {
		t.Errorf("Expected cooldown status, got %q", resp.Status.Message)
	}
}

func TestFilters_GetAndPut(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/feed/filters", "alice", "")
	var current FiltersResponse
	decodeData(t, rec, &current)
	if len(current.Genres) != 2 {
		t.Errorf("Expected 2 genres, got %d", len(current.Genres))
	}

	rec = env.do(t, http.MethodPut, "/api/v1/feed/filters", "alice", `{"minRating":"9","selectedGenres":"__all__"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp FeedResponse
	decodeData(t, rec, &resp)
	if resp.Filters.MinRating != "9" {
		t.Errorf("Expected minRating 9, got %q", resp.Filters.MinRating)
	}
	if len(resp.Items) != 0 {
		t.Errorf("Expected the rating floor to hide every show, got %d", len(resp.Items))
	}
}

func TestFilters_PutValidation(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"non numeric", `{"minRating":"lots","selectedGenres":"__all__"}`, ErrCodeValidation},
		{"bad genres", `{"selectedGenres":"drama"}`, ErrCodeValidation},
		{"malformed json", `{"minRating":`, ErrCodeBadRequest},
		{"empty body", ` `, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/v1/feed/filters", "alice", tt.body)
			expectError(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")
	env.do(t, http.MethodPut, "/api/v1/prefs/1", "alice", `{"status":"watched"}`)

	rec := env.do(t, http.MethodGet, "/api/v1/feed/stats", "alice", "")
	var stats struct {
		Watched      int `json:"watched"`
		Unclassified int `json:"unclassified"`
	}
	decodeData(t, rec, &stats)
	if stats.Watched != 1 {
		t.Errorf("Expected 1 watched, got %d", stats.Watched)
	}
	if stats.Unclassified != feedShows-1 {
		t.Errorf("Expected %d unclassified, got %d", feedShows-1, stats.Unclassified)
	}
}

func TestCriticScores(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/feed/critic-scores/3", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp CriticScoresResponse
	decodeData(t, rec, &resp)
	if resp.Status != omdb.StatusLoaded {
		t.Errorf("Expected loaded, got %s", resp.Status)
	}
	if resp.Data == nil || resp.Data.RottenTomatoes == nil || *resp.Data.RottenTomatoes != 91 {
		t.Errorf("Expected Rotten Tomatoes 91, got %+v", resp.Data)
	}
	if resp.Description != "Rotten Tomatoes: 91%" {
		t.Errorf("Expected description, got %q", resp.Description)
	}

	expectError(t, env.do(t, http.MethodGet, "/api/v1/feed/critic-scores/999", "alice", ""), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, env.do(t, http.MethodGet, "/api/v1/feed/critic-scores/abc", "alice", ""), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestWebSocket_NoHub(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	expectError(t, env.do(t, http.MethodGet, "/api/v1/feed/ws", "alice", ""), http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected security headers on /api/v1")
	}
	var health HealthStatus
	decodeData(t, rec, &health)
	if health.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", health.Status)
	}
	if health.Sessions != 1 {
		t.Errorf("Expected 1 session, got %d", health.Sessions)
	}
	if health.Environment != "test" {
		t.Errorf("Expected environment test, got %q", health.Environment)
	}
}

func TestHealth_DegradedWithoutFeed(t *testing.T) {
	h := NewHandler(testConfig(), Dependencies{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var health HealthStatus
	decodeData(t, rec, &health)
	if health.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", health.Status)
	}
}

func TestHealthPerformance(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.do(t, http.MethodGet, "/api/v1/health", "", "")
	env.do(t, http.MethodGet, "/api/v1/health", "", "")

	rec := env.do(t, http.MethodGet, "/api/v1/health/performance?recent=1", "", "")
	var report PerformanceReport
	decodeData(t, rec, &report)
	if len(report.Recent) != 1 {
		t.Errorf("Expected 1 recent request, got %d", len(report.Recent))
	}
	found := false
	for _, ep := range report.Endpoints {
		if ep.Route == "GET /api/v1/health" && ep.RequestCount == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected GET /api/v1/health with 2 requests, got %+v", report.Endpoints)
	}

	expectError(t, env.do(t, http.MethodGet, "/api/v1/health/performance?recent=-1", "", ""), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	expectError(t, env.do(t, http.MethodGet, "/api/v1/nope", "", ""), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, env.do(t, http.MethodDelete, "/api/v1/health", "", ""), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestRouter_RequestIDInEnvelope(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("Expected echoed request id, got %q", rec.Header().Get("X-Request-ID"))
	}
	env2 := decodeEnvelope(t, rec)
	if env2.Meta == nil || env2.Meta.RequestID != "req-123" {
		t.Errorf("Expected request id in meta, got %+v", env2.Meta)
	}
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.do(t, http.MethodGet, "/api/v1/health", "", "")

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "showfeed_") {
		t.Error("Expected showfeed metrics in exposition")
	}
}
