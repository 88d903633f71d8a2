// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/showfeed/internal/catalog"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/events"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: testNow}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// showJSON is a discover result that every ranking tier admits.
func showJSON(id int) string {
	return fmt.Sprintf(`{"id":%d,"name":"Show %d","first_air_date":"2020-01-01","vote_average":8,"vote_count":100,"genre_ids":[18],"topCast":["Actor %d"]}`, id, id, id)
}

// bareShowJSON is a discover result without credits.
func bareShowJSON(id int) string {
	return fmt.Sprintf(`{"id":%d,"name":"Show %d","first_air_date":"2020-01-01","vote_average":8,"vote_count":100,"genre_ids":[18]}`, id, id)
}

// pageBody builds a discover page. total <= 0 omits total_pages.
func pageBody(total int, ids ...int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = showJSON(id)
	}
	if total <= 0 {
		return `{"results":[` + strings.Join(parts, ",") + `]}`
	}
	return fmt.Sprintf(`{"results":[%s],"total_pages":%d}`, strings.Join(parts, ","), total)
}

// pageIDs returns count ids for page, unique across pages.
func pageIDs(page, count int) []int {
	ids := make([]int, count)
	for i := range ids {
		ids[i] = page*100 + i + 1
	}
	return ids
}

// fakeBackend answers proxy calls from canned discover pages.
type fakeBackend struct {
	mu            sync.Mutex
	pages         map[int]string
	failStatus    int
	discoverPages []int
	creditCalls   int
	genreCalls    int

	// gate, when set, blocks the first discover call until released.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pages: map[int]string{}}
}

func (b *fakeBackend) Fetch(_ context.Context, endpoint string, params url.Values) (tmdb.Response, error) {
	b.mu.Lock()
	if b.failStatus != 0 {
		status := b.failStatus
		b.mu.Unlock()
		return tmdb.Response{Status: status, ContentType: "application/json", Body: []byte(`{"error":"boom"}`)}, nil
	}
	switch endpoint {
	case tmdb.EndpointDiscoverTV:
		page, _ := strconv.Atoi(params.Get("page"))
		b.discoverPages = append(b.discoverPages, page)
		body, ok := b.pages[page]
		if !ok {
			body = `{"results":[]}`
		}
		gate, entered := b.gate, b.entered
		b.gate, b.entered = nil, nil
		b.mu.Unlock()
		if gate != nil {
			close(entered)
			<-gate
		}
		return tmdb.Response{Status: http.StatusOK, Body: []byte(body)}, nil
	case tmdb.EndpointTVGenres:
		b.genreCalls++
		b.mu.Unlock()
		return tmdb.Response{Status: http.StatusOK, Body: []byte(`{"genres":[{"id":18,"name":"Drama"},{"id":35,"name":"Comedy"}]}`)}, nil
	case tmdb.EndpointTVCredits:
		b.creditCalls++
		b.mu.Unlock()
		return tmdb.Response{Status: http.StatusOK, Body: []byte(`{"cast":[{"name":"Cast A"}],"crew":[{"name":"Dir B","job":"Director"}]}`)}, nil
	}
	b.mu.Unlock()
	return tmdb.Response{Status: http.StatusBadRequest, Body: []byte(`{"error":"unsupported_endpoint"}`)}, nil
}

func (b *fakeBackend) requestedPages() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.discoverPages...)
}

func (b *fakeBackend) credits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creditCalls
}

// fill serves count shows on each of pages 1..n with total n.
func (b *fakeBackend) fill(n, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for page := 1; page <= n; page++ {
		b.pages[page] = pageBody(n, pageIDs(page, count)...)
	}
}

// newDirectServer serves /3/discover/tv and /3/genre/tv/list from pages.
// status, when non-zero, fails every request.
func newDirectServer(t *testing.T, pages map[int]string, status int) *tmdb.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"status_message":"nope"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/3/discover/tv":
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			body, ok := pages[page]
			if !ok {
				body = `{"results":[]}`
			}
			_, _ = w.Write([]byte(body))
		case "/3/genre/tv/list":
			_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return tmdb.NewClient(config.TMDBConfig{APIKey: "test-key", BaseURL: srv.URL})
}

// stubCatalog returns a fixed catalog reply.
type stubCatalog struct {
	mu    sync.Mutex
	reply catalog.Reply
	err   error
	calls int
}

func (s *stubCatalog) Fetch(_ context.Context, _ url.Values) (catalog.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

func (s *stubCatalog) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func catalogReply(ids ...int) catalog.Reply {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = showJSON(id)
	}
	body := `{"results":[` + strings.Join(parts, ",") + `],"genres":[{"id":18,"name":"Drama"}],"metadata":{"curatedCount":40}}`
	return catalog.Reply{Status: http.StatusOK, ContentType: "application/json", Body: []byte(body)}
}

// recordingPublisher captures published feed statuses.
type recordingPublisher struct {
	mu       sync.Mutex
	statuses []events.FeedStatus
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, payload any) error {
	if topic != events.TopicFeedStatus {
		return nil
	}
	if st, ok := payload.(events.FeedStatus); ok {
		p.mu.Lock()
		p.statuses = append(p.statuses, st)
		p.mu.Unlock()
	}
	return nil
}

func (p *recordingPublisher) messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.statuses))
	for i, st := range p.statuses {
		out[i] = st.Message
	}
	return out
}

type sessionOpts struct {
	backend   *fakeBackend
	direct    *tmdb.Client
	catalog   catalog.Source
	options   Options
	publisher Publisher
	clock     *testClock
}

func newTestSession(t *testing.T, o sessionOpts) *Session {
	t.Helper()
	if o.clock == nil {
		o.clock = newTestClock()
	}
	var proxy *tmdb.Proxy
	if o.backend != nil {
		proxy = tmdb.NewProxy(o.backend, nil)
	}
	var client *catalog.Client
	if o.catalog != nil {
		client = catalog.NewClient(o.catalog)
	}
	s := NewSession(Config{
		UserID:  "user-1",
		Options: o.options,
		Sources: Sources{
			Catalog: client,
			Proxy:   proxy,
			Direct:  o.direct,
		},
		Publisher: o.publisher,
		Clock:     o.clock.Now,
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func itemIDs(items []*models.ContentItem) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func containsID(items []*models.ContentItem, id int) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
