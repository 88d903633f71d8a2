// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/discover"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/prefs"
	"github.com/tomtom215/showfeed/internal/store"
)

func newTestManager(t *testing.T, docs Documents, backend *fakeBackend) *Manager {
	t.Helper()
	m := NewManager(&config.Config{}, docs, Upstreams{ProxyBackend: backend}, nil)
	m.SetOptions(Options{})
	return m
}

func TestManager_SessionPerUser(t *testing.T) {
	backend := newFakeBackend()
	m := newTestManager(t, nil, backend)
	ctx := context.Background()

	alice, err := m.Session(ctx, "alice")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	again, _ := m.Session(ctx, " alice ")
	if alice != again {
		t.Error("Expected the same session for the same user")
	}
	anon, _ := m.Session(ctx, "")
	if anon.UserID() != store.AnonymousUser {
		t.Errorf("Expected %q, got %q", store.AnonymousUser, anon.UserID())
	}
	if m.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", m.Len())
	}
	if got := testutil.ToFloat64(metrics.FeedSessions); got != 2 {
		t.Errorf("Expected feed sessions gauge 2, got %v", got)
	}

	alice.proxy.State().Disable("test")
	if !anon.usingProxy() {
		t.Error("Expected proxy state to be per session")
	}

	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := m.Session(ctx, "bob"); err == nil {
		t.Error("Expected an error after close")
	}
}

func TestManager_PersistsAcrossRestarts(t *testing.T) {
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer db.Close()
	docs := store.NewDocumentStore(db)
	backend := newFakeBackend()
	backend.fill(5, 10)
	ctx := context.Background()

	m := newTestManager(t, docs, backend)
	s, err := m.Session(ctx, "alice")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := m.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}

	raw, err := docs.LoadRaw(ctx, "alice", store.DocDiscover)
	if err != nil {
		t.Fatalf("Expected a persisted discover history: %v", err)
	}
	history := discover.NewHistory(0, 0)
	history.Hydrate(raw)
	key := discover.Key(true, models.DefaultFeedFilters())
	if cursor, ok := history.Read(key); !ok || cursor.NextPage != 2 {
		t.Errorf("Expected persisted nextPage 2, got %+v (found=%v)", cursor, ok)
	}

	if _, err := s.SetStatus(ctx, 101, models.StatusWatched, prefs.SetOptions{}); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	s.SetFilters(ctx, models.FeedFilterState{MinVotes: "50", SelectedGenres: models.GenreSelectionAll})
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	restarted := newTestManager(t, docs, backend)
	s2, err := restarted.Session(ctx, "alice")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	defer restarted.Close(ctx)
	if !s2.Prefs().IsSuppressed(101) {
		t.Error("Expected preferences restored")
	}
	if got := s2.Filters().MinVotes; got != "50" {
		t.Errorf("Expected filters restored, got minVotes %q", got)
	}
	if cursor, ok := s2.History().Read(key); !ok || cursor.NextPage != 2 {
		t.Errorf("Expected discover history restored, got %+v", cursor)
	}
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer db.Close()
	docs := store.NewDocumentStore(db)
	backend := newFakeBackend()
	backend.fill(5, 10)
	ctx := context.Background()

	m := newTestManager(t, docs, backend)
	m.feedCfg.MaxSessions = 2
	clock := newTestClock()
	m.now = clock.Now
	defer m.Close(ctx)

	alice, _ := m.Session(ctx, "alice")
	if err := alice.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := m.Session(ctx, "bob"); err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := m.Session(ctx, "carol"); err != nil {
		t.Fatalf("Session failed: %v", err)
	}

	if m.Len() != 2 {
		t.Errorf("Expected 2 sessions after reaching the cap, got %d", m.Len())
	}
	if got := testutil.ToFloat64(metrics.FeedSessions); got != 2 {
		t.Errorf("Expected feed sessions gauge 2, got %v", got)
	}
	if _, err := docs.LoadRaw(ctx, "alice", store.DocDiscover); err != nil {
		t.Errorf("Expected the evicted session's history to be flushed: %v", err)
	}

	again, _ := m.Session(ctx, "alice")
	if again == alice {
		t.Error("Expected a fresh session for an evicted user")
	}
	key := discover.Key(true, models.DefaultFeedFilters())
	if cursor, ok := again.History().Read(key); !ok || cursor.NextPage != 2 {
		t.Errorf("Expected the restored session to resume at page 2, got %+v", cursor)
	}
}

func TestManager_EvictIdle(t *testing.T) {
	m := newTestManager(t, nil, newFakeBackend())
	m.feedCfg.SessionIdleTTL = time.Minute
	clock := newTestClock()
	m.now = clock.Now
	ctx := context.Background()
	defer m.Close(ctx)

	m.Session(ctx, "alice")
	clock.Advance(45 * time.Second)
	m.Session(ctx, "bob")
	clock.Advance(30 * time.Second)

	if n := m.EvictIdle(ctx); n != 1 {
		t.Errorf("Expected 1 idle session evicted, got %d", n)
	}
	if m.Len() != 1 {
		t.Errorf("Expected bob to remain, got %d sessions", m.Len())
	}

	m.feedCfg.SessionIdleTTL = 0
	clock.Advance(time.Hour)
	if n := m.EvictIdle(ctx); n != 0 {
		t.Errorf("Expected no eviction with the TTL disabled, got %d", n)
	}
}
