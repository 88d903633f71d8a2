// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/catalog"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/discover"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/prefs"
	"github.com/tomtom215/showfeed/internal/ranking"
	"github.com/tomtom215/showfeed/internal/store"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

// DefaultFlushInterval is how often the manager flushes dirty histories.
const DefaultFlushInterval = 30 * time.Second

// Documents is the per-user persistence a manager needs.
type Documents interface {
	prefs.Persister
	FilterStore
	LoadRaw(ctx context.Context, userID string, doc store.Document) ([]byte, error)
	SaveRaw(ctx context.Context, userID string, doc store.Document, data []byte) error
}

// Upstreams are the shared clients sessions are built from. Each session
// gets its own proxy state on top of ProxyBackend.
type Upstreams struct {
	Catalog      *catalog.Client
	ProxyBackend tmdb.Backend
	Direct       *tmdb.Client
	Critic       omdb.Fetcher
}

// Manager owns one Session per user.
type Manager struct {
	feedCfg       config.FeedConfig
	opts          Options
	policy        ranking.Policy
	docs          Documents
	upstreams     Upstreams
	publisher     Publisher
	prefsOpts     []prefs.Option
	flushInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	lastUsed map[string]time.Time
	now      func() time.Time
	closed   bool
}

// NewManager creates a manager. docs and publisher may be nil.
func NewManager(cfg *config.Config, docs Documents, upstreams Upstreams, publisher Publisher) *Manager {
	m := &Manager{
		feedCfg:       cfg.Feed,
		opts:          OptionsFromConfig(cfg.Feed),
		policy:        ranking.PolicyFromConfig(cfg.Ranking),
		docs:          docs,
		upstreams:     upstreams,
		publisher:     publisher,
		flushInterval: DefaultFlushInterval,
		sessions:      make(map[string]*Session),
		lastUsed:      make(map[string]time.Time),
		now:           time.Now,
	}
	if cfg.Feed.DefaultInterest > 0 {
		m.prefsOpts = append(m.prefsOpts, prefs.WithDefaultInterest(cfg.Feed.DefaultInterest))
	}
	if publisher != nil {
		m.prefsOpts = append(m.prefsOpts, prefs.WithPublisher(publisher))
	}
	return m
}

// SetOptions overrides the session options for sessions created afterwards.
func (m *Manager) SetOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = opts
}

// Session returns userID's session, creating and restoring it on first use.
// Creating a session beyond MaxSessions closes the least recently used one.
func (m *Manager) Session(ctx context.Context, userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = store.AnonymousUser
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errors.New("feed manager closed")
	}
	if s, ok := m.sessions[userID]; ok {
		m.lastUsed[userID] = m.now()
		m.mu.Unlock()
		return s, nil
	}

	s := m.newSessionLocked(ctx, userID)
	m.sessions[userID] = s
	m.lastUsed[userID] = m.now()
	var evicted []*Session
	if limit := m.feedCfg.MaxSessions; limit > 0 {
		for len(m.sessions) > limit {
			evicted = append(evicted, m.removeLocked(m.oldestLocked(userID)))
		}
	}
	metrics.FeedSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	logging.Ctx(ctx).Debug().Str("user_id", userID).Msg("Feed session created")
	m.closeEvicted(ctx, evicted, "capacity")
	return s, nil
}

// oldestLocked returns the least recently used user other than keep.
func (m *Manager) oldestLocked(keep string) string {
	var (
		oldest string
		at     time.Time
	)
	for id, used := range m.lastUsed {
		if id == keep {
			continue
		}
		if oldest == "" || used.Before(at) || (used.Equal(at) && id < oldest) {
			oldest, at = id, used
		}
	}
	return oldest
}

func (m *Manager) removeLocked(userID string) *Session {
	s := m.sessions[userID]
	delete(m.sessions, userID)
	delete(m.lastUsed, userID)
	return s
}

// EvictIdle closes sessions unused for longer than SessionIdleTTL and
// returns how many were closed. Their discover history is flushed first.
func (m *Manager) EvictIdle(ctx context.Context) int {
	ttl := m.feedCfg.SessionIdleTTL
	if ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	cutoff := m.now().Add(-ttl)
	var idle []string
	for id, used := range m.lastUsed {
		if used.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	sort.Strings(idle)
	evicted := make([]*Session, 0, len(idle))
	for _, id := range idle {
		evicted = append(evicted, m.removeLocked(id))
	}
	metrics.FeedSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.closeEvicted(ctx, evicted, "idle")
	return len(evicted)
}

func (m *Manager) closeEvicted(ctx context.Context, sessions []*Session, reason string) {
	for _, s := range sessions {
		if s == nil {
			continue
		}
		if err := s.Close(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", s.UserID()).Msg("Failed to flush evicted feed session")
			continue
		}
		logging.Ctx(ctx).Debug().Str("user_id", s.UserID()).Str("reason", reason).Msg("Feed session evicted")
	}
}

func (m *Manager) newSessionLocked(ctx context.Context, userID string) *Session {
	history := discover.NewHistory(m.feedCfg.HistoryLimit, m.opts.withDefaults().MaxDiscoverPages)
	if m.docs != nil {
		raw, err := m.docs.LoadRaw(ctx, userID, store.DocDiscover)
		switch {
		case err == nil:
			history.Hydrate(raw)
		case !errors.Is(err, store.ErrNotFound):
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to load discover history")
		}
	}

	var (
		persister prefs.Persister
		filters   FilterStore
		scheduler *discover.Scheduler
	)
	if m.docs != nil {
		persister = m.docs
		filters = m.docs
		docs := m.docs
		scheduler = discover.NewScheduler(string(store.DocDiscover), m.feedCfg.PersistDebounce, func(ctx context.Context) error {
			data, err := json.Marshal(history.Snapshot())
			if err != nil {
				return fmt.Errorf("encode discover history: %w", err)
			}
			return docs.SaveRaw(ctx, userID, store.DocDiscover, data)
		})
	}

	var proxy *tmdb.Proxy
	if m.upstreams.ProxyBackend != nil {
		proxy = tmdb.NewProxy(m.upstreams.ProxyBackend, tmdb.NewProxyState())
	}

	s := NewSession(Config{
		UserID:  userID,
		Options: m.opts,
		Prefs:   prefs.New(userID, persister, m.prefsOpts...),
		Filters: filters,
		History: history,
		Persist: scheduler,
		Ranker:  ranking.New(m.policy, time.Now),
		Sources: Sources{
			Catalog: m.upstreams.Catalog,
			Proxy:   proxy,
			Direct:  m.upstreams.Direct,
			Critic:  m.upstreams.Critic,
		},
		Publisher: m.publisher,
	})
	s.Restore(ctx)
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) snapshot() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.sessions[id])
	}
	return out
}

// FlushAll writes every session's discover history that has unsaved
// changes.
func (m *Manager) FlushAll(ctx context.Context) error {
	var errs []error
	for _, s := range m.snapshot() {
		if s.persist == nil || !s.persist.Dirty() {
			continue
		}
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", s.UserID(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every session. Sessions cannot be created afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	var errs []error
	for _, s := range m.snapshot() {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.UserID(), err))
		}
	}
	metrics.FeedSessions.Set(0)
	return errors.Join(errs...)
}

// Serve flushes dirty histories periodically until ctx is cancelled, then
// closes every session. It implements suture.Service.
func (m *Manager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.Close(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Feed sessions closed with errors")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := m.FlushAll(ctx); err != nil {
				logging.Warn().Err(err).Msg("Periodic discover history flush failed")
			}
			m.EvictIdle(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (m *Manager) String() string {
	return "feed-manager"
}
