// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/showfeed/internal/catalog"
	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/discover"
	"github.com/tomtom215/showfeed/internal/events"
	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/omdb"
	"github.com/tomtom215/showfeed/internal/prefs"
	"github.com/tomtom215/showfeed/internal/ranking"
	"github.com/tomtom215/showfeed/internal/tmdb"
)

// Feed defaults.
const (
	DefaultMinFeedResults        = 10
	DefaultRefillCooldown        = 5 * time.Second
	DefaultMaxCreditRequests     = 20
	DefaultInitialDiscoverPages  = 3
	DefaultMaxDiscoverPages      = 10
	DefaultMaxDiscoverPagesLimit = 30
	DefaultLoadTimeout           = 2 * time.Minute
)

// Options tune a session. Zero values take the defaults.
type Options struct {
	MinFeedResults        int
	RefillCooldown        time.Duration
	MaxCreditRequests     int
	InitialDiscoverPages  int
	MaxDiscoverPages      int
	MaxDiscoverPagesLimit int
	LoadTimeout           time.Duration

	// AutoRefill lets Present start refills in the background. Off, a view
	// only reports Trigger and the caller decides.
	AutoRefill bool
}

// OptionsFromConfig maps feed config onto session options.
func OptionsFromConfig(cfg config.FeedConfig) Options {
	return Options{
		MinFeedResults:        cfg.MinFeedResults,
		RefillCooldown:        cfg.RefillCooldown,
		MaxCreditRequests:     cfg.MaxCreditRequests,
		InitialDiscoverPages:  cfg.InitialDiscoverPages,
		MaxDiscoverPages:      cfg.MaxDiscoverPages,
		MaxDiscoverPagesLimit: cfg.MaxDiscoverPagesLimit,
		LoadTimeout:           cfg.LoadTimeout,
		AutoRefill:            true,
	}
}

func (o Options) withDefaults() Options {
	if o.MinFeedResults <= 0 {
		o.MinFeedResults = DefaultMinFeedResults
	}
	if o.RefillCooldown <= 0 {
		o.RefillCooldown = DefaultRefillCooldown
	}
	if o.MaxCreditRequests <= 0 {
		o.MaxCreditRequests = DefaultMaxCreditRequests
	}
	if o.InitialDiscoverPages <= 0 {
		o.InitialDiscoverPages = DefaultInitialDiscoverPages
	}
	if o.MaxDiscoverPages <= 0 {
		o.MaxDiscoverPages = DefaultMaxDiscoverPages
	}
	if o.MaxDiscoverPagesLimit < o.MaxDiscoverPages {
		o.MaxDiscoverPagesLimit = max(DefaultMaxDiscoverPagesLimit, o.MaxDiscoverPages)
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = DefaultLoadTimeout
	}
	return o
}

// FilterStore persists a user's feed filters.
type FilterStore interface {
	LoadFilters(ctx context.Context, userID string) (*models.FeedFilterState, error)
	SaveFilters(ctx context.Context, userID string, state models.FeedFilterState) error
}

// Publisher publishes feed events.
type Publisher interface {
	Publish(ctx context.Context, topic, userID string, payload any) error
}

// Sources are the upstreams a session reads from. Catalog and Proxy may be
// nil; Direct may be keyless.
type Sources struct {
	Catalog *catalog.Client
	Proxy   *tmdb.Proxy
	Direct  *tmdb.Client
	Critic  omdb.Fetcher
}

// Config assembles a session.
type Config struct {
	UserID    string
	Options   Options
	Prefs     *prefs.Store
	Filters   FilterStore
	History   *discover.History
	Persist   *discover.Scheduler
	Ranker    *ranking.Ranker
	Sources   Sources
	Publisher Publisher
	Clock     func() time.Time
}

// Tone classifies a status line.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Status is the feed's current status line.
type Status struct {
	Message string    `json:"message"`
	Tone    Tone      `json:"tone"`
	Spinner bool      `json:"spinner"`
	Attempt int       `json:"attempt,omitempty"`
	At      time.Time `json:"at"`
}

// Session is one user's feed state. All methods are safe for concurrent use.
type Session struct {
	userID    string
	opts      Options
	prefs     *prefs.Store
	filters   FilterStore
	history   *discover.History
	persist   *discover.Scheduler
	ranker    *ranking.Ranker
	catalog   *catalog.Client
	proxy     *tmdb.Proxy
	direct    *tmdb.Client
	credits   *tmdb.CreditsFetcher
	critic    *omdb.Tracker
	publisher Publisher
	limiter   *rate.Limiter
	now       func() time.Time

	// refillFn runs a refill; tests replace it to observe triggers.
	refillFn func(ctx context.Context)

	mu                 sync.Mutex
	candidates         []*models.ContentItem
	restored           map[int]*models.ContentItem
	filterState        models.FeedFilterState
	genres             models.GenreMap
	catalogMeta        map[string]any
	catalogUnavailable bool
	exhausted          bool
	attempt            int
	cancelAttempt      context.CancelFunc
	refilling          bool
	lastRefill         time.Time
	pending            *time.Timer
	status             Status
	halted             bool
	closed             bool
}

// NewSession creates a session. Call Restore to load persisted state.
func NewSession(cfg Config) *Session {
	opts := cfg.Options.withDefaults()
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	ranker := cfg.Ranker
	if ranker == nil {
		ranker = ranking.New(ranking.DefaultPolicy(), now)
	}
	history := cfg.History
	if history == nil {
		history = discover.NewHistory(discover.DefaultHistoryLimit, opts.MaxDiscoverPages)
	}
	store := cfg.Prefs
	if store == nil {
		store = prefs.New(cfg.UserID, nil)
	}

	s := &Session{
		userID:             cfg.UserID,
		opts:               opts,
		prefs:              store,
		filters:            cfg.Filters,
		history:            history,
		persist:            cfg.Persist,
		ranker:             ranker,
		catalog:            cfg.Sources.Catalog,
		proxy:              cfg.Sources.Proxy,
		direct:             cfg.Sources.Direct,
		credits:            tmdb.NewCreditsFetcher(cfg.Sources.Proxy, cfg.Sources.Direct),
		critic:             omdb.NewTracker(cfg.Sources.Critic),
		publisher:          cfg.Publisher,
		limiter:            rate.NewLimiter(rate.Every(opts.RefillCooldown), 1),
		now:                now,
		restored:           map[int]*models.ContentItem{},
		filterState:        models.DefaultFeedFilters(),
		genres:             models.GenreMap{},
		catalogUnavailable: cfg.Sources.Catalog == nil,
	}
	s.refillFn = func(ctx context.Context) { s.RequestMore(ctx) }
	if s.persist != nil {
		history.OnChange(s.persist.MarkDirty)
	}
	return s
}

// UserID returns the owning user.
func (s *Session) UserID() string {
	return s.userID
}

// Prefs returns the session's preference store.
func (s *Session) Prefs() *prefs.Store {
	return s.prefs
}

// History returns the discover cursor history.
func (s *Session) History() *discover.History {
	return s.history
}

// Restore loads preferences and filters. Failures leave defaults.
func (s *Session) Restore(ctx context.Context) {
	s.prefs.Load(ctx)
	if s.filters == nil {
		return
	}
	state, err := s.filters.LoadFilters(ctx, s.userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", s.userID).Msg("Failed to load feed filters")
		return
	}
	if state != nil {
		s.mu.Lock()
		s.filterState = filter.Sanitize(*state)
		s.mu.Unlock()
	}
}

// Filters returns the active filters.
func (s *Session) Filters() models.FeedFilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterState
}

// SetFilters sanitizes, applies and persists state, then returns the
// refreshed view.
func (s *Session) SetFilters(ctx context.Context, state models.FeedFilterState) FeedView {
	s.mu.Lock()
	next := filter.EnsureConsistency(filter.Sanitize(state), s.genres)
	s.filterState = next
	s.mu.Unlock()

	if s.filters != nil {
		if err := s.filters.SaveFilters(ctx, s.userID, next); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", s.userID).Msg("Failed to save feed filters")
		}
	}
	return s.Present(ctx)
}

// Genres returns a copy of the genre map.
func (s *Session) Genres() models.GenreMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(models.GenreMap, len(s.genres))
	for id, name := range s.genres {
		out[id] = name
	}
	return out
}

// Candidates returns the ranked candidate list, suppressed shows included.
func (s *Session) Candidates() []*models.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.ContentItem(nil), s.candidates...)
}

// Exhausted reports whether the last load found nothing more to show.
func (s *Session) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// Status returns the current status line.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// usingProxy reports whether discovery goes through the proxy.
func (s *Session) usingProxy() bool {
	return s.proxy.Available()
}

// setStatus records and publishes a status line.
func (s *Session) setStatus(ctx context.Context, message string, tone Tone, spinner bool) {
	s.mu.Lock()
	st := Status{Message: message, Tone: tone, Spinner: spinner, Attempt: s.attempt, At: s.now()}
	s.status = st
	s.mu.Unlock()
	s.publishStatus(ctx, st)
}

// applyStatus records and publishes a rendered status line.
func (s *Session) applyStatus(ctx context.Context, st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.publishStatus(ctx, st)
}

func (s *Session) publishStatus(ctx context.Context, st Status) {
	if s.publisher == nil {
		return
	}
	payload := events.FeedStatus{
		UserID:  s.userID,
		Message: st.Message,
		Tone:    string(st.Tone),
		Spinner: st.Spinner,
		Attempt: st.Attempt,
		At:      st.At.UnixMilli(),
	}
	if err := s.publisher.Publish(ctx, events.TopicFeedStatus, s.userID, payload); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to publish feed status")
	}
}

// storeRestoredLocked remembers a summary of item so it can be counted and
// restored later.
func (s *Session) storeRestoredLocked(item *models.ContentItem) {
	if item == nil || item.ID == 0 {
		return
	}
	s.restored[item.ID] = item.Summarize()
}

// restoredListLocked returns the restored pool ordered by id.
func (s *Session) restoredListLocked() []*models.ContentItem {
	ids := make([]int, 0, len(s.restored))
	for id := range s.restored {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.ContentItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.restored[id])
	}
	return out
}

// Stats returns classification counts for the session.
func (s *Session) Stats() prefs.Stats {
	s.mu.Lock()
	current := append([]*models.ContentItem(nil), s.candidates...)
	restored := s.restoredListLocked()
	meta := s.catalogMeta
	s.mu.Unlock()
	return s.prefs.Stats(current, restored, meta)
}

// Flush writes the discover history if it has unsaved changes.
func (s *Session) Flush(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	return s.persist.FlushNow(ctx)
}

// Close cancels the running load and pending refill and flushes the
// discover history.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	if s.persist == nil {
		return nil
	}
	return s.persist.Close(ctx)
}
