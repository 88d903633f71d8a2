// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package discover

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/cache"
	"github.com/tomtom215/showfeed/internal/models"
)

// Defaults for history sizing and page budgets.
const (
	DefaultHistoryLimit = 50
	DefaultMinAllowed   = 10
)

// Key builds the query signature for a source mode and filter state.
func Key(useProxy bool, state models.FeedFilterState) string {
	mode := "direct"
	if useProxy {
		mode = "proxy"
	}
	genres := strings.TrimSpace(state.SelectedGenres)
	if genres == "" {
		genres = models.GenreSelectionAll
	}
	return strings.Join([]string{
		mode,
		strings.TrimSpace(state.MinRating),
		strings.TrimSpace(state.MinVotes),
		strings.TrimSpace(state.StartYear),
		strings.TrimSpace(state.EndYear),
		genres,
	}, "|")
}

// Normalize enforces cursor invariants: nextPage ≥ 1, allowedPages ≥
// max(minAllowed, nextPage), totalPages positive or nil, updatedAt set.
func Normalize(c models.DiscoverCursor, minAllowed int, now time.Time) models.DiscoverCursor {
	out := c
	if out.NextPage <= 0 {
		out.NextPage = 1
	}
	allowed := out.AllowedPages
	if allowed <= 0 {
		allowed = minAllowed
	}
	out.AllowedPages = max(minAllowed, allowed, out.NextPage)
	if out.TotalPages != nil && *out.TotalPages <= 0 {
		out.TotalPages = nil
	} else if out.TotalPages != nil {
		out.TotalPages = models.Int(*out.TotalPages)
	}
	if out.UpdatedAt <= 0 {
		if out.LastAttempt != nil && *out.LastAttempt > 0 {
			out.UpdatedAt = *out.LastAttempt
		} else {
			out.UpdatedAt = now.UnixMilli()
		}
	}
	if out.LastAttempt != nil {
		if *out.LastAttempt <= 0 {
			out.LastAttempt = nil
		} else {
			v := *out.LastAttempt
			out.LastAttempt = &v
		}
	}
	return out
}

// History is the bounded per-signature cursor map. Safe for concurrent use.
type History struct {
	entries    *cache.LRU[models.DiscoverCursor]
	minAllowed int
	now        func() time.Time
	onChange   func()
}

// NewHistory creates a history holding at most limit signatures.
func NewHistory(limit, minAllowed int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if minAllowed <= 0 {
		minAllowed = DefaultMinAllowed
	}
	return &History{
		entries:    cache.NewLRU[models.DiscoverCursor]("discover_history", limit),
		minAllowed: minAllowed,
		now:        time.Now,
	}
}

// OnChange registers fn to run after every write that changes progress.
// Set it before the history is shared.
func (h *History) OnChange(fn func()) {
	h.onChange = fn
}

// Len returns the number of tracked signatures.
func (h *History) Len() int {
	return h.entries.Len()
}

// Keys returns the signatures, oldest first.
func (h *History) Keys() []string {
	return h.entries.Keys()
}

// Read returns a copy of the cursor for key. Reading does not reorder.
func (h *History) Read(key string) (models.DiscoverCursor, bool) {
	if key == "" {
		return models.DiscoverCursor{}, false
	}
	c, ok := h.entries.Peek(key)
	if !ok {
		return models.DiscoverCursor{}, false
	}
	return Normalize(c, h.minAllowed, h.now()), true
}

// Write records cursor for key and reports whether progress changed.
// Neither nextPage nor allowedPages moves backwards for a known key: a write
// behind the stored page keeps the stored page, total and exhaustion. A
// write that only refreshes timestamps keeps the key's position and does
// not trigger OnChange.
func (h *History) Write(key string, cursor models.DiscoverCursor) bool {
	if key == "" {
		return false
	}
	now := h.now().UnixMilli()
	cursor.UpdatedAt = now
	cursor.LastAttempt = &now

	existing, known := h.entries.Peek(key)
	if known {
		if cursor.NextPage < existing.NextPage {
			cursor.NextPage = existing.NextPage
			cursor.Exhausted = existing.Exhausted
			if existing.TotalPages != nil {
				cursor.TotalPages = models.Int(*existing.TotalPages)
			}
		}
		cursor.AllowedPages = max(cursor.AllowedPages, existing.AllowedPages)
	}
	cursor = Normalize(cursor, h.minAllowed, h.now())

	if known && existing.SameProgress(cursor) {
		existing.UpdatedAt = cursor.UpdatedAt
		existing.LastAttempt = cursor.LastAttempt
		h.entries.Replace(key, existing)
		return false
	}

	h.entries.Put(key, cursor)
	if h.onChange != nil {
		h.onChange()
	}
	return true
}

// Snapshot returns the persisted form of the history.
func (h *History) Snapshot() models.DiscoverSnapshot {
	snap := models.DiscoverSnapshot{
		Version: models.DiscoverStateVersion,
		Entries: make(map[string]models.DiscoverCursor, h.entries.Len()),
	}
	h.entries.Each(func(key string, c models.DiscoverCursor) {
		snap.Entries[key] = c
		snap.Order = append(snap.Order, key)
	})
	return snap
}

// Hydrate replaces the history with a persisted state. It accepts the
// {version, entries, order} document or a flat signature → cursor map.
// Malformed entries are skipped; the newest entries beyond the limit win.
// Hydrating does not trigger OnChange.
func (h *History) Hydrate(raw []byte) {
	h.entries.Clear()

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return
	}

	container := top
	var order []string
	if entriesRaw, ok := top["entries"]; ok {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(entriesRaw, &entries); err == nil && entries != nil {
			container = entries
			if orderRaw, ok := top["order"]; ok {
				_ = json.Unmarshal(orderRaw, &order)
			}
		}
	}

	now := h.now()
	cursors := make(map[string]models.DiscoverCursor, len(container))
	for key, value := range container {
		if key == "" {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(value, &fields); err != nil || fields == nil {
			continue
		}
		cursors[key] = h.decodeCursor(fields, now)
	}

	for _, key := range hydrationOrder(cursors, order) {
		h.entries.Put(key, cursors[key])
	}
}

// hydrationOrder lists keys oldest first: keys missing from order come
// first sorted by updatedAt, then keys in the stored order.
func hydrationOrder(cursors map[string]models.DiscoverCursor, order []string) []string {
	inOrder := make(map[string]struct{}, len(order))
	var ordered []string
	for _, key := range order {
		if _, ok := cursors[key]; !ok {
			continue
		}
		if _, dup := inOrder[key]; dup {
			continue
		}
		inOrder[key] = struct{}{}
		ordered = append(ordered, key)
	}

	var rest []string
	for key := range cursors {
		if _, ok := inOrder[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		a, b := cursors[rest[i]].UpdatedAt, cursors[rest[j]].UpdatedAt
		if a != b {
			return a < b
		}
		return rest[i] < rest[j]
	})
	return append(rest, ordered...)
}

func (h *History) decodeCursor(fields map[string]any, now time.Time) models.DiscoverCursor {
	c := models.DiscoverCursor{
		NextPage:     positiveInt(fields["nextPage"]),
		AllowedPages: positiveInt(fields["allowedPages"]),
	}
	if total := positiveInt(fields["totalPages"]); total > 0 {
		c.TotalPages = models.Int(total)
	}
	if exhausted, ok := fields["exhausted"].(bool); ok {
		c.Exhausted = exhausted
	}
	if last := positiveInt(fields["lastAttempt"]); last > 0 {
		v := int64(last)
		c.LastAttempt = &v
	}
	c.UpdatedAt = int64(positiveInt(fields["updatedAt"]))
	return Normalize(c, h.minAllowed, now)
}

// positiveInt floors a JSON number; anything else or non-positive is 0.
func positiveInt(v any) int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return int(math.Floor(f))
}
