// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package prefs

import (
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/showfeed/internal/models"
)

// catalogTotalKeys are the catalog metadata fields that may report the full
// catalog size, in order of preference.
var catalogTotalKeys = []string{"curatedCount", "totalCatalogSize", "totalCatalog", "curatedReturnedCount"}

// RatingBucket counts shows whose vote average falls in [Min, Max).
type RatingBucket struct {
	Label string   `json:"label"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Count int      `json:"count"`
}

// Stats summarizes classifications against the current pool.
type Stats struct {
	Interested    int            `json:"interested"`
	Watched       int            `json:"watched"`
	NotInterested int            `json:"notInterested"`
	Classified    int            `json:"classified"`
	Unclassified  int            `json:"unclassified"`
	CatalogTotal  int            `json:"catalogTotal"`
	PoolSize      int            `json:"poolSize"`
	RatingBuckets []RatingBucket `json:"ratingBuckets"`
}

func newBuckets() []RatingBucket {
	return []RatingBucket{
		{Label: "9-10", Min: models.Float(9)},
		{Label: "8-8.9", Min: models.Float(8), Max: models.Float(9)},
		{Label: "7-7.9", Min: models.Float(7), Max: models.Float(8)},
		{Label: "6-6.9", Min: models.Float(6), Max: models.Float(7)},
		{Label: "< 6", Max: models.Float(6)},
	}
}

// CatalogTotal returns the first finite, non-negative catalog size reported
// in meta, rounded, or fallback when none is present.
func CatalogTotal(meta map[string]any, fallback int) int {
	for _, key := range catalogTotalKeys {
		if n, ok := nonNegative(meta[key]); ok {
			return n
		}
	}
	return fallback
}

func nonNegative(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// Stats computes classification counts. The unclassified pool is current
// plus restored, deduplicated by id, minus suppressed shows; rating buckets
// count the pool's vote averages.
func (s *Store) Stats(current, restored []*models.ContentItem, meta map[string]any) Stats {
	s.mu.RLock()
	var st Stats
	for _, entry := range s.prefs {
		switch entry.Status {
		case models.StatusInterested:
			st.Interested++
		case models.StatusWatched:
			st.Watched++
		case models.StatusNotInterested:
			st.NotInterested++
		}
	}
	st.Classified = st.Interested + st.Watched + st.NotInterested

	seen := make(map[int]struct{}, len(current)+len(restored))
	var pool []*models.ContentItem
	for _, list := range [][]*models.ContentItem{current, restored} {
		for _, item := range list {
			if item == nil {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			if entry, ok := s.prefs[item.ID]; ok && entry.Status.Suppresses() {
				continue
			}
			pool = append(pool, item)
		}
	}
	s.mu.RUnlock()

	st.PoolSize = len(pool)
	st.CatalogTotal = CatalogTotal(meta, len(current))
	st.Unclassified = max(st.PoolSize, st.CatalogTotal-st.Classified)
	st.RatingBuckets = bucketize(pool)
	return st
}

func bucketize(pool []*models.ContentItem) []RatingBucket {
	buckets := newBuckets()
	for _, item := range pool {
		if item.VoteAverage == nil {
			continue
		}
		v := *item.VoteAverage
		for i := range buckets {
			b := &buckets[i]
			if (b.Min == nil || v >= *b.Min) && (b.Max == nil || v < *b.Max) {
				b.Count++
				break
			}
		}
	}
	return buckets
}
