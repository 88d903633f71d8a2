// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// CriticScoreType is the OMDb lookup type used for TV shows.
const CriticScoreType = "series"

// CriticScores are normalized third-party ratings. Missing values are null,
// never omitted.
type CriticScores struct {
	RottenTomatoes *int      `json:"rottenTomatoes"`
	Metacritic     *int      `json:"metacritic"`
	IMDb           *float64  `json:"imdb"`
	Source         string    `json:"source"`
	FetchedAt      time.Time `json:"fetchedAt"`
	Type           string    `json:"type"`
	IMDbID         string    `json:"imdbId,omitempty"`
	Title          string    `json:"title,omitempty"`
	Year           string    `json:"year,omitempty"`
}

// Clone returns a deep copy.
func (s *CriticScores) Clone() *CriticScores {
	if s == nil {
		return nil
	}
	out := *s
	if s.RottenTomatoes != nil {
		out.RottenTomatoes = Int(*s.RottenTomatoes)
	}
	if s.Metacritic != nil {
		out.Metacritic = Int(*s.Metacritic)
	}
	if s.IMDb != nil {
		out.IMDb = Float(*s.IMDb)
	}
	return &out
}

// HasAny reports whether at least one score is present.
func (s *CriticScores) HasAny() bool {
	return s != nil && (s.RottenTomatoes != nil || s.Metacritic != nil || s.IMDb != nil)
}

// DecodeCriticScores parses and normalizes a critic score payload.
// Returns nil for anything that is not a JSON object.
func DecodeCriticScores(data []byte, now time.Time) *CriticScores {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return NormalizeCriticScores(raw, now)
}

// NormalizeCriticScores accepts either {ratings:{...}, ...} or a flat object
// with the scores at the top level, under any of the key spellings used by
// the catalog, OMDb and older stored snapshots.
func NormalizeCriticScores(raw map[string]any, now time.Time) *CriticScores {
	if raw == nil {
		return nil
	}
	ratings := raw
	if nested, ok := raw["ratings"].(map[string]any); ok {
		ratings = nested
	}

	out := &CriticScores{
		RottenTomatoes: parsePercent(firstPresent(ratings,
			"rottenTomatoes", "rotten_tomatoes", "tomatoMeter", "tomato_meter", "rotten", "tomato")),
		Metacritic: parseHundred(firstPresentOf(
			[]map[string]any{ratings, raw}, "metacritic", "Metascore", "meta")),
		IMDb: parseTen(firstPresentOf(
			[]map[string]any{ratings, raw}, "imdb", "imdbRating", "imdb_score", "imdbScore")),
		Source: firstString(raw, "source", "provider"),
		Type:   firstString(raw, "type"),
		IMDbID: firstString(raw, "imdbId", "imdbID"),
		Title:  firstString(raw, "title", "Title"),
		Year:   firstString(raw, "year", "Year"),
	}
	if out.Source == "" {
		out.Source = "omdb"
	}
	if out.Type == "" {
		out.Type = CriticScoreType
	}

	out.FetchedAt = now
	fetched := firstPresent(raw, "fetchedAt", "fetched_at")
	if fetched == nil {
		if meta, ok := raw["metadata"].(map[string]any); ok {
			fetched = firstPresent(meta, "fetchedAt", "fetched_at")
		}
	}
	if fetched == nil {
		fetched = firstPresent(ratings, "fetchedAt", "fetched_at")
	}
	if ts, ok := parseTimestamp(fetched); ok {
		out.FetchedAt = ts
	}
	return out
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstPresentOf(maps []map[string]any, keys ...string) any {
	for _, key := range keys {
		for _, m := range maps {
			if v, ok := m[key]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// scoreText renders a raw JSON scalar as trimmed text.
func scoreText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

// parseLeadingFloat mimics a lenient prefix parse: "82/100" yields 82.
func parseLeadingFloat(s string) (float64, bool) {
	end := 0
	seenDot := false
scan:
	for end < len(s) {
		ch := s[end]
		switch {
		case ch >= '0' && ch <= '9':
		case ch == '.' && !seenDot:
			seenDot = true
		case (ch == '-' || ch == '+') && end == 0:
		default:
			break scan
		}
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parsePercent(v any) *int {
	s, ok := scoreText(v)
	if !ok {
		return nil
	}
	s = strings.TrimSuffix(s, "%")
	f, ok := parseLeadingFloat(s)
	if !ok {
		return nil
	}
	n := int(math.Round(clamp(f, 0, 100)))
	return &n
}

func parseHundred(v any) *int {
	s, ok := scoreText(v)
	if !ok || strings.EqualFold(s, "n/a") {
		return nil
	}
	f, ok := parseLeadingFloat(s)
	if !ok {
		return nil
	}
	n := int(math.Round(clamp(f, 0, 100)))
	return &n
}

func parseTen(v any) *float64 {
	s, ok := scoreText(v)
	if !ok || strings.EqualFold(s, "n/a") {
		return nil
	}
	f, ok := parseLeadingFloat(s)
	if !ok {
		return nil
	}
	rounded := math.Round(clamp(f, 0, 10)*10) / 10
	return &rounded
}

func parseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		return time.Time{}, false
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(val)).UTC(), true
	default:
		return time.Time{}, false
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
