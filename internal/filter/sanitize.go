// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/showfeed/internal/models"
)

// Field names accepted by SanitizeValue.
const (
	FieldMinRating      = "minRating"
	FieldMinVotes       = "minVotes"
	FieldStartYear      = "startYear"
	FieldEndYear        = "endYear"
	FieldSelectedGenres = "selectedGenres"
)

// Sanitize normalizes every field of state.
func Sanitize(state models.FeedFilterState) models.FeedFilterState {
	return models.FeedFilterState{
		MinRating:      SanitizeValue(FieldMinRating, state.MinRating),
		MinVotes:       SanitizeValue(FieldMinVotes, state.MinVotes),
		StartYear:      SanitizeValue(FieldStartYear, state.StartYear),
		EndYear:        SanitizeValue(FieldEndYear, state.EndYear),
		SelectedGenres: SanitizeValue(FieldSelectedGenres, state.SelectedGenres),
	}
}

// SanitizeValue normalizes one filter field. Unparseable numbers become "".
func SanitizeValue(name, raw string) string {
	value := strings.TrimSpace(raw)

	if name == FieldSelectedGenres {
		return sanitizeGenres(value)
	}
	if value == "" {
		return ""
	}

	switch name {
	case FieldMinRating:
		f, ok := leadingFloat(strings.Replace(value, ",", ".", 1))
		if !ok {
			return ""
		}
		return strconv.FormatFloat(clampFloat(f, 0, 10), 'f', -1, 64)
	case FieldMinVotes:
		n, ok := leadingInt(value)
		if !ok {
			return ""
		}
		return strconv.Itoa(max(0, n))
	case FieldStartYear, FieldEndYear:
		n, ok := leadingInt(value)
		if !ok {
			return ""
		}
		return strconv.Itoa(n)
	}
	return value
}

func sanitizeGenres(value string) string {
	if value == "" {
		return models.GenreSelectionAll
	}
	if value == models.GenreSelectionAll || value == models.GenreSelectionNone {
		return value
	}
	ids := parseIDList(value)
	if len(ids) == 0 {
		return models.GenreSelectionNone
	}
	return joinIDs(ids, ",")
}

// parseIDList parses a comma separated list into sorted unique ids.
func parseIDList(value string) []int {
	seen := map[int]struct{}{}
	var ids []int
	for _, part := range strings.Split(value, ",") {
		n, ok := leadingInt(strings.TrimSpace(part))
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		ids = append(ids, n)
	}
	sort.Ints(ids)
	return ids
}

func joinIDs(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

// leadingInt parses an optionally signed run of leading digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingFloat parses the longest decimal prefix of s.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	seenDot := false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			digits++
		} else if ch == '.' && !seenDot {
			seenDot = true
		} else {
			break
		}
		end++
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	return min(hi, max(lo, v))
}
