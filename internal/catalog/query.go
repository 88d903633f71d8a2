// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package catalog

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Defaults for catalog requests.
const (
	DefaultLimit     = 20
	DefaultMaxLimit  = 60
	DefaultMaxPages  = 5
	DefaultMaxKeyIDs = 200
)

var idSeparators = regexp.MustCompile(`[,|\s]+`)

// Query is a parsed /api/tv request. Unset floors are nil.
type Query struct {
	Limit     int
	MinRating *float64
	MinVotes  *float64
	StartYear *float64
	EndYear   *float64
	Exclude   []string
}

// ParseQuery reads limit, minRating, minVotes, startYear, endYear and
// excludeIds. limit is clamped to 1..maxLimit and defaults to defaultLimit;
// an inverted year range is swapped.
func ParseQuery(values url.Values, defaultLimit, maxLimit int) Query {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	q := Query{
		Limit:     defaultLimit,
		MinRating: parseNumber(values.Get("minRating")),
		MinVotes:  parseNumber(values.Get("minVotes")),
		StartYear: parseNumber(values.Get("startYear")),
		EndYear:   parseNumber(values.Get("endYear")),
		Exclude:   ParseIDSet(values["excludeIds"]),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get("limit"))); err == nil && n > 0 {
		q.Limit = min(n, maxLimit)
	}
	if q.StartYear != nil && q.EndYear != nil && *q.EndYear < *q.StartYear {
		q.StartYear, q.EndYear = q.EndYear, q.StartYear
	}
	return q
}

// ParseIDSet splits raw values on commas, pipes and whitespace, keeping the
// first occurrence of each id in order.
func ParseIDSet(raw []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, value := range raw {
		for _, part := range idSeparators.Split(value, -1) {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func parseNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatNumber(v *float64, missing string) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// CacheKeyParts are the response store key parts for q. At most maxIDs
// excluded ids take part in the key.
func CacheKeyParts(q Query, maxIDs int) []string {
	if maxIDs <= 0 {
		maxIDs = DefaultMaxKeyIDs
	}
	parts := []string{
		CacheCollection,
		"limit:" + strconv.Itoa(q.Limit),
		"minRating:" + formatNumber(q.MinRating, "any"),
		"minVotes:" + formatNumber(q.MinVotes, "any"),
		"startYear:" + formatNumber(q.StartYear, "any"),
		"endYear:" + formatNumber(q.EndYear, "any"),
	}
	if len(q.Exclude) == 0 {
		return append(parts, "no-excludes")
	}
	return append(parts, q.Exclude[:min(len(q.Exclude), maxIDs)]...)
}

// DiscoverParams are the TMDB discover parameters for q, without page.
func DiscoverParams(q Query) url.Values {
	params := url.Values{}
	params.Set("sort_by", "vote_average.desc")
	params.Set("include_adult", "false")
	params.Set("include_null_first_air_dates", "false")
	params.Set("language", "en-US")
	if q.MinRating != nil {
		v := math.Max(0, math.Min(10, *q.MinRating))
		params.Set("vote_average.gte", formatNumber(&v, ""))
	}
	if q.MinVotes != nil {
		params.Set("vote_count.gte", strconv.Itoa(max(0, int(math.Floor(*q.MinVotes)))))
	}
	if q.StartYear != nil {
		params.Set("first_air_date.gte", formatNumber(q.StartYear, "")+"-01-01")
	}
	if q.EndYear != nil {
		params.Set("first_air_date.lte", formatNumber(q.EndYear, "")+"-12-31")
	}
	return params
}
