// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

import (
	"strconv"
	"strings"
)

// Summary field limits.
const (
	MaxTopCast   = 5
	MaxDirectors = 3
)

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ContentItem is a discoverable TV show.
//
// VoteAverage and VoteCount are pointers: a missing value fails any active
// filter bound, which a zero would not.
type ContentItem struct {
	ID           int           `json:"id"`
	Title        string        `json:"title,omitempty"`
	Name         string        `json:"name,omitempty"`
	ReleaseDate  string        `json:"release_date,omitempty"`
	FirstAirDate string        `json:"first_air_date,omitempty"`
	LastAirDate  string        `json:"last_air_date,omitempty"`
	PosterPath   string        `json:"poster_path,omitempty"`
	Overview     string        `json:"overview,omitempty"`
	VoteAverage  *float64      `json:"vote_average,omitempty"`
	VoteCount    *int          `json:"vote_count,omitempty"`
	Popularity   *float64      `json:"popularity,omitempty"`
	GenreIDs     []int         `json:"genre_ids,omitempty"`
	Genres       []Genre       `json:"genres,omitempty"`
	IMDbID       string        `json:"imdb_id,omitempty"`
	TopCast      []string      `json:"topCast,omitempty"`
	Directors    []string      `json:"directors,omitempty"`
	CriticScores *CriticScores `json:"criticScores,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// DisplayTitle returns title, falling back to name.
func (c *ContentItem) DisplayTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return strings.TrimSpace(c.Name)
}

// DateString returns release_date, falling back to first_air_date.
func (c *ContentItem) DateString() string {
	if c.ReleaseDate != "" {
		return c.ReleaseDate
	}
	return c.FirstAirDate
}

// Year parses the leading four digits of the release or first air date.
func (c *ContentItem) Year() (int, bool) {
	return ParseYear(c.DateString())
}

// ParseYear parses the leading integer of the first four characters of a date.
func ParseYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) > 4 {
		date = date[:4]
	}
	end := 0
	for end < len(date) && date[end] >= '0' && date[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:end])
	if err != nil {
		return 0, false
	}
	return year, true
}

// AllGenreIDs returns the union of genre_ids and genres[].id in first-seen order.
func (c *ContentItem) AllGenreIDs() []int {
	seen := make(map[int]struct{}, len(c.GenreIDs)+len(c.Genres))
	ids := make([]int, 0, len(c.GenreIDs)+len(c.Genres))
	add := func(id int) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range c.GenreIDs {
		add(id)
	}
	for _, g := range c.Genres {
		add(g.ID)
	}
	return ids
}

// HasCredits reports whether both cast and directors are populated.
func (c *ContentItem) HasCredits() bool {
	return len(c.TopCast) > 0 && len(c.Directors) > 0
}

// NeedsCredits reports whether neither cast nor directors are populated.
func (c *ContentItem) NeedsCredits() bool {
	return len(c.TopCast) == 0 && len(c.Directors) == 0
}

// ApplyCredits backfills cast and directors. Enrichment is additive: an
// empty list from credits never clears existing names.
func (c *ContentItem) ApplyCredits(credits *Credits) {
	if credits == nil {
		return
	}
	if cast := credits.TopCast(); len(cast) > 0 {
		c.TopCast = cast
	}
	if directors := credits.Directors(); len(directors) > 0 {
		c.Directors = directors
	}
}

// Clone returns a deep copy.
func (c *ContentItem) Clone() *ContentItem {
	if c == nil {
		return nil
	}
	out := *c
	if c.VoteAverage != nil {
		out.VoteAverage = Float(*c.VoteAverage)
	}
	if c.VoteCount != nil {
		out.VoteCount = Int(*c.VoteCount)
	}
	if c.Popularity != nil {
		out.Popularity = Float(*c.Popularity)
	}
	out.GenreIDs = append([]int(nil), c.GenreIDs...)
	out.Genres = append([]Genre(nil), c.Genres...)
	out.TopCast = append([]string(nil), c.TopCast...)
	out.Directors = append([]string(nil), c.Directors...)
	if c.CriticScores != nil {
		cs := c.CriticScores.Clone()
		out.CriticScores = cs
	}
	return &out
}

// Summarize returns the snapshot stored with interested and watched entries.
func (c *ContentItem) Summarize() *ContentItem {
	s := &ContentItem{
		ID:          c.ID,
		Title:       c.DisplayTitle(),
		ReleaseDate: c.DateString(),
		PosterPath:  c.PosterPath,
		Overview:    c.Overview,
		GenreIDs:    c.AllGenreIDs(),
		TopCast:     limitNames(c.TopCast, MaxTopCast),
		Directors:   limitNames(c.Directors, MaxDirectors),
	}
	if c.VoteAverage != nil {
		s.VoteAverage = Float(*c.VoteAverage)
	}
	if c.VoteCount != nil {
		s.VoteCount = Int(*c.VoteCount)
	}
	if c.CriticScores != nil {
		s.CriticScores = c.CriticScores.Clone()
	}
	return s
}

func limitNames(names []string, limit int) []string {
	if len(names) == 0 {
		return nil
	}
	if len(names) > limit {
		names = names[:limit]
	}
	return append([]string(nil), names...)
}

// CastMember is a TMDB cast entry.
type CastMember struct {
	Name string `json:"name"`
}

// CrewMember is a TMDB crew entry.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits is the TMDB credits payload for one show.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Empty reports whether credits carry no people.
func (c *Credits) Empty() bool {
	return c == nil || (len(c.Cast) == 0 && len(c.Crew) == 0)
}

// TopCast returns the first five named cast members, trimmed and deduplicated.
func (c *Credits) TopCast() []string {
	limit := len(c.Cast)
	if limit > MaxTopCast {
		limit = MaxTopCast
	}
	names := make([]string, 0, limit)
	for _, member := range c.Cast[:limit] {
		names = append(names, member.Name)
	}
	return uniqueNames(names)
}

// Directors returns crew members whose job is "Director", deduplicated.
func (c *Credits) Directors() []string {
	var names []string
	for _, member := range c.Crew {
		if member.Job == "Director" {
			names = append(names, member.Name)
		}
	}
	return uniqueNames(names)
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
