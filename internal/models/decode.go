// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// GenreMap maps genre id to display name.
type GenreMap map[int]string

// IDs returns the genre ids in ascending order.
func (g GenreMap) IDs() []int {
	ids := make([]int, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Genres returns the map as a list sorted by name, then id.
func (g GenreMap) Genres() []Genre {
	out := make([]Genre, 0, len(g))
	for id, name := range g {
		out = append(out, Genre{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GenreMapFromList builds a map from a TMDB genre list.
func GenreMapFromList(genres []Genre) GenreMap {
	out := make(GenreMap, len(genres))
	for _, g := range genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			out[g.ID] = name
		}
	}
	return out
}

// payloadShape classifies a raw JSON value by its first significant byte.
type payloadShape int

const (
	shapeOther payloadShape = iota
	shapeArray
	shapeObject
)

func shapeOf(raw []byte) payloadShape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return shapeOther
	}
	switch trimmed[0] {
	case '[':
		return shapeArray
	case '{':
		return shapeObject
	default:
		return shapeOther
	}
}

// DecodeGenreMap accepts [{id,name}], {"<id>":"name"} or {"<id>":{"name":...}}.
// Entries without a numeric id or a non-empty name are dropped; any other
// shape yields an empty map.
func DecodeGenreMap(raw []byte) GenreMap {
	out := GenreMap{}
	switch shapeOf(raw) {
	case shapeArray:
		var entries []map[string]any
		if err := json.Unmarshal(raw, &entries); err != nil {
			return out
		}
		for _, entry := range entries {
			id, ok := intFrom(entry["id"])
			name, _ := entry["name"].(string)
			if name = strings.TrimSpace(name); ok && name != "" {
				out[id] = name
			}
		}
	case shapeObject:
		var entries map[string]any
		if err := json.Unmarshal(raw, &entries); err != nil {
			return out
		}
		for key, value := range entries {
			id, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				continue
			}
			var name string
			switch v := value.(type) {
			case string:
				name = v
			case map[string]any:
				name, _ = v["name"].(string)
			}
			if name = strings.TrimSpace(name); name != "" {
				out[id] = name
			}
		}
	}
	return out
}

// DecodeCreditsMap accepts {"<id>": {cast:[...], crew:[...]}}. Entries with
// neither cast nor crew are dropped.
func DecodeCreditsMap(raw []byte) map[int]*Credits {
	out := map[int]*Credits{}
	if shapeOf(raw) != shapeObject {
		return out
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}
	for key, value := range entries {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || shapeOf(value) != shapeObject {
			continue
		}
		var credits Credits
		if err := json.Unmarshal(value, &credits); err != nil || credits.Empty() {
			continue
		}
		out[id] = &credits
	}
	return out
}

// DecodeCatalogItem maps a catalog result onto ContentItem. Catalog results
// may use score, voteCount, releaseDate and name in place of the TMDB fields,
// and numbers may arrive as strings. Items without a numeric id are rejected.
func DecodeCatalogItem(raw []byte, now time.Time) (*ContentItem, bool) {
	if shapeOf(raw) != shapeObject {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	id, ok := intFrom(m["id"])
	if !ok {
		return nil, false
	}

	item := &ContentItem{
		ID:           id,
		Title:        stringFrom(m["title"]),
		Name:         stringFrom(m["name"]),
		ReleaseDate:  stringFrom(m["release_date"]),
		FirstAirDate: stringFrom(m["first_air_date"]),
		LastAirDate:  stringFrom(m["last_air_date"]),
		PosterPath:   stringFrom(m["poster_path"]),
		Overview:     stringFrom(m["overview"]),
		IMDbID:       firstString(m, "imdb_id", "imdbId"),
		TopCast:      uniqueNames(stringsFrom(m["topCast"])),
		Directors:    uniqueNames(stringsFrom(m["directors"])),
	}
	if item.Title == "" {
		item.Title = item.Name
	}
	if item.ReleaseDate == "" {
		item.ReleaseDate = stringFrom(m["releaseDate"])
	}

	if avg, ok := floatFrom(firstPresent(m, "vote_average", "score")); ok {
		item.VoteAverage = Float(avg)
	}
	if votes, ok := intFrom(firstPresent(m, "vote_count", "voteCount")); ok {
		item.VoteCount = Int(votes)
	}
	if pop, ok := floatFrom(m["popularity"]); ok {
		item.Popularity = Float(pop)
	}

	if ids, ok := m["genre_ids"].([]any); ok {
		for _, v := range ids {
			if gid, ok := intFrom(v); ok {
				item.GenreIDs = append(item.GenreIDs, gid)
			}
		}
	}
	if genres, ok := m["genres"].([]any); ok {
		for _, v := range genres {
			g, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if gid, ok := intFrom(g["id"]); ok {
				item.Genres = append(item.Genres, Genre{ID: gid, Name: stringFrom(g["name"])})
			}
		}
	}

	if scores, ok := m["criticScores"].(map[string]any); ok {
		item.CriticScores = NormalizeCriticScores(scores, now)
	}
	return item, true
}

func stringFrom(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func stringsFrom(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func floatFrom(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseLeadingFloat(strings.TrimSpace(val))
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intFrom(v any) (int, bool) {
	if s, ok := v.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			f, ok := parseLeadingFloat(strings.TrimSpace(s))
			if !ok {
				return 0, false
			}
			return int(f), true
		}
		return n, true
	}
	f, ok := floatFrom(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
