// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package models

import (
	"testing"
	"time"
)

func TestNormalizeCriticScores_Nested(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"source": "omdb",
		"ratings": map[string]any{
			"rottenTomatoes": "87%",
			"metacritic":     "74",
			"imdb":           "8.46",
		},
		"imdbId":    "tt123",
		"Title":     "Show",
		"year":      "2021",
		"fetchedAt": "2026-02-01T10:00:00Z",
	}

	s := NormalizeCriticScores(raw, now)
	if s.RottenTomatoes == nil || *s.RottenTomatoes != 87 {
		t.Errorf("Expected RT 87, got %v", s.RottenTomatoes)
	}
	if s.Metacritic == nil || *s.Metacritic != 74 {
		t.Errorf("Expected metacritic 74, got %v", s.Metacritic)
	}
	if s.IMDb == nil || *s.IMDb != 8.5 {
		t.Errorf("Expected imdb 8.5, got %v", s.IMDb)
	}
	if s.IMDbID != "tt123" || s.Title != "Show" || s.Year != "2021" {
		t.Errorf("Unexpected identity fields: %+v", s)
	}
	if s.Type != CriticScoreType {
		t.Errorf("Expected default type %q, got %q", CriticScoreType, s.Type)
	}
	if !s.FetchedAt.Equal(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected parsed fetchedAt, got %v", s.FetchedAt)
	}
}

func TestNormalizeCriticScores_FlatAndMissing(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"tomato_meter": 120.0,
		"Metascore":    "N/A",
		"imdbRating":   "N/A",
		"provider":     "catalog",
	}

	s := NormalizeCriticScores(raw, now)
	if s.RottenTomatoes == nil || *s.RottenTomatoes != 100 {
		t.Errorf("Expected RT clamped to 100, got %v", s.RottenTomatoes)
	}
	if s.Metacritic != nil {
		t.Errorf("Expected N/A metacritic to be nil, got %v", *s.Metacritic)
	}
	if s.IMDb != nil {
		t.Errorf("Expected N/A imdb to be nil, got %v", *s.IMDb)
	}
	if s.Source != "catalog" {
		t.Errorf("Expected provider as source, got %q", s.Source)
	}
	if !s.FetchedAt.Equal(now) {
		t.Errorf("Expected fetchedAt to default to now, got %v", s.FetchedAt)
	}
	if s.HasAny() != true {
		t.Error("Expected HasAny with RT present")
	}
}

func TestNormalizeCriticScores_NumericFetchedAt(t *testing.T) {
	raw := map[string]any{"fetchedAt": float64(1700000000000)}
	s := NormalizeCriticScores(raw, time.Now())
	if s.FetchedAt.UnixMilli() != 1700000000000 {
		t.Errorf("Expected millisecond timestamp, got %v", s.FetchedAt)
	}
	if s.HasAny() {
		t.Error("Expected no scores")
	}
}

func TestDecodeCriticScoresRejectsNonObject(t *testing.T) {
	if DecodeCriticScores([]byte(`[1]`), time.Now()) != nil {
		t.Error("Expected nil for array payload")
	}
	if DecodeCriticScores([]byte(`{"imdb":"7.2"}`), time.Now()) == nil {
		t.Error("Expected object payload to decode")
	}
}
