// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package omdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/showfeed/internal/models"
)

type stubFetcher struct {
	calls  int
	scores *models.CriticScores
	err    error
	last   Lookup
}

func (f *stubFetcher) Fetch(_ context.Context, lookup Lookup) (*models.CriticScores, error) {
	f.calls++
	f.last = lookup
	return f.scores, f.err
}

func TestShowKey(t *testing.T) {
	tests := []struct {
		item     *models.ContentItem
		expected string
	}{
		{&models.ContentItem{ID: 5, IMDbID: "tt1"}, "tmdb:5"},
		{&models.ContentItem{IMDbID: " tt1 "}, "imdb:tt1"},
		{&models.ContentItem{Name: "The Wire", FirstAirDate: "2002-06-02"}, "title:the wire|year:2002"},
		{&models.ContentItem{Title: "Untitled"}, "title:untitled|year:"},
		{&models.ContentItem{}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := ShowKey(tt.item); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestBuildLookup(t *testing.T) {
	l := BuildLookup(&models.ContentItem{ID: 1, Name: "Name", Title: "Title", FirstAirDate: "2019-01-01"})
	if l == nil || l.Title != "Name" || l.Year != "2019" || l.Type != "series" || l.IMDbID != "" {
		t.Errorf("Unexpected lookup: %+v", l)
	}
	if BuildLookup(&models.ContentItem{ID: 1}) != nil {
		t.Error("Expected nil lookup without id or title")
	}
}

func TestTrackerRequestLifecycle(t *testing.T) {
	rt := 90
	fetcher := &stubFetcher{scores: &models.CriticScores{RottenTomatoes: &rt, FetchedAt: time.Now()}}
	tracker := NewTracker(fetcher)
	item := &models.ContentItem{ID: 1, Name: "Show"}

	if st := tracker.State(item); st.Status != StatusIdle || st.Describe() != "Not fetched yet" {
		t.Errorf("Expected idle, got %+v", st)
	}

	st := tracker.Request(context.Background(), item, false)
	if st.Status != StatusLoaded || st.Describe() != "Rotten Tomatoes: 90%" {
		t.Errorf("Expected loaded, got %+v (%s)", st, st.Describe())
	}
	_ = tracker.Request(context.Background(), item, false)
	if fetcher.calls != 1 {
		t.Errorf("Expected loaded state to be reused, got %d calls", fetcher.calls)
	}

	fetcher.err = errors.New("OMDb request failed with status 503")
	st = tracker.Request(context.Background(), item, true)
	if st.Status != StatusError || st.Data == nil || *st.Data.RottenTomatoes != 90 {
		t.Errorf("Expected error state keeping earlier data, got %+v", st)
	}
	if st.Describe() != "OMDb request failed with status 503" {
		t.Errorf("Unexpected description %q", st.Describe())
	}

	feed := []*models.ContentItem{{ID: 1}, {ID: 2}}
	tracker.Attach(feed)
	if feed[0].CriticScores != nil {
		t.Error("Expected error state not to attach scores")
	}
}

func TestTrackerAttachAndSeed(t *testing.T) {
	imdb := 7.9
	fetcher := &stubFetcher{scores: &models.CriticScores{IMDb: &imdb}}
	tracker := NewTracker(fetcher)

	seeded := &models.ContentItem{ID: 3, CriticScores: &models.CriticScores{IMDb: &imdb}}
	if st := tracker.State(seeded); st.Status != StatusLoaded {
		t.Errorf("Expected item scores to seed a loaded state, got %s", st.Status)
	}

	_ = tracker.Request(context.Background(), &models.ContentItem{ID: 4, Name: "Four"}, false)
	feed := []*models.ContentItem{{ID: 4}, {ID: 5}}
	tracker.Attach(feed)
	if feed[0].CriticScores == nil || *feed[0].CriticScores.IMDb != 7.9 {
		t.Errorf("Expected scores attached, got %+v", feed[0].CriticScores)
	}
	if feed[1].CriticScores != nil {
		t.Error("Expected untouched item without a lookup")
	}
}

func TestTrackerMissingLookupAndEmptyResult(t *testing.T) {
	fetcher := &stubFetcher{}
	tracker := NewTracker(fetcher)

	st := tracker.Request(context.Background(), &models.ContentItem{ID: 9}, false)
	if st.Status != StatusError || st.Error != "Not enough information to fetch critic scores." {
		t.Errorf("Unexpected state: %+v", st)
	}
	st = tracker.Request(context.Background(), &models.ContentItem{ID: 10, Name: "X"}, false)
	if st.Error != "Critic scores are unavailable for this title." {
		t.Errorf("Unexpected state: %+v", st)
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected one fetch, got %d", fetcher.calls)
	}
}
