// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package feed

import (
	"context"
	"testing"

	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/prefs"
)

func testShow(id int) *models.ContentItem {
	return &models.ContentItem{
		ID:           id,
		Name:         "Show",
		FirstAirDate: "2020-01-01",
		VoteAverage:  models.Float(8),
		VoteCount:    models.Int(100),
		GenreIDs:     []int{18},
		TopCast:      []string{"Actor"},
	}
}

func TestRender_DecisionTable(t *testing.T) {
	tests := []struct {
		name          string
		candidates    []int
		suppress      []int
		inFlight      bool
		exhausted     bool
		filtered      bool
		expectMessage string
		expectTone    Tone
		expectSpinner bool
		expectTrigger bool
		expectItems   int
	}{
		{name: "empty in flight", inFlight: true, expectMessage: "Waiting for TV shows from TMDB...", expectTone: ToneInfo, expectSpinner: true},
		{name: "empty exhausted with filters", exhausted: true, filtered: true, expectMessage: "TMDB did not return TV shows that match your filters.", expectTone: ToneWarning},
		{name: "empty exhausted", exhausted: true, expectMessage: "TMDB did not return any TV shows. Try again later.", expectTone: ToneWarning},
		{name: "empty idle", expectMessage: "Requesting the first batch of TV shows...", expectTone: ToneInfo, expectSpinner: true, expectTrigger: true},
		{name: "all suppressed in flight", candidates: []int{1, 2}, suppress: []int{1, 2}, inFlight: true, expectMessage: "All current results are hidden; waiting for new TV shows...", expectTone: ToneInfo, expectSpinner: true},
		{name: "all suppressed", candidates: []int{1, 2}, suppress: []int{1, 2}, expectMessage: "All fetched TV shows are hidden by saved statuses. Looking for fresh titles...", expectTone: ToneWarning, expectSpinner: true, expectTrigger: true},
		{name: "filtered in flight", candidates: []int{1, 2}, filtered: true, inFlight: true, expectMessage: "Filters removed the current batch; waiting for more TV shows...", expectTone: ToneInfo, expectSpinner: true},
		{name: "filtered exhausted", candidates: []int{1, 2}, filtered: true, exhausted: true, expectMessage: "Filters are hiding every TV show that is currently available.", expectTone: ToneWarning},
		{name: "filtered idle", candidates: []int{1, 2}, filtered: true, expectMessage: "Filters are hiding 2 shows; requesting more options...", expectTone: ToneWarning, expectSpinner: true, expectTrigger: true},
		{name: "list", candidates: []int{1, 2, 3}, suppress: []int{3}, expectMessage: "Showing 2 shows (updated 12:00:00).", expectTone: ToneSuccess, expectItems: 2},
		{name: "single", candidates: []int{1}, expectMessage: "Showing 1 show (updated 12:00:00).", expectTone: ToneSuccess, expectItems: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, sessionOpts{})
			ctx := context.Background()
			for _, id := range tt.candidates {
				s.candidates = append(s.candidates, testShow(id))
			}
			for _, id := range tt.suppress {
				if _, err := s.Prefs().Set(ctx, testShow(id), models.StatusWatched, prefs.SetOptions{}); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
			}
			s.refilling = tt.inFlight
			s.exhausted = tt.exhausted
			if tt.filtered {
				s.filterState.MinRating = "9.5"
			}

			view := s.Render()
			if view.Status.Message != tt.expectMessage {
				t.Errorf("Expected message %q, got %q", tt.expectMessage, view.Status.Message)
			}
			if view.Status.Tone != tt.expectTone {
				t.Errorf("Expected tone %s, got %s", tt.expectTone, view.Status.Tone)
			}
			if view.Status.Spinner != tt.expectSpinner {
				t.Errorf("Expected spinner %v, got %v", tt.expectSpinner, view.Status.Spinner)
			}
			if view.Trigger != tt.expectTrigger {
				t.Errorf("Expected trigger %v, got %v", tt.expectTrigger, view.Trigger)
			}
			if len(view.Items) != tt.expectItems {
				t.Errorf("Expected %d items, got %d", tt.expectItems, len(view.Items))
			}
		})
	}
}

func TestRender_NoGenresYieldsEmptyFeed(t *testing.T) {
	s := newTestSession(t, sessionOpts{})
	s.candidates = []*models.ContentItem{testShow(1), testShow(2)}
	s.filterState = models.FeedFilterState{MinRating: "7", SelectedGenres: models.GenreSelectionNone}

	view := s.Render()
	if len(view.Items) != 0 {
		t.Errorf("Expected no items when no genres are selected, got %d", len(view.Items))
	}
}

func TestRender_ItemsAreCopies(t *testing.T) {
	s := newTestSession(t, sessionOpts{})
	s.candidates = []*models.ContentItem{testShow(1)}

	view := s.Render()
	view.Items[0].Name = "changed"
	if s.Candidates()[0].Name != "Show" {
		t.Error("Expected rendered items not to alias session candidates")
	}
}

func TestPresent_PublishesStatus(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestSession(t, sessionOpts{publisher: pub})
	s.candidates = []*models.ContentItem{testShow(1)}

	view := s.Present(context.Background())
	if view.Trigger {
		t.Error("Expected no trigger for a populated feed")
	}
	msgs := pub.messages()
	if len(msgs) != 1 || msgs[0] != "Showing 1 show (updated 12:00:00)." {
		t.Errorf("Expected the rendered status to be published, got %v", msgs)
	}
	if s.Status().Message != msgs[0] {
		t.Errorf("Expected the session status to match, got %q", s.Status().Message)
	}
}

func TestPresent_TriggersRefillWhenEnabled(t *testing.T) {
	s := newTestSession(t, sessionOpts{options: Options{AutoRefill: true}})
	called := make(chan struct{}, 1)
	s.refillFn = func(context.Context) { called <- struct{}{} }

	view := s.Present(context.Background())
	if !view.Trigger {
		t.Fatal("Expected an empty feed to trigger")
	}
	<-called
}
