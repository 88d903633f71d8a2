// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/showfeed/internal/models"
	"github.com/tomtom215/showfeed/internal/prefs"
)

func TestSetPref_ClassifiesAndPrunesFeed(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")

	rec := env.do(t, http.MethodPut, "/api/v1/prefs/4", "alice", `{"status":"interested","interest":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PreferenceResponse
	decodeData(t, rec, &resp)
	if resp.ID != 4 || resp.Entry.Status != models.StatusInterested {
		t.Errorf("Expected show 4 interested, got %d %s", resp.ID, resp.Entry.Status)
	}
	if resp.Entry.Interest == nil || *resp.Entry.Interest != 5 {
		t.Errorf("Expected interest 5, got %v", resp.Entry.Interest)
	}
	if resp.Entry.Movie == nil || resp.Entry.Movie.ID != 4 {
		t.Error("Expected the show snapshot on the entry")
	}

	var view FeedResponse
	decodeData(t, env.do(t, http.MethodGet, "/api/v1/feed", "alice", ""), &view)
	for _, item := range view.Items {
		if item.ID == 4 {
			t.Error("Expected classified show removed from the feed")
		}
	}

	var list PreferencesResponse
	decodeData(t, env.do(t, http.MethodGet, "/api/v1/prefs", "alice", ""), &list)
	if list.Count != 1 {
		t.Errorf("Expected 1 entry, got %d", list.Count)
	}
	if _, ok := list.Entries[4]; !ok {
		t.Errorf("Expected entry for show 4, got %v", list.Entries)
	}

	decodeData(t, env.do(t, http.MethodGet, "/api/v1/prefs", "bob", ""), &list)
	if list.Count != 0 {
		t.Errorf("Expected bob to have no entries, got %d", list.Count)
	}
}

func TestSetPref_Errors(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown show", "/api/v1/prefs/999", `{"status":"watched"}`, http.StatusNotFound, ErrCodeNotFound},
		{"bad id", "/api/v1/prefs/zero", `{"status":"watched"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"negative id", "/api/v1/prefs/-3", `{"status":"watched"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"missing status", "/api/v1/prefs/1", `{}`, http.StatusBadRequest, ErrCodeValidation},
		{"unknown status", "/api/v1/prefs/1", `{"status":"maybe"}`, http.StatusBadRequest, ErrCodeValidation},
		{"interest out of range", "/api/v1/prefs/1", `{"status":"interested","interest":7}`, http.StatusBadRequest, ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPut, tt.path, "alice", tt.body), tt.status, tt.code)
		})
	}
}

func TestSetPref_ValidationDetails(t *testing.T) {
	env := newTestEnv(t, Dependencies{})

	rec := env.do(t, http.MethodPut, "/api/v1/prefs/1", "alice", `{"status":"maybe"}`)
	env2 := decodeEnvelope(t, rec)
	if env2.Error == nil {
		t.Fatal("Expected an error")
	}
	details, ok := env2.Error.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected details object, got %T", env2.Error.Details)
	}
	if details["field"] != "status" || details["tag"] != "showstatus" {
		t.Errorf("Expected status/showstatus details, got %v", details)
	}
	if env2.Error.RequestID == "" {
		t.Error("Expected request id on the error")
	}
}

func TestClearPref(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")
	env.do(t, http.MethodPut, "/api/v1/prefs/2", "alice", `{"status":"watched"}`)

	rec := env.do(t, http.MethodDelete, "/api/v1/prefs/2", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PreferenceResponse
	decodeData(t, rec, &resp)
	if resp.Entry.Status != models.StatusWatched {
		t.Errorf("Expected the removed watched entry, got %s", resp.Entry.Status)
	}

	var view FeedResponse
	decodeData(t, env.do(t, http.MethodGet, "/api/v1/feed", "alice", ""), &view)
	found := false
	for _, item := range view.Items {
		if item.ID == 2 {
			found = true
		}
	}
	if !found {
		t.Error("Expected the cleared show back in the feed")
	}

	expectError(t, env.do(t, http.MethodDelete, "/api/v1/prefs/2", "alice", ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestSetRating(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")
	env.do(t, http.MethodPut, "/api/v1/prefs/1", "alice", `{"status":"watched"}`)
	env.do(t, http.MethodPut, "/api/v1/prefs/2", "alice", `{"status":"interested"}`)

	rec := env.do(t, http.MethodPut, "/api/v1/prefs/1/rating", "alice", `{"rating":7.3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PreferenceResponse
	decodeData(t, rec, &resp)
	if resp.Entry.UserRating == nil || *resp.Entry.UserRating != 7.5 {
		t.Errorf("Expected rating rounded to 7.5, got %v", resp.Entry.UserRating)
	}

	decodeData(t, env.do(t, http.MethodPut, "/api/v1/prefs/1/rating", "alice", `{"rating":null}`), &resp)
	if resp.Entry.UserRating != nil {
		t.Errorf("Expected rating cleared, got %v", *resp.Entry.UserRating)
	}

	expectError(t, env.do(t, http.MethodPut, "/api/v1/prefs/2/rating", "alice", `{"rating":5}`), http.StatusConflict, ErrCodeConflict)
	expectError(t, env.do(t, http.MethodPut, "/api/v1/prefs/3/rating", "alice", `{"rating":5}`), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, env.do(t, http.MethodPut, "/api/v1/prefs/1/rating", "alice", `{"rating":11}`), http.StatusBadRequest, ErrCodeValidation)
}

func TestSetInterest(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")
	env.do(t, http.MethodPut, "/api/v1/prefs/1", "alice", `{"status":"interested"}`)
	env.do(t, http.MethodPut, "/api/v1/prefs/2", "alice", `{"status":"watched"}`)

	rec := env.do(t, http.MethodPut, "/api/v1/prefs/1/interest", "alice", `{"interest":2}`)
	var resp PreferenceResponse
	decodeData(t, rec, &resp)
	if resp.Entry.Interest == nil || *resp.Entry.Interest != 2 {
		t.Errorf("Expected interest 2, got %v", resp.Entry.Interest)
	}

	expectError(t, env.do(t, http.MethodPut, "/api/v1/prefs/2/interest", "alice", `{"interest":2}`), http.StatusConflict, ErrCodeConflict)
	expectError(t, env.do(t, http.MethodPut, "/api/v1/prefs/1/interest", "alice", `{"interest":9}`), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodPut, "/api/v1/prefs/1/interest", "alice", `{}`), http.StatusBadRequest, ErrCodeValidation)
}

func TestInterestedView(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")
	env.do(t, http.MethodPut, "/api/v1/prefs/1", "alice", `{"status":"interested","interest":2}`)
	env.do(t, http.MethodPut, "/api/v1/prefs/2", "alice", `{"status":"interested","interest":5}`)

	var resp InterestedResponse
	decodeData(t, env.do(t, http.MethodGet, "/api/v1/prefs/interested", "alice", ""), &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("Expected 2 interested shows, got %d", len(resp.Items))
	}
	if resp.Items[0].ID != 2 {
		t.Errorf("Expected the most wanted show first, got %d", resp.Items[0].ID)
	}
	if len(resp.Genres) != 1 || resp.Genres[0] != "Drama" {
		t.Errorf("Expected genres [Drama], got %v", resp.Genres)
	}

	decodeData(t, env.do(t, http.MethodGet, "/api/v1/prefs/interested?genre=Comedy", "alice", ""), &resp)
	if len(resp.Items) != 0 {
		t.Errorf("Expected no Comedy shows, got %d", len(resp.Items))
	}
	decodeData(t, env.do(t, http.MethodGet, "/api/v1/prefs/interested?genre=Comedy,Drama", "alice", ""), &resp)
	if len(resp.Items) != 2 {
		t.Errorf("Expected 2 shows for Comedy or Drama, got %d", len(resp.Items))
	}
}

func TestWatchedView(t *testing.T) {
	env := newTestEnv(t, Dependencies{})
	env.loadFeed(t, "alice")
	env.do(t, http.MethodPut, "/api/v1/prefs/1", "alice", `{"status":"watched"}`)
	env.do(t, http.MethodPut, "/api/v1/prefs/2", "alice", `{"status":"watched"}`)
	env.do(t, http.MethodPut, "/api/v1/prefs/2/rating", "alice", `{"rating":9}`)

	var view prefs.WatchedView
	decodeData(t, env.do(t, http.MethodGet, "/api/v1/prefs/watched?sort=ratingDesc", "alice", ""), &view)
	if view.Sort != prefs.SortRatingDesc {
		t.Errorf("Expected ratingDesc, got %s", view.Sort)
	}
	if len(view.Rated) != 1 || view.Rated[0].ID != 2 {
		t.Errorf("Expected show 2 rated, got %+v", view.Rated)
	}
	if len(view.Unrated) != 1 || view.Unrated[0].ID != 1 {
		t.Errorf("Expected show 1 unrated, got %+v", view.Unrated)
	}

	expectError(t, env.do(t, http.MethodGet, "/api/v1/prefs/watched?sort=sideways", "alice", ""), http.StatusBadRequest, ErrCodeValidation)
}
