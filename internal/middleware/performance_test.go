// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestNewPerformanceMonitor(t *testing.T) {
	pm := NewPerformanceMonitor(10)
	if pm.maxMetrics != 10 {
		t.Errorf("Expected maxMetrics 10, got %d", pm.maxMetrics)
	}
	if pm.slowThreshold != DefaultSlowRequestThreshold {
		t.Errorf("Expected default slow threshold, got %v", pm.slowThreshold)
	}

	if fallback := NewPerformanceMonitor(0); fallback.maxMetrics != 1000 {
		t.Errorf("Expected fallback capacity 1000, got %d", fallback.maxMetrics)
	}
}

func TestPerformanceMonitor_SlidingWindow(t *testing.T) {
	pm := NewPerformanceMonitor(3)
	for i := 1; i <= 5; i++ {
		pm.RecordRequest(&RequestMetrics{Route: "/api/v1/feed", Method: http.MethodGet, DurationMS: int64(i)})
	}

	recent := pm.GetRecentMetrics(10)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 metrics in window, got %d", len(recent))
	}
	if recent[0].DurationMS != 3 || recent[2].DurationMS != 5 {
		t.Errorf("Expected window 3..5, got %d..%d", recent[0].DurationMS, recent[2].DurationMS)
	}
}

func TestPerformanceMonitor_GetStats(t *testing.T) {
	pm := NewPerformanceMonitor(100)
	for i := 1; i <= 10; i++ {
		pm.RecordRequest(&RequestMetrics{Route: "/api/v1/feed", Method: http.MethodGet, DurationMS: int64(i * 10), StatusCode: http.StatusOK})
	}
	pm.RecordRequest(&RequestMetrics{Route: "/api/v1/feed/refill", Method: http.MethodPost, DurationMS: 7, StatusCode: http.StatusBadGateway})

	stats := pm.GetStats()
	if len(stats) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(stats))
	}

	feed := stats[0]
	if feed.Route != "GET /api/v1/feed" {
		t.Errorf("Expected busiest route first, got %s", feed.Route)
	}
	if feed.RequestCount != 10 || feed.MinDuration != 10 || feed.MaxDuration != 100 {
		t.Errorf("Unexpected feed stats: %+v", feed)
	}
	if feed.AvgDuration != 55 {
		t.Errorf("Expected avg 55, got %v", feed.AvgDuration)
	}
	if feed.P50Duration != 50 {
		t.Errorf("Expected p50 50, got %d", feed.P50Duration)
	}
	if stats[1].ErrorCount != 1 {
		t.Errorf("Expected 1 error on refill, got %d", stats[1].ErrorCount)
	}
}

func TestPerformanceMonitor_Middleware(t *testing.T) {
	pm := NewPerformanceMonitor(10)
	pm.SetSlowThreshold(time.Nanosecond)

	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Get("/api/v1/prefs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prefs/42", nil))

	recent := pm.GetRecentMetrics(1)
	if len(recent) != 1 {
		t.Fatalf("Expected 1 recorded request, got %d", len(recent))
	}
	if recent[0].Route != "/api/v1/prefs/{id}" {
		t.Errorf("Expected route pattern, got %s", recent[0].Route)
	}
	if recent[0].StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", recent[0].StatusCode)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want int64
	}{
		{0, 1},
		{0.5, 5},
		{0.95, 9},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v): expected %d, got %d", tt.p, tt.want, got)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("Expected 0 for empty slice, got %d", got)
	}
}

func TestPerformanceMonitor_ConcurrentAccess(t *testing.T) {
	pm := NewPerformanceMonitor(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pm.RecordRequest(&RequestMetrics{Route: "/r", Method: http.MethodGet, DurationMS: int64(i)})
			_ = pm.GetStats()
		}(i)
	}
	wg.Wait()

	if n := len(pm.GetRecentMetrics(100)); n != 20 {
		t.Errorf("Expected 20 metrics, got %d", n)
	}
}
