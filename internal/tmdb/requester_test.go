// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/showfeed/internal/config"
)

func TestResolveUpstream(t *testing.T) {
	tests := []struct {
		cfg      config.TMDBConfig
		expected string
	}{
		{config.TMDBConfig{ProxyUpstream: "https://up/tmdbProxy", ProxyEndpoint: "https://other"}, "https://up/tmdbProxy"},
		{config.TMDBConfig{ProxyEndpoint: "https://remote.example/tmdbProxy"}, "https://remote.example/tmdbProxy"},
		{config.TMDBConfig{ProxyEndpoint: "http://localhost:8080/tmdbProxy"}, ""},
		{config.TMDBConfig{ProxyEndpoint: "http://127.0.0.1/tmdbProxy"}, ""},
		{config.TMDBConfig{ProxyEndpoint: "/tmdbProxy"}, ""},
		{config.TMDBConfig{}, ""},
	}
	for _, tt := range tests {
		if got := ResolveUpstream(tt.cfg); got != tt.expected {
			t.Errorf("ResolveUpstream(%+v) = %q, expected %q", tt.cfg, got, tt.expected)
		}
	}
}

func upstreamServer(t *testing.T, status int, body string) *HTTPBackend {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("endpoint") == "" {
			t.Error("Expected endpoint param on forwarded request")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewHTTPBackend(srv.URL, time.Second)
}

func TestRequesterForwarding(t *testing.T) {
	keyless := NewClient(config.TMDBConfig{})

	tests := []struct {
		name     string
		upstream *HTTPBackend
		code     string
		status   int
		body     string
	}{
		{name: "no upstream", code: CodeUpstreamUnavailable, status: 502},
		{name: "upstream error", upstream: upstreamServer(t, 404, `{"error":"x"}`), code: CodeForwardFailed, status: 404},
		{name: "non json", upstream: upstreamServer(t, 200, `<html>`), code: CodeInvalidProxyResponse, status: 502},
		{name: "empty body", upstream: upstreamServer(t, 200, ``), body: `{}`},
		{name: "ok", upstream: upstreamServer(t, 200, `{"genres":[]}`), body: `{"genres":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRequester(keyless, tt.upstream)
			body, err := r.Request(context.Background(), EndpointTVGenres, url.Values{})
			if tt.code != "" {
				var ue *UpstreamError
				if !errors.As(err, &ue) || ue.Code != tt.code || ue.Status != tt.status {
					t.Fatalf("Expected %s/%d, got %v", tt.code, tt.status, err)
				}
				return
			}
			if err != nil || string(body) != tt.body {
				t.Errorf("Expected %s, got %s, %v", tt.body, body, err)
			}
		})
	}
}

func TestRequesterPrefersDirect(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"source":"direct"}`))
	}))
	defer direct.Close()

	r := NewRequester(NewClient(config.TMDBConfig{APIKey: "k", BaseURL: direct.URL}), upstreamServer(t, 200, `{"source":"upstream"}`))
	body, err := r.Request(context.Background(), EndpointTVGenres, nil)
	if err != nil || !strings.Contains(string(body), "direct") {
		t.Errorf("Expected direct body, got %s, %v", body, err)
	}

	// Unknown endpoints fail direct resolution and are forwarded.
	body, err = r.Request(context.Background(), "watch_providers", nil)
	if err != nil || !strings.Contains(string(body), "upstream") {
		t.Errorf("Expected upstream body, got %s, %v", body, err)
	}
}

func TestLocalProxyResponses(t *testing.T) {
	keyless := NewClient(config.TMDBConfig{})

	p := NewLocalProxy(NewRequester(keyless, nil))
	resp, err := p.Fetch(context.Background(), EndpointTVGenres, nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if resp.Status != 502 || !strings.Contains(string(resp.Body), CodeKeyNotConfigured) {
		t.Errorf("Expected 502 key_not_configured, got %d %s", resp.Status, resp.Body)
	}

	resp, _ = p.Fetch(context.Background(), "nope", nil)
	if resp.Status != 400 || !strings.Contains(string(resp.Body), CodeUnsupportedEndpoint) {
		t.Errorf("Expected 400 unsupported_endpoint, got %d %s", resp.Status, resp.Body)
	}

	resp, _ = p.Fetch(context.Background(), EndpointTVCredits, url.Values{})
	if resp.Status != 400 || !strings.Contains(string(resp.Body), CodeInvalidEndpointParams) {
		t.Errorf("Expected 400 invalid_endpoint_params, got %d %s", resp.Status, resp.Body)
	}

	forwarding := NewLocalProxy(NewRequester(keyless, upstreamServer(t, 418, `teapot`)))
	resp, _ = forwarding.Fetch(context.Background(), EndpointTVGenres, nil)
	if resp.Status != 418 || string(resp.Body) != "teapot" {
		t.Errorf("Expected upstream response passed through, got %d %s", resp.Status, resp.Body)
	}
}

func TestLocalProxyAsSessionBackend(t *testing.T) {
	p := NewLocalProxy(NewRequester(NewClient(config.TMDBConfig{}), nil))
	proxy := NewProxy(p, nil)

	_, err := proxy.Call(context.Background(), EndpointDiscoverTV, nil)
	var pe *ProxyError
	if !errors.As(err, &pe) || pe.Code != CodeKeyNotConfigured {
		t.Fatalf("Expected key_not_configured proxy error, got %v", err)
	}
	if !proxy.State().Disabled() {
		t.Error("Expected session proxy disabled")
	}
}
