// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/filter"
	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/metrics"
	"github.com/tomtom215/showfeed/internal/models"
)

// ErrProxyUnavailable is returned when the session's proxy is disabled or
// not configured.
var ErrProxyUnavailable = errors.New("tmdb proxy unavailable")

// ErrEndpointUnsupported is returned for an endpoint the proxy rejected
// earlier in the session.
var ErrEndpointUnsupported = errors.New("tmdb proxy endpoint unsupported")

const summaryBodyLimit = 120

// ProxyError is a non-2xx proxy response.
type ProxyError struct {
	Endpoint string
	Status   int
	Code     string
	Message  string
	Body     string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("tmdb proxy request failed (status %d)", e.Status)
}

// Summary renders status, code and the start of the body.
func (e *ProxyError) Summary() string {
	if e == nil {
		return "unknown error"
	}
	var parts []string
	if e.Status != 0 {
		parts = append(parts, "status "+strconv.Itoa(e.Status))
	}
	if e.Code != "" {
		parts = append(parts, `code "`+e.Code+`"`)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		runes := []rune(body)
		if len(runes) > summaryBodyLimit {
			body = string(runes[:summaryBodyLimit]) + "…"
		}
		parts = append(parts, "body: "+body)
	}
	if len(parts) == 0 {
		return "unknown error"
	}
	return strings.Join(parts, ", ")
}

// IsParameterError reports an endpoint or parameter rejection.
func (e *ProxyError) IsParameterError() bool {
	return e.Code == CodeUnsupportedEndpoint || e.Code == CodeInvalidEndpointParams
}

// SummarizeError returns a ProxyError summary, or the error text.
func SummarizeError(err error) string {
	if err == nil {
		return "unknown error"
	}
	var pe *ProxyError
	if errors.As(err, &pe) {
		return pe.Summary()
	}
	return err.Error()
}

// IsParameterError reports whether err is a proxy parameter rejection.
func IsParameterError(err error) bool {
	var pe *ProxyError
	return errors.As(err, &pe) && pe.IsParameterError()
}

// ProxyState is a session's view of proxy health.
type ProxyState struct {
	mu          sync.RWMutex
	disabled    bool
	reason      string
	unsupported map[string]struct{}
}

// NewProxyState returns an enabled state.
func NewProxyState() *ProxyState {
	return &ProxyState{unsupported: map[string]struct{}{}}
}

// Disabled reports whether the proxy was disabled.
func (s *ProxyState) Disabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled
}

// Reason returns why the proxy was disabled.
func (s *ProxyState) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Disable turns the proxy off for the session. The first reason wins.
func (s *ProxyState) Disable(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return
	}
	s.disabled = true
	s.reason = reason
	metrics.ProxyDisabled.WithLabelValues(reason).Inc()
}

// Supported reports whether endpoint may still be called.
func (s *ProxyState) Supported(endpoint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disabled || endpoint == "" {
		return false
	}
	_, bad := s.unsupported[endpoint]
	return !bad
}

// MarkUnsupported stops calls to endpoint.
func (s *ProxyState) MarkUnsupported(endpoint string) {
	if endpoint == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsupported[endpoint] = struct{}{}
}

// Unsupported returns the endpoints marked unsupported.
func (s *ProxyState) Unsupported() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.unsupported))
	for name := range s.unsupported {
		out = append(out, name)
	}
	return out
}

// Response is a raw proxy reply.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Backend serves proxy requests.
type Backend interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (Response, error)
}

// HTTPBackend calls a remote proxy URL.
type HTTPBackend struct {
	endpoint string
	http     *http.Client
}

// NewHTTPBackend creates a backend for the proxy at endpoint.
func NewHTTPBackend(endpoint string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPBackend{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

// Fetch sends ?endpoint=<name> plus params, repeating multi-valued keys.
func (b *HTTPBackend) Fetch(ctx context.Context, endpoint string, params url.Values) (Response, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("parse proxy endpoint: %w", err)
	}
	q := u.Query()
	q.Set("endpoint", endpoint)
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("tmdb proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read tmdb proxy response: %w", err)
	}
	return Response{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// Proxy calls a proxy backend and updates the session's ProxyState.
type Proxy struct {
	backend Backend
	state   *ProxyState
}

// NewProxy binds backend to a session state. A nil backend is a proxy that
// is never available.
func NewProxy(backend Backend, state *ProxyState) *Proxy {
	if state == nil {
		state = NewProxyState()
	}
	return &Proxy{backend: backend, state: state}
}

// State returns the session state.
func (p *Proxy) State() *ProxyState {
	return p.state
}

// Available reports whether the proxy may be called.
func (p *Proxy) Available() bool {
	return p != nil && p.backend != nil && !p.state.Disabled()
}

// Supports reports whether endpoint may be called.
func (p *Proxy) Supports(endpoint string) bool {
	return p.Available() && p.state.Supported(endpoint)
}

// Call requests endpoint and returns the raw body.
func (p *Proxy) Call(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if !p.Available() {
		return nil, ErrProxyUnavailable
	}

	start := time.Now()
	resp, err := p.backend.Fetch(ctx, endpoint, params)
	if err != nil {
		metrics.RecordUpstream("tmdb_proxy", time.Since(start), err)
		if ctx.Err() == nil {
			p.state.Disable("network")
		}
		return nil, err
	}
	if resp.Status >= 200 && resp.Status < 300 {
		metrics.RecordUpstream("tmdb_proxy", time.Since(start), nil)
		return resp.Body, nil
	}

	perr := newProxyError(endpoint, resp)
	metrics.RecordUpstream("tmdb_proxy", time.Since(start), perr)
	if reason := p.classify(endpoint, perr); reason != "" {
		p.state.Disable(reason)
		logging.Ctx(ctx).Warn().Str("endpoint", endpoint).Str("reason", reason).Str("summary", perr.Summary()).Msg("Disabling TMDB proxy for session")
	}
	return nil, perr
}

func newProxyError(endpoint string, resp Response) *ProxyError {
	perr := &ProxyError{Endpoint: endpoint, Status: resp.Status, Body: string(resp.Body)}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if strings.TrimSpace(perr.Body) != "" && json.Unmarshal(resp.Body, &parsed) == nil {
		perr.Code = parsed.Error
		perr.Message = parsed.Message
	}
	return perr
}

// classify returns a disable reason, or "" when the proxy stays enabled.
// A 400 unsupported_endpoint marks only that endpoint.
func (p *Proxy) classify(endpoint string, perr *ProxyError) string {
	switch {
	case perr.Status >= 500:
		return "server_error"
	case perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden:
		return "unauthorized"
	case strings.Contains(perr.Body, CodeKeyNotConfigured):
		return "key_not_configured"
	}
	if perr.Status == http.StatusBadRequest && perr.Code == CodeUnsupportedEndpoint {
		p.state.MarkUnsupported(endpoint)
	}
	return ""
}

// DiscoverTV fetches a discover page through the proxy.
func (p *Proxy) DiscoverTV(ctx context.Context, page int, genres filter.Query) (Page, error) {
	if genres.BlockAll {
		return Page{}, nil
	}
	raw, err := p.Call(ctx, EndpointDiscoverTV, DiscoverParams(page, genres))
	if err != nil {
		return Page{}, err
	}
	return DecodePage(raw), nil
}

// TVGenres fetches the genre list through the proxy. Failures yield an
// empty map.
func (p *Proxy) TVGenres(ctx context.Context) models.GenreMap {
	raw, err := p.Call(ctx, EndpointTVGenres, nil)
	if err != nil {
		return models.GenreMap{}
	}
	return DecodeGenreList(raw)
}
