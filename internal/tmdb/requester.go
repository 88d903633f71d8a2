// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/logging"
)

// UpstreamError is a failed Requester call with the HTTP status to report.
type UpstreamError struct {
	Status int
	Code   string
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Code, e.Status)
}

// ResolveUpstream returns the proxy the server forwards to: the explicit
// upstream, else a proxy endpoint that is an absolute non-loopback URL.
func ResolveUpstream(cfg config.TMDBConfig) string {
	if u := strings.TrimSpace(cfg.ProxyUpstream); u != "" {
		return u
	}
	endpoint := strings.TrimSpace(cfg.ProxyEndpoint)
	lowered := strings.ToLower(endpoint)
	if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
		return ""
	}
	for _, loopback := range []string{"localhost", "127.0.0.1", "::1"} {
		if strings.Contains(lowered, loopback) {
			return ""
		}
	}
	return endpoint
}

// Requester fetches allow-listed endpoint data for server-side handlers:
// directly with the server key first, then through the upstream proxy.
type Requester struct {
	direct   *Client
	upstream *HTTPBackend
}

// NewRequester creates a requester. An empty upstream disables forwarding.
func NewRequester(direct *Client, upstream *HTTPBackend) *Requester {
	return &Requester{direct: direct, upstream: upstream}
}

// NewRequesterFromConfig wires the direct client and resolved upstream.
func NewRequesterFromConfig(cfg config.TMDBConfig, direct *Client) *Requester {
	var upstream *HTTPBackend
	if u := ResolveUpstream(cfg); u != "" {
		upstream = NewHTTPBackend(u, cfg.Timeout)
	}
	return NewRequester(direct, upstream)
}

// Direct returns the direct client.
func (r *Requester) Direct() *Client {
	return r.direct
}

// Request returns the JSON body for endpoint.
func (r *Requester) Request(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	if r.direct.HasKey() {
		body, err := r.direct.Endpoint(ctx, endpoint, query)
		if err == nil {
			return body, nil
		}
		logging.Ctx(ctx).Warn().Err(err).Str("endpoint", endpoint).Msg("Direct TMDB request failed")
	}

	if r.upstream == nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Code: CodeUpstreamUnavailable}
	}
	forwarded, err := r.upstream.Fetch(ctx, endpoint, query)
	if err != nil {
		return nil, fmt.Errorf("forward %s: %w", endpoint, err)
	}
	if forwarded.Status >= 400 {
		return nil, &UpstreamError{Status: forwarded.Status, Code: CodeForwardFailed, Body: string(forwarded.Body)}
	}
	if len(bytes.TrimSpace(forwarded.Body)) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(forwarded.Body) {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Code: CodeInvalidProxyResponse}
	}
	return forwarded.Body, nil
}

// LocalProxy serves the /tmdbProxy endpoint in process. It also implements
// Backend so sessions can use it without an HTTP hop.
type LocalProxy struct {
	requester *Requester
}

// NewLocalProxy creates a proxy over requester.
func NewLocalProxy(requester *Requester) *LocalProxy {
	return &LocalProxy{requester: requester}
}

// Fetch answers one proxy request. Failures are encoded as error responses;
// the returned error is always nil.
func (p *LocalProxy) Fetch(ctx context.Context, endpoint string, params url.Values) (Response, error) {
	var directErr error
	if p.requester.direct.HasKey() {
		body, err := p.requester.direct.Endpoint(ctx, endpoint, params)
		if err == nil {
			return Response{Status: http.StatusOK, ContentType: "application/json", Body: body}, nil
		}
		directErr = err
		logging.Ctx(ctx).Warn().Err(err).Str("endpoint", endpoint).Msg("Direct TMDB request failed, attempting upstream proxy")
	}

	if p.requester.upstream == nil {
		var epErr *EndpointError
		if errors.As(directErr, &epErr) {
			return errorResponse(epErr.Status(), epErr.Code, epErr.Error()), nil
		}
		if directErr == nil {
			if _, _, err := ResolveEndpoint(endpoint, params); errors.As(err, &epErr) {
				return errorResponse(epErr.Status(), epErr.Code, epErr.Error()), nil
			}
			return errorResponse(http.StatusBadGateway, CodeKeyNotConfigured, "TMDB API key is not configured and no upstream proxy is set"), nil
		}
		status := http.StatusBadGateway
		var se *StatusError
		if errors.As(directErr, &se) && se.Status >= 400 {
			status = se.Status
		}
		return errorResponse(status, CodeProxyFailed, directErr.Error()), nil
	}

	forwarded, err := p.requester.upstream.Fetch(ctx, endpoint, params)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("endpoint", endpoint).Msg("TMDB proxy request failed")
		return errorResponse(http.StatusBadGateway, CodeProxyFailed, err.Error()), nil
	}
	if forwarded.ContentType == "" {
		forwarded.ContentType = "application/json"
	}
	return forwarded, nil
}

func errorResponse(status int, code, message string) Response {
	body, _ := json.Marshal(map[string]string{"error": code, "message": message})
	return Response{Status: status, ContentType: "application/json", Body: body}
}
