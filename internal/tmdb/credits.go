// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/tomtom215/showfeed/internal/logging"
	"github.com/tomtom215/showfeed/internal/models"
)

// CreditsFetcher resolves show credits through the proxy, falling back to
// the direct API.
type CreditsFetcher struct {
	proxy  *Proxy
	direct *Client

	// logs the tv_credits -> tv_details switch once per session
	detailsOnce sync.Once
}

// NewCreditsFetcher creates a fetcher. proxy is nil when the session runs
// direct; direct may be nil or keyless.
func NewCreditsFetcher(proxy *Proxy, direct *Client) *CreditsFetcher {
	return &CreditsFetcher{proxy: proxy, direct: direct}
}

// Fetch returns the credits for id, or nil when every route failed.
func (f *CreditsFetcher) Fetch(ctx context.Context, id int) *models.Credits {
	if id == 0 {
		return nil
	}
	proxyAvailable := f.proxy.Available()
	needsDetails := proxyAvailable && !f.proxy.Supports(EndpointTVCredits) && f.proxy.Supports(EndpointTVDetails)

	if proxyAvailable && f.proxy.Supports(EndpointTVCredits) {
		credits, err := f.fromCreditsEndpoint(ctx, id)
		switch {
		case err == nil && credits != nil:
			return credits
		case err == nil:
		case IsParameterError(err):
			needsDetails = f.proxy.Supports(EndpointTVDetails)
			f.detailsOnce.Do(func() {
				logging.Ctx(ctx).Info().Str("summary", SummarizeError(err)).Msg("TMDB proxy credits endpoint unavailable, attempting tv_details fallback")
			})
		default:
			return f.abandonProxy(ctx, id, "credits", err)
		}
	}

	if proxyAvailable && needsDetails && f.proxy.Supports(EndpointTVDetails) {
		credits, err := f.fromDetailsEndpoint(ctx, id)
		switch {
		case err == nil && credits != nil:
			return credits
		case err == nil, IsParameterError(err):
		default:
			return f.abandonProxy(ctx, id, "details", err)
		}
	}

	return f.fromDirect(ctx, id)
}

func (f *CreditsFetcher) abandonProxy(ctx context.Context, id int, route string, err error) *models.Credits {
	if ctx.Err() != nil {
		return nil
	}
	logging.Ctx(ctx).Warn().Err(err).Str("route", route).Int("show_id", id).Str("summary", SummarizeError(err)).Msg("TMDB proxy credits request failed, attempting direct fallback")
	f.proxy.State().Disable("credits_failure")
	return f.fromDirect(ctx, id)
}

// idVariants are the parameter spellings proxies accept for a show id.
func idVariants(id int, base url.Values) []url.Values {
	value := strconv.Itoa(id)
	out := make([]url.Values, 0, 3)
	for _, key := range []string{"tv_id", "id", "tvId"} {
		params := url.Values{}
		for k, v := range base {
			params[k] = append([]string(nil), v...)
		}
		params.Set(key, value)
		out = append(out, params)
	}
	return out
}

func (f *CreditsFetcher) fromCreditsEndpoint(ctx context.Context, id int) (*models.Credits, error) {
	var lastParamErr error
	for _, params := range idVariants(id, nil) {
		raw, err := f.proxy.Call(ctx, EndpointTVCredits, params)
		if err == nil {
			credits, decodeErr := DecodeCredits(raw)
			if decodeErr != nil {
				return nil, nil
			}
			return credits, nil
		}
		var pe *ProxyError
		if !errors.As(err, &pe) || !pe.IsParameterError() {
			return nil, err
		}
		if pe.Code == CodeUnsupportedEndpoint {
			f.proxy.State().MarkUnsupported(EndpointTVCredits)
			return nil, err
		}
		lastParamErr = err
	}
	f.proxy.State().MarkUnsupported(EndpointTVCredits)
	return nil, lastParamErr
}

func (f *CreditsFetcher) fromDetailsEndpoint(ctx context.Context, id int) (*models.Credits, error) {
	var lastParamErr error
	base := url.Values{"append_to_response": []string{"credits"}}
	for _, params := range idVariants(id, base) {
		raw, err := f.proxy.Call(ctx, EndpointTVDetails, params)
		if err == nil {
			return DecodeDetailsCredits(raw), nil
		}
		var pe *ProxyError
		if errors.As(err, &pe) && pe.Status == http.StatusBadRequest && !pe.IsParameterError() {
			f.proxy.State().MarkUnsupported(EndpointTVDetails)
			if pe.Code == "" {
				pe.Code = CodeUnsupportedEndpoint
			}
		}
		if !IsParameterError(err) {
			return nil, err
		}
		lastParamErr = err
	}
	f.proxy.State().MarkUnsupported(EndpointTVDetails)
	return nil, lastParamErr
}

func (f *CreditsFetcher) fromDirect(ctx context.Context, id int) *models.Credits {
	if !f.direct.HasKey() {
		return nil
	}
	credits, err := f.direct.TVCredits(ctx, id)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Int("show_id", id).Msg("Direct TMDB credits request failed")
		return nil
	}
	return credits
}
