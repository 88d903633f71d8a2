// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Proxy error codes.
const (
	CodeUnsupportedEndpoint   = "unsupported_endpoint"
	CodeInvalidEndpointParams = "invalid_endpoint_params"
	CodeKeyNotConfigured      = "tmdb_key_not_configured"
	CodeProxyFailed           = "tmdb_proxy_failed"
	CodeUpstreamUnavailable   = "tmdb_proxy_upstream_unavailable"
	CodeForwardFailed         = "tmdb_proxy_forward_failed"
	CodeInvalidProxyResponse  = "invalid_tmdb_proxy_response"
)

// Endpoint names used by the feed.
const (
	EndpointDiscoverTV = "discover_tv"
	EndpointTVGenres   = "tv_genres"
	EndpointTVCredits  = "tv_credits"
	EndpointTVDetails  = "tv_details"
	EndpointCredits    = "credits"
)

// endpoint is one allow-listed proxy endpoint. Templated endpoints take the
// id from the first present IDParams entry and drop all of them from the
// forwarded query.
type endpoint struct {
	path     string
	template string
	idParams []string
}

var endpoints = map[string]endpoint{
	"discover":        {path: "/3/discover/movie"},
	"discover_tv":     {path: "/3/discover/tv"},
	"genres":          {path: "/3/genre/movie/list"},
	"tv_genres":       {path: "/3/genre/tv/list"},
	"credits":         {template: "/3/movie/%s/credits", idParams: []string{"movie_id", "id", "movieId"}},
	"tv_credits":      {template: "/3/tv/%s/credits", idParams: []string{"tv_id", "id"}},
	"movie_details":   {template: "/3/movie/%s", idParams: []string{"movie_id", "id", "movieId"}},
	"tv_details":      {template: "/3/tv/%s", idParams: []string{"tv_id", "id"}},
	"person_details":  {template: "/3/person/%s", idParams: []string{"person_id", "id"}},
	"search_multi":    {path: "/3/search/multi"},
	"search_movie":    {path: "/3/search/movie"},
	"search_tv":       {path: "/3/search/tv"},
	"trending_all":    {path: "/3/trending/all/day"},
	"trending_movies": {path: "/3/trending/movie/day"},
	"trending_tv":     {path: "/3/trending/tv/day"},
	"popular_movies":  {path: "/3/movie/popular"},
	"popular_tv":      {path: "/3/tv/popular"},
	"upcoming_movies": {path: "/3/movie/upcoming"},
}

// EndpointNames returns the allow-listed endpoint names, sorted.
func EndpointNames() []string {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EndpointError is a request the allow-list rejects.
type EndpointError struct {
	Endpoint string
	Code     string
}

func (e *EndpointError) Error() string {
	return e.Code + ": " + e.Endpoint
}

// Status is the HTTP status reported for the error.
func (e *EndpointError) Status() int {
	return http.StatusBadRequest
}

// ResolveEndpoint maps an endpoint name and query to a TMDB path and the
// query to forward.
func ResolveEndpoint(name string, query url.Values) (string, url.Values, error) {
	ep, ok := endpoints[name]
	if !ok {
		return "", nil, &EndpointError{Endpoint: name, Code: CodeUnsupportedEndpoint}
	}

	forward := url.Values{}
	for key, values := range query {
		forward[key] = append([]string(nil), values...)
	}
	if ep.template == "" {
		return ep.path, forward, nil
	}

	var id string
	for _, param := range ep.idParams {
		if values, ok := query[param]; ok && len(values) > 0 {
			id = strings.TrimSpace(values[0])
			break
		}
	}
	for _, param := range ep.idParams {
		forward.Del(param)
	}
	if id == "" {
		return "", nil, &EndpointError{Endpoint: name, Code: CodeInvalidEndpointParams}
	}
	return strings.Replace(ep.template, "%s", url.PathEscape(id), 1), forward, nil
}
