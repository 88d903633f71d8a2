// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package tmdb

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/showfeed/internal/models"
)

// Page is one discover page. TotalPages is nil when TMDB did not report a
// positive total.
type Page struct {
	Results    []*models.ContentItem
	TotalPages *int
}

type rawPage struct {
	Results      []json.RawMessage `json:"results"`
	TotalPages   any               `json:"total_pages"`
	TotalResults any               `json:"total_results"`
}

// DecodePage decodes a discover response. A malformed payload is an empty
// page with an unknown total.
func DecodePage(raw []byte) Page {
	var rp rawPage
	if err := json.Unmarshal(raw, &rp); err != nil {
		return Page{}
	}
	page := Page{Results: make([]*models.ContentItem, 0, len(rp.Results))}
	now := time.Now()
	for _, r := range rp.Results {
		if item, ok := models.DecodeCatalogItem(r, now); ok {
			page.Results = append(page.Results, item)
		}
	}
	if total, ok := rp.TotalPages.(float64); ok && !math.IsNaN(total) && !math.IsInf(total, 0) && total > 0 {
		page.TotalPages = models.Int(int(total))
	}
	return page
}

// DecodeGenreList decodes a {genres:[...]} response.
func DecodeGenreList(raw []byte) models.GenreMap {
	var payload struct {
		Genres json.RawMessage `json:"genres"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Genres) == 0 {
		return models.GenreMap{}
	}
	return models.DecodeGenreMap(payload.Genres)
}

// DecodeCredits decodes a {cast, crew} response.
func DecodeCredits(raw []byte) (*models.Credits, error) {
	var credits models.Credits
	if err := json.Unmarshal(raw, &credits); err != nil {
		return nil, fmt.Errorf("decode credits: %w", err)
	}
	return &credits, nil
}

// DecodeDetailsCredits extracts the appended credits from a details
// response. It returns nil when the response carries none.
func DecodeDetailsCredits(raw []byte) *models.Credits {
	var details struct {
		Credits *models.Credits `json:"credits"`
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil
	}
	return details.Credits
}
