// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/showfeed/internal/config"
	"github.com/tomtom215/showfeed/internal/models"
)

// Score weights and constants.
const (
	WeightAverage    = 0.3
	WeightVolume     = 0.5
	WeightRecency    = 0.2
	NeutralPrior     = 0.6
	ConfidenceVotes  = 150.0
	UnknownRecency   = 0.5
	RecencyWindow    = 365 * 24 * time.Hour
	DefaultMinResult = 12
)

// Tier is one quality threshold.
type Tier struct {
	MinAverage float64
	MinVotes   int
}

// Admits reports whether item meets the tier. Missing values count as zero.
func (t Tier) Admits(item *models.ContentItem) bool {
	avg, votes := 0.0, 0
	if item.VoteAverage != nil {
		avg = *item.VoteAverage
	}
	if item.VoteCount != nil {
		votes = *item.VoteCount
	}
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return false
	}
	return avg >= t.MinAverage && votes >= t.MinVotes
}

// Policy is the ordered tier table.
type Policy struct {
	Tiers      []Tier
	MinResults int
}

// DefaultPolicy returns the policy for the default configuration.
func DefaultPolicy() Policy {
	return PolicyFromConfig(config.RankingConfig{
		MinVoteAverage:     7,
		MinVoteCount:       50,
		FloorVoteAverage:   6,
		FloorVoteCount:     10,
		MinPriorityResults: DefaultMinResult,
	})
}

// PolicyFromConfig builds strict, relaxed and floor tiers from cfg.
func PolicyFromConfig(cfg config.RankingConfig) Policy {
	minResults := cfg.MinPriorityResults
	if minResults <= 0 {
		minResults = DefaultMinResult
	}
	return Policy{
		Tiers: []Tier{
			{MinAverage: cfg.MinVoteAverage, MinVotes: cfg.MinVoteCount},
			{MinAverage: math.Max(6.5, cfg.MinVoteAverage-0.5), MinVotes: max(25, cfg.MinVoteCount/2)},
			{MinAverage: cfg.FloorVoteAverage, MinVotes: cfg.FloorVoteCount},
		},
		MinResults: minResults,
	}
}

// Ranker scores and orders candidates.
type Ranker struct {
	policy Policy
	now    func() time.Time
}

// New creates a ranker. A nil now uses time.Now.
func New(policy Policy, now func() time.Time) *Ranker {
	if now == nil {
		now = time.Now
	}
	return &Ranker{policy: policy, now: now}
}

// Policy returns the ranker's tier table.
func (r *Ranker) Policy() Policy {
	return r.policy
}

// Scored is a candidate with its score components.
type Scored struct {
	Item       *models.ContentItem
	Priority   float64
	Adjusted   float64
	VoteVolume float64
	Recency    float64
}

// Select narrows items to the ranking pool.
func (r *Ranker) Select(items []*models.ContentItem) []*models.ContentItem {
	if len(items) == 0 {
		return nil
	}

	var fallback []*models.ContentItem
	for _, tier := range r.policy.Tiers {
		var admitted []*models.ContentItem
		for _, item := range items {
			if item != nil && tier.Admits(item) {
				admitted = append(admitted, item)
			}
		}
		if len(admitted) >= r.policy.MinResults {
			return admitted
		}
		if len(admitted) > 0 && fallback == nil {
			fallback = admitted
		}
	}
	if fallback != nil {
		return fallback
	}

	var finite []*models.ContentItem
	for _, item := range items {
		if item == nil || item.VoteAverage == nil || item.VoteCount == nil {
			continue
		}
		if math.IsNaN(*item.VoteAverage) || math.IsInf(*item.VoteAverage, 0) {
			continue
		}
		finite = append(finite, item)
	}
	return finite
}

// Score ranks items and returns them with their scores, highest first.
func (r *Ranker) Score(items []*models.ContentItem) []Scored {
	pool := r.Select(items)
	if len(pool) == 0 {
		return []Scored{}
	}

	maxVotes := 1
	for _, item := range pool {
		maxVotes = max(maxVotes, votesOf(item))
	}
	now := r.now()
	denominator := math.Log10(float64(maxVotes) + 1)

	scored := make([]Scored, len(pool))
	for i, item := range pool {
		votes := float64(votesOf(item))
		avg := 0.0
		if item.VoteAverage != nil {
			avg = *item.VoteAverage
		}
		raw := math.Max(0, math.Min(10, avg)) / 10
		volume := math.Log10(votes+1) / denominator
		confidence := math.Min(1, votes/ConfidenceVotes)
		adjusted := raw*confidence + NeutralPrior*(1-confidence)
		recency := Recency(item, now)

		scored[i] = Scored{
			Item:       item,
			Adjusted:   adjusted,
			VoteVolume: volume,
			Recency:    recency,
			Priority:   WeightAverage*adjusted + WeightVolume*math.Sqrt(math.Max(0, volume)) + WeightRecency*recency,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Priority > scored[j].Priority
	})
	return scored
}

// Rank returns the ranking pool ordered by descending priority.
func (r *Ranker) Rank(items []*models.ContentItem) []*models.ContentItem {
	scored := r.Score(items)
	out := make([]*models.ContentItem, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}

// Recency scores how recent an item's date is relative to now.
func Recency(item *models.ContentItem, now time.Time) float64 {
	date := item.DateString()
	if date == "" {
		return UnknownRecency
	}
	released, err := time.Parse("2006-01-02", date)
	if err != nil {
		if released, err = time.Parse(time.RFC3339, date); err != nil {
			return UnknownRecency
		}
	}
	diff := now.Sub(released)
	switch {
	case diff <= 0:
		return 1
	case diff >= RecencyWindow:
		return 0
	default:
		return 1 - float64(diff)/float64(RecencyWindow)
	}
}

func votesOf(item *models.ContentItem) int {
	if item.VoteCount == nil {
		return 0
	}
	return max(0, *item.VoteCount)
}
