// Package keywords turns seed terms or a landing URL into scored,
// bucketed keyword suggestions using the Google Ads keyword plan idea
// service, optionally enriched with live SERP difficulty.
package keywords

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/serp"
)

// IdeaSource is the slice of the Google Ads client the factory uses.
type IdeaSource interface {
	GenerateKeywordIdeas(ctx context.Context, customerID string, seeds []string, seedURL string, limit int) ([]googleads.KeywordIdea, error)
}

// DifficultySource is the slice of the SERP analyzer the factory uses.
type DifficultySource interface {
	Analyze(ctx context.Context, keyword string) (*serp.Analysis, error)
}

// Factory generates and scores keyword ideas.
type Factory struct {
	ads    IdeaSource
	serp   DifficultySource // nil disables SERP enrichment
	logger *log.Logger
}

func NewFactory(ads IdeaSource, serp DifficultySource) *Factory {
	return &Factory{
		ads:    ads,
		serp:   serp,
		logger: log.New(log.Writer(), "[keywords] ", log.LstdFlags),
	}
}

// Request is one factory run. Seeds and SeedURL follow the idea
// service's rules: at least one must be set.
type Request struct {
	CustomerID     string   `json:"customer_id"`
	Seeds          []string `json:"seeds"`
	SeedURL        string   `json:"seed_url"`
	Limit          int      `json:"limit"`
	IncludeSERP    bool     `json:"include_serp"`
	MaxSERPLookups int      `json:"max_serp_lookups"`
}

// Buckets.
const (
	BucketQuickWin    = "quick_win"
	BucketGrowth      = "growth"
	BucketCompetitive = "competitive"
)

// ScoredKeyword is one idea with the factory's verdict attached.
// Difficulty is nil when SERP enrichment was off or failed for it.
type ScoredKeyword struct {
	Text                   string  `json:"text"`
	AvgMonthlySearches     int64   `json:"avg_monthly_searches"`
	Competition            string  `json:"competition"`
	CompetitionIndex       int64   `json:"competition_index"`
	LowTopOfPageBidMicros  int64   `json:"low_top_of_page_bid_micros"`
	HighTopOfPageBidMicros int64   `json:"high_top_of_page_bid_micros"`
	OpportunityScore       float64 `json:"opportunity_score"` // 0-100
	Bucket                 string  `json:"bucket"`
	SERPDifficulty         *int    `json:"serp_difficulty,omitempty"`
}

// Result is a full factory run, keywords sorted by opportunity.
type Result struct {
	Keywords []ScoredKeyword `json:"keywords"`
	Buckets  map[string]int  `json:"buckets"`
}

// Run generates ideas, scores them, optionally enriches the top ideas
// with SERP difficulty, and buckets everything.
func (f *Factory) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Seeds) == 0 && req.SeedURL == "" {
		return nil, fmt.Errorf("keywords: need seed keywords or a seed URL")
	}

	ideas, err := f.ads.GenerateKeywordIdeas(ctx, req.CustomerID, req.Seeds, req.SeedURL, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}

	scored := make([]ScoredKeyword, 0, len(ideas))
	for _, idea := range ideas {
		kw := ScoredKeyword{
			Text:                   idea.Text,
			AvgMonthlySearches:     idea.AvgMonthlySearches,
			Competition:            idea.Competition,
			CompetitionIndex:       idea.CompetitionIndex,
			LowTopOfPageBidMicros:  idea.LowTopOfPageBidMicros,
			HighTopOfPageBidMicros: idea.HighTopOfPageBidMicros,
		}
		kw.OpportunityScore = opportunity(idea.AvgMonthlySearches, idea.CompetitionIndex)
		scored = append(scored, kw)
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].OpportunityScore > scored[j].OpportunityScore
	})

	if req.IncludeSERP && f.serp != nil {
		f.enrich(ctx, scored, req.MaxSERPLookups)
	}

	res := &Result{Keywords: scored, Buckets: map[string]int{}}
	for i := range res.Keywords {
		res.Keywords[i].Bucket = bucket(&res.Keywords[i])
		res.Buckets[res.Keywords[i].Bucket]++
	}
	return res, nil
}

// enrich attaches SERP difficulty to the highest-opportunity ideas.
// Lookups are paid API calls, so the count is capped. A failed lookup
// leaves Difficulty nil rather than failing the run.
func (f *Factory) enrich(ctx context.Context, scored []ScoredKeyword, max int) {
	if max <= 0 || max > 20 {
		max = 5
	}
	for i := range scored {
		if i >= max {
			break
		}
		a, err := f.serp.Analyze(ctx, scored[i].Text)
		if err != nil {
			f.logger.Printf("serp lookup failed for %q: %v", scored[i].Text, err)
			continue
		}
		d := a.Difficulty
		scored[i].SERPDifficulty = &d
	}
}

// opportunity scores 0-100: high volume, low competition. Volume
// saturates at 100k monthly searches on a log scale.
func opportunity(searches, competitionIndex int64) float64 {
	var volume float64
	if searches > 0 {
		volume = math.Min(math.Log10(float64(searches))/5.0, 1)
	}
	comp := 1 - math.Min(float64(competitionIndex), 100)/100
	return math.Round((0.6*volume+0.4*comp)*1000) / 10
}

// bucket classifies by effort (SERP difficulty when known, otherwise
// Google's competition index) and search volume.
func bucket(kw *ScoredKeyword) string {
	effort := float64(kw.CompetitionIndex)
	if kw.SERPDifficulty != nil {
		effort = float64(*kw.SERPDifficulty)
	}
	switch {
	case effort < 35 && kw.AvgMonthlySearches >= 100:
		return BucketQuickWin
	case effort >= 65:
		return BucketCompetitive
	default:
		return BucketGrowth
	}
}
