// Package serp estimates how hard a keyword is to rank for organically,
// combining a live DataForSEO SERP snapshot with Moz domain authority of
// the current top results.
package serp

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/ignite/ads-console/internal/dataforseo"
	"github.com/ignite/ads-console/internal/moz"
)

// SERPSource provides live SERP snapshots.
type SERPSource interface {
	LiveSERP(ctx context.Context, keyword string) (*dataforseo.SERPSnapshot, error)
	Configured() bool
}

// AuthoritySource provides domain authority for competitor URLs.
type AuthoritySource interface {
	URLMetrics(ctx context.Context, targets []string) ([]moz.URLMetrics, error)
	Configured() bool
}

// Analyzer scores keyword difficulty 0-100.
type Analyzer struct {
	serp      SERPSource
	authority AuthoritySource
	logger    *log.Logger
}

func NewAnalyzer(serp SERPSource, authority AuthoritySource) *Analyzer {
	return &Analyzer{
		serp:      serp,
		authority: authority,
		logger:    log.New(log.Writer(), "[serp] ", log.LstdFlags),
	}
}

// Analysis is the difficulty verdict with its component breakdown.
// Components are each 0-100 before weighting.
type Analysis struct {
	Keyword        string   `json:"keyword"`
	Difficulty     int      `json:"difficulty"` // 0-100
	AuthorityScore float64  `json:"authority_component"`
	AdDensityScore float64  `json:"ad_density_component"`
	FeatureScore   float64  `json:"feature_component"`
	AvgDomainAuth  float64  `json:"avg_domain_authority"`
	AdsTop         int      `json:"ads_top"`
	AdsBottom      int      `json:"ads_bottom"`
	Features       []string `json:"features"`
	TopDomains     []string `json:"top_domains"`
	AuthorityKnown bool     `json:"authority_known"`
}

// Component weights: who already ranks matters most, then how much of
// the page ads and features push organic results down.
const (
	weightAuthority = 0.50
	weightFeatures  = 0.30
	weightAds       = 0.20
)

// featureWeights scores SERP features by how much organic space they
// consume. Unknown features count a little.
var featureWeights = map[string]float64{
	"featured_snippet": 30,
	"knowledge_graph":  20,
	"local_pack":       25,
	"people_also_ask":  15,
	"shopping":         20,
	"video":            10,
	"images":           10,
	"top_stories":      10,
	"related_searches": 5,
	"paid":             0, // counted via ad density instead
	"organic":          0,
}

// Analyze fetches a live SERP for the keyword and scores it. When Moz is
// not configured (or returns nothing) the authority component falls back
// to neutral and AuthorityKnown is false.
func (a *Analyzer) Analyze(ctx context.Context, keyword string) (*Analysis, error) {
	if !a.serp.Configured() {
		return nil, fmt.Errorf("serp: DataForSEO credentials not configured")
	}
	snap, err := a.serp.LiveSERP(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("serp snapshot: %w", err)
	}

	var domains []string
	seen := map[string]bool{}
	for _, r := range snap.Organic {
		if len(domains) >= 10 {
			break
		}
		if r.Domain == "" || seen[r.Domain] {
			continue
		}
		seen[r.Domain] = true
		domains = append(domains, r.Domain)
	}

	avgDA, known := a.averageAuthority(ctx, domains)
	res := Score(snap, avgDA, known)
	res.TopDomains = domains
	return res, nil
}

func (a *Analyzer) averageAuthority(ctx context.Context, domains []string) (float64, bool) {
	if a.authority == nil || !a.authority.Configured() || len(domains) == 0 {
		return 0, false
	}
	rows, err := a.authority.URLMetrics(ctx, domains)
	if err != nil {
		a.logger.Printf("moz lookup failed, using neutral authority: %v", err)
		return 0, false
	}
	if len(rows) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range rows {
		sum += r.DomainAuthority
	}
	return sum / float64(len(rows)), true
}

// Score turns a snapshot plus competitor authority into the 0-100
// difficulty. Exported for direct use when a snapshot is already held.
func Score(snap *dataforseo.SERPSnapshot, avgDA float64, daKnown bool) *Analysis {
	adCount := snap.AdsTopCount + snap.AdsBottomCount
	adDensity := math.Min(float64(adCount)/7.0, 1) * 100

	var featureScore float64
	for _, f := range snap.Features {
		w, ok := featureWeights[f]
		if !ok {
			w = 5
		}
		featureScore += w
	}
	featureScore = math.Min(featureScore, 100)

	authorityScore := 50.0 // neutral when unknown
	if daKnown {
		authorityScore = math.Min(math.Max(avgDA, 0), 100)
	}

	difficulty := weightAuthority*authorityScore + weightFeatures*featureScore + weightAds*adDensity
	return &Analysis{
		Keyword:        snap.Keyword,
		Difficulty:     int(math.Round(math.Min(math.Max(difficulty, 0), 100))),
		AuthorityScore: authorityScore,
		AdDensityScore: adDensity,
		FeatureScore:   featureScore,
		AvgDomainAuth:  avgDA,
		AdsTop:         snap.AdsTopCount,
		AdsBottom:      snap.AdsBottomCount,
		Features:       snap.Features,
		AuthorityKnown: daKnown,
	}
}
