// Package scoring implements the closed-form estimators used by the
// dashboard: a Google-Ads-style quality score and spend ROI figures.
// Everything here is pure arithmetic over already-fetched metrics.
package scoring

import "math"

// QualityInput carries the signals the estimator weighs. CTRs are
// fractions (0.05 = 5%). LandingScore is the 0-100 output of the
// landing page analyzer; pass a negative value when no page was
// analyzed and the component falls back to neutral.
type QualityInput struct {
	CTR              float64
	AccountMedianCTR float64
	AdRelevance      float64 // 0..1 proxy: keyword coverage in ad text
	LandingScore     float64 // 0..100, negative = unknown
}

// QualityScore is the 1-10 estimate with its component breakdown,
// each component on the same 1-10 scale before weighting.
type QualityScore struct {
	Score       float64 `json:"score"`
	ExpectedCTR float64 `json:"expected_ctr_component"`
	AdRelevance float64 `json:"ad_relevance_component"`
	LandingPage float64 `json:"landing_page_component"`
}

// Component weights. Expected CTR dominates, matching how Google
// describes its own rating.
const (
	weightCTR       = 0.45
	weightRelevance = 0.30
	weightLanding   = 0.25
)

// EstimateQuality returns a 1-10 quality score. The CTR component
// compares the entity's CTR against the account median: matching the
// median scores 5, double the median scores 10, half scores 2.5.
// With no usable median (new accounts) the component is neutral.
func EstimateQuality(in QualityInput) QualityScore {
	ctrComponent := 5.0
	if in.AccountMedianCTR > 0 && in.CTR >= 0 {
		ctrComponent = clamp(in.CTR/in.AccountMedianCTR*5.0, 1, 10)
	}

	relevance := clamp(in.AdRelevance*10.0, 1, 10)

	landing := 5.0
	if in.LandingScore >= 0 {
		landing = clamp(in.LandingScore/10.0, 1, 10)
	}

	score := weightCTR*ctrComponent + weightRelevance*relevance + weightLanding*landing
	return QualityScore{
		Score:       round1(clamp(score, 1, 10)),
		ExpectedCTR: round1(ctrComponent),
		AdRelevance: round1(relevance),
		LandingPage: round1(landing),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
