package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateQuality_Range(t *testing.T) {
	cases := []struct {
		name string
		in   QualityInput
	}{
		{"all zero", QualityInput{}},
		{"strong performer", QualityInput{CTR: 0.12, AccountMedianCTR: 0.03, AdRelevance: 1, LandingScore: 95}},
		{"weak performer", QualityInput{CTR: 0.001, AccountMedianCTR: 0.05, AdRelevance: 0, LandingScore: 5}},
		{"no median", QualityInput{CTR: 0.05, AdRelevance: 0.5, LandingScore: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateQuality(tc.in)
			assert.GreaterOrEqual(t, got.Score, 1.0)
			assert.LessOrEqual(t, got.Score, 10.0)
		})
	}
}

func TestEstimateQuality_MedianCTRScoresFive(t *testing.T) {
	got := EstimateQuality(QualityInput{
		CTR:              0.04,
		AccountMedianCTR: 0.04,
		AdRelevance:      0.5,
		LandingScore:     50,
	})
	assert.Equal(t, 5.0, got.ExpectedCTR)
	assert.Equal(t, 5.0, got.AdRelevance)
	assert.Equal(t, 5.0, got.LandingPage)
	assert.Equal(t, 5.0, got.Score)
}

func TestEstimateQuality_DoubleMedianCapsAtTen(t *testing.T) {
	got := EstimateQuality(QualityInput{CTR: 0.2, AccountMedianCTR: 0.04})
	assert.Equal(t, 10.0, got.ExpectedCTR)
}

func TestEstimateQuality_UnknownLandingIsNeutral(t *testing.T) {
	got := EstimateQuality(QualityInput{CTR: 0.04, AccountMedianCTR: 0.04, AdRelevance: 0.5, LandingScore: -1})
	assert.Equal(t, 5.0, got.LandingPage)
}

func TestCalculateROI(t *testing.T) {
	r := CalculateROI(ROIInput{
		CostMicros:            100_000_000, // $100
		ConversionValueMicros: 400_000_000, // $400
		Conversions:           8,
		MarginPct:             50,
	})
	assert.Equal(t, 4.0, r.ROAS)
	assert.Equal(t, 100.0, r.ROIPct) // $200 profit on $100 spend
	assert.Equal(t, int64(12_500_000), r.CPAMicros)
	assert.Equal(t, int64(25_000_000), r.BreakEvenCPAMicros)
	assert.Equal(t, int64(100_000_000), r.ProfitMicros)
}

func TestCalculateROI_ZeroMarginTreatsRevenueAsProfit(t *testing.T) {
	r := CalculateROI(ROIInput{CostMicros: 100, ConversionValueMicros: 300, Conversions: 1})
	assert.Equal(t, 3.0, r.ROAS)
	assert.Equal(t, 200.0, r.ROIPct)
}

func TestCalculateROI_GuardsDivisionByZero(t *testing.T) {
	r := CalculateROI(ROIInput{ConversionValueMicros: 500})
	assert.Zero(t, r.ROAS)
	assert.Zero(t, r.ROIPct)
	assert.Zero(t, r.CPAMicros)
	assert.Zero(t, r.BreakEvenCPAMicros)
}
