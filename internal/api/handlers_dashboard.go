package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/pkg/httputil"
	"github.com/ignite/ads-console/internal/scoring"
)

// campaignScore pairs a campaign with its estimated quality.
type campaignScore struct {
	CampaignID int64                `json:"campaign_id"`
	Name       string               `json:"name"`
	Quality    scoring.QualityScore `json:"quality"`
}

type dashboardOverview struct {
	*metrics.Overview
	ROI           scoring.ROIResult `json:"roi"`
	MedianCTR     float64           `json:"median_ctr"`
	QualityByCamp []campaignScore   `json:"quality_by_campaign"`
}

// GetDashboardOverview handles GET /api/dashboard/overview?account_id=
// &from=&to=&margin=. It combines account totals with per-campaign
// quality estimates and ROI at the given gross margin.
func (h *Handlers) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryUUID(r, "account_id")
	if err != nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	margin := 0.0
	if s := r.URL.Query().Get("margin"); s != "" {
		if margin, err = strconv.ParseFloat(s, 64); err != nil || margin < 0 || margin > 100 {
			httputil.BadRequest(w, "margin must be a percentage between 0 and 100")
			return
		}
	}

	account, err := h.store.GetAccount(r.Context(), accountID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	overview, err := h.metricsSvc.AccountOverview(r.Context(), account, from, to)
	if err != nil {
		writeAdsError(w, err)
		return
	}

	roi := scoring.CalculateROI(scoring.ROIInput{
		CostMicros:            overview.Totals.CostMicros,
		ConversionValueMicros: int64(overview.Totals.ConversionValue * 1e6),
		Conversions:           overview.Totals.Conversions,
		MarginPct:             margin,
	})

	median := medianCTR(overview.Campaigns)
	scores := make([]campaignScore, 0, len(overview.Campaigns))
	for _, c := range overview.Campaigns {
		scores = append(scores, campaignScore{
			CampaignID: c.CampaignID,
			Name:       c.Name,
			Quality: scoring.EstimateQuality(scoring.QualityInput{
				CTR:              c.Totals.CTR,
				AccountMedianCTR: median,
				AdRelevance:      0.5,
				LandingScore:     -1,
			}),
		})
	}

	httputil.OK(w, dashboardOverview{
		Overview:      overview,
		ROI:           roi,
		MedianCTR:     median,
		QualityByCamp: scores,
	})
}

// medianCTR ignores campaigns with no impressions so that paused or
// brand-new campaigns don't drag the baseline to zero.
func medianCTR(campaigns []metrics.CampaignBreakdown) float64 {
	ctrs := make([]float64, 0, len(campaigns))
	for _, c := range campaigns {
		if c.Totals.Impressions > 0 {
			ctrs = append(ctrs, c.Totals.CTR)
		}
	}
	if len(ctrs) == 0 {
		return 0
	}
	sort.Float64s(ctrs)
	mid := len(ctrs) / 2
	if len(ctrs)%2 == 1 {
		return ctrs[mid]
	}
	return (ctrs[mid-1] + ctrs[mid]) / 2
}
