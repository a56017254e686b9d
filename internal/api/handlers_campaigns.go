package api

import (
	"net/http"

	"github.com/ignite/ads-console/internal/pkg/httputil"
)

// ListCampaigns handles GET /api/campaigns?account_id=&status=.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryUUID(r, "account_id")
	if err != nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	campaigns, err := h.store.ListCampaigns(r.Context(), accountID, r.URL.Query().Get("status"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"campaigns": campaigns})
}

// GetCampaign handles GET /api/campaigns/{id}.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid campaign id")
		return
	}
	campaign, err := h.store.GetCampaign(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.OK(w, campaign)
}

type updateCampaignRequest struct {
	Status       *string `json:"status,omitempty"`        // ENABLED or PAUSED
	BudgetMicros *int64  `json:"budget_micros,omitempty"` // daily budget
}

// UpdateCampaign handles PATCH /api/campaigns/{id}. The change is
// pushed to Google Ads first; the local mirror only updates after the
// vendor accepted it.
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid campaign id")
		return
	}
	var req updateCampaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Status == nil && req.BudgetMicros == nil {
		httputil.BadRequest(w, "nothing to update: provide status or budget_micros")
		return
	}
	if req.Status != nil && *req.Status != "ENABLED" && *req.Status != "PAUSED" {
		httputil.BadRequest(w, "status must be ENABLED or PAUSED")
		return
	}
	if req.BudgetMicros != nil && *req.BudgetMicros <= 0 {
		httputil.BadRequest(w, "budget_micros must be positive")
		return
	}

	campaign, err := h.store.GetCampaign(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	account, err := h.store.GetAccount(r.Context(), campaign.AccountID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	status := campaign.Status
	if req.Status != nil && *req.Status != campaign.Status {
		if err := h.ads.UpdateCampaignStatus(r.Context(), account.CustomerID, id, *req.Status); err != nil {
			writeAdsError(w, err)
			return
		}
		status = *req.Status
	}
	budget := campaign.BudgetMicros
	if req.BudgetMicros != nil && *req.BudgetMicros != campaign.BudgetMicros {
		if err := h.ads.UpdateCampaignBudget(r.Context(), account.CustomerID, campaign.BudgetRef, *req.BudgetMicros); err != nil {
			writeAdsError(w, err)
			return
		}
		budget = *req.BudgetMicros
	}

	if err := h.store.UpdateCampaignLocal(r.Context(), id, status, budget); err != nil {
		writeStoreError(w, err)
		return
	}
	campaign.Status = status
	campaign.BudgetMicros = budget

	h.logActivity(r, account.ID, "campaign:update", "campaign", pathParam(r, "id"), req)
	httputil.OK(w, campaign)
}

// GetCampaignMetrics handles GET /api/campaigns/{id}/metrics?from=&to=.
func (h *Handlers) GetCampaignMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid campaign id")
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	campaign, err := h.store.GetCampaign(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	account, err := h.store.GetAccount(r.Context(), campaign.AccountID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	report, err := h.metricsSvc.CampaignMetrics(r.Context(), account, id, from, to)
	if err != nil {
		writeAdsError(w, err)
		return
	}
	httputil.OK(w, report)
}

// ListAdGroups handles GET /api/ad-groups?campaign_id=.
func (h *Handlers) ListAdGroups(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseQueryInt64(r, "campaign_id")
	if err != nil {
		httputil.BadRequest(w, "campaign_id is required")
		return
	}
	groups, err := h.store.ListAdGroups(r.Context(), campaignID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ad_groups": groups})
}

// ListKeywords handles GET /api/keywords?ad_group_id=.
func (h *Handlers) ListKeywords(w http.ResponseWriter, r *http.Request) {
	adGroupID, err := parseQueryInt64(r, "ad_group_id")
	if err != nil {
		httputil.BadRequest(w, "ad_group_id is required")
		return
	}
	kws, err := h.store.ListKeywords(r.Context(), adGroupID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"keywords": kws})
}
