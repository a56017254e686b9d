package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ignite/ads-console/internal/pkg/httputil"
	"github.com/ignite/ads-console/internal/storage"
)

var (
	ruleMetrics = map[string]bool{
		"cost": true, "clicks": true, "impressions": true,
		"ctr": true, "conversions": true, "cpa": true, "roas": true,
	}
	ruleOperators = map[string]bool{"gt": true, "gte": true, "lt": true, "lte": true}
	ruleActions   = map[string]bool{"pause": true, "enable": true, "adjust_budget": true, "notify": true}
)

type ruleRequest struct {
	AccountID       uuid.UUID               `json:"account_id"`
	Name            string                  `json:"name"`
	CampaignID      int64                   `json:"campaign_id,omitempty"`
	Conditions      []storage.RuleCondition `json:"conditions"`
	Action          storage.RuleAction      `json:"action"`
	WindowDays      int                     `json:"window_days"`
	CooldownMinutes int                     `json:"cooldown_minutes"`
	Enabled         *bool                   `json:"enabled,omitempty"`
}

func (req *ruleRequest) validate() string {
	if req.AccountID == uuid.Nil {
		return "account_id is required"
	}
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Conditions) == 0 {
		return "at least one condition is required"
	}
	for _, c := range req.Conditions {
		if !ruleMetrics[c.Metric] {
			return "unknown condition metric: " + c.Metric
		}
		if !ruleOperators[c.Operator] {
			return "unknown condition operator: " + c.Operator
		}
	}
	if !ruleActions[req.Action.Type] {
		return "unknown action type: " + req.Action.Type
	}
	if req.Action.Type == "adjust_budget" && req.Action.BudgetChangePct == 0 {
		return "adjust_budget requires budget_change_pct"
	}
	if req.WindowDays < 0 || req.WindowDays > 90 {
		return "window_days must be between 0 and 90"
	}
	return ""
}

func (req *ruleRequest) toRule() *storage.AutomatedRule {
	rule := &storage.AutomatedRule{
		AccountID:       req.AccountID,
		Name:            req.Name,
		Scope:           "campaign",
		CampaignID:      req.CampaignID,
		Conditions:      req.Conditions,
		Action:          req.Action,
		WindowDays:      req.WindowDays,
		CooldownMinutes: req.CooldownMinutes,
		Enabled:         true,
	}
	if rule.WindowDays == 0 {
		rule.WindowDays = 7
	}
	if rule.CooldownMinutes == 0 {
		rule.CooldownMinutes = 60
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	return rule
}

// ListRules handles GET /api/automated-rules?account_id=.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryUUID(r, "account_id")
	if err != nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	list, err := h.store.ListRules(r.Context(), accountID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"rules": list})
}

// CreateRule handles POST /api/automated-rules.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}
	if _, err := h.store.GetAccount(r.Context(), req.AccountID); err != nil {
		writeStoreError(w, err)
		return
	}

	rule := req.toRule()
	rule.CreatedBy = actor(r)
	if err := h.store.CreateRule(r.Context(), rule); err != nil {
		writeStoreError(w, err)
		return
	}
	h.logActivity(r, rule.AccountID, "rule:create", "automated_rule", rule.ID.String(), req)
	httputil.Created(w, rule)
}

// GetRule handles GET /api/automated-rules/{id}.
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid rule id")
		return
	}
	rule, err := h.store.GetRule(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.OK(w, rule)
}

// UpdateRule handles PUT /api/automated-rules/{id}.
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid rule id")
		return
	}
	var req ruleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}

	rule := req.toRule()
	rule.ID = id
	if err := h.store.UpdateRule(r.Context(), rule); err != nil {
		writeStoreError(w, err)
		return
	}
	h.logActivity(r, rule.AccountID, "rule:update", "automated_rule", id.String(), req)
	httputil.OK(w, rule)
}

// DeleteRule handles DELETE /api/automated-rules/{id}.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid rule id")
		return
	}
	if err := h.store.DeleteRule(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.NoContent(w)
}

// RunRule handles POST /api/automated-rules/{id}/run. dry_run=true (the
// default) evaluates conditions without touching Google Ads.
func (h *Handlers) RunRule(w http.ResponseWriter, r *http.Request) {
	if h.ruleEngine == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "rule engine not configured")
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid rule id")
		return
	}
	rule, err := h.store.GetRule(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	dryRun := r.URL.Query().Get("dry_run") != "false"
	execution, err := h.ruleEngine.EvaluateRule(r.Context(), rule, dryRun)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if !dryRun {
		h.logActivity(r, rule.AccountID, "rule:run", "automated_rule", id.String(), nil)
	}
	httputil.OK(w, execution)
}

// ListRuleExecutions handles GET /api/automated-rules/{id}/executions.
func (h *Handlers) ListRuleExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid rule id")
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := parseQueryInt64(r, "limit"); err == nil && n > 0 && n <= 500 {
			limit = int(n)
		}
	}
	executions, err := h.store.ListRuleExecutions(r.Context(), id, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"executions": executions})
}
