package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/storage"
)

// Toolset exposes read-only views of the ads data to the model. Every
// tool is scoped to one account; the assistant injects the account ID,
// the model never chooses it.
type Toolset struct {
	store     *storage.Store
	accountID uuid.UUID
	now       func() time.Time
}

func NewToolset(store *storage.Store, accountID uuid.UUID) *Toolset {
	return &Toolset{store: store, accountID: accountID, now: time.Now}
}

func objSchema(props string) json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{` + props + `}}`)
}

// Specs lists the tools offered to the model.
func (t *Toolset) Specs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "account_summary",
			Description: "Overview of the linked account: campaign counts by status and 30-day performance totals.",
			InputSchema: objSchema(``),
		},
		{
			Name:        "campaign_metrics",
			Description: "Aggregated metrics for one campaign over the last N days (default 30).",
			InputSchema: objSchema(`"campaign_id":{"type":"integer"},"days":{"type":"integer"}`),
		},
		{
			Name:        "top_keywords",
			Description: "The account's keywords ordered by quality score, best first.",
			InputSchema: objSchema(`"limit":{"type":"integer"}`),
		},
		{
			Name:        "rule_status",
			Description: "The account's automated rules with enabled state and last run/trigger times.",
			InputSchema: objSchema(``),
		},
	}
}

// Run executes one tool call and returns its result as JSON text.
func (t *Toolset) Run(ctx context.Context, name string, input json.RawMessage) (string, error) {
	switch name {
	case "account_summary":
		return t.accountSummary(ctx)
	case "campaign_metrics":
		return t.campaignMetrics(ctx, input)
	case "top_keywords":
		return t.topKeywords(ctx, input)
	case "rule_status":
		return t.ruleStatus(ctx)
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

func (t *Toolset) window(days int) (time.Time, time.Time) {
	if days <= 0 || days > 365 {
		days = 30
	}
	to := t.now().UTC().Truncate(24 * time.Hour)
	return to.AddDate(0, 0, -(days - 1)), to
}

func (t *Toolset) accountSummary(ctx context.Context) (string, error) {
	account, err := t.store.GetAccount(ctx, t.accountID)
	if err != nil {
		return "", err
	}
	campaigns, err := t.store.ListCampaigns(ctx, t.accountID, "")
	if err != nil {
		return "", err
	}
	byStatus := map[string]int{}
	for _, c := range campaigns {
		byStatus[c.Status]++
	}

	from, to := t.window(30)
	facts, err := t.store.GetAccountFacts(ctx, t.accountID, "campaign", from, to)
	if err != nil {
		return "", err
	}

	return marshal(map[string]interface{}{
		"account":             account.Name,
		"customer_id":         account.CustomerID,
		"currency":            account.Currency,
		"campaigns_by_status": byStatus,
		"last_30_days":        metrics.Aggregate(facts),
	})
}

func (t *Toolset) campaignMetrics(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		CampaignID int64 `json:"campaign_id"`
		Days       int   `json:"days"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("bad input: %w", err)
	}
	if args.CampaignID == 0 {
		return "", fmt.Errorf("campaign_id is required")
	}

	campaign, err := t.store.GetCampaign(ctx, args.CampaignID)
	if err != nil {
		return "", err
	}
	if campaign.AccountID != t.accountID {
		return "", fmt.Errorf("campaign %d is not in this account", args.CampaignID)
	}

	from, to := t.window(args.Days)
	facts, err := t.store.GetMetricsFacts(ctx, t.accountID, "campaign", args.CampaignID, from, to)
	if err != nil {
		return "", err
	}
	return marshal(map[string]interface{}{
		"campaign": campaign.Name,
		"status":   campaign.Status,
		"totals":   metrics.Aggregate(facts),
	})
}

func (t *Toolset) topKeywords(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("bad input: %w", err)
		}
	}
	keywords, err := t.store.ListAccountKeywords(ctx, t.accountID, args.Limit)
	if err != nil {
		return "", err
	}
	return marshal(keywords)
}

func (t *Toolset) ruleStatus(ctx context.Context) (string, error) {
	rules, err := t.store.ListRules(ctx, t.accountID)
	if err != nil {
		return "", err
	}
	type ruleView struct {
		Name          string     `json:"name"`
		Action        string     `json:"action"`
		Enabled       bool       `json:"enabled"`
		LastRun       *time.Time `json:"last_run,omitempty"`
		LastTriggered *time.Time `json:"last_triggered,omitempty"`
	}
	views := make([]ruleView, 0, len(rules))
	for _, r := range rules {
		views = append(views, ruleView{
			Name: r.Name, Action: r.Action.Type, Enabled: r.Enabled,
			LastRun: r.LastRunAt, LastTriggered: r.LastTriggeredAt,
		})
	}
	return marshal(views)
}

func marshal(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(raw), nil
}
