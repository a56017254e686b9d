package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Account is a linked Google Ads account.
type Account struct {
	ID         uuid.UUID `json:"id"`
	CustomerID string    `json:"customer_id"` // Google Ads customer ID, digits only
	Name       string    `json:"name"`
	Currency   string    `json:"currency"`
	Timezone   string    `json:"timezone"`
	Status     string    `json:"status"` // active, paused, disconnected
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Campaign mirrors a Google Ads campaign.
type Campaign struct {
	ID           int64     `json:"id"` // Google campaign ID
	AccountID    uuid.UUID `json:"account_id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"` // ENABLED, PAUSED, REMOVED
	Channel      string    `json:"channel"`
	BudgetMicros int64     `json:"budget_micros"`
	BudgetRef    string    `json:"budget_ref"` // campaign budget resource name
	SyncedAt     time.Time `json:"synced_at"`
}

// AdGroup mirrors a Google Ads ad group.
type AdGroup struct {
	ID           int64     `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	CampaignID   int64     `json:"campaign_id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	CPCBidMicros int64     `json:"cpc_bid_micros"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Keyword mirrors a Google Ads keyword criterion.
type Keyword struct {
	CriterionID  int64     `json:"criterion_id"`
	AccountID    uuid.UUID `json:"account_id"`
	AdGroupID    int64     `json:"ad_group_id"`
	Text         string    `json:"text"`
	MatchType    string    `json:"match_type"`
	Status       string    `json:"status"`
	QualityScore int       `json:"quality_score"`
	SyncedAt     time.Time `json:"synced_at"`
}

// MetricsFact is one day of performance for one entity.
type MetricsFact struct {
	AccountID       uuid.UUID `json:"account_id"`
	EntityType      string    `json:"entity_type"` // campaign, ad_group, keyword
	EntityID        int64     `json:"entity_id"`
	Date            time.Time `json:"date"`
	Impressions     int64     `json:"impressions"`
	Clicks          int64     `json:"clicks"`
	CostMicros      int64     `json:"cost_micros"`
	Conversions     float64   `json:"conversions"`
	ConversionValue float64   `json:"conversion_value"`
	TopImprShare    float64   `json:"top_impression_share"`
	AbsTopImprShare float64   `json:"abs_top_impression_share"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// SavedView is a named dashboard configuration.
type SavedView struct {
	ID        uuid.UUID       `json:"id"`
	Owner     string          `json:"owner"` // user email
	AccountID uuid.UUID       `json:"account_id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"` // filters, columns, date range
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RuleCondition is one metric threshold inside an automated rule. All
// conditions of a rule must hold (AND semantics) for the rule to fire.
type RuleCondition struct {
	Metric    string  `json:"metric"`   // cost, clicks, ctr, conversions, cpa, roas, impressions
	Operator  string  `json:"operator"` // gt, gte, lt, lte
	Threshold float64 `json:"threshold"`
}

// RuleAction describes what a triggered rule does.
type RuleAction struct {
	Type            string  `json:"type"`                        // pause, enable, adjust_budget, notify
	BudgetChangePct float64 `json:"budget_change_pct,omitempty"` // adjust_budget: e.g. -20 or +15
	MinBudgetMicros int64   `json:"min_budget_micros,omitempty"`
	MaxBudgetMicros int64   `json:"max_budget_micros,omitempty"`
	Message         string  `json:"message,omitempty"` // notify
}

// AutomatedRule is a stored optimization rule evaluated by the rule engine.
type AutomatedRule struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	Name            string          `json:"name"`
	Scope           string          `json:"scope"`                 // campaign (per-campaign evaluation)
	CampaignID      int64           `json:"campaign_id,omitempty"` // 0 = all campaigns in account
	Conditions      []RuleCondition `json:"conditions"`
	Action          RuleAction      `json:"action"`
	WindowDays      int             `json:"window_days"`
	CooldownMinutes int             `json:"cooldown_minutes"`
	Enabled         bool            `json:"enabled"`
	LastRunAt       *time.Time      `json:"last_run_at,omitempty"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RuleExecution is an audit record of one rule evaluation.
type RuleExecution struct {
	ID        uuid.UUID       `json:"id"`
	RuleID    uuid.UUID       `json:"rule_id"`
	RanAt     time.Time       `json:"ran_at"`
	DryRun    bool            `json:"dry_run"`
	Matched   int             `json:"matched"` // campaigns the conditions held for
	Actions   json.RawMessage `json:"actions"` // applied action details per campaign
	Outcome   string          `json:"outcome"` // completed, failed, skipped_cooldown
	ErrorText string          `json:"error_text,omitempty"`
}

// ActivityLog is an audit record of a mutating API call or worker action.
type ActivityLog struct {
	ID         int64           `json:"id"`
	AccountID  uuid.UUID       `json:"account_id"`
	Actor      string          `json:"actor"` // user email or worker name
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Conversation is one assistant chat thread.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Owner     string    `json:"owner"`
	AccountID uuid.UUID `json:"account_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one message inside a conversation.
type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"` // user, assistant
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SyncJob is one queued refresh job.
type SyncJob struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  uuid.UUID  `json:"account_id"`
	Kind       string     `json:"kind"`   // hierarchy, metrics
	Status     string     `json:"status"` // pending, running, completed, failed
	Attempts   int        `json:"attempts"`
	RunAfter   time.Time  `json:"run_after"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ErrorText  string     `json:"error_text,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// QueueStatus summarizes the sync job queue for the monitor endpoint.
type QueueStatus struct {
	Pending          int        `json:"pending"`
	Running          int        `json:"running"`
	Completed24h     int        `json:"completed_24h"`
	Failed24h        int        `json:"failed_24h"`
	OldestPendingAge *float64   `json:"oldest_pending_age_seconds,omitempty"`
	LastCompletedAt  *time.Time `json:"last_completed_at,omitempty"`
}

// HierarchyNode is one level of the account tree returned by the
// entity-hierarchy endpoint.
type HierarchyNode struct {
	Campaign Campaign           `json:"campaign"`
	AdGroups []HierarchyAdGroup `json:"ad_groups"`
}

// HierarchyAdGroup is an ad group with its keyword count and status roll-up.
type HierarchyAdGroup struct {
	AdGroup         AdGroup `json:"ad_group"`
	KeywordCount    int     `json:"keyword_count"`
	EnabledKeywords int     `json:"enabled_keywords"`
}
