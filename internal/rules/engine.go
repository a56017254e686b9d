// Package rules runs the automated rules: periodic evaluation of
// metric conditions per campaign, applying pause/enable/budget actions
// through the Google Ads API with a full audit trail.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/pkg/distlock"
	"github.com/ignite/ads-console/internal/storage"
)

// AdsMutator is the slice of the Google Ads client the engine needs.
type AdsMutator interface {
	UpdateCampaignStatus(ctx context.Context, customerID string, campaignID int64, status string) error
	UpdateCampaignBudget(ctx context.Context, customerID, budgetResource string, amountMicros int64) error
}

// Engine evaluates due rules on a ticker. A distributed lock keeps a
// multi-replica deployment from double-applying actions.
type Engine struct {
	store    *storage.Store
	ads      AdsMutator
	lock     distlock.DistLock // nil when running single-replica
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewEngine(store *storage.Store, ads AdsMutator, lock distlock.DistLock, interval time.Duration) *Engine {
	return &Engine{
		store:    store,
		ads:      ads,
		lock:     lock,
		interval: interval,
		logger:   log.New(log.Writer(), "[rules] ", log.LstdFlags),
		now:      time.Now,
	}
}

// Start launches the evaluation loop. Safe to call once.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	ctx, e.cancel = context.WithCancel(ctx)
	e.wg.Add(1)
	go e.loop(ctx)
	e.logger.Printf("started, interval %s", e.interval)
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Printf("stopped")
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	if e.lock != nil {
		ok, err := e.lock.Acquire(ctx)
		if err != nil {
			e.logger.Printf("lock error, skipping tick: %v", err)
			return
		}
		if !ok {
			return
		}
		defer e.lock.Release(ctx)
	}

	rules, err := e.store.ListDueRules(ctx, e.now().UTC())
	if err != nil {
		e.logger.Printf("list due rules: %v", err)
		return
	}
	for i := range rules {
		if ctx.Err() != nil {
			return
		}
		if _, err := e.EvaluateRule(ctx, &rules[i], false); err != nil {
			e.logger.Printf("rule %s (%s): %v", rules[i].Name, rules[i].ID, err)
		}
	}
}

// AppliedAction records what one evaluation did to one campaign.
type AppliedAction struct {
	CampaignID   int64  `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Action       string `json:"action"`
	Before       string `json:"before,omitempty"`
	After        string `json:"after,omitempty"`
	Applied      bool   `json:"applied"`
	Error        string `json:"error,omitempty"`
}

// EvaluateRule evaluates one rule now. All conditions must hold over the
// rule's metrics window for a campaign to match. In dry-run mode matches
// are recorded but no mutations are sent and no cooldown is set.
func (e *Engine) EvaluateRule(ctx context.Context, rule *storage.AutomatedRule, dryRun bool) (*storage.RuleExecution, error) {
	account, err := e.store.GetAccount(ctx, rule.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	campaigns, err := e.targetCampaigns(ctx, rule)
	if err != nil {
		return nil, err
	}

	windowDays := rule.WindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	to := e.now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(windowDays - 1))

	facts, err := e.store.GetAccountFacts(ctx, rule.AccountID, "campaign", from, to)
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	byCampaign := make(map[int64][]storage.MetricsFact)
	for _, f := range facts {
		byCampaign[f.EntityID] = append(byCampaign[f.EntityID], f)
	}

	exec := &storage.RuleExecution{RuleID: rule.ID, DryRun: dryRun, Outcome: "completed"}
	var applied []AppliedAction
	for i := range campaigns {
		c := &campaigns[i]
		sum := metrics.Aggregate(byCampaign[c.ID])
		if !conditionsHold(rule.Conditions, sum) {
			continue
		}
		exec.Matched++

		act := e.apply(ctx, account, rule, c, dryRun)
		applied = append(applied, act)
		if act.Error != "" {
			exec.Outcome = "failed"
			exec.ErrorText = act.Error
		}
	}

	if raw, err := json.Marshal(applied); err == nil && applied != nil {
		exec.Actions = raw
	}
	if err := e.store.RecordRuleExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("record execution: %w", err)
	}
	if !dryRun {
		if err := e.store.MarkRuleRan(ctx, rule.ID, exec.Matched > 0); err != nil {
			return nil, fmt.Errorf("mark rule ran: %w", err)
		}
	}
	return exec, nil
}

func (e *Engine) targetCampaigns(ctx context.Context, rule *storage.AutomatedRule) ([]storage.Campaign, error) {
	if rule.CampaignID != 0 {
		c, err := e.store.GetCampaign(ctx, rule.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("load campaign: %w", err)
		}
		return []storage.Campaign{*c}, nil
	}
	campaigns, err := e.store.ListCampaigns(ctx, rule.AccountID, "")
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (e *Engine) apply(ctx context.Context, account *storage.Account, rule *storage.AutomatedRule, c *storage.Campaign, dryRun bool) AppliedAction {
	act := AppliedAction{CampaignID: c.ID, CampaignName: c.Name, Action: rule.Action.Type}

	switch rule.Action.Type {
	case "pause", "enable":
		target := "PAUSED"
		if rule.Action.Type == "enable" {
			target = "ENABLED"
		}
		act.Before, act.After = c.Status, target
		if c.Status == target {
			return act
		}
		if dryRun {
			return act
		}
		if err := e.ads.UpdateCampaignStatus(ctx, account.CustomerID, c.ID, target); err != nil {
			act.Error = err.Error()
			return act
		}
		if err := e.store.UpdateCampaignLocal(ctx, c.ID, target, 0); err != nil {
			act.Error = err.Error()
			return act
		}
		act.Applied = true

	case "adjust_budget":
		newBudget := clampBudget(c.BudgetMicros, rule.Action)
		act.Before = fmt.Sprintf("%d", c.BudgetMicros)
		act.After = fmt.Sprintf("%d", newBudget)
		if newBudget == c.BudgetMicros || dryRun {
			return act
		}
		if err := e.ads.UpdateCampaignBudget(ctx, account.CustomerID, c.BudgetRef, newBudget); err != nil {
			act.Error = err.Error()
			return act
		}
		if err := e.store.UpdateCampaignLocal(ctx, c.ID, "", newBudget); err != nil {
			act.Error = err.Error()
			return act
		}
		act.Applied = true

	case "notify":
		act.After = rule.Action.Message
		act.Applied = !dryRun

	default:
		act.Error = fmt.Sprintf("unknown action type %q", rule.Action.Type)
		return act
	}

	if act.Applied && !dryRun {
		detail, _ := json.Marshal(act)
		if err := e.store.LogActivity(ctx, &storage.ActivityLog{
			AccountID:  account.ID,
			Actor:      "rules-engine",
			Action:     "rule:" + rule.Action.Type,
			EntityType: "campaign",
			EntityID:   fmt.Sprintf("%d", c.ID),
			Detail:     detail,
		}); err != nil {
			e.logger.Printf("activity log: %v", err)
		}
	}
	return act
}

// clampBudget applies the percentage change and the rule's min/max
// bounds. A zero bound is treated as unset. The result never drops
// below 1 micro; Google Ads rejects non-positive budgets.
func clampBudget(current int64, a storage.RuleAction) int64 {
	next := int64(float64(current) * (1 + a.BudgetChangePct/100))
	if a.MinBudgetMicros > 0 && next < a.MinBudgetMicros {
		next = a.MinBudgetMicros
	}
	if a.MaxBudgetMicros > 0 && next > a.MaxBudgetMicros {
		next = a.MaxBudgetMicros
	}
	if next < 1 {
		next = 1
	}
	return next
}

// conditionsHold ANDs every condition against the window aggregate.
// Money metrics are compared in currency units.
func conditionsHold(conds []storage.RuleCondition, sum metrics.Summary) bool {
	if len(conds) == 0 {
		return false
	}
	for _, c := range conds {
		v, ok := metricValue(c.Metric, sum)
		if !ok || !compare(v, c.Operator, c.Threshold) {
			return false
		}
	}
	return true
}

func metricValue(metric string, sum metrics.Summary) (float64, bool) {
	switch metric {
	case "cost":
		return float64(sum.CostMicros) / 1e6, true
	case "clicks":
		return float64(sum.Clicks), true
	case "impressions":
		return float64(sum.Impressions), true
	case "ctr":
		// Meaningless without traffic; a no-impression campaign must
		// not match "ctr < x" rules.
		return sum.CTR, sum.Impressions > 0
	case "conversions":
		return sum.Conversions, true
	case "cpa":
		return float64(sum.CPAMicros) / 1e6, sum.Conversions > 0
	case "roas":
		return sum.ROAS, sum.CostMicros > 0
	default:
		return 0, false
	}
}

func compare(v float64, op string, threshold float64) bool {
	switch op {
	case "gt":
		return v > threshold
	case "gte":
		return v >= threshold
	case "lt":
		return v < threshold
	case "lte":
		return v <= threshold
	default:
		return false
	}
}
