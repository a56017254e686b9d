package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateRule stores a new automated rule.
func (s *Store) CreateRule(ctx context.Context, r *AutomatedRule) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	condJSON, err := json.Marshal(r.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}
	actionJSON, err := json.Marshal(r.Action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO automated_rules
			(id, account_id, name, scope, campaign_id, conditions, action,
			 window_days, cooldown_minutes, enabled, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		r.ID, r.AccountID, r.Name, r.Scope, r.CampaignID, condJSON, actionJSON,
		r.WindowDays, r.CooldownMinutes, r.Enabled, r.CreatedBy,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// GetRule returns one rule by ID.
func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*AutomatedRule, error) {
	row := s.db.QueryRowContext(ctx, ruleSelect+` WHERE id = $1`, id)
	return scanRule(row)
}

// ListRules returns an account's rules.
func (s *Store) ListRules(ctx context.Context, accountID uuid.UUID) ([]AutomatedRule, error) {
	rows, err := s.db.QueryContext(ctx, ruleSelect+` WHERE account_id = $1 ORDER BY name`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// ListDueRules returns enabled rules whose cooldown has elapsed. The rule
// engine calls this every tick.
func (s *Store) ListDueRules(ctx context.Context, now time.Time) ([]AutomatedRule, error) {
	rows, err := s.db.QueryContext(ctx, ruleSelect+`
		WHERE enabled = TRUE
		  AND (last_triggered_at IS NULL
		       OR last_triggered_at + (cooldown_minutes || ' minutes')::interval <= $1)`, now)
	if err != nil {
		return nil, fmt.Errorf("list due rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// UpdateRule replaces the mutable fields of a rule.
func (s *Store) UpdateRule(ctx context.Context, r *AutomatedRule) error {
	condJSON, err := json.Marshal(r.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}
	actionJSON, err := json.Marshal(r.Action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE automated_rules SET
			name = $1, scope = $2, campaign_id = $3, conditions = $4, action = $5,
			window_days = $6, cooldown_minutes = $7, enabled = $8, updated_at = NOW()
		WHERE id = $9`,
		r.Name, r.Scope, r.CampaignID, condJSON, actionJSON,
		r.WindowDays, r.CooldownMinutes, r.Enabled, r.ID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRule removes a rule and its execution history (FK cascade).
func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM automated_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRuleRan stamps last_run_at, and last_triggered_at when it fired.
func (s *Store) MarkRuleRan(ctx context.Context, id uuid.UUID, triggered bool) error {
	query := `UPDATE automated_rules SET last_run_at = NOW() WHERE id = $1`
	if triggered {
		query = `UPDATE automated_rules SET last_run_at = NOW(), last_triggered_at = NOW() WHERE id = $1`
	}
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark rule ran: %w", err)
	}
	return nil
}

// RecordRuleExecution appends an execution audit row.
func (s *Store) RecordRuleExecution(ctx context.Context, e *RuleExecution) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RanAt.IsZero() {
		e.RanAt = time.Now().UTC()
	}
	actions := e.Actions
	if actions == nil {
		actions = json.RawMessage(`[]`)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_executions (id, rule_id, ran_at, dry_run, matched, actions, outcome, error_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.RuleID, e.RanAt, e.DryRun, e.Matched, []byte(actions), e.Outcome, e.ErrorText)
	if err != nil {
		return fmt.Errorf("record rule execution: %w", err)
	}
	return nil
}

// ListRuleExecutions returns recent executions of one rule, newest first.
func (s *Store) ListRuleExecutions(ctx context.Context, ruleID uuid.UUID, limit int) ([]RuleExecution, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rule_id, ran_at, dry_run, matched, actions, outcome, COALESCE(error_text,'')
		FROM rule_executions WHERE rule_id = $1 ORDER BY ran_at DESC LIMIT $2`, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rule executions: %w", err)
	}
	defer rows.Close()

	var execs []RuleExecution
	for rows.Next() {
		var e RuleExecution
		if err := rows.Scan(&e.ID, &e.RuleID, &e.RanAt, &e.DryRun, &e.Matched, (*[]byte)(&e.Actions), &e.Outcome, &e.ErrorText); err != nil {
			return nil, fmt.Errorf("scan rule execution: %w", err)
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

const ruleSelect = `
	SELECT id, account_id, name, scope, campaign_id, conditions, action,
	       window_days, cooldown_minutes, enabled, last_run_at, last_triggered_at,
	       COALESCE(created_by,''), created_at, updated_at
	FROM automated_rules`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRuleRow(row rowScanner) (*AutomatedRule, error) {
	r := &AutomatedRule{}
	var condJSON, actionJSON []byte
	err := row.Scan(&r.ID, &r.AccountID, &r.Name, &r.Scope, &r.CampaignID, &condJSON, &actionJSON,
		&r.WindowDays, &r.CooldownMinutes, &r.Enabled, &r.LastRunAt, &r.LastTriggeredAt,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(condJSON, &r.Conditions); err != nil {
		return nil, fmt.Errorf("decode conditions: %w", err)
	}
	if err := json.Unmarshal(actionJSON, &r.Action); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return r, nil
}

func scanRule(row *sql.Row) (*AutomatedRule, error) {
	r, err := scanRuleRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return r, nil
}

func scanRules(rows *sql.Rows) ([]AutomatedRule, error) {
	var rules []AutomatedRule
	for rows.Next() {
		r, err := scanRuleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}
