package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertMetricsFacts writes a batch of daily facts. The unique key is
// (account, entity type, entity id, date); re-fetches overwrite in place
// and refresh fetched_at.
func (s *Store) UpsertMetricsFacts(ctx context.Context, accountID uuid.UUID, facts []MetricsFact) error {
	if len(facts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert facts: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metrics_facts
			(account_id, entity_type, entity_id, date, impressions, clicks, cost_micros,
			 conversions, conversion_value, top_impr_share, abs_top_impr_share, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (account_id, entity_type, entity_id, date) DO UPDATE SET
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			cost_micros = EXCLUDED.cost_micros,
			conversions = EXCLUDED.conversions,
			conversion_value = EXCLUDED.conversion_value,
			top_impr_share = EXCLUDED.top_impr_share,
			abs_top_impr_share = EXCLUDED.abs_top_impr_share,
			fetched_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert facts: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx,
			accountID, f.EntityType, f.EntityID, f.Date.Format("2006-01-02"),
			f.Impressions, f.Clicks, f.CostMicros,
			f.Conversions, f.ConversionValue, f.TopImprShare, f.AbsTopImprShare); err != nil {
			return fmt.Errorf("upsert fact %s/%d/%s: %w", f.EntityType, f.EntityID, f.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// GetMetricsFacts returns the stored facts for one entity over [from, to].
func (s *Store) GetMetricsFacts(ctx context.Context, accountID uuid.UUID, entityType string, entityID int64, from, to time.Time) ([]MetricsFact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, entity_type, entity_id, date, impressions, clicks, cost_micros,
		       conversions, conversion_value, top_impr_share, abs_top_impr_share, fetched_at
		FROM metrics_facts
		WHERE account_id = $1 AND entity_type = $2 AND entity_id = $3
		  AND date >= $4 AND date <= $5
		ORDER BY date`,
		accountID, entityType, entityID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("get facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// GetAccountFacts returns all facts of one entity type for the account over
// [from, to]. Used by the dashboard and the rule engine.
func (s *Store) GetAccountFacts(ctx context.Context, accountID uuid.UUID, entityType string, from, to time.Time) ([]MetricsFact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, entity_type, entity_id, date, impressions, clicks, cost_micros,
		       conversions, conversion_value, top_impr_share, abs_top_impr_share, fetched_at
		FROM metrics_facts
		WHERE account_id = $1 AND entity_type = $2 AND date >= $3 AND date <= $4
		ORDER BY entity_id, date`,
		accountID, entityType, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("get account facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// OldestFetchedAt returns the oldest fetched_at among an entity's facts in
// the range, and the number of distinct days present. The metrics service
// uses both to decide whether the cache window is fresh and complete.
func (s *Store) OldestFetchedAt(ctx context.Context, accountID uuid.UUID, entityType string, entityID int64, from, to time.Time) (*time.Time, int, error) {
	var oldest *time.Time
	var days int
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(fetched_at), COUNT(DISTINCT date)
		FROM metrics_facts
		WHERE account_id = $1 AND entity_type = $2 AND entity_id = $3
		  AND date >= $4 AND date <= $5`,
		accountID, entityType, entityID, from.Format("2006-01-02"), to.Format("2006-01-02"),
	).Scan(&oldest, &days)
	if err != nil {
		return nil, 0, fmt.Errorf("oldest fetched_at: %w", err)
	}
	return oldest, days, nil
}

// OldestAccountFetchedAt is the account-wide variant of OldestFetchedAt,
// spanning every entity of the given type.
func (s *Store) OldestAccountFetchedAt(ctx context.Context, accountID uuid.UUID, entityType string, from, to time.Time) (*time.Time, int, error) {
	var oldest *time.Time
	var days int
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(fetched_at), COUNT(DISTINCT date)
		FROM metrics_facts
		WHERE account_id = $1 AND entity_type = $2 AND date >= $3 AND date <= $4`,
		accountID, entityType, from.Format("2006-01-02"), to.Format("2006-01-02"),
	).Scan(&oldest, &days)
	if err != nil {
		return nil, 0, fmt.Errorf("oldest account fetched_at: %w", err)
	}
	return oldest, days, nil
}

func scanFacts(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]MetricsFact, error) {
	var facts []MetricsFact
	for rows.Next() {
		var f MetricsFact
		if err := rows.Scan(&f.AccountID, &f.EntityType, &f.EntityID, &f.Date,
			&f.Impressions, &f.Clicks, &f.CostMicros,
			&f.Conversions, &f.ConversionValue, &f.TopImprShare, &f.AbsTopImprShare, &f.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
