package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// UpsertCampaigns writes a batch of synced campaigns. Existing rows are
// updated in place; the Google campaign ID is the natural key.
func (s *Store) UpsertCampaigns(ctx context.Context, accountID uuid.UUID, campaigns []Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert campaigns: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaigns (id, account_id, name, status, channel, budget_micros, budget_ref, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			channel = EXCLUDED.channel,
			budget_micros = EXCLUDED.budget_micros,
			budget_ref = EXCLUDED.budget_ref,
			synced_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert campaigns: %w", err)
	}
	defer stmt.Close()

	for _, c := range campaigns {
		if _, err := stmt.ExecContext(ctx, c.ID, accountID, c.Name, c.Status, c.Channel, c.BudgetMicros, c.BudgetRef); err != nil {
			return fmt.Errorf("upsert campaign %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertAdGroups writes a batch of synced ad groups.
func (s *Store) UpsertAdGroups(ctx context.Context, accountID uuid.UUID, groups []AdGroup) error {
	if len(groups) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert ad groups: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ad_groups (id, account_id, campaign_id, name, status, cpc_bid_micros, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			cpc_bid_micros = EXCLUDED.cpc_bid_micros,
			synced_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert ad groups: %w", err)
	}
	defer stmt.Close()

	for _, g := range groups {
		if _, err := stmt.ExecContext(ctx, g.ID, accountID, g.CampaignID, g.Name, g.Status, g.CPCBidMicros); err != nil {
			return fmt.Errorf("upsert ad group %d: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertKeywords writes a batch of synced keyword criteria.
func (s *Store) UpsertKeywords(ctx context.Context, accountID uuid.UUID, keywords []Keyword) error {
	if len(keywords) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert keywords: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO keywords (criterion_id, account_id, ad_group_id, text, match_type, status, quality_score, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (criterion_id, ad_group_id) DO UPDATE SET
			text = EXCLUDED.text,
			match_type = EXCLUDED.match_type,
			status = EXCLUDED.status,
			quality_score = EXCLUDED.quality_score,
			synced_at = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare upsert keywords: %w", err)
	}
	defer stmt.Close()

	for _, k := range keywords {
		if _, err := stmt.ExecContext(ctx, k.CriterionID, accountID, k.AdGroupID, k.Text, k.MatchType, k.Status, k.QualityScore); err != nil {
			return fmt.Errorf("upsert keyword %d: %w", k.CriterionID, err)
		}
	}
	return tx.Commit()
}

// GetCampaign returns one campaign by Google campaign ID.
func (s *Store) GetCampaign(ctx context.Context, id int64) (*Campaign, error) {
	c := &Campaign{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, status, COALESCE(channel,''), budget_micros, COALESCE(budget_ref,''), synced_at
		FROM campaigns WHERE id = $1`, id,
	).Scan(&c.ID, &c.AccountID, &c.Name, &c.Status, &c.Channel, &c.BudgetMicros, &c.BudgetRef, &c.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns an account's campaigns, optionally filtered by status.
func (s *Store) ListCampaigns(ctx context.Context, accountID uuid.UUID, status string) ([]Campaign, error) {
	query := `
		SELECT id, account_id, name, status, COALESCE(channel,''), budget_micros, COALESCE(budget_ref,''), synced_at
		FROM campaigns WHERE account_id = $1`
	args := []interface{}{accountID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Status, &c.Channel, &c.BudgetMicros, &c.BudgetRef, &c.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// UpdateCampaignLocal applies a status/budget change to the mirrored row
// after the Google Ads mutate succeeded.
func (s *Store) UpdateCampaignLocal(ctx context.Context, id int64, status string, budgetMicros int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaigns SET
			status = COALESCE(NULLIF($2, ''), status),
			budget_micros = CASE WHEN $3 > 0 THEN $3 ELSE budget_micros END,
			synced_at = NOW()
		WHERE id = $1`, id, status, budgetMicros)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAccountKeywords returns an account's keywords ordered by quality
// score, best first. The assistant's top-keywords tool uses this.
func (s *Store) ListAccountKeywords(ctx context.Context, accountID uuid.UUID, limit int) ([]Keyword, error) {
	if limit <= 0 || limit > 200 {
		limit = 25
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT criterion_id, account_id, ad_group_id, text, match_type, status, quality_score, synced_at
		FROM keywords WHERE account_id = $1
		ORDER BY quality_score DESC, text LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list account keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.CriterionID, &k.AccountID, &k.AdGroupID, &k.Text, &k.MatchType, &k.Status, &k.QualityScore, &k.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// ListAdGroups returns the ad groups of one campaign.
func (s *Store) ListAdGroups(ctx context.Context, campaignID int64) ([]AdGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, campaign_id, name, status, cpc_bid_micros, synced_at
		FROM ad_groups WHERE campaign_id = $1 ORDER BY name`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list ad groups: %w", err)
	}
	defer rows.Close()

	var groups []AdGroup
	for rows.Next() {
		var g AdGroup
		if err := rows.Scan(&g.ID, &g.AccountID, &g.CampaignID, &g.Name, &g.Status, &g.CPCBidMicros, &g.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan ad group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListKeywords returns the keywords of one ad group.
func (s *Store) ListKeywords(ctx context.Context, adGroupID int64) ([]Keyword, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT criterion_id, account_id, ad_group_id, text, match_type, status, quality_score, synced_at
		FROM keywords WHERE ad_group_id = $1 ORDER BY text`, adGroupID)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.CriterionID, &k.AccountID, &k.AdGroupID, &k.Text, &k.MatchType, &k.Status, &k.QualityScore, &k.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// AccountHierarchy returns the campaign → ad group tree with keyword
// counts and status roll-ups for the hierarchy endpoint.
func (s *Store) AccountHierarchy(ctx context.Context, accountID uuid.UUID) ([]HierarchyNode, error) {
	campaigns, err := s.ListCampaigns(ctx, accountID, "")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.account_id, g.campaign_id, g.name, g.status, g.cpc_bid_micros, g.synced_at,
		       COUNT(k.criterion_id),
		       COUNT(k.criterion_id) FILTER (WHERE k.status = 'ENABLED')
		FROM ad_groups g
		LEFT JOIN keywords k ON k.ad_group_id = g.id
		WHERE g.account_id = $1
		GROUP BY g.id, g.account_id, g.campaign_id, g.name, g.status, g.cpc_bid_micros, g.synced_at
		ORDER BY g.name`, accountID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy ad groups: %w", err)
	}
	defer rows.Close()

	byCampaign := make(map[int64][]HierarchyAdGroup)
	for rows.Next() {
		var hg HierarchyAdGroup
		g := &hg.AdGroup
		if err := rows.Scan(&g.ID, &g.AccountID, &g.CampaignID, &g.Name, &g.Status, &g.CPCBidMicros, &g.SyncedAt,
			&hg.KeywordCount, &hg.EnabledKeywords); err != nil {
			return nil, fmt.Errorf("scan hierarchy ad group: %w", err)
		}
		byCampaign[g.CampaignID] = append(byCampaign[g.CampaignID], hg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nodes := make([]HierarchyNode, 0, len(campaigns))
	for _, c := range campaigns {
		nodes = append(nodes, HierarchyNode{
			Campaign: c,
			AdGroups: byCampaign[c.ID],
		})
	}
	return nodes, nil
}
