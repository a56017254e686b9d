// Package metrics serves performance data with a DB-first read-through
// cache. Facts live in Postgres; the service refreshes stale ranges from
// Google Ads on demand and keeps hot aggregates in Redis with a short TTL.
package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/storage"
)

// AdsFetcher is the slice of the Google Ads client this service needs.
type AdsFetcher interface {
	CampaignDailyMetrics(ctx context.Context, customerID string, from, to time.Time) ([]googleads.DailyMetrics, error)
}

// Service resolves metrics requests: Redis aggregate cache, then the
// facts table, then a vendor fetch when the stored range is stale.
type Service struct {
	store     *storage.Store
	ads       AdsFetcher
	redis     *redis.Client // nil disables the aggregate cache
	freshness time.Duration
	cacheTTL  time.Duration
	logger    *log.Logger
	now       func() time.Time
}

func NewService(store *storage.Store, ads AdsFetcher, rdb *redis.Client, freshness, cacheTTL time.Duration) *Service {
	return &Service{
		store:     store,
		ads:       ads,
		redis:     rdb,
		freshness: freshness,
		cacheTTL:  cacheTTL,
		logger:    log.New(log.Writer(), "[metrics] ", log.LstdFlags),
		now:       time.Now,
	}
}

// Summary is an aggregate over a date range with derived rates. Rates
// are zero when their denominator is zero.
type Summary struct {
	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	CostMicros      int64   `json:"cost_micros"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversion_value"`
	CTR             float64 `json:"ctr"`
	AvgCPCMicros    int64   `json:"avg_cpc_micros"`
	ConvRate        float64 `json:"conv_rate"`
	CPAMicros       int64   `json:"cpa_micros"`
	ROAS            float64 `json:"roas"`
}

// Report is the answer for one entity: the daily series plus totals.
type Report struct {
	AccountID  uuid.UUID             `json:"account_id"`
	EntityType string                `json:"entity_type"`
	EntityID   int64                 `json:"entity_id"`
	From       string                `json:"from"`
	To         string                `json:"to"`
	Totals     Summary               `json:"totals"`
	Daily      []storage.MetricsFact `json:"daily"`
}

// CampaignBreakdown is one campaign's totals inside an account overview.
type CampaignBreakdown struct {
	CampaignID int64   `json:"campaign_id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Totals     Summary `json:"totals"`
}

// Overview is the dashboard answer for a whole account.
type Overview struct {
	AccountID uuid.UUID           `json:"account_id"`
	From      string              `json:"from"`
	To        string              `json:"to"`
	Totals    Summary             `json:"totals"`
	Campaigns []CampaignBreakdown `json:"campaigns"`
}

// CampaignMetrics returns the daily series and totals for one campaign,
// refreshing from Google Ads when the stored range is stale.
func (s *Service) CampaignMetrics(ctx context.Context, account *storage.Account, campaignID int64, from, to time.Time) (*Report, error) {
	key := s.cacheKey(account.ID, "campaign", campaignID, from, to)
	if r, ok := s.cacheGet(ctx, key); ok {
		return r, nil
	}

	if err := s.ensureFresh(ctx, account, "campaign", campaignID, from, to); err != nil {
		return nil, err
	}

	facts, err := s.store.GetMetricsFacts(ctx, account.ID, "campaign", campaignID, from, to)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}

	r := &Report{
		AccountID:  account.ID,
		EntityType: "campaign",
		EntityID:   campaignID,
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		Totals:     Aggregate(facts),
		Daily:      facts,
	}
	s.cacheSet(ctx, key, r)
	return r, nil
}

// AccountOverview aggregates the account's campaigns over the range.
func (s *Service) AccountOverview(ctx context.Context, account *storage.Account, from, to time.Time) (*Overview, error) {
	if err := s.ensureFresh(ctx, account, "campaign", 0, from, to); err != nil {
		return nil, err
	}

	facts, err := s.store.GetAccountFacts(ctx, account.ID, "campaign", from, to)
	if err != nil {
		return nil, fmt.Errorf("read account facts: %w", err)
	}
	campaigns, err := s.store.ListCampaigns(ctx, account.ID, "")
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	byCampaign := make(map[int64][]storage.MetricsFact)
	for _, f := range facts {
		byCampaign[f.EntityID] = append(byCampaign[f.EntityID], f)
	}

	ov := &Overview{
		AccountID: account.ID,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Totals:    Aggregate(facts),
	}
	for _, c := range campaigns {
		ov.Campaigns = append(ov.Campaigns, CampaignBreakdown{
			CampaignID: c.ID,
			Name:       c.Name,
			Status:     c.Status,
			Totals:     Aggregate(byCampaign[c.ID]),
		})
	}
	return ov, nil
}

// ensureFresh fetches the account's campaign facts from Google Ads when
// the stored range is stale. Fully past ranges never go stale once the
// day coverage is complete; current ranges expire after the freshness
// window. Entity ID zero checks account-wide coverage.
func (s *Service) ensureFresh(ctx context.Context, account *storage.Account, entityType string, entityID int64, from, to time.Time) error {
	var (
		oldest *time.Time
		days   int
		err    error
	)
	if entityID == 0 {
		oldest, days, err = s.store.OldestAccountFetchedAt(ctx, account.ID, entityType, from, to)
	} else {
		oldest, days, err = s.store.OldestFetchedAt(ctx, account.ID, entityType, entityID, from, to)
	}
	if err != nil {
		return fmt.Errorf("check freshness: %w", err)
	}

	now := s.now().UTC()
	expected := int(to.Sub(from).Hours()/24) + 1
	covered := days >= expected && oldest != nil

	if covered {
		rangeClosed := to.Before(now.Truncate(24 * time.Hour))
		if rangeClosed || now.Sub(*oldest) < s.freshness {
			return nil
		}
	}

	rows, err := s.ads.CampaignDailyMetrics(ctx, account.CustomerID, from, to)
	if err != nil {
		// Serve what we have rather than failing the read when the
		// vendor is down but the range was previously synced.
		if covered {
			s.logger.Printf("refresh failed for account %s, serving stored facts: %v", account.CustomerID, err)
			return nil
		}
		return fmt.Errorf("fetch metrics: %w", err)
	}

	facts := make([]storage.MetricsFact, 0, len(rows))
	fetchedAt := now
	for _, m := range rows {
		facts = append(facts, storage.MetricsFact{
			AccountID:       account.ID,
			EntityType:      m.EntityType,
			EntityID:        m.EntityID,
			Date:            m.Date,
			Impressions:     m.Impressions,
			Clicks:          m.Clicks,
			CostMicros:      m.CostMicros,
			Conversions:     m.Conversions,
			ConversionValue: m.ConversionValue,
			TopImprShare:    m.TopImprShare,
			AbsTopImprShare: m.AbsTopImprShare,
			FetchedAt:       fetchedAt,
		})
	}
	if err := s.store.UpsertMetricsFacts(ctx, account.ID, facts); err != nil {
		return fmt.Errorf("store facts: %w", err)
	}
	return nil
}

// Aggregate sums daily facts and derives the rate metrics.
func Aggregate(facts []storage.MetricsFact) Summary {
	var sum Summary
	for _, f := range facts {
		sum.Impressions += f.Impressions
		sum.Clicks += f.Clicks
		sum.CostMicros += f.CostMicros
		sum.Conversions += f.Conversions
		sum.ConversionValue += f.ConversionValue
	}
	if sum.Impressions > 0 {
		sum.CTR = float64(sum.Clicks) / float64(sum.Impressions)
	}
	if sum.Clicks > 0 {
		sum.AvgCPCMicros = sum.CostMicros / sum.Clicks
		sum.ConvRate = sum.Conversions / float64(sum.Clicks)
	}
	if sum.Conversions > 0 {
		sum.CPAMicros = int64(float64(sum.CostMicros) / sum.Conversions)
	}
	if sum.CostMicros > 0 {
		sum.ROAS = sum.ConversionValue / (float64(sum.CostMicros) / 1e6)
	}
	return sum
}
