// Package worker contains the background refresh machinery: a scheduler
// that enqueues due sync jobs per account and a worker that drains the
// queue against the Google Ads API.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/pkg/logger"
	"github.com/ignite/ads-console/internal/storage"
)

// AdsSource is the slice of the Google Ads client the sync worker uses.
type AdsSource interface {
	ListCampaigns(ctx context.Context, customerID string) ([]googleads.Campaign, error)
	ListAdGroups(ctx context.Context, customerID string) ([]googleads.AdGroup, error)
	ListKeywords(ctx context.Context, customerID string) ([]googleads.Keyword, error)
	CampaignDailyMetrics(ctx context.Context, customerID string, from, to time.Time) ([]googleads.DailyMetrics, error)
}

// SyncWorker drains the sync_jobs queue. Claiming uses row locks, so
// any number of replicas can run this worker concurrently.
type SyncWorker struct {
	store  *storage.Store
	ads    AdsSource
	cfg    config.SyncConfig
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewSyncWorker(store *storage.Store, ads AdsSource, cfg config.SyncConfig) *SyncWorker {
	return &SyncWorker{
		store:  store,
		ads:    ads,
		cfg:    cfg,
		logger: log.New(log.Writer(), "[sync-worker] ", log.LstdFlags),
		now:    time.Now,
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Printf("started")
}

func (w *SyncWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Printf("stopped")
}

func (w *SyncWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	interval := time.Duration(w.cfg.WorkerIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and processes jobs until the queue is empty.
func (w *SyncWorker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.store.ClaimSyncJob(ctx, w.now().UTC())
		if errors.Is(err, storage.ErrNotFound) {
			return
		}
		if err != nil {
			w.logger.Printf("claim: %v", err)
			return
		}
		w.process(ctx, job)
	}
}

func (w *SyncWorker) process(ctx context.Context, job *storage.SyncJob) {
	start := w.now()
	err := w.run(ctx, job)
	if err != nil {
		w.logger.Printf("job %s %s for account %s failed (attempt %d): %v",
			job.ID, job.Kind, job.AccountID, job.Attempts, err)
		backoff := time.Duration(job.Attempts) * time.Minute
		if ferr := w.store.FailSyncJob(ctx, job.ID, err.Error(), w.cfg.MaxAttempts, backoff); ferr != nil {
			w.logger.Printf("fail job %s: %v", job.ID, ferr)
		}
		return
	}
	if err := w.store.CompleteSyncJob(ctx, job.ID); err != nil {
		w.logger.Printf("complete job %s: %v", job.ID, err)
		return
	}
	w.logger.Printf("job %s %s done in %s", job.ID, job.Kind, w.now().Sub(start).Round(time.Millisecond))
}

func (w *SyncWorker) run(ctx context.Context, job *storage.SyncJob) error {
	account, err := w.store.GetAccount(ctx, job.AccountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	switch job.Kind {
	case "hierarchy":
		return w.syncHierarchy(ctx, account)
	case "metrics":
		return w.syncMetrics(ctx, account)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// syncHierarchy mirrors campaigns, ad groups and keywords top-down so
// foreign keys always resolve.
func (w *SyncWorker) syncHierarchy(ctx context.Context, account *storage.Account) error {
	campaigns, err := w.ads.ListCampaigns(ctx, account.CustomerID)
	if err != nil {
		return fmt.Errorf("list campaigns: %w", err)
	}
	sc := make([]storage.Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		sc = append(sc, storage.Campaign{
			ID: c.ID, AccountID: account.ID, Name: c.Name, Status: c.Status,
			Channel: c.Channel, BudgetMicros: c.BudgetMicros, BudgetRef: c.BudgetRef,
		})
	}
	if err := w.store.UpsertCampaigns(ctx, account.ID, sc); err != nil {
		return fmt.Errorf("upsert campaigns: %w", err)
	}

	groups, err := w.ads.ListAdGroups(ctx, account.CustomerID)
	if err != nil {
		return fmt.Errorf("list ad groups: %w", err)
	}
	sg := make([]storage.AdGroup, 0, len(groups))
	for _, g := range groups {
		sg = append(sg, storage.AdGroup{
			ID: g.ID, AccountID: account.ID, CampaignID: g.CampaignID,
			Name: g.Name, Status: g.Status, CPCBidMicros: g.CPCBidMicros,
		})
	}
	if err := w.store.UpsertAdGroups(ctx, account.ID, sg); err != nil {
		return fmt.Errorf("upsert ad groups: %w", err)
	}

	keywords, err := w.ads.ListKeywords(ctx, account.CustomerID)
	if err != nil {
		return fmt.Errorf("list keywords: %w", err)
	}
	sk := make([]storage.Keyword, 0, len(keywords))
	for _, k := range keywords {
		sk = append(sk, storage.Keyword{
			CriterionID: k.CriterionID, AccountID: account.ID, AdGroupID: k.AdGroupID,
			Text: k.Text, MatchType: k.MatchType, Status: k.Status, QualityScore: k.QualityScore,
		})
	}
	if err := w.store.UpsertKeywords(ctx, account.ID, sk); err != nil {
		return fmt.Errorf("upsert keywords: %w", err)
	}

	w.logger.Printf("account %s: %d campaigns, %d ad groups, %d keywords",
		logger.RedactCustomerID(account.CustomerID), len(sc), len(sg), len(sk))
	return nil
}

func (w *SyncWorker) syncMetrics(ctx context.Context, account *storage.Account) error {
	backfill := w.cfg.MetricsBackfillDays
	if backfill <= 0 {
		backfill = 30
	}
	to := w.now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -backfill)

	rows, err := w.ads.CampaignDailyMetrics(ctx, account.CustomerID, from, to)
	if err != nil {
		return fmt.Errorf("fetch metrics: %w", err)
	}

	facts := make([]storage.MetricsFact, 0, len(rows))
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
		})
	}
	if err := w.store.UpsertMetricsFacts(ctx, account.ID, facts); err != nil {
		return fmt.Errorf("upsert facts: %w", err)
	}
	w.logger.Printf("account %s: %d daily facts over %d days",
		logger.RedactCustomerID(account.CustomerID), len(facts), backfill)
	return nil
}
