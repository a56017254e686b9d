package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/storage"
)

type fakeAdsSource struct {
	campaigns []googleads.Campaign
	adGroups  []googleads.AdGroup
	keywords  []googleads.Keyword
	metrics   []googleads.DailyMetrics
	err       error
}

func (f *fakeAdsSource) ListCampaigns(ctx context.Context, customerID string) ([]googleads.Campaign, error) {
	return f.campaigns, f.err
}
func (f *fakeAdsSource) ListAdGroups(ctx context.Context, customerID string) ([]googleads.AdGroup, error) {
	return f.adGroups, f.err
}
func (f *fakeAdsSource) ListKeywords(ctx context.Context, customerID string) ([]googleads.Keyword, error) {
	return f.keywords, f.err
}
func (f *fakeAdsSource) CampaignDailyMetrics(ctx context.Context, customerID string, from, to time.Time) ([]googleads.DailyMetrics, error) {
	return f.metrics, f.err
}

func newMock(t *testing.T) (*storage.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.New(db), mock
}

func expectAccount(mock sqlmock.Sqlmock, accountID uuid.UUID) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "customer_id", "name", "currency", "timezone", "status", "created_at", "updated_at"}).
			AddRow(accountID, "1234567890", "Acme", "USD", "UTC", "active", now, now))
}

func TestProcess_HierarchyJob(t *testing.T) {
	store, mock := newMock(t)
	ads := &fakeAdsSource{
		campaigns: []googleads.Campaign{{ID: 11, Name: "Brand", Status: "ENABLED", BudgetMicros: 1000}},
		adGroups:  []googleads.AdGroup{{ID: 21, CampaignID: 11, Name: "Exact"}},
		keywords:  []googleads.Keyword{{CriterionID: 31, AdGroupID: 21, Text: "acme", MatchType: "EXACT"}},
	}
	w := NewSyncWorker(store, ads, config.SyncConfig{MaxAttempts: 3})

	accountID := uuid.New()
	job := &storage.SyncJob{ID: uuid.New(), AccountID: accountID, Kind: "hierarchy", Attempts: 1}

	expectAccount(mock, accountID)
	for _, table := range []string{"campaigns", "ad_groups", "keywords"} {
		mock.ExpectBegin()
		mock.ExpectPrepare("INSERT INTO " + table).
			ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}
	mock.ExpectExec("UPDATE sync_jobs SET status = 'completed'").
		WithArgs(job.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w.process(context.Background(), job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_MetricsJob(t *testing.T) {
	store, mock := newMock(t)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	ads := &fakeAdsSource{metrics: []googleads.DailyMetrics{
		{EntityType: "campaign", EntityID: 11, Date: day, Impressions: 500, Clicks: 25, CostMicros: 9_000_000},
	}}
	w := NewSyncWorker(store, ads, config.SyncConfig{MetricsBackfillDays: 7, MaxAttempts: 3})

	accountID := uuid.New()
	job := &storage.SyncJob{ID: uuid.New(), AccountID: accountID, Kind: "metrics", Attempts: 1}

	expectAccount(mock, accountID)
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO metrics_facts").
		ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("UPDATE sync_jobs SET status = 'completed'").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w.process(context.Background(), job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_VendorFailureRequeues(t *testing.T) {
	store, mock := newMock(t)
	ads := &fakeAdsSource{err: errors.New("quota exceeded")}
	w := NewSyncWorker(store, ads, config.SyncConfig{MaxAttempts: 3})

	accountID := uuid.New()
	job := &storage.SyncJob{ID: uuid.New(), AccountID: accountID, Kind: "hierarchy", Attempts: 1}

	expectAccount(mock, accountID)
	mock.ExpectExec("UPDATE sync_jobs SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w.process(context.Background(), job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcess_UnknownKindFails(t *testing.T) {
	store, mock := newMock(t)
	w := NewSyncWorker(store, &fakeAdsSource{}, config.SyncConfig{MaxAttempts: 3})

	accountID := uuid.New()
	job := &storage.SyncJob{ID: uuid.New(), AccountID: accountID, Kind: "bogus", Attempts: 3}

	expectAccount(mock, accountID)
	mock.ExpectExec("UPDATE sync_jobs SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w.process(context.Background(), job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduler_EnqueuesDueJobs(t *testing.T) {
	store, mock := newMock(t)
	s := NewScheduler(store, nil, config.SyncConfig{
		HierarchyRefreshHours: 6,
		MetricsRefreshMinutes: 60,
	})

	accountID := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE status").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "customer_id", "name", "currency", "timezone", "status", "created_at", "updated_at"}).
			AddRow(accountID, "1234567890", "Acme", "USD", "UTC", "active", now, now))

	// hierarchy synced recently -> skipped; metrics never synced -> enqueued
	recent := now.Add(-time.Hour)
	mock.ExpectQuery("SELECT MAX\\(finished_at\\) FROM sync_jobs").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(recent))
	mock.ExpectQuery("SELECT MAX\\(finished_at\\) FROM sync_jobs").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(accountID, "metrics").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO sync_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.tick(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
