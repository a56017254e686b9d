package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/storage"
)

type fakeAds struct {
	rows  []googleads.DailyMetrics
	err   error
	calls int
}

func (f *fakeAds) CampaignDailyMetrics(ctx context.Context, customerID string, from, to time.Time) ([]googleads.DailyMetrics, error) {
	f.calls++
	return f.rows, f.err
}

func newTestService(t *testing.T, ads *fakeAds, rdb *redis.Client) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(storage.New(db), ads, rdb, 6*time.Hour, 5*time.Minute)
	return svc, mock
}

func testAccount() *storage.Account {
	return &storage.Account{ID: uuid.New(), CustomerID: "1234567890", Currency: "USD"}
}

func factColumns() []string {
	return []string{"account_id", "entity_type", "entity_id", "date", "impressions", "clicks",
		"cost_micros", "conversions", "conversion_value", "top_impr_share", "abs_top_impr_share", "fetched_at"}
}

func TestCampaignMetrics_FreshRangeServedFromDB(t *testing.T) {
	ads := &fakeAds{}
	svc, mock := newTestService(t, ads, nil)
	account := testAccount()

	day := time.Now().UTC().Truncate(24 * time.Hour)
	fetched := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery("SELECT MIN\\(fetched_at\\), COUNT\\(DISTINCT date\\)").
		WillReturnRows(sqlmock.NewRows([]string{"min", "count"}).AddRow(fetched, 1))
	mock.ExpectQuery("SELECT (.+) FROM metrics_facts").
		WillReturnRows(sqlmock.NewRows(factColumns()).
			AddRow(account.ID, "campaign", 11, day, 1000, 50, 25_000_000, 5.0, 500.0, 0.6, 0.3, fetched))

	r, err := svc.CampaignMetrics(context.Background(), account, 11, day, day)
	require.NoError(t, err)

	assert.Zero(t, ads.calls, "fresh range must not hit the vendor")
	assert.Equal(t, int64(1000), r.Totals.Impressions)
	assert.Equal(t, 0.05, r.Totals.CTR)
	assert.Equal(t, int64(500_000), r.Totals.AvgCPCMicros)
	assert.Equal(t, 0.1, r.Totals.ConvRate)
	assert.Equal(t, int64(5_000_000), r.Totals.CPAMicros)
	assert.Equal(t, 20.0, r.Totals.ROAS) // $500 value on $25 spend
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignMetrics_StaleRangeRefreshes(t *testing.T) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	ads := &fakeAds{rows: []googleads.DailyMetrics{
		{EntityType: "campaign", EntityID: 11, Date: day, Impressions: 10, Clicks: 2, CostMicros: 1_000_000},
	}}
	svc, mock := newTestService(t, ads, nil)
	account := testAccount()

	stale := time.Now().UTC().Add(-12 * time.Hour)

	mock.ExpectQuery("SELECT MIN\\(fetched_at\\), COUNT\\(DISTINCT date\\)").
		WillReturnRows(sqlmock.NewRows([]string{"min", "count"}).AddRow(stale, 1))
	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO metrics_facts").
		ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM metrics_facts").
		WillReturnRows(sqlmock.NewRows(factColumns()).
			AddRow(account.ID, "campaign", 11, day, 10, 2, 1_000_000, 0.0, 0.0, 0.0, 0.0, time.Now()))

	_, err := svc.CampaignMetrics(context.Background(), account, 11, day, day)
	require.NoError(t, err)
	assert.Equal(t, 1, ads.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignMetrics_ClosedRangeNeverRefetches(t *testing.T) {
	ads := &fakeAds{}
	svc, mock := newTestService(t, ads, nil)
	account := testAccount()

	from := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -10)
	to := from.AddDate(0, 0, 2)
	ancient := time.Now().UTC().AddDate(0, 0, -9)

	mock.ExpectQuery("SELECT MIN\\(fetched_at\\), COUNT\\(DISTINCT date\\)").
		WillReturnRows(sqlmock.NewRows([]string{"min", "count"}).AddRow(ancient, 3))
	mock.ExpectQuery("SELECT (.+) FROM metrics_facts").
		WillReturnRows(sqlmock.NewRows(factColumns()))

	_, err := svc.CampaignMetrics(context.Background(), account, 11, from, to)
	require.NoError(t, err)
	assert.Zero(t, ads.calls, "fully past ranges are immutable")
}

func TestCampaignMetrics_VendorDownServesStoredFacts(t *testing.T) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	ads := &fakeAds{err: errors.New("quota exceeded")}
	svc, mock := newTestService(t, ads, nil)
	account := testAccount()

	stale := time.Now().UTC().Add(-12 * time.Hour)

	mock.ExpectQuery("SELECT MIN\\(fetched_at\\), COUNT\\(DISTINCT date\\)").
		WillReturnRows(sqlmock.NewRows([]string{"min", "count"}).AddRow(stale, 1))
	mock.ExpectQuery("SELECT (.+) FROM metrics_facts").
		WillReturnRows(sqlmock.NewRows(factColumns()).
			AddRow(account.ID, "campaign", 11, day, 10, 1, 100, 0.0, 0.0, 0.0, 0.0, stale))

	r, err := svc.CampaignMetrics(context.Background(), account, 11, day, day)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Totals.Impressions)
}

func TestCampaignMetrics_CacheHitSkipsDB(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ads := &fakeAds{}
	svc, mock := newTestService(t, ads, rdb)
	account := testAccount()

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	cached := Report{AccountID: account.ID, EntityType: "campaign", EntityID: 11,
		Totals: Summary{Impressions: 777}}
	raw, _ := json.Marshal(cached)
	mr.Set(svc.cacheKey(account.ID, "campaign", 11, day, day), string(raw))

	r, err := svc.CampaignMetrics(context.Background(), account, 11, day, day)
	require.NoError(t, err)
	assert.Equal(t, int64(777), r.Totals.Impressions)
	assert.Zero(t, ads.calls)
	assert.NoError(t, mock.ExpectationsWereMet(), "no DB queries expected on cache hit")
}

func TestCampaignMetrics_RedisDownDegradesToDB(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // simulate outage

	ads := &fakeAds{}
	svc, mock := newTestService(t, ads, rdb)
	account := testAccount()

	from := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -5)
	mock.ExpectQuery("SELECT MIN\\(fetched_at\\), COUNT\\(DISTINCT date\\)").
		WillReturnRows(sqlmock.NewRows([]string{"min", "count"}).AddRow(time.Now().UTC(), 1))
	mock.ExpectQuery("SELECT (.+) FROM metrics_facts").
		WillReturnRows(sqlmock.NewRows(factColumns()))

	_, err := svc.CampaignMetrics(context.Background(), account, 11, from, from)
	require.NoError(t, err)
}

func TestAggregate_EmptyFacts(t *testing.T) {
	sum := Aggregate(nil)
	assert.Zero(t, sum.CTR)
	assert.Zero(t, sum.ROAS)
	assert.Zero(t, sum.CPAMicros)
}
