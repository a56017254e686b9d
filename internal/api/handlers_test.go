package api

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/storage"
)

type fakeAds struct {
	ideas       []googleads.KeywordIdea
	ideasErr    error
	statusErr   error
	budgetErr   error
	statusCalls []string
	budgetCalls []int64
}

func (f *fakeAds) GenerateKeywordIdeas(ctx context.Context, customerID string, seeds []string, seedURL string, limit int) ([]googleads.KeywordIdea, error) {
	return f.ideas, f.ideasErr
}

func (f *fakeAds) UpdateCampaignStatus(ctx context.Context, customerID string, campaignID int64, status string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, status)
	return nil
}

func (f *fakeAds) UpdateCampaignBudget(ctx context.Context, customerID, budgetResource string, amountMicros int64) error {
	if f.budgetErr != nil {
		return f.budgetErr
	}
	f.budgetCalls = append(f.budgetCalls, amountMicros)
	return nil
}

func (f *fakeAds) CampaignDailyMetrics(ctx context.Context, customerID string, from, to time.Time) ([]googleads.DailyMetrics, error) {
	return nil, nil
}

func setupAPI(t *testing.T) (http.Handler, sqlmock.Sqlmock, *fakeAds) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.New(db)
	ads := &fakeAds{}
	metricsSvc := metrics.NewService(store, ads, nil, time.Hour, time.Minute)

	h := NewHandlers(store, ads, metricsSvc)
	router := SetupRoutes(config.ServerConfig{}, h, nil)
	return router, mock, ads
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func accountColumns() []string {
	return []string{"id", "customer_id", "name", "currency", "timezone", "status", "created_at", "updated_at"}
}

func campaignColumns() []string {
	return []string{"id", "account_id", "name", "status", "channel", "budget_micros", "budget_ref", "synced_at"}
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateAccount(t *testing.T) {
	router, mock, _ := setupAPI(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO accounts").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	// immediate hierarchy + metrics sync on link
	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO sync_jobs").
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec("INSERT INTO activity_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := doJSON(t, router, http.MethodPost, "/api/accounts",
		`{"customer_id":"1234567890","name":"Acme Shoes"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "1234567890")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_RejectsBadCustomerID(t *testing.T) {
	router, mock, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodPost, "/api/accounts",
		`{"customer_id":"123-456-7890","name":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCampaign_NotFound(t *testing.T) {
	router, mock, _ := setupAPI(t)
	mock.ExpectQuery("FROM campaigns WHERE id").WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, router, http.MethodGet, "/api/campaigns/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCampaign_PausesViaGoogleAds(t *testing.T) {
	router, mock, ads := setupAPI(t)
	accountID := uuid.New()

	mock.ExpectQuery("FROM campaigns WHERE id").
		WillReturnRows(sqlmock.NewRows(campaignColumns()).
			AddRow(42, accountID, "Brand", "ENABLED", "SEARCH", int64(50_000_000), "customers/1/campaignBudgets/9", time.Now()))
	mock.ExpectQuery("FROM accounts WHERE id").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(accountID, "1234567890", "Acme", "USD", "UTC", "active", time.Now(), time.Now()))
	mock.ExpectExec("UPDATE campaigns SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO activity_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := doJSON(t, router, http.MethodPatch, "/api/campaigns/42", `{"status":"PAUSED"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"PAUSED"`)
	require.Len(t, ads.statusCalls, 1)
	assert.Equal(t, "PAUSED", ads.statusCalls[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCampaign_QuotaExceededMapsTo429(t *testing.T) {
	router, mock, ads := setupAPI(t)
	ads.statusErr = googleads.ErrQuotaExceeded
	accountID := uuid.New()

	mock.ExpectQuery("FROM campaigns WHERE id").
		WillReturnRows(sqlmock.NewRows(campaignColumns()).
			AddRow(42, accountID, "Brand", "ENABLED", "SEARCH", int64(50_000_000), "", time.Now()))
	mock.ExpectQuery("FROM accounts WHERE id").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(accountID, "1234567890", "Acme", "USD", "UTC", "active", time.Now(), time.Now()))

	rec := doJSON(t, router, http.MethodPatch, "/api/campaigns/42", `{"status":"PAUSED"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCampaign_RejectsEmptyPatch(t *testing.T) {
	router, _, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodPatch, "/api/campaigns/42", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSavedView_DuplicateNameConflicts(t *testing.T) {
	router, mock, _ := setupAPI(t)
	accountID := uuid.New()

	mock.ExpectQuery("INSERT INTO saved_views").
		WillReturnError(&pq.Error{Code: "23505"})

	rec := doJSON(t, router, http.MethodPost, "/api/saved-views",
		`{"account_id":"`+accountID.String()+`","name":"My View","payload":{"range":"last_30_days"}}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRule_RejectsUnknownMetric(t *testing.T) {
	router, mock, _ := setupAPI(t)
	accountID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/automated-rules",
		`{"account_id":"`+accountID.String()+`","name":"r","conditions":[{"metric":"vibes","operator":"gt","threshold":1}],"action":{"type":"pause"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "vibes")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRule_UnconfiguredEngine(t *testing.T) {
	router, _, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodPost, "/api/automated-rules/"+uuid.NewString()+"/run", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetKeywordIdeas(t *testing.T) {
	router, mock, ads := setupAPI(t)
	accountID := uuid.New()
	ads.ideas = []googleads.KeywordIdea{
		{Text: "running shoes", AvgMonthlySearches: 5000, Competition: "MEDIUM", CompetitionIndex: 55},
	}

	mock.ExpectQuery("FROM accounts WHERE id").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(accountID, "1234567890", "Acme", "USD", "UTC", "active", time.Now(), time.Now()))

	rec := doJSON(t, router, http.MethodGet,
		"/api/google-ads/keywords?account_id="+accountID.String()+"&q=shoes", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running shoes")
}

func TestGetKeywordIdeas_RequiresSeed(t *testing.T) {
	router, _, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodGet,
		"/api/google-ads/keywords?account_id="+uuid.NewString(), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQueueStatus(t *testing.T) {
	router, mock, _ := setupAPI(t)
	mock.ExpectQuery("FROM sync_jobs").
		WillReturnRows(sqlmock.NewRows([]string{"pending", "running", "completed", "failed", "oldest", "last"}).
			AddRow(3, 1, 12, 0, 42.5, time.Now()))

	rec := doJSON(t, router, http.MethodGet, "/api/queue/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":3`)
}

func TestAssistantChat_Unconfigured(t *testing.T) {
	router, _, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodPost, "/api/assistant/chat",
		`{"account_id":"`+uuid.NewString()+`","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDateRange_Validation(t *testing.T) {
	router, _, _ := setupAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/api/campaigns/42/metrics?from=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMedianCTR(t *testing.T) {
	mk := func(impr int64, ctr float64) metrics.CampaignBreakdown {
		return metrics.CampaignBreakdown{Totals: metrics.Summary{Impressions: impr, CTR: ctr}}
	}
	assert.Equal(t, 0.0, medianCTR(nil))
	// zero-impression campaigns are excluded from the baseline
	assert.Equal(t, 0.04, medianCTR([]metrics.CampaignBreakdown{mk(100, 0.04), mk(0, 0)}))
	assert.Equal(t, 0.03, medianCTR([]metrics.CampaignBreakdown{mk(100, 0.02), mk(100, 0.03), mk(100, 0.05)}))
	assert.InDelta(t, 0.035, medianCTR([]metrics.CampaignBreakdown{mk(100, 0.02), mk(100, 0.05), mk(100, 0.03), mk(100, 0.04)}), 1e-9)
}
