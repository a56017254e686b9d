package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/ads-console/internal/agent"
	"github.com/ignite/ads-console/internal/auth"
	"github.com/ignite/ads-console/internal/googleads"
	"github.com/ignite/ads-console/internal/keywords"
	"github.com/ignite/ads-console/internal/landing"
	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/pkg/httputil"
	"github.com/ignite/ads-console/internal/rules"
	"github.com/ignite/ads-console/internal/serp"
	"github.com/ignite/ads-console/internal/storage"
)

// AdsClient covers the Google Ads calls handlers make directly. The
// production client satisfies it; tests use a fake.
type AdsClient interface {
	GenerateKeywordIdeas(ctx context.Context, customerID string, seeds []string, seedURL string, limit int) ([]googleads.KeywordIdea, error)
	UpdateCampaignStatus(ctx context.Context, customerID string, campaignID int64, status string) error
	UpdateCampaignBudget(ctx context.Context, customerID, budgetResource string, amountMicros int64) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	store           *storage.Store
	ads             AdsClient
	metricsSvc      *metrics.Service
	ruleEngine      *rules.Engine
	keywordFactory  *keywords.Factory
	serpAnalyzer    *serp.Analyzer
	landingAnalyzer *landing.Analyzer
	assistant       *agent.Assistant
}

// NewHandlers creates the handler set from the core dependencies.
// Optional services are wired with the setters below.
func NewHandlers(store *storage.Store, ads AdsClient, metricsSvc *metrics.Service) *Handlers {
	return &Handlers{
		store:      store,
		ads:        ads,
		metricsSvc: metricsSvc,
	}
}

// SetRuleEngine sets the automated rule engine.
func (h *Handlers) SetRuleEngine(engine *rules.Engine) {
	h.ruleEngine = engine
}

// SetKeywordFactory sets the keyword factory.
func (h *Handlers) SetKeywordFactory(factory *keywords.Factory) {
	h.keywordFactory = factory
}

// SetSERPAnalyzer sets the SERP difficulty analyzer.
func (h *Handlers) SetSERPAnalyzer(analyzer *serp.Analyzer) {
	h.serpAnalyzer = analyzer
}

// SetLandingAnalyzer sets the landing page analyzer.
func (h *Handlers) SetLandingAnalyzer(analyzer *landing.Analyzer) {
	h.landingAnalyzer = analyzer
}

// SetAssistant sets the chat assistant.
func (h *Handlers) SetAssistant(assistant *agent.Assistant) {
	h.assistant = assistant
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// actor returns the acting user's email for activity logs. Falls back
// to "unknown" when no session middleware ran (direct handler tests).
func actor(r *http.Request) string {
	if s := auth.SessionFromContext(r.Context()); s != nil {
		return s.Email
	}
	return "unknown"
}

// owner is the session email used to scope per-user resources.
func owner(r *http.Request) string {
	return actor(r)
}

func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// pathUUID parses the {id} route parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(pathParam(r, name))
}

// pathInt64 parses the {id} route parameter as an int64.
func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(pathParam(r, name), 10, 64)
}

// parseQueryInt64 parses a required int64 query parameter.
func parseQueryInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
}

// queryUUID parses a required UUID query parameter.
func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.URL.Query().Get(name))
}

func parseUUIDString(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// dateRange parses from= and to= (YYYY-MM-DD) with a default of the
// last 30 days ending yesterday.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -30)
	to := today.AddDate(0, 0, -1)

	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse("2006-01-02", s); err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, want YYYY-MM-DD")
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse("2006-01-02", s); err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date, want YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

// writeStoreError maps storage sentinel errors to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.NotFound(w, "not found")
	case errors.Is(err, storage.ErrDuplicateName):
		httputil.Conflict(w, "name already in use")
	default:
		httputil.InternalError(w, err)
	}
}

// writeAdsError maps Google Ads client errors to status codes.
func writeAdsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, googleads.ErrQuotaExceeded):
		httputil.QuotaExceeded(w, "google ads quota exceeded, retry later")
	case errors.Is(err, googleads.ErrUnauthorized):
		httputil.Error(w, http.StatusBadGateway, "google ads rejected our credentials")
	case errors.Is(err, googleads.ErrNotFound):
		httputil.NotFound(w, "google ads resource not found")
	default:
		httputil.InternalError(w, err)
	}
}

// logActivity records a mutating API call. Logging failures must not
// fail the request.
func (h *Handlers) logActivity(r *http.Request, accountID uuid.UUID, action, entityType, entityID string, detail any) {
	var raw json.RawMessage
	if detail != nil {
		raw, _ = json.Marshal(detail)
	}
	_ = h.store.LogActivity(r.Context(), &storage.ActivityLog{
		AccountID:  accountID,
		Actor:      actor(r),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     raw,
	})
}
