package api

import (
	"net/http"
	"strings"

	"github.com/ignite/ads-console/internal/keywords"
	"github.com/ignite/ads-console/internal/pkg/httputil"
)

// GetKeywordIdeas handles GET /api/google-ads/keywords?account_id=&q=.
// q takes comma-separated seed keywords; url takes a seed page instead.
func (h *Handlers) GetKeywordIdeas(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryUUID(r, "account_id")
	if err != nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	seeds := splitSeeds(r.URL.Query().Get("q"))
	seedURL := r.URL.Query().Get("url")
	if len(seeds) == 0 && seedURL == "" {
		httputil.BadRequest(w, "q (seed keywords) or url is required")
		return
	}

	account, err := h.store.GetAccount(r.Context(), accountID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ideas, err := h.ads.GenerateKeywordIdeas(r.Context(), account.CustomerID, seeds, seedURL, 0)
	if err != nil {
		writeAdsError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ideas": ideas})
}

type keywordFactoryRequest struct {
	AccountID      string   `json:"account_id"`
	Seeds          []string `json:"seeds"`
	SeedURL        string   `json:"seed_url"`
	Limit          int      `json:"limit"`
	IncludeSERP    bool     `json:"include_serp"`
	MaxSERPLookups int      `json:"max_serp_lookups"`
}

// RunKeywordFactory handles POST /api/keyword-factory.
func (h *Handlers) RunKeywordFactory(w http.ResponseWriter, r *http.Request) {
	if h.keywordFactory == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "keyword factory not configured")
		return
	}
	var req keywordFactoryRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	accountID, err := parseUUIDString(req.AccountID)
	if err != nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	if len(req.Seeds) == 0 && req.SeedURL == "" {
		httputil.BadRequest(w, "seeds or seed_url is required")
		return
	}

	account, err := h.store.GetAccount(r.Context(), accountID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	result, err := h.keywordFactory.Run(r.Context(), keywords.Request{
		CustomerID:     account.CustomerID,
		Seeds:          req.Seeds,
		SeedURL:        req.SeedURL,
		Limit:          req.Limit,
		IncludeSERP:    req.IncludeSERP,
		MaxSERPLookups: req.MaxSERPLookups,
	})
	if err != nil {
		writeAdsError(w, err)
		return
	}
	httputil.OK(w, result)
}

type serpAnalyzeRequest struct {
	Keyword string `json:"keyword"`
}

// AnalyzeSERP handles POST /api/serp/analyze.
func (h *Handlers) AnalyzeSERP(w http.ResponseWriter, r *http.Request) {
	if h.serpAnalyzer == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "serp analyzer not configured")
		return
	}
	var req serpAnalyzeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		httputil.BadRequest(w, "keyword is required")
		return
	}
	analysis, err := h.serpAnalyzer.Analyze(r.Context(), req.Keyword)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, analysis)
}

type landingAnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeLandingPage handles POST /api/landing-page/analyze.
func (h *Handlers) AnalyzeLandingPage(w http.ResponseWriter, r *http.Request) {
	if h.landingAnalyzer == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "landing analyzer not configured")
		return
	}
	var req landingAnalyzeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		httputil.BadRequest(w, "url is required")
		return
	}
	report, err := h.landingAnalyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, report)
}

func splitSeeds(q string) []string {
	var seeds []string
	for _, part := range strings.Split(q, ",") {
		if s := strings.TrimSpace(part); s != "" {
			seeds = append(seeds, s)
		}
	}
	return seeds
}
