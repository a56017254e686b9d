// Package googleads wraps the Google Ads REST API surface used by the
// console: GAQL searchStream reads, keyword idea generation, and the
// campaign/budget mutates issued by automated rules.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/pkg/httpretry"
)

var (
	// ErrUnauthorized indicates rejected or expired credentials.
	ErrUnauthorized = errors.New("googleads: unauthorized")
	// ErrQuotaExceeded indicates the API refused the call for quota or
	// rate reasons. Surfaced as HTTP 429 at the API boundary.
	ErrQuotaExceeded = errors.New("googleads: quota exceeded")
	// ErrNotFound indicates the referenced customer or resource does not exist.
	ErrNotFound = errors.New("googleads: not found")
)

// Client is a Google Ads REST API client.
type Client struct {
	baseURL        string
	developerToken string
	loginCustomer  string
	tokenSource    oauth2.TokenSource
	httpClient     httpretry.HTTPDoer
}

// NewClient creates a Google Ads client. Tokens are minted from the
// configured OAuth refresh token and reused until expiry.
func NewClient(cfg config.GoogleAdsConfig) *Client {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
	}
	ts := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		developerToken: cfg.DeveloperToken,
		loginCustomer:  cfg.LoginCustomer,
		tokenSource:    oauth2.ReuseTokenSource(nil, ts),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// doRequest makes an authenticated request to the Google Ads API.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching access token: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("developer-token", c.developerToken)
	req.Header.Set("Content-Type", "application/json")
	if c.loginCustomer != "" {
		req.Header.Set("login-customer-id", c.loginCustomer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return respBody, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, truncate(respBody))
	case resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(respBody), "RESOURCE_EXHAUSTED"):
		return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, truncate(respBody))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, truncate(respBody))
	default:
		return nil, fmt.Errorf("googleads: API error (status %d): %s", resp.StatusCode, truncate(respBody))
	}
}

func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// searchStream runs a GAQL query and returns the flattened result rows.
func (c *Client) searchStream(ctx context.Context, customerID, query string) ([]searchResult, error) {
	path := fmt.Sprintf("/customers/%s/googleAds:searchStream", customerID)
	body, err := c.doRequest(ctx, http.MethodPost, path, searchStreamRequest{Query: query})
	if err != nil {
		return nil, err
	}

	// searchStream returns a JSON array of chunks.
	var chunks []searchStreamChunk
	if err := json.Unmarshal(body, &chunks); err != nil {
		return nil, fmt.Errorf("decoding searchStream response: %w", err)
	}

	var results []searchResult
	for _, ch := range chunks {
		results = append(results, ch.Results...)
	}
	return results, nil
}

// ListCampaigns returns all non-removed campaigns with their budgets.
func (c *Client) ListCampaigns(ctx context.Context, customerID string) ([]Campaign, error) {
	const query = `SELECT campaign.id, campaign.name, campaign.status,
		campaign.advertising_channel_type, campaign.campaign_budget,
		campaign_budget.amount_micros
		FROM campaign WHERE campaign.status != 'REMOVED'`

	rows, err := c.searchStream(ctx, customerID, query)
	if err != nil {
		return nil, err
	}

	campaigns := make([]Campaign, 0, len(rows))
	for _, row := range rows {
		if row.Campaign == nil {
			continue
		}
		camp := Campaign{
			ID:           parseInt64(row.Campaign.ID),
			ResourceName: row.Campaign.ResourceName,
			Name:         row.Campaign.Name,
			Status:       row.Campaign.Status,
			Channel:      row.Campaign.Channel,
			BudgetRef:    row.Campaign.Budget,
		}
		if row.CampaignBudget != nil {
			camp.BudgetMicros = parseInt64(row.CampaignBudget.AmountMicros)
		}
		campaigns = append(campaigns, camp)
	}
	return campaigns, nil
}

// ListAdGroups returns all non-removed ad groups for a customer.
func (c *Client) ListAdGroups(ctx context.Context, customerID string) ([]AdGroup, error) {
	const query = `SELECT ad_group.id, ad_group.name, ad_group.status,
		ad_group.cpc_bid_micros, campaign.id
		FROM ad_group WHERE ad_group.status != 'REMOVED'`

	rows, err := c.searchStream(ctx, customerID, query)
	if err != nil {
		return nil, err
	}

	groups := make([]AdGroup, 0, len(rows))
	for _, row := range rows {
		if row.AdGroup == nil {
			continue
		}
		g := AdGroup{
			ID:           parseInt64(row.AdGroup.ID),
			ResourceName: row.AdGroup.ResourceName,
			Name:         row.AdGroup.Name,
			Status:       row.AdGroup.Status,
			CPCBidMicros: parseInt64(row.AdGroup.CPCBidMicros),
		}
		if row.Campaign != nil {
			g.CampaignID = parseInt64(row.Campaign.ID)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// ListKeywords returns all keyword criteria for a customer.
func (c *Client) ListKeywords(ctx context.Context, customerID string) ([]Keyword, error) {
	const query = `SELECT ad_group_criterion.criterion_id,
		ad_group_criterion.keyword.text, ad_group_criterion.keyword.match_type,
		ad_group_criterion.status, ad_group_criterion.quality_info.quality_score,
		ad_group.id
		FROM keyword_view WHERE ad_group_criterion.status != 'REMOVED'`

	rows, err := c.searchStream(ctx, customerID, query)
	if err != nil {
		return nil, err
	}

	keywords := make([]Keyword, 0, len(rows))
	for _, row := range rows {
		crit := row.AdGroupCriterion
		if crit == nil || crit.Keyword == nil {
			continue
		}
		kw := Keyword{
			CriterionID:  parseInt64(crit.CriterionID),
			ResourceName: crit.ResourceName,
			Text:         crit.Keyword.Text,
			MatchType:    crit.Keyword.MatchType,
			Status:       crit.Status,
		}
		if crit.QualityInfo != nil {
			kw.QualityScore = crit.QualityInfo.QualityScore
		}
		if row.AdGroup != nil {
			kw.AdGroupID = parseInt64(row.AdGroup.ID)
		}
		keywords = append(keywords, kw)
	}
	return keywords, nil
}

// CampaignDailyMetrics returns per-campaign daily metrics for [from, to].
func (c *Client) CampaignDailyMetrics(ctx context.Context, customerID string, from, to time.Time) ([]DailyMetrics, error) {
	query := fmt.Sprintf(`SELECT campaign.id, segments.date,
		metrics.impressions, metrics.clicks, metrics.cost_micros,
		metrics.conversions, metrics.conversions_value,
		metrics.search_top_impression_share,
		metrics.search_absolute_top_impression_share
		FROM campaign
		WHERE segments.date BETWEEN '%s' AND '%s'`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	rows, err := c.searchStream(ctx, customerID, query)
	if err != nil {
		return nil, err
	}

	out := make([]DailyMetrics, 0, len(rows))
	for _, row := range rows {
		if row.Campaign == nil || row.Metrics == nil || row.Segments == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", row.Segments.Date)
		if err != nil {
			continue
		}
		out = append(out, DailyMetrics{
			EntityType:      "campaign",
			EntityID:        parseInt64(row.Campaign.ID),
			Date:            date,
			Impressions:     parseInt64(row.Metrics.Impressions),
			Clicks:          parseInt64(row.Metrics.Clicks),
			CostMicros:      parseInt64(row.Metrics.CostMicros),
			Conversions:     row.Metrics.Conversions,
			ConversionValue: row.Metrics.ConversionsValue,
			TopImprShare:    row.Metrics.TopImpressionShare,
			AbsTopImprShare: row.Metrics.AbsTopImpressionShare,
		})
	}
	return out, nil
}

// GenerateKeywordIdeas calls the keyword plan idea service with either seed
// keywords, a seed URL, or both.
func (c *Client) GenerateKeywordIdeas(ctx context.Context, customerID string, seeds []string, seedURL string, limit int) ([]KeywordIdea, error) {
	if len(seeds) == 0 && seedURL == "" {
		return nil, fmt.Errorf("googleads: keyword ideas need seed keywords or a seed URL")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	req := keywordIdeasRequest{
		Language: "languageConstants/1000", // English
		PageSize: limit,
	}
	if len(seeds) > 0 {
		req.KeywordSeed = &keywordSeed{Keywords: seeds}
	}
	if seedURL != "" {
		req.URLSeed = &urlSeed{URL: seedURL}
	}

	path := fmt.Sprintf("/customers/%s:generateKeywordIdeas", customerID)
	body, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	var resp keywordIdeasResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding keyword ideas response: %w", err)
	}

	ideas := make([]KeywordIdea, 0, len(resp.Results))
	for _, r := range resp.Results {
		idea := KeywordIdea{Text: r.Text}
		if r.Metrics != nil {
			idea.AvgMonthlySearches = parseInt64(r.Metrics.AvgMonthlySearches)
			idea.Competition = r.Metrics.Competition
			idea.CompetitionIndex = parseInt64(r.Metrics.CompetitionIndex)
			idea.LowTopOfPageBidMicros = parseInt64(r.Metrics.LowTopOfPageBid)
			idea.HighTopOfPageBidMicros = parseInt64(r.Metrics.HighTopOfPageBid)
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

// UpdateCampaignStatus sets a campaign's status (ENABLED or PAUSED).
func (c *Client) UpdateCampaignStatus(ctx context.Context, customerID string, campaignID int64, status string) error {
	status = strings.ToUpper(status)
	if status != "ENABLED" && status != "PAUSED" {
		return fmt.Errorf("googleads: unsupported campaign status %q", status)
	}

	path := fmt.Sprintf("/customers/%s/campaigns:mutate", customerID)
	req := mutateRequest{Operations: []mutateOperation{{
		Update: map[string]any{
			"resourceName": fmt.Sprintf("customers/%s/campaigns/%d", customerID, campaignID),
			"status":       status,
		},
		UpdateMask: "status",
	}}}

	body, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return err
	}
	var resp mutateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decoding mutate response: %w", err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("googleads: mutate returned no results")
	}
	return nil
}

// UpdateCampaignBudget sets the daily amount on a campaign budget resource.
func (c *Client) UpdateCampaignBudget(ctx context.Context, customerID, budgetResource string, amountMicros int64) error {
	if amountMicros <= 0 {
		return fmt.Errorf("googleads: budget must be positive, got %d", amountMicros)
	}

	path := fmt.Sprintf("/customers/%s/campaignBudgets:mutate", customerID)
	req := mutateRequest{Operations: []mutateOperation{{
		Update: map[string]any{
			"resourceName": budgetResource,
			"amountMicros": strconv.FormatInt(amountMicros, 10),
		},
		UpdateMask: "amount_micros",
	}}}

	body, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return err
	}
	var resp mutateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decoding mutate response: %w", err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("googleads: mutate returned no results")
	}
	return nil
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
