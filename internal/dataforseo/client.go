// Package dataforseo wraps the DataForSEO live SERP endpoint. The console
// uses one snapshot per keyword to estimate organic-ranking difficulty.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/pkg/httpretry"
)

// OrganicResult is one organic listing from a SERP snapshot.
type OrganicResult struct {
	Position int    `json:"rank_absolute"`
	Domain   string `json:"domain"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// SERPSnapshot is the flattened view of one live SERP response.
type SERPSnapshot struct {
	Keyword        string
	TotalResults   int64
	Organic        []OrganicResult
	AdsTopCount    int
	AdsBottomCount int
	Features       []string // e.g. featured_snippet, people_also_ask, local_pack
}

// Client is a DataForSEO API client.
type Client struct {
	baseURL      string
	login        string
	password     string
	locationCode int
	languageCode string
	httpClient   httpretry.HTTPDoer
}

// NewClient creates a new DataForSEO client.
func NewClient(cfg config.DataForSEOConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		login:        cfg.Login,
		password:     cfg.Password,
		locationCode: cfg.LocationCode,
		languageCode: cfg.LanguageCode,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// Configured reports whether API credentials are present.
func (c *Client) Configured() bool {
	return c.login != "" && c.password != ""
}

// serpItem matches the polymorphic items array: every entry carries a type
// discriminator, only a few fields apply per type.
type serpItem struct {
	Type         string `json:"type"`
	RankAbsolute int    `json:"rank_absolute"`
	Domain       string `json:"domain"`
	URL          string `json:"url"`
	Title        string `json:"title"`
}

type serpResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode int `json:"status_code"`
		Result     []struct {
			Keyword        string     `json:"keyword"`
			SEResultsCount int64      `json:"se_results_count"`
			ItemTypes      []string   `json:"item_types"`
			Items          []serpItem `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// LiveSERP fetches a live Google SERP snapshot for the given keyword.
func (c *Client) LiveSERP(ctx context.Context, keyword string) (*SERPSnapshot, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("dataforseo: keyword is required")
	}

	payload := []map[string]any{{
		"keyword":       keyword,
		"location_code": c.locationCode,
		"language_code": c.languageCode,
		"device":        "desktop",
	}}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := c.baseURL + "/serp/google/organic/live/advanced"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataforseo: API error (status %d): %s", resp.StatusCode, string(body))
	}

	var sr serpResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	// DataForSEO wraps per-task status: 20000 is OK at both levels.
	if sr.StatusCode != 20000 {
		return nil, fmt.Errorf("dataforseo: API status %d: %s", sr.StatusCode, sr.StatusMessage)
	}
	if len(sr.Tasks) == 0 || len(sr.Tasks[0].Result) == 0 {
		return nil, fmt.Errorf("dataforseo: empty result for %q", keyword)
	}

	result := sr.Tasks[0].Result[0]
	snap := &SERPSnapshot{
		Keyword:      result.Keyword,
		TotalResults: result.SEResultsCount,
	}

	seenFeatures := map[string]bool{}
	for _, item := range result.Items {
		switch item.Type {
		case "organic":
			snap.Organic = append(snap.Organic, OrganicResult{
				Position: item.RankAbsolute,
				Domain:   item.Domain,
				URL:      item.URL,
				Title:    item.Title,
			})
		case "paid":
			// Top-of-page ads precede the first organic listing.
			if len(snap.Organic) == 0 {
				snap.AdsTopCount++
			} else {
				snap.AdsBottomCount++
			}
		default:
			if !seenFeatures[item.Type] {
				seenFeatures[item.Type] = true
				snap.Features = append(snap.Features, item.Type)
			}
		}
	}
	return snap, nil
}
