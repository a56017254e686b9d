// Package moz wraps the Moz Links API v2 endpoints used for domain and
// page authority lookups in the SERP analyzer and keyword factory.
package moz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/pkg/httpretry"
)

// URLMetrics contains the authority signals for one URL.
type URLMetrics struct {
	URL             string  `json:"page"`
	DomainAuthority float64 `json:"domain_authority"`
	PageAuthority   float64 `json:"page_authority"`
	SpamScore       float64 `json:"spam_score"`
	LinkingDomains  int64   `json:"root_domains_to_root_domain"`
}

// Client is a Moz Links API client.
type Client struct {
	baseURL    string
	accessID   string
	secretKey  string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Moz API client.
func NewClient(cfg config.MozConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		accessID:  cfg.AccessID,
		secretKey: cfg.SecretKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// Configured reports whether credentials are present. The SERP analyzer
// skips the authority component when Moz is not configured.
func (c *Client) Configured() bool {
	return c.accessID != "" && c.secretKey != ""
}

// URLMetrics fetches authority metrics for up to 50 URLs in one call.
func (c *Client) URLMetrics(ctx context.Context, targets []string) ([]URLMetrics, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	if len(targets) > 50 {
		targets = targets[:50]
	}

	payload := map[string]any{"targets": targets}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/url_metrics", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.accessID, c.secretKey)
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
		return nil, fmt.Errorf("moz: API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Results []URLMetrics `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return out.Results, nil
}

// DomainAuthority is a convenience wrapper returning DA for a single domain.
func (c *Client) DomainAuthority(ctx context.Context, domain string) (float64, error) {
	results, err := c.URLMetrics(ctx, []string{domain})
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("moz: no metrics returned for %s", domain)
	}
	return results[0].DomainAuthority, nil
}
