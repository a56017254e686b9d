package moz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/url_metrics", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "access-id", user)
		assert.Equal(t, "secret", pass)

		var req struct {
			Targets []string `json:"targets"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"example.com"}, req.Targets)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"page":                        "example.com",
				"domain_authority":            62.0,
				"page_authority":              48.0,
				"spam_score":                  2.0,
				"root_domains_to_root_domain": 1500,
			}},
		})
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, accessID: "access-id", secretKey: "secret", httpClient: srv.Client()}

	results, err := c.URLMetrics(context.Background(), []string{"example.com"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 62.0, results[0].DomainAuthority)
	assert.Equal(t, int64(1500), results[0].LinkingDomains)
}

func TestURLMetrics_EmptyTargets(t *testing.T) {
	c := &Client{}
	results, err := c.URLMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestDomainAuthority_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	_, err := c.DomainAuthority(context.Background(), "example.com")
	assert.Error(t, err)
}
