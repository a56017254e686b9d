package dataforseo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveSERP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/serp/google/organic/live/advanced", r.URL.Path)

		var payload []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 1)
		assert.Equal(t, "running shoes", payload[0]["keyword"])

		json.NewEncoder(w).Encode(map[string]any{
			"status_code": 20000,
			"tasks": []map[string]any{{
				"status_code": 20000,
				"result": []map[string]any{{
					"keyword":          "running shoes",
					"se_results_count": 128000000,
					"items": []map[string]any{
						{"type": "paid", "rank_absolute": 1, "domain": "ads1.com"},
						{"type": "paid", "rank_absolute": 2, "domain": "ads2.com"},
						{"type": "featured_snippet", "rank_absolute": 3, "domain": "wiki.com"},
						{"type": "organic", "rank_absolute": 4, "domain": "runner.com", "url": "https://runner.com/shoes"},
						{"type": "organic", "rank_absolute": 5, "domain": "store.com", "url": "https://store.com"},
						{"type": "paid", "rank_absolute": 6, "domain": "ads3.com"},
						{"type": "people_also_ask", "rank_absolute": 7},
					},
				}},
			}},
		})
	}))
	defer srv.Close()

	c := &Client{
		baseURL:      srv.URL,
		login:        "login",
		password:     "pass",
		locationCode: 2840,
		languageCode: "en",
		httpClient:   srv.Client(),
	}

	snap, err := c.LiveSERP(context.Background(), "running shoes")
	require.NoError(t, err)

	assert.Equal(t, "running shoes", snap.Keyword)
	assert.Equal(t, int64(128000000), snap.TotalResults)
	assert.Len(t, snap.Organic, 2)
	assert.Equal(t, 2, snap.AdsTopCount, "ads before first organic are top-of-page")
	assert.Equal(t, 1, snap.AdsBottomCount)
	assert.ElementsMatch(t, []string{"featured_snippet", "people_also_ask"}, snap.Features)
}

func TestLiveSERP_APIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status_code":    40101,
			"status_message": "Authentication failed",
		})
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	_, err := c.LiveSERP(context.Background(), "running shoes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40101")
}

func TestLiveSERP_EmptyKeyword(t *testing.T) {
	c := &Client{}
	_, err := c.LiveSERP(context.Background(), "  ")
	assert.Error(t, err)
}
