package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/pkg/httpretry"
)

func newTestAnthropic(srv *httptest.Server) *AnthropicProvider {
	return &AnthropicProvider{
		baseURL:    srv.URL,
		apiKey:     "test-key",
		model:      "claude-sonnet-4-20250514",
		maxTokens:  1024,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: 5 * time.Second}, 1),
	}
}

func TestAnthropicComplete_TextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-20250514", req.Model)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]string{{"type": "text", "text": "Campaign Brand spent $120 this week."}},
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	p := newTestAnthropic(srv)
	resp, err := p.Complete(context.Background(), "system", []Message{TextMessage(RoleUser, "spend?")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Campaign Brand spent $120 this week.", resp.Text())
}

func TestAnthropicComplete_ToolUseResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "tool_use", "id": "toolu_1", "name": "campaign_metrics", "input": map[string]int{"campaign_id": 11}},
			},
			"stop_reason": "tool_use",
		})
	}))
	defer srv.Close()

	p := newTestAnthropic(srv)
	resp, err := p.Complete(context.Background(), "", []Message{TextMessage(RoleUser, "how is campaign 11?")}, nil)
	require.NoError(t, err)

	calls := resp.ToolUses()
	require.Len(t, calls, 1)
	assert.Equal(t, "campaign_metrics", calls[0].Name)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.JSONEq(t, `{"campaign_id":11}`, string(calls[0].Input))
}

func TestAnthropicComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"type": "invalid_request_error", "message": "max_tokens required"},
		})
	}))
	defer srv.Close()

	p := newTestAnthropic(srv)
	_, err := p.Complete(context.Background(), "", []Message{TextMessage(RoleUser, "x")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens required")
}
