package agent

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/storage"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.New(db), mock
}

func expectAppendMessage(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("INSERT INTO chat_messages").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectExec("UPDATE chat_conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// Drives a full chat turn through the heuristic provider: the question
// matches the account_summary intent, the tool loop runs it, and the
// reply embeds the tool data.
func TestChat_HeuristicToolLoop(t *testing.T) {
	store, mock := newMockStore(t)
	a := NewAssistant(store, NewHeuristicProvider(), nil, 5)

	accountID := uuid.New()
	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour)

	// create conversation + empty history + persist user message
	mock.ExpectQuery("INSERT INTO chat_conversations").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery("SELECT (.+) FROM chat_messages").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "created_at"}))
	expectAppendMessage(mock)

	// account_summary tool
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "customer_id", "name", "currency", "timezone", "status", "created_at", "updated_at"}).
			AddRow(accountID, "1234567890", "Acme", "USD", "UTC", "active", now, now))
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE account_id").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "account_id", "name", "status", "channel", "budget_micros", "budget_ref", "synced_at"}).
			AddRow(11, accountID, "Brand", "ENABLED", "SEARCH", 1000, "", now))
	mock.ExpectQuery("SELECT (.+) FROM metrics_facts").
		WillReturnRows(sqlmock.NewRows(
			[]string{"account_id", "entity_type", "entity_id", "date", "impressions", "clicks",
				"cost_micros", "conversions", "conversion_value", "top_impr_share", "abs_top_impr_share", "fetched_at"}).
			AddRow(accountID, "campaign", 11, day, 1000, 50, 25_000_000, 2.0, 200.0, 0.0, 0.0, now))

	// persist assistant reply
	expectAppendMessage(mock)

	out, err := a.Chat(context.Background(), ChatInput{
		Owner:     "ops@example.com",
		AccountID: accountID,
		Text:      "How is my spend this month?",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, out.ConversationID)
	assert.Equal(t, "heuristic", out.Provider)
	assert.Contains(t, out.Reply, "Acme")
	assert.Contains(t, out.Reply, "campaigns_by_status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	store, _ := newMockStore(t)
	a := NewAssistant(store, NewHeuristicProvider(), nil, 5)

	_, err := a.Chat(context.Background(), ChatInput{Owner: "x@y.z", AccountID: uuid.New()})
	assert.Error(t, err)
}

func TestHeuristic_IntentMatching(t *testing.T) {
	cases := []struct {
		question string
		tool     string
	}{
		{"show me my top keywords", "top_keywords"},
		{"are my automated rules firing?", "rule_status"},
		{"what did I spend last week", "account_summary"},
		{"give me an account overview", "account_summary"},
		{"how is campaign 101 doing", "campaign_metrics"},
		{"how are my campaigns doing", "account_summary"},
		{"tell me a joke", ""},
	}
	p := NewHeuristicProvider()
	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			resp, err := p.Complete(context.Background(),
				"", []Message{TextMessage(RoleUser, tc.question)}, nil)
			require.NoError(t, err)
			if tc.tool == "" {
				assert.Equal(t, "end_turn", resp.StopReason)
				return
			}
			require.Equal(t, "tool_use", resp.StopReason)
			require.Len(t, resp.ToolUses(), 1)
			assert.Equal(t, tc.tool, resp.ToolUses()[0].Name)
			if tc.tool == "campaign_metrics" {
				assert.JSONEq(t, `{"campaign_id":101}`, string(resp.ToolUses()[0].Input))
			}
		})
	}
}

func TestResponse_TextAndToolUses(t *testing.T) {
	r := &Response{Content: []ContentBlock{
		{Type: BlockText, Text: "part one "},
		{Type: BlockToolUse, ID: "t1", Name: "account_summary"},
		{Type: BlockText, Text: "part two"},
	}}
	assert.Equal(t, "part one part two", r.Text())
	assert.Len(t, r.ToolUses(), 1)
}

func TestTitle_Truncation(t *testing.T) {
	assert.Equal(t, "short", title("short"))
	long := title("why is campaign twelve spending so much more than campaign eleven this month")
	assert.LessOrEqual(t, len([]rune(long)), 63)
}
