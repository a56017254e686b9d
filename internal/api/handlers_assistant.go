package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/ads-console/internal/agent"
	"github.com/ignite/ads-console/internal/pkg/httputil"
)

type chatRequest struct {
	AccountID      uuid.UUID  `json:"account_id"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message"`
}

// AssistantChat handles POST /api/assistant/chat. Omitting
// conversation_id starts a new thread.
func (h *Handlers) AssistantChat(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	var req chatRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccountID == uuid.Nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.BadRequest(w, "message is required")
		return
	}
	if _, err := h.store.GetAccount(r.Context(), req.AccountID); err != nil {
		writeStoreError(w, err)
		return
	}

	out, err := h.assistant.Chat(r.Context(), agent.ChatInput{
		Owner:          owner(r),
		AccountID:      req.AccountID,
		ConversationID: req.ConversationID,
		Text:           req.Message,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.OK(w, out)
}

// GetConversation handles GET /api/assistant/conversations/{id},
// returning the thread with its full message history. Conversations are
// scoped to their owner.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid conversation id")
		return
	}
	conv, err := h.store.GetConversation(r.Context(), owner(r), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	msgs, err := h.store.ListMessages(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"conversation": conv,
		"messages":     msgs,
	})
}
