package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/ads-console/internal/storage"
)

const systemPrompt = `You are a Google Ads performance analyst for an ads
management console. You answer questions about the user's linked account
using the provided read-only tools. Money values named *_micros are in
millionths of the account currency.

Guidelines:
1. Always ground answers in tool data, never invent numbers.
2. Be direct and quantify: name campaigns, give figures and rates.
3. When performance looks poor, suggest a concrete next step (pause,
   budget change, keyword review) the user can do in this console.
4. You cannot change anything; say so if asked to mutate.`

// Assistant runs chat turns: persistence, tool loop, provider calls.
type Assistant struct {
	store         *storage.Store
	provider      Provider
	knowledge     *KnowledgeStore // nil disables note-taking
	maxToolRounds int
	logger        *log.Logger
}

func NewAssistant(store *storage.Store, provider Provider, knowledge *KnowledgeStore, maxToolRounds int) *Assistant {
	if maxToolRounds <= 0 {
		maxToolRounds = 5
	}
	return &Assistant{
		store:         store,
		provider:      provider,
		knowledge:     knowledge,
		maxToolRounds: maxToolRounds,
		logger:        log.New(log.Writer(), "[assistant] ", log.LstdFlags),
	}
}

// ChatInput is one user turn. ConversationID nil starts a conversation.
type ChatInput struct {
	Owner          string
	AccountID      uuid.UUID
	ConversationID *uuid.UUID
	Text           string
}

// ChatOutput is the assistant's reply with its conversation handle.
type ChatOutput struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Reply          string    `json:"reply"`
	Provider       string    `json:"provider"`
}

// Chat runs one turn: load or create the conversation, append the user
// message, run the provider with the tool loop, persist the reply.
func (a *Assistant) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("assistant: empty message")
	}

	conv, err := a.loadOrCreate(ctx, in)
	if err != nil {
		return nil, err
	}

	history, err := a.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, TextMessage(m.Role, m.Content))
	}
	messages = append(messages, TextMessage(RoleUser, in.Text))

	if err := a.store.AppendMessage(ctx, &storage.ChatMessage{
		ConversationID: conv.ID, Role: RoleUser, Content: in.Text,
	}); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	tools := NewToolset(a.store, in.AccountID)
	reply, err := a.runToolLoop(ctx, messages, tools)
	if err != nil {
		return nil, err
	}

	if err := a.store.AppendMessage(ctx, &storage.ChatMessage{
		ConversationID: conv.ID, Role: RoleAssistant, Content: reply,
	}); err != nil {
		return nil, fmt.Errorf("store reply: %w", err)
	}

	if a.knowledge != nil {
		if err := a.saveNote(ctx, in, reply); err != nil {
			a.logger.Printf("knowledge save: %v", err)
		}
	}

	return &ChatOutput{ConversationID: conv.ID, Reply: reply, Provider: a.provider.Name()}, nil
}

func (a *Assistant) loadOrCreate(ctx context.Context, in ChatInput) (*storage.Conversation, error) {
	if in.ConversationID != nil {
		conv, err := a.store.GetConversation(ctx, in.Owner, *in.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		return conv, nil
	}
	conv := &storage.Conversation{
		Owner:     in.Owner,
		AccountID: in.AccountID,
		Title:     title(in.Text),
	}
	if err := a.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// runToolLoop drives the provider until it stops asking for tools.
func (a *Assistant) runToolLoop(ctx context.Context, messages []Message, tools *Toolset) (string, error) {
	specs := tools.Specs()

	for round := 0; round < a.maxToolRounds; round++ {
		resp, err := a.provider.Complete(ctx, systemPrompt, messages, specs)
		if err != nil {
			return "", fmt.Errorf("provider: %w", err)
		}

		calls := resp.ToolUses()
		if resp.StopReason != "tool_use" || len(calls) == 0 {
			return resp.Text(), nil
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: resp.Content})

		results := make([]ContentBlock, 0, len(calls))
		for _, call := range calls {
			out, err := tools.Run(ctx, call.Name, call.Input)
			if err != nil {
				a.logger.Printf("tool %s: %v", call.Name, err)
				out = fmt.Sprintf(`{"error":%q}`, err.Error())
			}
			results = append(results, ContentBlock{
				Type:      BlockToolResult,
				ToolUseID: call.ID,
				Content:   out,
			})
		}
		messages = append(messages, Message{Role: RoleUser, Content: results})
	}
	return "", fmt.Errorf("assistant: tool loop exceeded %d rounds", a.maxToolRounds)
}

func (a *Assistant) saveNote(ctx context.Context, in ChatInput, reply string) error {
	return a.knowledge.SaveNote(ctx, in.AccountID, Note{
		Owner:     in.Owner,
		Question:  in.Text,
		Answer:    reply,
		CreatedAt: time.Now().UTC(),
	})
}

// title derives a conversation title from the first message.
func title(text string) string {
	const max = 60
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
