// Package agent implements the AI assistant: chat over the account's
// ads data through Claude (direct Anthropic API or AWS Bedrock) with a
// read-only tool loop, plus a deterministic heuristic fallback that
// needs no credentials.
package agent

import (
	"context"
	"encoding/json"
)

// Message roles and content block types follow the Anthropic Messages
// API; the Bedrock provider speaks the same payload.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one block of a message: plain text, a tool call the
// model requests, or the result fed back to it.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`          // tool_use
	Name      string          `json:"name,omitempty"`        // tool_use
	Input     json.RawMessage `json:"input,omitempty"`       // tool_use
	ToolUseID string          `json:"tool_use_id,omitempty"` // tool_result
	Content   string          `json:"content,omitempty"`     // tool_result
}

// Message is one conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// TextMessage builds a single-block text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Response is one model turn. StopReason "tool_use" means the caller
// must run the requested tools and continue the loop.
type Response struct {
	Content    []ContentBlock
	StopReason string
}

// Text concatenates the response's text blocks.
func (r *Response) Text() string {
	var out string
	for _, b := range r.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool calls the model requested.
func (r *Response) ToolUses() []ContentBlock {
	var calls []ContentBlock
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			calls = append(calls, b)
		}
	}
	return calls
}

// Provider is one model backend.
type Provider interface {
	Complete(ctx context.Context, system string, messages []Message, tools []ToolSpec) (*Response, error)
	Name() string
}
