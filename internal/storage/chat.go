package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateConversation starts a new assistant chat thread.
func (s *Store) CreateConversation(ctx context.Context, c *Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_conversations (id, owner, account_id, title)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		c.ID, c.Owner, c.AccountID, c.Title,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// GetConversation returns a thread scoped to its owner.
func (s *Store) GetConversation(ctx context.Context, owner string, id uuid.UUID) (*Conversation, error) {
	c := &Conversation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner, account_id, COALESCE(title,''), created_at, updated_at
		FROM chat_conversations WHERE id = $1 AND owner = $2`, id, owner,
	).Scan(&c.ID, &c.Owner, &c.AccountID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// AppendMessage adds a message to a thread and bumps updated_at.
func (s *Store) AppendMessage(ctx context.Context, m *ChatMessage) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (conversation_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		m.ConversationID, m.Role, m.Content,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE chat_conversations SET updated_at = NOW() WHERE id = $1`, m.ConversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// ListMessages returns a thread's messages in order.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM chat_messages WHERE conversation_id = $1 ORDER BY id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
