package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// LogActivity appends an audit row. Failures are returned but callers
// generally log and continue; auditing must not fail the user action.
func (s *Store) LogActivity(ctx context.Context, l *ActivityLog) error {
	detail := l.Detail
	if detail == nil {
		detail = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (account_id, actor, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.AccountID, l.Actor, l.Action, l.EntityType, l.EntityID, []byte(detail))
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// ListActivity returns recent audit rows for an account, newest first.
func (s *Store) ListActivity(ctx context.Context, accountID uuid.UUID, limit int) ([]ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, actor, action, entity_type, COALESCE(entity_id,''), detail, created_at
		FROM activity_logs WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var logs []ActivityLog
	for rows.Next() {
		var l ActivityLog
		if err := rows.Scan(&l.ID, &l.AccountID, &l.Actor, &l.Action, &l.EntityType, &l.EntityID, (*[]byte)(&l.Detail), &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
