package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicateName is returned when a saved view name already exists for
// the owner.
var ErrDuplicateName = fmt.Errorf("storage: duplicate name")

// CreateSavedView stores a new dashboard view. Names are unique per owner.
func (s *Store) CreateSavedView(ctx context.Context, v *SavedView) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO saved_views (id, owner, account_id, name, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		v.ID, v.Owner, v.AccountID, v.Name, []byte(v.Payload),
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("create saved view: %w", err)
	}
	return nil
}

// GetSavedView returns one view by ID, scoped to its owner.
func (s *Store) GetSavedView(ctx context.Context, owner string, id uuid.UUID) (*SavedView, error) {
	v := &SavedView{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner, account_id, name, payload, created_at, updated_at
		FROM saved_views WHERE id = $1 AND owner = $2`, id, owner,
	).Scan(&v.ID, &v.Owner, &v.AccountID, &v.Name, (*[]byte)(&v.Payload), &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get saved view: %w", err)
	}
	return v, nil
}

// ListSavedViews returns the owner's views, newest first.
func (s *Store) ListSavedViews(ctx context.Context, owner string) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, account_id, name, payload, created_at, updated_at
		FROM saved_views WHERE owner = $1 ORDER BY updated_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list saved views: %w", err)
	}
	defer rows.Close()

	var views []SavedView
	for rows.Next() {
		var v SavedView
		if err := rows.Scan(&v.ID, &v.Owner, &v.AccountID, &v.Name, (*[]byte)(&v.Payload), &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan saved view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// UpdateSavedView replaces the name and payload of an existing view.
func (s *Store) UpdateSavedView(ctx context.Context, v *SavedView) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE saved_views SET name = $1, payload = $2, updated_at = NOW()
		WHERE id = $3 AND owner = $4`,
		v.Name, []byte(v.Payload), v.ID, v.Owner)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("update saved view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSavedView removes a view owned by the caller.
func (s *Store) DeleteSavedView(ctx context.Context, owner string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete saved view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
