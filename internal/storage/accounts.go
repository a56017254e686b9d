package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateAccount links a new Google Ads account.
func (s *Store) CreateAccount(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = "active"
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, customer_id, name, currency, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		a.ID, a.CustomerID, a.Name, a.Currency, a.Timezone, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount returns one account by ID.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	a := &Account{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, name, COALESCE(currency,''), COALESCE(timezone,''), status, created_at, updated_at
		FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.CustomerID, &a.Name, &a.Currency, &a.Timezone, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns all linked accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, name, COALESCE(currency,''), COALESCE(timezone,''), status, created_at, updated_at
		FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Name, &a.Currency, &a.Timezone, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListActiveAccounts returns accounts eligible for background sync.
func (s *Store) ListActiveAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, name, COALESCE(currency,''), COALESCE(timezone,''), status, created_at, updated_at
		FROM accounts WHERE status = 'active' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Name, &a.Currency, &a.Timezone, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
