package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueueSyncJob inserts a pending job unless one of the same kind is
// already pending or running for the account.
func (s *Store) EnqueueSyncJob(ctx context.Context, accountID uuid.UUID, kind string, runAfter time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sync_jobs
			WHERE account_id = $1 AND kind = $2 AND status IN ('pending', 'running'))`,
		accountID, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending jobs: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (id, account_id, kind, status, run_after)
		VALUES ($1, $2, $3, 'pending', $4)`,
		uuid.New(), accountID, kind, runAfter)
	if err != nil {
		return false, fmt.Errorf("enqueue sync job: %w", err)
	}
	return true, nil
}

// ClaimSyncJob atomically claims the next due pending job using
// FOR UPDATE SKIP LOCKED so concurrent workers never double-claim.
// Returns ErrNotFound when the queue is empty.
func (s *Store) ClaimSyncJob(ctx context.Context, now time.Time) (*SyncJob, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	j := &SyncJob{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, account_id, kind, status, attempts, run_after, created_at
		FROM sync_jobs
		WHERE status = 'pending' AND run_after <= $1
		ORDER BY run_after
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, now,
	).Scan(&j.ID, &j.AccountID, &j.Kind, &j.Status, &j.Attempts, &j.RunAfter, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}

	started := now
	_, err = tx.ExecContext(ctx, `
		UPDATE sync_jobs SET status = 'running', attempts = attempts + 1, started_at = $2
		WHERE id = $1`, j.ID, started)
	if err != nil {
		return nil, fmt.Errorf("mark running: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	j.Status = "running"
	j.Attempts++
	j.StartedAt = &started
	return j, nil
}

// CompleteSyncJob marks a running job finished.
func (s *Store) CompleteSyncJob(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs SET status = 'completed', finished_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("complete sync job: %w", err)
	}
	return nil
}

// FailSyncJob records a failure. If attempts remain, the job is re-queued
// with the given backoff; otherwise it is marked failed.
func (s *Store) FailSyncJob(ctx context.Context, id uuid.UUID, errText string, maxAttempts int, backoff time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs SET
			status = CASE WHEN attempts >= $2 THEN 'failed' ELSE 'pending' END,
			run_after = CASE WHEN attempts >= $2 THEN run_after ELSE NOW() + $3::interval END,
			finished_at = CASE WHEN attempts >= $2 THEN NOW() ELSE NULL END,
			error_text = $4
		WHERE id = $1`,
		id, maxAttempts, fmt.Sprintf("%d seconds", int(backoff.Seconds())), errText)
	if err != nil {
		return fmt.Errorf("fail sync job: %w", err)
	}
	return nil
}

// LastCompletedSync returns when a job of the given kind last finished
// successfully for the account, or nil if it never has.
func (s *Store) LastCompletedSync(ctx context.Context, accountID uuid.UUID, kind string) (*time.Time, error) {
	var last *time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(finished_at) FROM sync_jobs
		WHERE account_id = $1 AND kind = $2 AND status = 'completed'`,
		accountID, kind).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("last completed sync: %w", err)
	}
	return last, nil
}

// GetQueueStatus summarizes the queue for the monitor endpoint.
func (s *Store) GetQueueStatus(ctx context.Context) (*QueueStatus, error) {
	q := &QueueStatus{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COUNT(*) FILTER (WHERE status = 'completed' AND finished_at > NOW() - interval '24 hours'),
			COUNT(*) FILTER (WHERE status = 'failed' AND finished_at > NOW() - interval '24 hours'),
			EXTRACT(EPOCH FROM NOW() - MIN(run_after) FILTER (WHERE status = 'pending')),
			MAX(finished_at) FILTER (WHERE status = 'completed')
		FROM sync_jobs`,
	).Scan(&q.Pending, &q.Running, &q.Completed24h, &q.Failed24h, &q.OldestPendingAge, &q.LastCompletedAt)
	if err != nil {
		return nil, fmt.Errorf("queue status: %w", err)
	}
	return q, nil
}
