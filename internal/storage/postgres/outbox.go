package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
)

// EnqueueOutbox writes rec inside the caller's open database
// transaction so a post-commit side effect can never be visible
// without the posting that caused it, nor vice versa (spec.md §4.2).
func (r *Repository) EnqueueOutbox(ctx context.Context, rec *ledger.OutboxRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if rec.Status == "" {
		rec.Status = ledger.OutboxPending
	}

	_, err := r.exec(ctx).ExecContext(ctx, `
		INSERT INTO outbox_records (id, database_transaction_id, event_type, payload, status, attempts, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.DatabaseTransactionID, rec.EventType, rec.Payload, rec.Status, rec.Attempts, rec.NextAttemptAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: enqueue outbox: %w", err)
	}

	return nil
}

// ListOutbox returns up to limit records in status, oldest first, the
// batch internal/outbox.Drain hands to its publisher.
func (r *Repository) ListOutbox(ctx context.Context, status ledger.OutboxStatus, limit int) ([]*ledger.OutboxRecord, error) {
	rows, err := r.exec(ctx).QueryContext(ctx, `
		SELECT id, database_transaction_id, event_type, payload, status, attempts, next_attempt_at, created_at
		FROM outbox_records WHERE status = $1 ORDER BY created_at ASC LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list outbox: %w", err)
	}
	defer rows.Close()

	var out []*ledger.OutboxRecord

	for rows.Next() {
		rec := &ledger.OutboxRecord{}

		err := rows.Scan(&rec.ID, &rec.DatabaseTransactionID, &rec.EventType, &rec.Payload, &rec.Status, &rec.Attempts, &rec.NextAttemptAt, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan outbox record: %w", err)
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

// UpdateOutboxStatus advances one record's state-machine transition
// (ledger.OutboxStatus.CanTransitionTo is enforced by the caller in
// internal/outbox, not here).
func (r *Repository) UpdateOutboxStatus(ctx context.Context, id uuid.UUID, status ledger.OutboxStatus, attempts int) error {
	next := time.Now().UTC()

	_, err := r.exec(ctx).ExecContext(ctx, `
		UPDATE outbox_records SET status = $1, attempts = $2, next_attempt_at = $3 WHERE id = $4`,
		status, attempts, next, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: update outbox status: %w", err)
	}

	return nil
}
