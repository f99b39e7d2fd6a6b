package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
)

// InsertIdempotencyInFlight claims the durable tier of the Idempotency
// Store for (operation, key), grounded on
// create-idempotency-key_test.go's Postgres-miss fallback path. The
// per-company UNIQUE index on (company_id, operation, key)
// (spec.md §4.8) is the actual race arbiter; a concurrent insert
// returns a unique-violation the caller maps to CodeBusy.
func (r *Repository) InsertIdempotencyInFlight(ctx context.Context, rec *ledger.IdempotencyRecord) error {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	rec.CompanyID = companyID.String()

	_, err = r.exec(ctx).ExecContext(ctx, `
		INSERT INTO idempotency_keys (company_id, operation, key, fingerprint, state, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.CompanyID, rec.Operation, rec.Key, rec.Fingerprint, ledger.IdempotencyInFlight, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert idempotency in flight: %w", err)
	}

	return nil
}

// LoadIdempotency reads the durable record for (operation, key), or
// nil if none exists yet.
func (r *Repository) LoadIdempotency(ctx context.Context, operation, key string) (*ledger.IdempotencyRecord, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT company_id, operation, key, fingerprint, state, response_status, response_body, created_at, expires_at
		FROM idempotency_keys WHERE company_id = $1 AND operation = $2 AND key = $3`,
		companyID, operation, key,
	)

	rec := &ledger.IdempotencyRecord{}

	err = row.Scan(&rec.CompanyID, &rec.Operation, &rec.Key, &rec.Fingerprint, &rec.State,
		&rec.ResponseStatus, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: load idempotency: %w", err)
	}

	return rec, nil
}

// FinalizeIdempotency records the response of the first successful
// attempt so every retry with the same key replays it verbatim
// (spec.md §4.4).
func (r *Repository) FinalizeIdempotency(ctx context.Context, operation, key string, status int, responseBody []byte) error {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	_, err = r.exec(ctx).ExecContext(ctx, `
		UPDATE idempotency_keys SET state = $1, response_status = $2, response_body = $3
		WHERE company_id = $4 AND operation = $5 AND key = $6`,
		ledger.IdempotencyDone, status, responseBody, companyID, operation, key,
	)
	if err != nil {
		return fmt.Errorf("postgres: finalize idempotency: %w", err)
	}

	return nil
}

// PurgeExpiredIdempotency deletes every record whose TTL has elapsed,
// run periodically under scope.System (spec.md §4.4).
func (r *Repository) PurgeExpiredIdempotency(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge expired idempotency: %w", err)
	}

	return result.RowsAffected()
}
