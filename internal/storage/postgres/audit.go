package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
)

// TailAuditHash locks and returns the active company's most recent
// eventHash, the previousHash of the next link in the chain
// (spec.md §4.6). The row lock (FOR UPDATE) must be taken inside the
// same transaction AppendAudit commits in, or two concurrent appends
// could both read the same tail and fork the chain.
func (r *Repository) TailAuditHash(ctx context.Context) (string, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return "", err
	}

	var hash string

	err = r.exec(ctx).QueryRowContext(ctx, `
		SELECT event_hash FROM audit_events
		WHERE company_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1
		FOR UPDATE`, companyID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("postgres: tail audit hash: %w", err)
	}

	return hash, nil
}

// AppendAudit writes one link of the hash chain. event.PreviousHash and
// event.EventHash must already be set by internal/audit.Log.Append
// before this is called; this method only persists the row.
func (r *Repository) AppendAudit(ctx context.Context, event *ledger.AuditEvent) error {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	before, err := json.Marshal(event.Before)
	if err != nil {
		return fmt.Errorf("postgres: marshal audit before: %w", err)
	}

	after, err := json.Marshal(event.After)
	if err != nil {
		return fmt.Errorf("postgres: marshal audit after: %w", err)
	}

	_, err = r.exec(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (
			id, company_id, actor_user_id, action, entity_type, entity_id,
			before, after, previous_hash, event_hash, occurred_at, correlation_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, companyID, event.ActorUserID, event.Action, event.EntityType, event.EntityID,
		before, after, event.PreviousHash, event.EventHash, event.OccurredAt, event.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("postgres: append audit: %w", err)
	}

	return nil
}

// ListAuditEvents returns the active company's full chain in
// occurrence order, used by internal/audit.Log.VerifyChain.
func (r *Repository) ListAuditEvents(ctx context.Context) ([]*ledger.AuditEvent, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.exec(ctx).QueryContext(ctx, `
		SELECT id, company_id, actor_user_id, action, entity_type, entity_id,
			before, after, previous_hash, event_hash, occurred_at, correlation_id
		FROM audit_events WHERE company_id = $1 ORDER BY occurred_at ASC, id ASC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit events: %w", err)
	}
	defer rows.Close()

	var out []*ledger.AuditEvent

	for rows.Next() {
		e := &ledger.AuditEvent{}

		var before, after []byte

		var rowCompanyID uuid.UUID

		err := rows.Scan(&e.ID, &rowCompanyID, &e.ActorUserID, &e.Action, &e.EntityType, &e.EntityID,
			&before, &after, &e.PreviousHash, &e.EventHash, &e.OccurredAt, &e.CorrelationID)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan audit event: %w", err)
		}

		e.CompanyID = &rowCompanyID

		if len(before) > 0 {
			_ = json.Unmarshal(before, &e.Before)
		}

		if len(after) > 0 {
			_ = json.Unmarshal(after, &e.After)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}
