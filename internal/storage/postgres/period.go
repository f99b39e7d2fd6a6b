package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
)

// CreatePeriod inserts a new accounting period for the active company.
func (r *Repository) CreatePeriod(ctx context.Context, p *ledger.AccountingPeriod) (*ledger.AccountingPeriod, error) {
	if err := scope.AssertCompanyScope(ctx, p.CompanyID); err != nil {
		return nil, err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	if p.State == "" {
		p.State = ledger.PeriodOpen
	}

	_, err := r.exec(ctx).ExecContext(ctx, `
		INSERT INTO accounting_periods (id, company_id, starts_at, ends_at, type, state, reversal_policy)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.CompanyID, p.Start, p.End, p.Type, p.State, p.ReversalPolicy,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create period: %w", err)
	}

	return p, nil
}

// GetPeriodForDate finds the period covering date, used by the Posting
// Engine's period-lock check (spec.md §4.5).
func (r *Repository) GetPeriodForDate(ctx context.Context, date time.Time) (*ledger.AccountingPeriod, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT id, company_id, starts_at, ends_at, type, state, reversal_policy, closed_by, closed_at
		FROM accounting_periods
		WHERE company_id = $1 AND starts_at <= $2 AND ends_at >= $2`, companyID, date)

	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("AccountingPeriod")
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: get period for date: %w", err)
	}

	return p, nil
}

// GetPeriod loads one period by ID.
func (r *Repository) GetPeriod(ctx context.Context, id uuid.UUID) (*ledger.AccountingPeriod, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT id, company_id, starts_at, ends_at, type, state, reversal_policy, closed_by, closed_at
		FROM accounting_periods WHERE id = $1 AND company_id = $2`, id, companyID)

	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("AccountingPeriod")
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: get period: %w", err)
	}

	return p, nil
}

// UpdatePeriodState transitions a period open<->closed and stamps the
// actor responsible, used for the audit trail (spec.md §4.6).
func (r *Repository) UpdatePeriodState(ctx context.Context, id uuid.UUID, state ledger.PeriodState, actor uuid.UUID) (*ledger.AccountingPeriod, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var closedBy any

	var closedAt any

	if state == ledger.PeriodClosed {
		closedBy = actor
		closedAt = time.Now().UTC()
	}

	_, err = r.exec(ctx).ExecContext(ctx, `
		UPDATE accounting_periods SET state = $1, closed_by = $2, closed_at = $3
		WHERE id = $4 AND company_id = $5`,
		state, closedBy, closedAt, id, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: update period state: %w", err)
	}

	return r.GetPeriod(ctx, id)
}

func scanPeriod(s rowScanner) (*ledger.AccountingPeriod, error) {
	p := &ledger.AccountingPeriod{}

	err := s.Scan(&p.ID, &p.CompanyID, &p.Start, &p.End, &p.Type, &p.State, &p.ReversalPolicy, &p.ClosedBy, &p.ClosedAt)
	if err != nil {
		return nil, err
	}

	return p, nil
}
