package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
)

// GetCompany loads a company by ID with no scope check of its own:
// resolving which company a caller is even allowed to see is the
// caller's job (typically the membership lookup right below), not this
// reference-data read.
func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*ledger.Company, error) {
	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT id, tenant_id, name, timezone FROM companies WHERE id = $1`, id)

	c := &ledger.Company{}

	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("Company")
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: get company: %w", err)
	}

	return c, nil
}

// GetMembership loads the role userID holds in companyID, used to
// build a RequestScope before any scoped repository call is made.
func (r *Repository) GetMembership(ctx context.Context, userID, companyID uuid.UUID) (*ledger.Membership, error) {
	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT user_id, company_id, role FROM memberships WHERE user_id = $1 AND company_id = $2`, userID, companyID)

	m := &ledger.Membership{}

	err := row.Scan(&m.UserID, &m.CompanyID, &m.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("Membership")
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: get membership: %w", err)
	}

	return m, nil
}
