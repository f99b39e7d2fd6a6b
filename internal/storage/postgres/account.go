package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage"
)

// CreateAccount inserts a into the chart of accounts, grounded on
// AccountPostgreSQLRepository.Create's ExecContext/RETURNING shape.
func (r *Repository) CreateAccount(ctx context.Context, a *ledger.Account) (*ledger.Account, error) {
	if err := scope.AssertCompanyScope(ctx, a.CompanyID); err != nil {
		return nil, err
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	_, err := r.exec(ctx).ExecContext(ctx, `
		INSERT INTO accounts (id, company_id, code, name, type, subtype, parent_id, active, allow_negative_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.CompanyID, a.Code, a.Name, a.Type, a.Subtype, a.ParentID, a.Active, a.AllowNegativeBalance,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create account: %w", err)
	}

	return a, nil
}

// GetAccount loads one account scoped to the active company.
func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT id, company_id, code, name, type, subtype, parent_id, active, allow_negative_balance
		FROM accounts WHERE id = $1 AND company_id = $2`, id, companyID)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("Account")
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: get account: %w", err)
	}

	return a, nil
}

// ListAccounts returns the active company's chart of accounts in code
// order, starting after the code in filter.Cursor and capped at
// filter.Limit.
func (r *Repository) ListAccounts(ctx context.Context, filter storage.ListFilter) ([]*ledger.Account, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	builder := psql.Select("id, company_id, code, name, type, subtype, parent_id, active, allow_negative_balance").
		From("accounts").
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("code ASC")

	if filter.Cursor != "" {
		builder = builder.Where(squirrel.Gt{"code": filter.Cursor})
	}

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build list accounts query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Account

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan account: %w", err)
		}

		out = append(out, a)
	}

	return out, rows.Err()
}

// GetAccountsByIDs batch-loads accounts, used by the Posting Engine to
// resolve every line's account in one round trip (spec.md §4.3 step 5).
func (r *Repository) GetAccountsByIDs(ctx context.Context, ids []uuid.UUID) (accounts map[uuid.UUID]*ledger.Account, err error) {
	ctx, span := r.startSpan(ctx, "postgres.get_accounts_by_ids")
	defer func() { endSpan(span, err) }()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return map[uuid.UUID]*ledger.Account{}, nil
	}

	query, args, err := psql.Select("id, company_id, code, name, type, subtype, parent_id, active, allow_negative_balance").
		From("accounts").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build get accounts by ids query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: get accounts by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*ledger.Account, len(ids))

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan account: %w", err)
		}

		out[a.ID] = a
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (*ledger.Account, error) {
	a := &ledger.Account{}

	err := s.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Subtype, &a.ParentID, &a.Active, &a.AllowNegativeBalance)
	if err != nil {
		return nil, err
	}

	return a, nil
}
