package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
)

// NextTransactionNumber allocates the next human-facing transaction
// number for the active company from a per-company counter, formatted
// "TXN-<company-scoped sequence>" (spec.md §4.8's per-company UNIQUE
// index is what makes this safe under concurrent allocation — the
// UPSERT below races harmlessly because the unique constraint, not this
// statement, is the source of truth).
func (r *Repository) NextTransactionNumber(ctx context.Context) (number string, err error) {
	ctx, span := r.startSpan(ctx, "postgres.next_transaction_number")
	defer func() { endSpan(span, err) }()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return "", err
	}

	var next int64

	err = r.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO transaction_number_sequences (company_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_value = transaction_number_sequences.last_value + 1
		RETURNING last_value`, companyID).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("postgres: next transaction number: %w", err)
	}

	return fmt.Sprintf("TXN-%06d", next), nil
}

// InsertTransaction writes the transaction header row. Lines are
// inserted separately by InsertLines so the Posting Engine can insert
// the header, validate, then insert lines all inside one
// WithinTransaction call (spec.md §4.3).
func (r *Repository) InsertTransaction(ctx context.Context, t *ledger.Transaction) error {
	if err := scope.AssertCompanyScope(ctx, t.CompanyID); err != nil {
		return err
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	_, err := r.exec(ctx).ExecContext(ctx, `
		INSERT INTO transactions (
			id, company_id, transaction_number, occurred_at, description, reference,
			type, status, reversed_transaction_id, idempotency_key, created_by, created_at, posted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.CompanyID, t.TransactionNumber, t.Date, t.Description, t.Reference,
		t.Type, t.Status, t.ReversedTransactionID, t.IdempotencyKey, t.CreatedBy, t.CreatedAt, t.PostedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert transaction: %w", err)
	}

	return nil
}

// InsertLines writes every line of a transaction. The teacher's
// create-ledger.go batches entity creates one INSERT per row; lines do
// the same here since batch size is capped by line_count_max_per_txn
// (spec.md §6) and stays small enough that a multi-row INSERT would
// only complicate parameter counting for no measurable gain.
func (r *Repository) InsertLines(ctx context.Context, lines []ledger.TransactionLine) error {
	for i := range lines {
		l := &lines[i]

		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}

		dims, err := json.Marshal(l.Dimensions)
		if err != nil {
			return fmt.Errorf("postgres: marshal line dimensions: %w", err)
		}

		_, err = r.exec(ctx).ExecContext(ctx, `
			INSERT INTO transaction_lines (
				id, transaction_id, company_id, account_id, debit_minor, credit_minor,
				description, dimensions, line_number
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, l.TransactionID, l.CompanyID, l.AccountID, l.DebitMinor, l.CreditMinor,
			l.Description, dims, l.LineNumber,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert line %d: %w", l.LineNumber, err)
		}
	}

	return nil
}

// GetTransactionWithLines loads a posted or draft transaction along
// with every line, ordered by line_number.
func (r *Repository) GetTransactionWithLines(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT id, company_id, transaction_number, occurred_at, description, reference,
			type, status, reversed_transaction_id, idempotency_key, created_by, created_at, posted_at
		FROM transactions WHERE id = $1 AND company_id = $2`, id, companyID)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("Transaction")
	}

	if err != nil {
		return nil, fmt.Errorf("postgres: get transaction: %w", err)
	}

	lines, err := r.linesForTransaction(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	t.Lines = lines

	return t, nil
}

func (r *Repository) linesForTransaction(ctx context.Context, companyID, transactionID uuid.UUID) ([]ledger.TransactionLine, error) {
	rows, err := r.exec(ctx).QueryContext(ctx, `
		SELECT id, transaction_id, company_id, account_id, debit_minor, credit_minor, description, dimensions, line_number
		FROM transaction_lines WHERE company_id = $1 AND transaction_id = $2 ORDER BY line_number ASC`, companyID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list lines: %w", err)
	}
	defer rows.Close()

	var out []ledger.TransactionLine

	for rows.Next() {
		l := ledger.TransactionLine{}

		var raw []byte

		err := rows.Scan(&l.ID, &l.TransactionID, &l.CompanyID, &l.AccountID, &l.DebitMinor, &l.CreditMinor, &l.Description, &raw, &l.LineNumber)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan line: %w", err)
		}

		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &l.Dimensions); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal line dimensions: %w", err)
			}
		}

		out = append(out, l)
	}

	return out, rows.Err()
}

// ListTransactionsForAccount returns every line-bearing transaction
// touching accountID within [from, to], used by internal/reporting.
func (r *Repository) ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*ledger.Transaction, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select("DISTINCT t.id, t.company_id, t.transaction_number, t.occurred_at, t.description, t.reference, t.type, t.status, t.reversed_transaction_id, t.idempotency_key, t.created_by, t.created_at, t.posted_at").
		From("transactions t").
		Join("transaction_lines l ON l.transaction_id = t.id").
		Where(squirrel.Eq{"t.company_id": companyID}).
		Where(squirrel.Eq{"l.account_id": accountID}).
		Where(squirrel.GtOrEq{"t.occurred_at": from}).
		Where(squirrel.LtOrEq{"t.occurred_at": to}).
		OrderBy("t.occurred_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build list transactions for account query: %w", err)
	}

	return r.queryTransactions(ctx, companyID, query, args...)
}

// ListPostedTransactions returns every non-draft transaction in
// [from, to] for the active company, used by internal/reporting.
// Reversed originals are included: they and their reversals net to
// zero, which is exactly the effect the reports must show.
func (r *Repository) ListPostedTransactions(ctx context.Context, from, to time.Time) (txns []*ledger.Transaction, err error) {
	ctx, span := r.startSpan(ctx, "postgres.list_posted_transactions")
	defer func() { endSpan(span, err) }()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select("id, company_id, transaction_number, occurred_at, description, reference, type, status, reversed_transaction_id, idempotency_key, created_by, created_at, posted_at").
		From("transactions").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.NotEq{"status": ledger.TransactionDraft}).
		Where(squirrel.GtOrEq{"occurred_at": from}).
		Where(squirrel.LtOrEq{"occurred_at": to}).
		OrderBy("occurred_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build list posted transactions query: %w", err)
	}

	txns, err = r.queryTransactions(ctx, companyID, query, args...)

	return txns, err
}

func (r *Repository) queryTransactions(ctx context.Context, companyID uuid.UUID, query string, args ...any) ([]*ledger.Transaction, error) {
	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}

		lines, err := r.linesForTransaction(ctx, companyID, t.ID)
		if err != nil {
			return nil, err
		}

		t.Lines = lines
		out = append(out, t)
	}

	return out, rows.Err()
}

// MarkReversed transitions originalID to reversed and links it to
// reversalID, the last step of Engine.VoidTransaction's reversal
// construction (spec.md §4.3).
func (r *Repository) MarkReversed(ctx context.Context, originalID, reversalID uuid.UUID) error {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	result, err := r.exec(ctx).ExecContext(ctx, `
		UPDATE transactions SET status = $1
		WHERE id = $2 AND company_id = $3 AND status = $4`,
		ledger.TransactionReversed, originalID, companyID, ledger.TransactionPosted,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark reversed: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: mark reversed rows affected: %w", err)
	}

	if n == 0 {
		return ledger.New(ledger.KindIntegrity, ledger.CodeImmutabilityViolation, "transaction is not postable-reversed: not posted or not found")
	}

	_, err = r.exec(ctx).ExecContext(ctx, `
		UPDATE transactions SET reversed_transaction_id = $1 WHERE id = $2 AND company_id = $3`,
		reversalID, originalID, companyID,
	)
	if err != nil {
		return fmt.Errorf("postgres: link reversal: %w", err)
	}

	return nil
}

// AccountRunningBalance sums every posted line touching accountID,
// used by the Posting Engine's negative-balance check (spec.md §4.3
// step 10) and by internal/reporting's balance sheet.
func (r *Repository) AccountRunningBalance(ctx context.Context, accountID uuid.UUID) (debitMinor, creditMinor int64, err error) {
	ctx, span := r.startSpan(ctx, "postgres.account_running_balance")
	defer func() { endSpan(span, err) }()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return 0, 0, err
	}

	// A reversed original still counts: its lines and the reversal's
	// cancel out. Only draft lines are excluded from balances.
	row := r.exec(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(l.debit_minor), 0), COALESCE(SUM(l.credit_minor), 0)
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE l.company_id = $1 AND l.account_id = $2 AND t.status <> $3`,
		companyID, accountID, ledger.TransactionDraft,
	)

	if err := row.Scan(&debitMinor, &creditMinor); err != nil {
		return 0, 0, fmt.Errorf("postgres: account running balance: %w", err)
	}

	return debitMinor, creditMinor, nil
}

func scanTransaction(s rowScanner) (*ledger.Transaction, error) {
	t := &ledger.Transaction{}

	err := s.Scan(
		&t.ID, &t.CompanyID, &t.TransactionNumber, &t.Date, &t.Description, &t.Reference,
		&t.Type, &t.Status, &t.ReversedTransactionID, &t.IdempotencyKey, &t.CreatedBy, &t.CreatedAt, &t.PostedAt,
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}
