// Package storage defines the Scoped Repository: the only interface
// permitted to read or write ledger entities (spec.md §4.2). Account,
// dimension, period, transaction, idempotency and audit methods enforce
// the active scope.RequestScope before they touch a row, in addition to
// whatever row-level security the underlying store layers on top
// (spec.md §4.2 "defense in depth"). InsertLines,
// PurgeExpiredIdempotency, the outbox methods and the company lookups
// do no scope check of their own.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
)

// ListFilter narrows a scoped list query. Zero values mean "no filter".
type ListFilter struct {
	Cursor string
	Limit  int
}

// AccountRepository reads and writes chart-of-accounts rows.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *ledger.Account) (*ledger.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error)
	ListAccounts(ctx context.Context, filter ListFilter) ([]*ledger.Account, error)
	GetAccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ledger.Account, error)
}

// DimensionRepository reads and writes dimension/dimension-value rows.
type DimensionRepository interface {
	CreateDimension(ctx context.Context, d *ledger.Dimension) (*ledger.Dimension, error)
	ListDimensions(ctx context.Context) ([]*ledger.Dimension, error)
}

// PeriodRepository reads and writes accounting period rows.
type PeriodRepository interface {
	CreatePeriod(ctx context.Context, p *ledger.AccountingPeriod) (*ledger.AccountingPeriod, error)
	GetPeriodForDate(ctx context.Context, date time.Time) (*ledger.AccountingPeriod, error)
	GetPeriod(ctx context.Context, id uuid.UUID) (*ledger.AccountingPeriod, error)
	UpdatePeriodState(ctx context.Context, id uuid.UUID, state ledger.PeriodState, actor uuid.UUID) (*ledger.AccountingPeriod, error)
}

// TransactionRepository reads and writes transactions and their lines.
// Per spec.md §3 invariant 4, there is deliberately no UpdateLines or
// DeleteTransaction — posted lines are immutable; corrections are a new
// Transaction.
type TransactionRepository interface {
	NextTransactionNumber(ctx context.Context) (string, error)
	InsertTransaction(ctx context.Context, t *ledger.Transaction) error
	InsertLines(ctx context.Context, lines []ledger.TransactionLine) error
	GetTransactionWithLines(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*ledger.Transaction, error)
	ListPostedTransactions(ctx context.Context, from, to time.Time) ([]*ledger.Transaction, error)
	MarkReversed(ctx context.Context, originalID, reversalID uuid.UUID) error
	AccountRunningBalance(ctx context.Context, accountID uuid.UUID) (debitMinor, creditMinor int64, err error)
}

// IdempotencyRepository persists the durable tier of the Idempotency
// Store (spec.md §4.4); the fast-path lock lives in internal/idempotency
// and is not part of this interface since it is not a ledger entity.
type IdempotencyRepository interface {
	InsertIdempotencyInFlight(ctx context.Context, rec *ledger.IdempotencyRecord) error
	LoadIdempotency(ctx context.Context, operation, key string) (*ledger.IdempotencyRecord, error)
	FinalizeIdempotency(ctx context.Context, operation, key string, status int, responseBody []byte) error
	PurgeExpiredIdempotency(ctx context.Context, olderThan time.Time) (int64, error)
}

// AuditRepository appends to and reads the hash-chained audit log
// (spec.md §4.6). The caller (internal/audit.Log.Append) fills
// PreviousHash and EventHash; AppendAudit only persists the event.
type AuditRepository interface {
	TailAuditHash(ctx context.Context) (string, error)
	AppendAudit(ctx context.Context, event *ledger.AuditEvent) error
	ListAuditEvents(ctx context.Context) ([]*ledger.AuditEvent, error)
}

// OutboxRepository writes post-commit event records bound to the
// current database transaction (spec.md §4.2, §6).
type OutboxRepository interface {
	EnqueueOutbox(ctx context.Context, rec *ledger.OutboxRecord) error
	ListOutbox(ctx context.Context, status ledger.OutboxStatus, limit int) ([]*ledger.OutboxRecord, error)
	UpdateOutboxStatus(ctx context.Context, id uuid.UUID, status ledger.OutboxStatus, attempts int) error
}

// CompanyRepository reads tenant/company/membership rows. These are
// reference data rather than transactional ledger data and do no scope
// check: they are what a caller uses to build a RequestScope.
type CompanyRepository interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*ledger.Company, error)
	GetMembership(ctx context.Context, userID, companyID uuid.UUID) (*ledger.Membership, error)
}

// Repository is the Scoped Repository: the sole API for reading or
// writing ledger entities (spec.md §4.2).
type Repository interface {
	AccountRepository
	DimensionRepository
	PeriodRepository
	TransactionRepository
	IdempotencyRepository
	AuditRepository
	OutboxRepository
	CompanyRepository

	// WithinTransaction runs fn with a storage-level transaction bound
	// to ctx (see internal/storage/dbtx), committing on success and
	// rolling back on error or panic. Every mutating operation in
	// internal/posting runs inside exactly one WithinTransaction call
	// so audit/outbox/line inserts are never partially visible
	// (spec.md §5 "no partial commit is ever visible").
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
