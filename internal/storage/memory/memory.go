// Package memory implements storage.Repository entirely in process
// memory. Nothing in the teacher's pack ships a repository fake like
// this (its tests run against sqlmock or a containerized Postgres
// instead); this package exists because the Posting Engine's scenario
// and property tests (spec.md §8) need to run thousands of postings
// without a database, and sqlmock cannot express the constraint
// re-checks, sequence allocation, and multi-table joins those tests
// exercise. It enforces the same RequestScope checks as
// internal/storage/postgres and, like it, leaves OutboxStatus
// transition checks to its callers; it has no RLS equivalent since
// there is no SQL engine underneath.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage"
)

// Repository is a storage.Repository backed by guarded maps. The zero
// value is not usable; construct with New.
type Repository struct {
	mu sync.Mutex

	accounts     map[uuid.UUID]*ledger.Account
	dimensions   map[uuid.UUID]*ledger.Dimension
	periods      map[uuid.UUID]*ledger.AccountingPeriod
	transactions map[uuid.UUID]*ledger.Transaction
	idempotency  map[string]*ledger.IdempotencyRecord
	audit        map[uuid.UUID][]*ledger.AuditEvent
	outbox       map[uuid.UUID]*ledger.OutboxRecord
	companies    map[uuid.UUID]*ledger.Company
	memberships  map[string]*ledger.Membership
	txSeq        map[uuid.UUID]int64

	inTx bool
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		accounts:     map[uuid.UUID]*ledger.Account{},
		dimensions:   map[uuid.UUID]*ledger.Dimension{},
		periods:      map[uuid.UUID]*ledger.AccountingPeriod{},
		transactions: map[uuid.UUID]*ledger.Transaction{},
		idempotency:  map[string]*ledger.IdempotencyRecord{},
		audit:        map[uuid.UUID][]*ledger.AuditEvent{},
		outbox:       map[uuid.UUID]*ledger.OutboxRecord{},
		companies:    map[uuid.UUID]*ledger.Company{},
		memberships:  map[string]*ledger.Membership{},
		txSeq:        map[uuid.UUID]int64{},
	}
}

// SeedCompany registers reference data outside of any transaction,
// used by tests to set up fixtures before exercising the Posting
// Engine.
func (r *Repository) SeedCompany(c *ledger.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.companies[c.ID] = c
}

// SeedMembership registers a membership fixture.
func (r *Repository) SeedMembership(m *ledger.Membership) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.memberships[membershipKey(m.UserID, m.CompanyID)] = m
}

// SeedAccount registers an account fixture directly, bypassing scope
// checks (test setup only).
func (r *Repository) SeedAccount(a *ledger.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[a.ID] = a
}

// SeedPeriod registers an accounting period fixture.
func (r *Repository) SeedPeriod(p *ledger.AccountingPeriod) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.periods[p.ID] = p
}

func membershipKey(userID, companyID uuid.UUID) string {
	return userID.String() + ":" + companyID.String()
}

// WithinTransaction snapshots every map under the repository lock,
// releases the lock, and runs fn against the live maps. If fn returns
// an error the maps are replaced by the snapshot, so entries fn added
// disappear. The snapshot is shallow: a change made in place to an
// entry that already existed (MarkReversed's status change,
// FinalizeIdempotency, lines appended to an existing transaction) is
// not undone, and a panic in fn restores nothing.
func (r *Repository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	snap := r.snapshot()
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.restore(snap)
		r.mu.Unlock()

		return err
	}

	return nil
}

type snapshot struct {
	accounts     map[uuid.UUID]*ledger.Account
	dimensions   map[uuid.UUID]*ledger.Dimension
	periods      map[uuid.UUID]*ledger.AccountingPeriod
	transactions map[uuid.UUID]*ledger.Transaction
	idempotency  map[string]*ledger.IdempotencyRecord
	audit        map[uuid.UUID][]*ledger.AuditEvent
	outbox       map[uuid.UUID]*ledger.OutboxRecord
	txSeq        map[uuid.UUID]int64
}

func (r *Repository) snapshot() snapshot {
	s := snapshot{
		accounts:     make(map[uuid.UUID]*ledger.Account, len(r.accounts)),
		dimensions:   make(map[uuid.UUID]*ledger.Dimension, len(r.dimensions)),
		periods:      make(map[uuid.UUID]*ledger.AccountingPeriod, len(r.periods)),
		transactions: make(map[uuid.UUID]*ledger.Transaction, len(r.transactions)),
		idempotency:  make(map[string]*ledger.IdempotencyRecord, len(r.idempotency)),
		audit:        make(map[uuid.UUID][]*ledger.AuditEvent, len(r.audit)),
		outbox:       make(map[uuid.UUID]*ledger.OutboxRecord, len(r.outbox)),
		txSeq:        make(map[uuid.UUID]int64, len(r.txSeq)),
	}

	for k, v := range r.accounts {
		s.accounts[k] = v
	}

	for k, v := range r.dimensions {
		s.dimensions[k] = v
	}

	for k, v := range r.periods {
		s.periods[k] = v
	}

	for k, v := range r.transactions {
		s.transactions[k] = v
	}

	for k, v := range r.idempotency {
		s.idempotency[k] = v
	}

	for k, v := range r.audit {
		s.audit[k] = append([]*ledger.AuditEvent{}, v...)
	}

	for k, v := range r.outbox {
		s.outbox[k] = v
	}

	for k, v := range r.txSeq {
		s.txSeq[k] = v
	}

	return s
}

func (r *Repository) restore(s snapshot) {
	r.accounts = s.accounts
	r.dimensions = s.dimensions
	r.periods = s.periods
	r.transactions = s.transactions
	r.idempotency = s.idempotency
	r.audit = s.audit
	r.outbox = s.outbox
	r.txSeq = s.txSeq
}

// CreateAccount implements storage.AccountRepository.
func (r *Repository) CreateAccount(ctx context.Context, a *ledger.Account) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := scope.AssertCompanyScope(ctx, a.CompanyID); err != nil {
		return nil, err
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	r.accounts[a.ID] = a

	return a, nil
}

// GetAccount implements storage.AccountRepository.
func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	a, ok := r.accounts[id]
	if !ok || a.CompanyID != companyID {
		return nil, ledger.NotFound("Account")
	}

	return a, nil
}

// ListAccounts implements storage.AccountRepository.
func (r *Repository) ListAccounts(ctx context.Context, filter storage.ListFilter) ([]*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var out []*ledger.Account

	for _, a := range r.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

// GetAccountsByIDs implements storage.AccountRepository.
func (r *Repository) GetAccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*ledger.Account, len(ids))

	for _, id := range ids {
		a, ok := r.accounts[id]
		if ok && a.CompanyID == companyID {
			out[id] = a
		}
	}

	return out, nil
}

// CreateDimension implements storage.DimensionRepository.
func (r *Repository) CreateDimension(ctx context.Context, d *ledger.Dimension) (*ledger.Dimension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := scope.AssertCompanyScope(ctx, d.CompanyID); err != nil {
		return nil, err
	}

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	r.dimensions[d.ID] = d

	return d, nil
}

// ListDimensions implements storage.DimensionRepository.
func (r *Repository) ListDimensions(ctx context.Context) ([]*ledger.Dimension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var out []*ledger.Dimension

	for _, d := range r.dimensions {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}

	return out, nil
}

// CreatePeriod implements storage.PeriodRepository.
func (r *Repository) CreatePeriod(ctx context.Context, p *ledger.AccountingPeriod) (*ledger.AccountingPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := scope.AssertCompanyScope(ctx, p.CompanyID); err != nil {
		return nil, err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	if p.State == "" {
		p.State = ledger.PeriodOpen
	}

	r.periods[p.ID] = p

	return p, nil
}

// GetPeriodForDate implements storage.PeriodRepository.
func (r *Repository) GetPeriodForDate(ctx context.Context, date time.Time) (*ledger.AccountingPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range r.periods {
		if p.CompanyID == companyID && p.Contains(date) {
			return p, nil
		}
	}

	return nil, ledger.NotFound("AccountingPeriod")
}

// GetPeriod implements storage.PeriodRepository.
func (r *Repository) GetPeriod(ctx context.Context, id uuid.UUID) (*ledger.AccountingPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	p, ok := r.periods[id]
	if !ok || p.CompanyID != companyID {
		return nil, ledger.NotFound("AccountingPeriod")
	}

	return p, nil
}

// UpdatePeriodState implements storage.PeriodRepository.
func (r *Repository) UpdatePeriodState(ctx context.Context, id uuid.UUID, state ledger.PeriodState, actor uuid.UUID) (*ledger.AccountingPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	p, ok := r.periods[id]
	if !ok || p.CompanyID != companyID {
		return nil, ledger.NotFound("AccountingPeriod")
	}

	updated := *p
	updated.State = state

	if state == ledger.PeriodClosed {
		now := time.Now().UTC()
		updated.ClosedBy = &actor
		updated.ClosedAt = &now
	}

	r.periods[id] = &updated

	return &updated, nil
}

// NextTransactionNumber implements storage.TransactionRepository.
func (r *Repository) NextTransactionNumber(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return "", err
	}

	r.txSeq[companyID]++

	return fmt.Sprintf("TXN-%06d", r.txSeq[companyID]), nil
}

// InsertTransaction implements storage.TransactionRepository.
func (r *Repository) InsertTransaction(ctx context.Context, t *ledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := scope.AssertCompanyScope(ctx, t.CompanyID); err != nil {
		return err
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	// Only the header is stored; lines arrive through InsertLines, as in
	// internal/storage/postgres.
	stored := *t
	stored.Lines = nil
	r.transactions[t.ID] = &stored

	return nil
}

// InsertLines implements storage.TransactionRepository.
func (r *Repository) InsertLines(ctx context.Context, lines []ledger.TransactionLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byTx := map[uuid.UUID][]ledger.TransactionLine{}

	for _, l := range lines {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}

		byTx[l.TransactionID] = append(byTx[l.TransactionID], l)
	}

	for txID, ls := range byTx {
		t, ok := r.transactions[txID]
		if !ok {
			return ledger.NotFound("Transaction")
		}

		t.Lines = append(t.Lines, ls...)
	}

	return nil
}

// GetTransactionWithLines implements storage.TransactionRepository.
func (r *Repository) GetTransactionWithLines(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	t, ok := r.transactions[id]
	if !ok || t.CompanyID != companyID {
		return nil, ledger.NotFound("Transaction")
	}

	copyT := *t
	copyT.Lines = append([]ledger.TransactionLine{}, t.Lines...)

	return &copyT, nil
}

// ListTransactionsForAccount implements storage.TransactionRepository.
func (r *Repository) ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var out []*ledger.Transaction

	for _, t := range r.transactions {
		if t.CompanyID != companyID || t.Date.Before(from) || t.Date.After(to) {
			continue
		}

		for _, l := range t.Lines {
			if l.AccountID == accountID {
				out = append(out, t)
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return out, nil
}

// ListPostedTransactions implements storage.TransactionRepository.
func (r *Repository) ListPostedTransactions(ctx context.Context, from, to time.Time) ([]*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	var out []*ledger.Transaction

	// status=reversed transactions stay in the ledger: the original and
	// its reversal both count, netting to zero. Only drafts are
	// excluded.
	for _, t := range r.transactions {
		if t.CompanyID == companyID && t.Status != ledger.TransactionDraft && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return out, nil
}

// MarkReversed implements storage.TransactionRepository.
func (r *Repository) MarkReversed(ctx context.Context, originalID, reversalID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	t, ok := r.transactions[originalID]
	if !ok || t.CompanyID != companyID {
		return ledger.NotFound("Transaction")
	}

	if t.Status != ledger.TransactionPosted {
		return ledger.New(ledger.KindIntegrity, ledger.CodeImmutabilityViolation, "transaction is not posted")
	}

	t.Status = ledger.TransactionReversed
	t.ReversedTransactionID = &reversalID

	return nil
}

// AccountRunningBalance implements storage.TransactionRepository.
func (r *Repository) AccountRunningBalance(ctx context.Context, accountID uuid.UUID) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return 0, 0, err
	}

	var debit, credit int64

	for _, t := range r.transactions {
		if t.CompanyID != companyID || t.Status == ledger.TransactionDraft {
			continue
		}

		for _, l := range t.Lines {
			if l.AccountID == accountID {
				debit += l.DebitMinor
				credit += l.CreditMinor
			}
		}
	}

	return debit, credit, nil
}

// InsertIdempotencyInFlight implements storage.IdempotencyRepository.
func (r *Repository) InsertIdempotencyInFlight(ctx context.Context, rec *ledger.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	rec.CompanyID = companyID.String()
	key := idempotencyKey(rec.CompanyID, string(rec.Operation), rec.Key)

	if _, exists := r.idempotency[key]; exists {
		return ledger.New(ledger.KindIdempotency, ledger.CodeBusy, "idempotency key already in flight")
	}

	r.idempotency[key] = rec

	return nil
}

// LoadIdempotency implements storage.IdempotencyRepository.
func (r *Repository) LoadIdempotency(ctx context.Context, operation, key string) (*ledger.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	rec, ok := r.idempotency[idempotencyKey(companyID.String(), operation, key)]
	if !ok {
		return nil, nil
	}

	return rec, nil
}

// FinalizeIdempotency implements storage.IdempotencyRepository.
func (r *Repository) FinalizeIdempotency(ctx context.Context, operation, key string, status int, responseBody []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	rec, ok := r.idempotency[idempotencyKey(companyID.String(), operation, key)]
	if !ok {
		return ledger.NotFound("IdempotencyRecord")
	}

	rec.State = ledger.IdempotencyDone
	rec.ResponseStatus = status
	rec.ResponseBody = responseBody

	return nil
}

// PurgeExpiredIdempotency implements storage.IdempotencyRepository.
func (r *Repository) PurgeExpiredIdempotency(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64

	for k, rec := range r.idempotency {
		if rec.ExpiresAt.Before(olderThan) {
			delete(r.idempotency, k)
			n++
		}
	}

	return n, nil
}

func idempotencyKey(companyID, operation, key string) string {
	return companyID + ":" + operation + ":" + key
}

// TailAuditHash implements storage.AuditRepository.
func (r *Repository) TailAuditHash(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return "", err
	}

	chain := r.audit[companyID]
	if len(chain) == 0 {
		return "", nil
	}

	return chain[len(chain)-1].EventHash, nil
}

// AppendAudit implements storage.AuditRepository.
func (r *Repository) AppendAudit(ctx context.Context, event *ledger.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return err
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	r.audit[companyID] = append(r.audit[companyID], event)

	return nil
}

// ListAuditEvents implements storage.AuditRepository.
func (r *Repository) ListAuditEvents(ctx context.Context) ([]*ledger.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	return append([]*ledger.AuditEvent{}, r.audit[companyID]...), nil
}

// EnqueueOutbox implements storage.OutboxRepository.
func (r *Repository) EnqueueOutbox(ctx context.Context, rec *ledger.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if rec.Status == "" {
		rec.Status = ledger.OutboxPending
	}

	r.outbox[rec.ID] = rec

	return nil
}

// ListOutbox implements storage.OutboxRepository.
func (r *Repository) ListOutbox(ctx context.Context, status ledger.OutboxStatus, limit int) ([]*ledger.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ledger.OutboxRecord

	for _, rec := range r.outbox {
		if rec.Status == status {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// UpdateOutboxStatus implements storage.OutboxRepository.
func (r *Repository) UpdateOutboxStatus(ctx context.Context, id uuid.UUID, status ledger.OutboxStatus, attempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.outbox[id]
	if !ok {
		return ledger.NotFound("OutboxRecord")
	}

	rec.Status = status
	rec.Attempts = attempts

	return nil
}

// GetCompany implements storage.CompanyRepository.
func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*ledger.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.companies[id]
	if !ok {
		return nil, ledger.NotFound("Company")
	}

	return c, nil
}

// GetMembership implements storage.CompanyRepository.
func (r *Repository) GetMembership(ctx context.Context, userID, companyID uuid.UUID) (*ledger.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[membershipKey(userID, companyID)]
	if !ok {
		return nil, ledger.NotFound("Membership")
	}

	return m, nil
}

var _ storage.Repository = (*Repository)(nil)
