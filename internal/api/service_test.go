package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	auditlog "github.com/ledgercore/core/internal/audit"
	"github.com/ledgercore/core/internal/config"
	"github.com/ledgercore/core/internal/idempotency"
	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/periodlock"
	"github.com/ledgercore/core/internal/posting"
	"github.com/ledgercore/core/internal/reporting"
	"github.com/ledgercore/core/internal/retry"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage/memory"
	storagemock "github.com/ledgercore/core/internal/storage/mock"
)

type fakeRedis struct {
	mu   sync.Mutex
	keys map[string]time.Time
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]time.Time{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if exp, ok := f.keys[key]; ok && time.Now().Before(exp) {
		return false, nil
	}

	f.keys[key] = time.Now().Add(ttl)

	return true, nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.keys[key]; !ok {
		return "", idempotency.ErrNotFound
	}

	return "", nil
}

func (f *fakeRedis) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.keys, key)

	return nil
}

type fixture struct {
	ctx        context.Context
	adminCtx   context.Context
	companyID  uuid.UUID
	userID     uuid.UUID
	cash       *ledger.Account
	receivable *ledger.Account
	revenue    *ledger.Account
	wages      *ledger.Account
	equity     *ledger.Account
	svc        *Service
	repo       *memory.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.New()
	companyID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	ctx := scope.With(context.Background(), scope.New(uuid.New(), userID, tenantID, companyID))
	adminCtx := scope.With(context.Background(), scope.New(uuid.New(), userID, tenantID, companyID, RolePeriodAdmin))

	cash := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: "1000", Name: "Cash", Type: ledger.AccountAsset}
	receivable := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: "1100", Name: "Accounts Receivable", Type: ledger.AccountAsset}
	revenue := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: "4000", Name: "Revenue", Type: ledger.AccountRevenue}
	wages := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: "5100", Name: "Wages Expense", Type: ledger.AccountExpense, AllowNegativeBalance: true}
	equity := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: "3000", Name: "Owner Equity", Type: ledger.AccountEquity}

	for _, a := range []*ledger.Account{cash, receivable, revenue, wages, equity} {
		repo.SeedAccount(a)
	}

	store := &idempotency.Store{
		Redis: newFakeRedis(),
		Repo:  repo,
		TTL:   time.Hour,
		Poll:  retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, JitterFactor: 0},
	}
	periods := &periodlock.Manager{Repo: repo}
	audit := &auditlog.Log{Repo: repo}

	engine := &posting.Engine{
		Repo:        repo,
		Idempotency: store,
		PeriodLock:  periods,
		Audit:       audit,
		Retry:       retry.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, JitterFactor: 0},
		MaxLines:    100,
	}

	svc := &Service{
		Repo:        repo,
		Engine:      engine,
		Periods:     periods,
		Audit:       audit,
		Reports:     &reporting.Reporter{Repo: repo},
		Idempotency: store,
		Logger:      zap.NewNop(),
	}

	return &fixture{
		ctx:        ctx,
		adminCtx:   adminCtx,
		companyID:  companyID,
		userID:     userID,
		cash:       cash,
		receivable: receivable,
		revenue:    revenue,
		wages:      wages,
		equity:     equity,
		svc:        svc,
		repo:       repo,
	}
}

func (f *fixture) entry(desc string, lines ...posting.LineInput) JournalEntry {
	return JournalEntry{
		Date:        time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Lines:       lines,
	}
}

func (f *fixture) fundCash(t *testing.T, amount int64) {
	t.Helper()

	_, err := f.svc.PostJournal(f.ctx, PostJournalRequest{
		CompanyID: f.companyID,
		Entry: f.entry("owner contribution",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: amount},
			posting.LineInput{AccountID: f.equity.ID, Side: ledger.SideCredit, AmountMinor: amount},
		),
		IdempotencyKey: "fund-" + uuid.NewString(),
	})
	require.NoError(t, err)
}

func (f *fixture) auditActions(t *testing.T, action string) []*ledger.AuditEvent {
	t.Helper()

	events, err := f.repo.ListAuditEvents(f.ctx)
	require.NoError(t, err)

	var out []*ledger.AuditEvent

	for _, e := range events {
		if e.Action == action {
			out = append(out, e)
		}
	}

	return out
}

func TestPostJournal_CreatedThenReplayedOK(t *testing.T) {
	f := newFixture(t)

	req := PostJournalRequest{
		CompanyID: f.companyID,
		Entry: f.entry("cash sale",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 10_000},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 10_000},
		),
		IdempotencyKey: "k1",
	}

	first, err := f.svc.PostJournal(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, first.Status)
	assert.Equal(t, ledger.TransactionPosted, first.Transaction.Status)
	assert.Equal(t, f.userID, first.Transaction.CreatedBy)

	second, err := f.svc.PostJournal(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, second.Status)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	assert.Equal(t, first.Transaction.TransactionNumber, second.Transaction.TransactionNumber)

	txns, err := f.repo.ListPostedTransactions(f.ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestFinalizeInvoice_PostsEntryTaggedToInvoice(t *testing.T) {
	f := newFixture(t)

	invoiceID := uuid.New()

	res, err := f.svc.FinalizeInvoice(f.ctx, FinalizeInvoiceRequest{
		CompanyID:    f.companyID,
		InvoiceID:    invoiceID,
		TargetStatus: "finalized",
		Entry: f.entry("invoice INV-42",
			posting.LineInput{AccountID: f.receivable.ID, Side: ledger.SideDebit, AmountMinor: 250_00},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 250_00},
		),
		IdempotencyKey: "inv-42",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, "invoice:"+invoiceID.String(), res.Transaction.Reference)

	posted := f.auditActions(t, ledger.ActionTransactionPosted)
	require.Len(t, posted, 1)
	assert.Equal(t, "Invoice", posted[0].EntityType)
	assert.Equal(t, invoiceID.String(), posted[0].EntityID)

	pending, err := f.repo.ListOutbox(f.ctx, ledger.OutboxPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ledger.EventInvoiceFinalized, pending[0].EventType)
}

func TestApplyPayment_SettlesReceivable(t *testing.T) {
	f := newFixture(t)

	invoiceID := uuid.New()

	_, err := f.svc.FinalizeInvoice(f.ctx, FinalizeInvoiceRequest{
		CompanyID: f.companyID,
		InvoiceID: invoiceID,
		Entry: f.entry("invoice",
			posting.LineInput{AccountID: f.receivable.ID, Side: ledger.SideDebit, AmountMinor: 250_00},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 250_00},
		),
		IdempotencyKey: "inv-1",
	})
	require.NoError(t, err)

	res, err := f.svc.ApplyPayment(f.ctx, ApplyPaymentRequest{
		CompanyID: f.companyID,
		PaymentID: uuid.New(),
		InvoiceID: &invoiceID,
		Entry: f.entry("payment received",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 250_00},
			posting.LineInput{AccountID: f.receivable.ID, Side: ledger.SideCredit, AmountMinor: 250_00},
		),
		IdempotencyKey: "pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)

	debit, credit, err := f.repo.AccountRunningBalance(f.ctx, f.receivable.ID)
	require.NoError(t, err)
	assert.Equal(t, debit, credit)

	pending, err := f.repo.ListOutbox(f.ctx, ledger.OutboxPending, 10)
	require.NoError(t, err)

	var paymentEvents int

	for _, rec := range pending {
		if rec.EventType == ledger.EventPaymentApplied {
			paymentEvents++
		}
	}

	assert.Equal(t, 1, paymentEvents)
}

func TestExecutePayroll_PostsAggregateRun(t *testing.T) {
	f := newFixture(t)
	f.fundCash(t, 1_000_00)

	payRunID := uuid.New()

	res, err := f.svc.ExecutePayroll(f.ctx, ExecutePayrollRequest{
		CompanyID:    f.companyID,
		PayRunID:     payRunID,
		TargetStatus: "executed",
		Entry: f.entry("april payroll",
			posting.LineInput{AccountID: f.wages.ID, Side: ledger.SideDebit, AmountMinor: 800_00},
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideCredit, AmountMinor: 800_00},
		),
		IdempotencyKey: "payroll-2026-04",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, "payrun:"+payRunID.String(), res.Transaction.Reference)

	posted := f.auditActions(t, ledger.ActionTransactionPosted)
	var tagged bool

	for _, e := range posted {
		if e.EntityType == "PayRun" && e.EntityID == payRunID.String() {
			tagged = true
		}
	}

	assert.True(t, tagged)
}

func TestReconcileLedger_ExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.fundCash(t, 500_00)

	posted, err := f.svc.PostJournal(f.ctx, PostJournalRequest{
		CompanyID: f.companyID,
		Entry: f.entry("card settlement",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 120_00},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 120_00},
		),
		IdempotencyKey: "settle-1",
	})
	require.NoError(t, err)

	bankTxID := uuid.New()
	req := ReconcileLedgerRequest{
		CompanyID:            f.companyID,
		BankTransactionID:    bankTxID,
		MatchedTransactionID: posted.Transaction.ID,
		IdempotencyKey:       "recon-1",
	}

	first, err := f.svc.ReconcileLedger(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, first.Status)
	assert.Equal(t, f.userID, first.Reconciliation.ReconciledBy)

	second, err := f.svc.ReconcileLedger(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, second.Status)
	assert.Equal(t, first.Reconciliation.BankTransactionID, second.Reconciliation.BankTransactionID)
	assert.True(t, first.Reconciliation.ReconciledAt.Equal(second.Reconciliation.ReconciledAt))

	reconciled := f.auditActions(t, ledger.ActionLedgerReconciled)
	assert.Len(t, reconciled, 1)

	pending, err := f.repo.ListOutbox(f.ctx, ledger.OutboxPending, 20)
	require.NoError(t, err)

	var reconEvents int

	for _, rec := range pending {
		if rec.EventType == ledger.EventLedgerReconciled {
			reconEvents++
		}
	}

	assert.Equal(t, 1, reconEvents)
}

func TestReconcileLedger_UnknownTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ReconcileLedger(f.ctx, ReconcileLedgerRequest{
		CompanyID:            f.companyID,
		BankTransactionID:    uuid.New(),
		MatchedTransactionID: uuid.New(),
		IdempotencyKey:       "recon-miss",
	})
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.KindNotFound, lerr.Kind)
}

func TestVoidTransaction_ReversesViaService(t *testing.T) {
	f := newFixture(t)

	posted, err := f.svc.PostJournal(f.ctx, PostJournalRequest{
		CompanyID: f.companyID,
		Entry: f.entry("entry error",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 100_00},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 100_00},
		),
		IdempotencyKey: "post-err",
	})
	require.NoError(t, err)

	res, err := f.svc.VoidTransaction(f.ctx, VoidTransactionRequest{
		CompanyID:      f.companyID,
		TransactionID:  posted.Transaction.ID,
		Reason:         "entry error",
		IdempotencyKey: "void-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, ledger.TransactionTypeReversal, res.Transaction.Type)
	assert.Equal(t, posted.Transaction.ID, *res.Transaction.ReversedTransactionID)

	tb, err := f.svc.TrialBalance(f.ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)

	for _, row := range tb.Rows {
		assert.Zero(t, row.BalanceMinor, "account %s should net to zero after reversal", row.Code)
	}
}

func TestLockPeriod_RequiresAdminAndBlocksPosting(t *testing.T) {
	f := newFixture(t)

	period := &ledger.AccountingPeriod{
		ID:             uuid.New(),
		CompanyID:      f.companyID,
		Start:          time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Type:           "month",
		State:          ledger.PeriodOpen,
		ReversalPolicy: ledger.OverrideDeny,
	}
	f.repo.SeedPeriod(period)

	_, err := f.svc.LockPeriod(f.ctx, period.ID, "month-end close")
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeUnauthorized, lerr.Code)

	locked, err := f.svc.LockPeriod(f.adminCtx, period.ID, "month-end close")
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, locked.State)
	require.NotNil(t, locked.ClosedBy)
	assert.Equal(t, f.userID, *locked.ClosedBy)

	lockEvents := f.auditActions(t, ledger.ActionPeriodLocked)
	assert.Len(t, lockEvents, 1)

	_, err = f.svc.PostJournal(f.ctx, PostJournalRequest{
		CompanyID: f.companyID,
		Entry: f.entry("posting into closed period",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 100},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 100},
		),
		IdempotencyKey: "closed-post",
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodePeriodLocked, lerr.Code)

	_, err = f.svc.UnlockPeriod(f.adminCtx, period.ID, "reopening for adjustment")
	require.NoError(t, err)

	unlockEvents := f.auditActions(t, ledger.ActionPeriodUnlocked)
	assert.Len(t, unlockEvents, 1)

	_, err = f.svc.PostJournal(f.ctx, PostJournalRequest{
		CompanyID: f.companyID,
		Entry: f.entry("posting after reopen",
			posting.LineInput{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 100},
			posting.LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 100},
		),
		IdempotencyKey: "reopened-post",
	})
	require.NoError(t, err)
}

func TestMutations_RequireIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := storagemock.NewMockRepository(ctrl)

	companyID := uuid.New()
	ctx := scope.With(context.Background(), scope.New(uuid.New(), uuid.New(), uuid.New(), companyID))

	svc := &Service{
		Repo: repo,
		Engine: &posting.Engine{
			Repo: repo,
			Idempotency: &idempotency.Store{
				Redis: newFakeRedis(),
				Repo:  repo,
				TTL:   time.Hour,
				Poll:  retry.DefaultPostingConfig(),
			},
			PeriodLock: &periodlock.Manager{Repo: repo},
			Audit:      &auditlog.Log{Repo: repo},
			Retry:      retry.DefaultPostingConfig(),
		},
		Periods:     &periodlock.Manager{Repo: repo},
		Audit:       &auditlog.Log{Repo: repo},
		Reports:     &reporting.Reporter{Repo: repo},
		Idempotency: &idempotency.Store{Redis: newFakeRedis(), Repo: repo, TTL: time.Hour, Poll: retry.DefaultPostingConfig()},
	}

	entry := JournalEntry{Date: time.Now().UTC(), Lines: []posting.LineInput{}}

	calls := []func() error{
		func() error { _, err := svc.PostJournal(ctx, PostJournalRequest{CompanyID: companyID, Entry: entry}); return err },
		func() error {
			_, err := svc.FinalizeInvoice(ctx, FinalizeInvoiceRequest{CompanyID: companyID, InvoiceID: uuid.New(), Entry: entry})
			return err
		},
		func() error {
			_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{CompanyID: companyID, PaymentID: uuid.New(), Entry: entry})
			return err
		},
		func() error {
			_, err := svc.ExecutePayroll(ctx, ExecutePayrollRequest{CompanyID: companyID, PayRunID: uuid.New(), Entry: entry})
			return err
		},
		func() error {
			_, err := svc.ReconcileLedger(ctx, ReconcileLedgerRequest{CompanyID: companyID, BankTransactionID: uuid.New(), MatchedTransactionID: uuid.New()})
			return err
		},
		func() error {
			_, err := svc.VoidTransaction(ctx, VoidTransactionRequest{CompanyID: companyID, TransactionID: uuid.New()})
			return err
		},
	}

	// No EXPECT calls are registered: any storage access fails the test,
	// proving the key check rejects before any row is touched.
	for _, call := range calls {
		err := call()
		require.Error(t, err)

		var lerr *ledger.Error
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, ledger.CodeIdempotencyKeyRequired, lerr.Code)
	}
}

func TestPurgeExpiredIdempotency_RequiresSystemScope(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PurgeExpiredIdempotency(f.ctx, time.Now())
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeUnauthorized, lerr.Code)

	sysCtx := scope.With(context.Background(), scope.System(uuid.New()))

	_, err = f.svc.PurgeExpiredIdempotency(sysCtx, time.Now())
	require.NoError(t, err)
}

func TestNew_WiresConfigBounds(t *testing.T) {
	repo := memory.New()

	cfg := &config.Config{
		IdempotencyTTLHours:      48,
		PeriodLockOverridePolicy: string(ledger.OverrideAllowReversalOnly),
		PostingRetryMax:          7,
		LineAmountMaxMinor:       5_000_00,
		LineCountMaxPerTxn:       25,
	}

	svc := New(cfg, repo, newFakeRedis(), zap.NewNop())

	assert.Equal(t, 48*time.Hour, svc.Idempotency.TTL)
	assert.Equal(t, 7, svc.Engine.Retry.MaxRetries)
	assert.Equal(t, int64(5_000_00), svc.Engine.MaxLineAmountMinor)
	assert.Equal(t, 25, svc.Engine.MaxLines)

	companyID := uuid.New()
	ctx := scope.With(context.Background(), scope.New(uuid.New(), uuid.New(), uuid.New(), companyID))

	period, err := svc.CreatePeriod(ctx, &ledger.AccountingPeriod{
		ID:        uuid.New(),
		CompanyID: companyID,
		Start:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		Type:      "month",
		State:     ledger.PeriodOpen,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.OverrideAllowReversalOnly, period.ReversalPolicy)
}

func TestVerifyAuditChain_IntactAfterMutations(t *testing.T) {
	f := newFixture(t)
	f.fundCash(t, 100_00)

	res, err := f.svc.VerifyAuditChain(f.ctx)
	require.NoError(t, err)
	assert.True(t, res.Intact)
}
