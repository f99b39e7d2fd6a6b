package posting

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditlog "github.com/ledgercore/core/internal/audit"
	"github.com/ledgercore/core/internal/idempotency"
	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/periodlock"
	"github.com/ledgercore/core/internal/retry"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage/memory"
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

const (
	cashAccountCode     = "1000"
	revenueAccountCode  = "4000"
	expenseAccountCode  = "5000"
)

type fixture struct {
	ctx       context.Context
	companyID uuid.UUID
	cash      *ledger.Account
	revenue   *ledger.Account
	expense   *ledger.Account
	engine    *Engine
	repo      *memory.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.New()
	companyID := uuid.New()
	userID := uuid.New()

	ctx := scope.With(context.Background(), scope.New(uuid.New(), userID, uuid.New(), companyID))

	cash := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: cashAccountCode, Name: "Cash", Type: ledger.AccountAsset}
	revenue := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: revenueAccountCode, Name: "Revenue", Type: ledger.AccountRevenue}
	expense := &ledger.Account{ID: uuid.New(), CompanyID: companyID, Code: expenseAccountCode, Name: "Expense", Type: ledger.AccountExpense, AllowNegativeBalance: true}

	repo.SeedAccount(cash)
	repo.SeedAccount(revenue)
	repo.SeedAccount(expense)

	engine := &Engine{
		Repo: repo,
		Idempotency: &idempotency.Store{
			Redis: newFakeRedis(),
			Repo:  repo,
			TTL:   time.Hour,
			Poll:  retry.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, JitterFactor: 0},
		},
		PeriodLock: &periodlock.Manager{Repo: repo},
		Audit:      &auditlog.Log{Repo: repo},
		Retry:      retry.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, JitterFactor: 0},
		MaxLines:   50,
	}

	return &fixture{ctx: ctx, companyID: companyID, cash: cash, revenue: revenue, expense: expense, engine: engine, repo: repo}
}

func (f *fixture) balancedInput(key string) PostJournalInput {
	return PostJournalInput{
		CompanyID:      f.companyID,
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:    "cash sale",
		IdempotencyKey: key,
		CreatedBy:      uuid.New(),
		Lines: []LineInput{
			{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: 10000},
			{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: 10000},
		},
	}
}

func TestPostJournal_PostsBalancedEntry(t *testing.T) {
	f := newFixture(t)

	tx, replayed, err := f.engine.PostJournal(f.ctx, f.balancedInput("key-1"))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, ledger.TransactionPosted, tx.Status)
	assert.Equal(t, int64(10000), tx.TotalDebitMinor())
	assert.Equal(t, int64(10000), tx.TotalCreditMinor())
	assert.Len(t, tx.Lines, 2)
	assert.NotEmpty(t, tx.TransactionNumber)

	events, err := f.repo.ListAuditEvents(f.ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ledger.ActionTransactionPosted, events[0].Action)

	pending, err := f.repo.ListOutbox(f.ctx, ledger.OutboxPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ledger.EventTransactionPosted, pending[0].EventType)
}

func TestPostJournal_RejectsUnbalancedEntry(t *testing.T) {
	f := newFixture(t)

	in := f.balancedInput("key-2")
	in.Lines[1].AmountMinor = 9000

	_, _, err := f.engine.PostJournal(f.ctx, in)
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeUnbalanced, lerr.Code)
}

func TestPostJournal_RejectsTooFewLines(t *testing.T) {
	f := newFixture(t)

	in := f.balancedInput("key-3")
	in.Lines = in.Lines[:1]

	_, _, err := f.engine.PostJournal(f.ctx, in)
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeTooFewLines, lerr.Code)
}

func TestPostJournal_RejectsUnknownAccount(t *testing.T) {
	f := newFixture(t)

	in := f.balancedInput("key-4")
	in.Lines[0].AccountID = uuid.New()

	_, _, err := f.engine.PostJournal(f.ctx, in)
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeUnknownAccount, lerr.Code)
}

func TestPostJournal_RejectsClosedPeriod(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	f.repo.SeedPeriod(&ledger.AccountingPeriod{
		ID: uuid.New(), CompanyID: f.companyID, Start: start, End: end,
		State: ledger.PeriodClosed, ReversalPolicy: ledger.OverrideDeny,
	})

	_, _, err := f.engine.PostJournal(f.ctx, f.balancedInput("key-5"))
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodePeriodLocked, lerr.Code)
}

func TestPostJournal_ClosedPeriodRejectsOrdinaryPostDespiteReversalOverride(t *testing.T) {
	f := newFixture(t)

	posted, _, err := f.engine.PostJournal(f.ctx, f.balancedInput("key-5b"))
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	f.repo.SeedPeriod(&ledger.AccountingPeriod{
		ID: uuid.New(), CompanyID: f.companyID, Start: start, End: end,
		State: ledger.PeriodClosed, ReversalPolicy: ledger.OverrideAllowReversalOnly,
	})

	_, _, err = f.engine.PostJournal(f.ctx, f.balancedInput("key-5c"))
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodePeriodLocked, lerr.Code)
	assert.Equal(t, ledger.KindIntegrity, lerr.Kind)

	// The override still admits a reversing entry for a transaction
	// dated inside the closed period.
	reversal, _, err := f.engine.VoidTransaction(f.ctx, VoidTransactionInput{
		CompanyID:             f.companyID,
		OriginalTransactionID: posted.ID,
		Reason:                "posted in error before close",
		IdempotencyKey:        "void-key-5c",
		CreatedBy:             uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.TransactionTypeReversal, reversal.Type)
}

func TestPostJournal_RejectsNegativeBalanceWhenDisallowed(t *testing.T) {
	f := newFixture(t)

	in := PostJournalInput{
		CompanyID:      f.companyID,
		Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:    "overdraw cash",
		IdempotencyKey: "key-6",
		CreatedBy:      uuid.New(),
		Lines: []LineInput{
			{AccountID: f.revenue.ID, Side: ledger.SideDebit, AmountMinor: 500},
			{AccountID: f.cash.ID, Side: ledger.SideCredit, AmountMinor: 500},
		},
	}

	_, _, err := f.engine.PostJournal(f.ctx, in)
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeNegativeBalance, lerr.Code)
}

func TestPostJournal_ReplaysSameIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	in := f.balancedInput("key-7")

	first, replayed, err := f.engine.PostJournal(f.ctx, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := f.engine.PostJournal(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, replayed)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TransactionNumber, second.TransactionNumber)

	txns, err := f.repo.ListPostedTransactions(f.ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestPostJournal_ConflictingPayloadSameKeyFails(t *testing.T) {
	f := newFixture(t)

	in := f.balancedInput("key-8")
	_, _, err := f.engine.PostJournal(f.ctx, in)
	require.NoError(t, err)

	in2 := f.balancedInput("key-8")
	in2.Description = "a different description entirely"

	_, _, err = f.engine.PostJournal(f.ctx, in2)
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeIdempotencyConflict, lerr.Code)
}

func TestVoidTransaction_ReversesPostedEntry(t *testing.T) {
	f := newFixture(t)

	posted, _, err := f.engine.PostJournal(f.ctx, f.balancedInput("key-9"))
	require.NoError(t, err)

	reversal, _, err := f.engine.VoidTransaction(f.ctx, VoidTransactionInput{
		CompanyID:             f.companyID,
		OriginalTransactionID: posted.ID,
		Reason:                "duplicate entry",
		IdempotencyKey:        "void-key-1",
		CreatedBy:             uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.TransactionTypeReversal, reversal.Type)
	assert.Equal(t, posted.ID, *reversal.ReversedTransactionID)
	assert.True(t, reversal.Balanced())

	original, err := f.repo.GetTransactionWithLines(f.ctx, posted.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransactionReversed, original.Status)

	for i, l := range reversal.Lines {
		assert.Equal(t, posted.Lines[i].CreditMinor, l.DebitMinor)
		assert.Equal(t, posted.Lines[i].DebitMinor, l.CreditMinor)
	}
}

func TestVoidTransaction_RejectsAlreadyReversed(t *testing.T) {
	f := newFixture(t)

	posted, _, err := f.engine.PostJournal(f.ctx, f.balancedInput("key-10"))
	require.NoError(t, err)

	_, _, err = f.engine.VoidTransaction(f.ctx, VoidTransactionInput{
		CompanyID:             f.companyID,
		OriginalTransactionID: posted.ID,
		Reason:                "first void",
		IdempotencyKey:        "void-key-2",
		CreatedBy:             uuid.New(),
	})
	require.NoError(t, err)

	_, _, err = f.engine.VoidTransaction(f.ctx, VoidTransactionInput{
		CompanyID:             f.companyID,
		OriginalTransactionID: posted.ID,
		Reason:                "second void",
		IdempotencyKey:        "void-key-3",
		CreatedBy:             uuid.New(),
	})
	require.Error(t, err)

	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ledger.CodeImmutabilityViolation, lerr.Code)
}

func TestPostJournal_ConcurrentPostingsAllSucceed(t *testing.T) {
	f := newFixture(t)

	const n = 20

	var wg sync.WaitGroup

	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			in := f.balancedInput(uuid.New().String())
			_, _, err := f.engine.PostJournal(f.ctx, in)
			errs[i] = err
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	txns, err := f.repo.ListPostedTransactions(f.ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, txns, n)
}
