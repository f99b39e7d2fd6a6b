package posting

import (
	"math/rand"
	"testing"
	"testing/quick"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgercore/core/internal/ledger"
)

// Property: every transaction the engine accepts satisfies the ledger
// invariants — total debits equal total credits, every line carries
// exactly one positive leg, and there are at least two lines. Uses a
// deterministic RNG so failures reproduce.
func TestProperty_PostedTransactionsHoldInvariants(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	prop := func(n int) bool {
		if n < 1 {
			n = 1
		}

		if n > 19 {
			n = 19
		}

		lines := make([]LineInput, 0, n+1)

		var total int64

		for i := 0; i < n; i++ {
			amount := rng.Int63n(1_000_000) + 1
			total += amount
			lines = append(lines, LineInput{AccountID: f.expense.ID, Side: ledger.SideDebit, AmountMinor: amount})
		}

		lines = append(lines, LineInput{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: total})

		tx, _, err := f.engine.PostJournal(f.ctx, PostJournalInput{
			CompanyID:      f.companyID,
			Date:           time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			Description:    "generated entry",
			IdempotencyKey: uuid.NewString(),
			CreatedBy:      uuid.New(),
			Lines:          lines,
		})
		if err != nil {
			return false
		}

		if !tx.Balanced() || len(tx.Lines) < 2 {
			return false
		}

		for _, l := range tx.Lines {
			debitSet := l.DebitMinor > 0
			creditSet := l.CreditMinor > 0

			if debitSet == creditSet {
				return false
			}
		}

		return true
	}

	cfg := &quick.Config{MaxCount: 50, Rand: rand.New(rand.NewSource(99))}
	require.NoError(t, quick.Check(prop, cfg))
}

// Property: replaying a posting under the same key adds zero rows —
// the transaction count after the replay equals the count after the
// first call.
func TestProperty_ReplayAddsNoRows(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))

	prop := func(seed int64) bool {
		amount := rng.Int63n(500_000) + 1
		key := uuid.NewString()

		in := PostJournalInput{
			CompanyID:      f.companyID,
			Date:           time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			Description:    "replayed entry",
			IdempotencyKey: key,
			CreatedBy:      uuid.New(),
			Lines: []LineInput{
				{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: amount},
				{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: amount},
			},
		}

		first, replayed, err := f.engine.PostJournal(f.ctx, in)
		if err != nil || replayed {
			return false
		}

		before, err := f.repo.ListPostedTransactions(f.ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
		if err != nil {
			return false
		}

		second, replayed, err := f.engine.PostJournal(f.ctx, in)
		if err != nil || !replayed || second.ID != first.ID {
			return false
		}

		after, err := f.repo.ListPostedTransactions(f.ctx, time.Time{}, time.Now().AddDate(1, 0, 0))
		if err != nil {
			return false
		}

		return len(after) == len(before)
	}

	cfg := &quick.Config{MaxCount: 25, Rand: rand.New(rand.NewSource(11))}
	require.NoError(t, quick.Check(prop, cfg))
}

// Property: voiding a posted transaction restores every touched
// account's running balance to its value before the posting.
func TestProperty_VoidRestoresRunningBalances(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(13))

	balanceOf := func(accountID uuid.UUID) int64 {
		debit, credit, err := f.repo.AccountRunningBalance(f.ctx, accountID)
		require.NoError(t, err)

		return debit - credit
	}

	prop := func(seed int64) bool {
		amount := rng.Int63n(250_000) + 1

		cashBefore := balanceOf(f.cash.ID)
		revenueBefore := balanceOf(f.revenue.ID)

		posted, _, err := f.engine.PostJournal(f.ctx, PostJournalInput{
			CompanyID:      f.companyID,
			Date:           time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
			Description:    "entry to void",
			IdempotencyKey: uuid.NewString(),
			CreatedBy:      uuid.New(),
			Lines: []LineInput{
				{AccountID: f.cash.ID, Side: ledger.SideDebit, AmountMinor: amount},
				{AccountID: f.revenue.ID, Side: ledger.SideCredit, AmountMinor: amount},
			},
		})
		if err != nil {
			return false
		}

		_, _, err = f.engine.VoidTransaction(f.ctx, VoidTransactionInput{
			CompanyID:             f.companyID,
			OriginalTransactionID: posted.ID,
			Reason:                "generated void",
			IdempotencyKey:        uuid.NewString(),
			CreatedBy:             uuid.New(),
		})
		if err != nil {
			return false
		}

		return balanceOf(f.cash.ID) == cashBefore && balanceOf(f.revenue.ID) == revenueBefore
	}

	cfg := &quick.Config{MaxCount: 25, Rand: rand.New(rand.NewSource(17))}
	require.NoError(t, quick.Check(prop, cfg))
}
