package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAccountType_NormalSide(t *testing.T) {
	assert.Equal(t, SideDebit, AccountAsset.NormalSide())
	assert.Equal(t, SideDebit, AccountExpense.NormalSide())
	assert.Equal(t, SideCredit, AccountLiability.NormalSide())
	assert.Equal(t, SideCredit, AccountEquity.NormalSide())
	assert.Equal(t, SideCredit, AccountRevenue.NormalSide())
}

func TestTransactionLine_SideAndAmount(t *testing.T) {
	debit := TransactionLine{DebitMinor: 500}
	assert.Equal(t, SideDebit, debit.Side())
	assert.Equal(t, int64(500), debit.Amount())

	credit := TransactionLine{CreditMinor: 500}
	assert.Equal(t, SideCredit, credit.Side())
	assert.Equal(t, int64(500), credit.Amount())
}

func TestTransactionLine_Reversed(t *testing.T) {
	line := TransactionLine{ID: uuid.New(), DebitMinor: 100, CreditMinor: 0}
	rev := line.Reversed()

	assert.Equal(t, uuid.Nil, rev.ID)
	assert.Equal(t, int64(0), rev.DebitMinor)
	assert.Equal(t, int64(100), rev.CreditMinor)
}

func TestTransaction_Balanced(t *testing.T) {
	tx := Transaction{Lines: []TransactionLine{
		{DebitMinor: 10_000},
		{CreditMinor: 10_000},
	}}
	assert.True(t, tx.Balanced())

	tx.Lines[1].CreditMinor = 9_999
	assert.False(t, tx.Balanced())
}

func TestAccountingPeriod_Contains(t *testing.T) {
	p := AccountingPeriod{
		Start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	assert.True(t, p.Contains(time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
}
