// Package reporting derives Trial Balance, Profit & Loss, Balance
// Sheet, and Cash Flow projections off posted ledger lines (spec.md
// §4.7). Every function is a pure read over storage.Repository — no
// caching, no mutation — grounded on the teacher's UseCase-over-
// Repository query shape (get-all-accounts.go): fetch, shape,
// return. Minor-unit integers are the computation currency throughout;
// shopspring/decimal is used only at the Row boundary, mirroring the
// teacher's OperationAmount/OperationBalance fields, which hold
// *decimal.Decimal for display while the ledger itself posts integers.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgercore/core/internal/canonical"
	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/storage"
)

// minorScale is the number of implied decimal places minor-unit
// amounts carry when rendered for display (cents).
const minorScale = -2

func toDisplay(minor int64) decimal.Decimal {
	return decimal.New(minor, minorScale)
}

// Reporter derives read-only financial reports from posted lines.
type Reporter struct {
	Repo storage.Repository
}

// Row is one account's aggregated activity within a report.
type Row struct {
	AccountID    uuid.UUID       `json:"accountId"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Type         ledger.AccountType `json:"type"`
	DebitMinor   int64           `json:"debitMinor"`
	CreditMinor  int64           `json:"creditMinor"`
	BalanceMinor int64           `json:"balanceMinor"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Balance      decimal.Decimal `json:"balance"`
}

func newRow(account *ledger.Account, debitMinor, creditMinor int64) Row {
	balanceMinor := signedBalance(account.Type, debitMinor, creditMinor)

	return Row{
		AccountID:    account.ID,
		Code:         account.Code,
		Name:         account.Name,
		Type:         account.Type,
		DebitMinor:   debitMinor,
		CreditMinor:  creditMinor,
		BalanceMinor: balanceMinor,
		Debit:        toDisplay(debitMinor),
		Credit:       toDisplay(creditMinor),
		Balance:      toDisplay(balanceMinor),
	}
}

func signedBalance(accountType ledger.AccountType, debitMinor, creditMinor int64) int64 {
	if accountType.NormalSide() == ledger.SideDebit {
		return debitMinor - creditMinor
	}

	return creditMinor - debitMinor
}

// aggregate walks every posted transaction in [from, to] and sums each
// touched account's debit/credit legs.
func (r *Reporter) aggregate(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, map[uuid.UUID]int64, error) {
	txns, err := r.Repo.ListPostedTransactions(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}

	debits := map[uuid.UUID]int64{}
	credits := map[uuid.UUID]int64{}

	for _, t := range txns {
		for _, l := range t.Lines {
			debits[l.AccountID] += l.DebitMinor
			credits[l.AccountID] += l.CreditMinor
		}
	}

	return debits, credits, nil
}

func (r *Reporter) rowsForTypes(ctx context.Context, from, to time.Time, types ...ledger.AccountType) ([]Row, error) {
	debits, credits, err := r.aggregate(ctx, from, to)
	if err != nil {
		return nil, err
	}

	wanted := map[ledger.AccountType]struct{}{}
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	touched := make([]uuid.UUID, 0, len(debits)+len(credits))
	seen := map[uuid.UUID]struct{}{}

	for id := range debits {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			touched = append(touched, id)
		}
	}

	for id := range credits {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			touched = append(touched, id)
		}
	}

	accounts, err := r.Repo.GetAccountsByIDs(ctx, touched)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(accounts))

	for id, account := range accounts {
		if len(wanted) > 0 {
			if _, ok := wanted[account.Type]; !ok {
				continue
			}
		}

		rows = append(rows, newRow(account, debits[id], credits[id]))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	return rows, nil
}

// Report is the common envelope every projection returns: the rows
// plus a deterministic IntegrityHash (internal/canonical) a caller can
// compare against a previously cached report to detect whether the
// underlying ledger data changed.
type Report struct {
	GeneratedFor string    `json:"generatedFor"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Rows         []Row     `json:"rows"`
	IntegrityHash string   `json:"integrityHash"`
}

func buildReport(kind string, from, to time.Time, rows []Row) (Report, error) {
	hash, err := canonical.Hash(struct {
		Kind string    `json:"kind"`
		From time.Time `json:"from"`
		To   time.Time `json:"to"`
		Rows []Row     `json:"rows"`
	}{Kind: kind, From: from, To: to, Rows: rows})
	if err != nil {
		return Report{}, fmt.Errorf("reporting: integrity hash: %w", err)
	}

	return Report{GeneratedFor: kind, From: from, To: to, Rows: rows, IntegrityHash: hash}, nil
}

// TrialBalance lists every account touched between from and to with its
// summed debit/credit legs and normal-side balance (spec.md §4.7).
// Σdebit over all rows equals Σcredit over all rows whenever the
// underlying ledger is itself balanced (spec.md §3 invariant 1),
// because TrialBalance sums exactly the legs PostJournal wrote.
func (r *Reporter) TrialBalance(ctx context.Context, from, to time.Time) (Report, error) {
	rows, err := r.rowsForTypes(ctx, from, to)
	if err != nil {
		return Report{}, err
	}

	return buildReport("trialBalance", from, to, rows)
}

// ProfitAndLoss reports revenue and expense activity within [from, to].
func (r *Reporter) ProfitAndLoss(ctx context.Context, from, to time.Time) (Report, error) {
	rows, err := r.rowsForTypes(ctx, from, to, ledger.AccountRevenue, ledger.AccountExpense)
	if err != nil {
		return Report{}, err
	}

	return buildReport("profitAndLoss", from, to, rows)
}

// NetIncomeMinor sums a ProfitAndLoss report's rows into one net income
// figure (revenue balances minus expense balances; both are already
// signed onto their normal side by newRow).
func NetIncomeMinor(report Report) int64 {
	var net int64

	for _, row := range report.Rows {
		switch row.Type {
		case ledger.AccountRevenue:
			net += row.BalanceMinor
		case ledger.AccountExpense:
			net -= row.BalanceMinor
		}
	}

	return net
}

// BalanceSheet reports asset, liability, and equity balances as of
// asOf. Unlike TrialBalance/ProfitAndLoss, the window always starts at
// the zero time so balances are cumulative through asOf, not confined
// to a single period (spec.md §4.7).
func (r *Reporter) BalanceSheet(ctx context.Context, asOf time.Time) (Report, error) {
	rows, err := r.rowsForTypes(ctx, time.Time{}, asOf, ledger.AccountAsset, ledger.AccountLiability, ledger.AccountEquity)
	if err != nil {
		return Report{}, err
	}

	return buildReport("balanceSheet", time.Time{}, asOf, rows)
}

// CashFlowLine categorizes one account's net movement within a Cash
// Flow statement.
type CashFlowLine struct {
	Row
	Category string `json:"category"`
}

// CashFlowReport is the Cash Flow statement: the net change across
// every account tagged as a cash/cash-equivalent account within
// [from, to], broken out by the rest of the chart of accounts it moved
// against (spec.md §4.7 lists TrialBalance/ProfitAndLoss/
// BalanceSheet by name; CashFlow is this module's supplement, since
// spec.md §6 names it in the ingress contract without detailing its
// shape). Each line's Category is the coarse operating/investing/
// financing tag categorize derives from the counter-account's type.
type CashFlowReport struct {
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	NetChangeMinor int64         `json:"netChangeMinor"`
	NetChange     decimal.Decimal `json:"netChange"`
	Lines         []CashFlowLine  `json:"lines"`
	IntegrityHash string          `json:"integrityHash"`
}

// CashFlow sums the net movement of cashAccountIDs within [from, to],
// one line per counter-account it moved against. cashAccountIDs names
// which chart-of-accounts entries this company treats as cash or cash
// equivalents; the ledger core has no notion of "cash" beyond what the
// caller designates.
func (r *Reporter) CashFlow(ctx context.Context, from, to time.Time, cashAccountIDs []uuid.UUID) (CashFlowReport, error) {
	txns, err := r.Repo.ListPostedTransactions(ctx, from, to)
	if err != nil {
		return CashFlowReport{}, err
	}

	isCash := make(map[uuid.UUID]struct{}, len(cashAccountIDs))
	for _, id := range cashAccountIDs {
		isCash[id] = struct{}{}
	}

	counterDebit := map[uuid.UUID]int64{}
	counterCredit := map[uuid.UUID]int64{}

	var netChangeMinor int64

	for _, t := range txns {
		var touchesCash bool

		for _, l := range t.Lines {
			if _, ok := isCash[l.AccountID]; ok {
				netChangeMinor += l.DebitMinor - l.CreditMinor
				touchesCash = true
			}
		}

		if !touchesCash {
			continue
		}

		for _, l := range t.Lines {
			if _, ok := isCash[l.AccountID]; ok {
				continue
			}

			counterDebit[l.AccountID] += l.DebitMinor
			counterCredit[l.AccountID] += l.CreditMinor
		}
	}

	counterIDs := make([]uuid.UUID, 0, len(counterDebit)+len(counterCredit))
	seen := map[uuid.UUID]struct{}{}

	for id := range counterDebit {
		seen[id] = struct{}{}
		counterIDs = append(counterIDs, id)
	}

	for id := range counterCredit {
		if _, ok := seen[id]; !ok {
			counterIDs = append(counterIDs, id)
		}
	}

	accounts, err := r.Repo.GetAccountsByIDs(ctx, counterIDs)
	if err != nil {
		return CashFlowReport{}, err
	}

	lines := make([]CashFlowLine, 0, len(accounts))

	for id, account := range accounts {
		row := newRow(account, counterDebit[id], counterCredit[id])
		lines = append(lines, CashFlowLine{Row: row, Category: categorize(account.Type)})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Code < lines[j].Code })

	hash, err := canonical.Hash(struct {
		From  time.Time      `json:"from"`
		To    time.Time      `json:"to"`
		Net   int64          `json:"net"`
		Lines []CashFlowLine `json:"lines"`
	}{From: from, To: to, Net: netChangeMinor, Lines: lines})
	if err != nil {
		return CashFlowReport{}, fmt.Errorf("reporting: integrity hash: %w", err)
	}

	return CashFlowReport{
		From:           from,
		To:             to,
		NetChangeMinor: netChangeMinor,
		NetChange:      toDisplay(netChangeMinor),
		Lines:          lines,
		IntegrityHash:  hash,
	}, nil
}

// categorize gives a caller a starting point for operating/investing/
// financing classification; it is a coarse default based on account
// type, not an authoritative classification.
func categorize(t ledger.AccountType) string {
	switch t {
	case ledger.AccountRevenue, ledger.AccountExpense:
		return "operating"
	case ledger.AccountAsset:
		return "investing"
	case ledger.AccountLiability, ledger.AccountEquity:
		return "financing"
	default:
		return "uncategorized"
	}
}
