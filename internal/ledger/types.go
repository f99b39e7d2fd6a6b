// Package ledger holds the core domain entities of spec.md §3: tenants,
// companies, accounts, dimensions, periods, transactions and their
// lines. Struct shape follows the teacher's mmodel convention
// (exported fields, json tags, swagger-less here since there is no HTTP
// surface in this module).
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AccountType is the normal-side classification of an Account.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// NormalSide reports whether t's normal balance increases on the debit
// or credit side. Assets/expenses are debit-normal; liabilities,
// equity, and revenue are credit-normal.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountAsset, AccountExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Side names a ledger leg direction.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// DimensionType enumerates the optional tag categories a line may carry.
type DimensionType string

const (
	DimensionLocation   DimensionType = "location"
	DimensionDepartment DimensionType = "department"
	DimensionProject    DimensionType = "project"
	DimensionClass      DimensionType = "class"
)

// PeriodState is the lifecycle state of an AccountingPeriod.
type PeriodState string

const (
	PeriodOpen   PeriodState = "open"
	PeriodClosed PeriodState = "closed"
)

// OverridePolicy governs whether a closed period accepts reversing
// entries (spec.md §6 period_lock_override_policy).
type OverridePolicy string

const (
	OverrideDeny              OverridePolicy = "deny"
	OverrideAllowReversalOnly OverridePolicy = "allow_reversals_only"
	OverrideAllowWithAudit    OverridePolicy = "allow_with_audit"
)

// TransactionStatus is the Transaction state machine of spec.md §4.3:
// draft -> posted -> reversed (terminal).
type TransactionStatus string

const (
	TransactionDraft    TransactionStatus = "draft"
	TransactionPosted   TransactionStatus = "posted"
	TransactionReversed TransactionStatus = "reversed"
)

// TransactionType distinguishes an ordinary posting from a reversal.
type TransactionType string

const (
	TransactionTypeOrdinary TransactionType = "ordinary"
	TransactionTypeReversal TransactionType = "reversal"
)

// Tenant is a long-lived owner of one or more companies.
type Tenant struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

// Company belongs to exactly one Tenant for its entire lifecycle.
type Company struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`
	Name     string    `json:"name"`
	Timezone string    `json:"timezone"`
}

// Membership grants a user a role within a company.
type Membership struct {
	UserID    uuid.UUID `json:"userId"`
	CompanyID uuid.UUID `json:"companyId"`
	Role      string    `json:"role"`
}

// Account is a node in a company's chart of accounts.
type Account struct {
	ID                   uuid.UUID   `json:"id"`
	CompanyID            uuid.UUID   `json:"companyId"`
	Code                 string      `json:"code"`
	Name                 string      `json:"name"`
	Type                 AccountType `json:"type"`
	Subtype              string      `json:"subtype,omitempty"`
	ParentID             *uuid.UUID  `json:"parentId,omitempty"`
	Active               bool        `json:"active"`
	AllowNegativeBalance bool        `json:"allowNegativeBalance"`
}

// DimensionValue is one allowed value within a Dimension (e.g. the
// "north-region" location under the "location" dimension).
type DimensionValue struct {
	ID     uuid.UUID `json:"id"`
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

// Dimension groups the optional tags lines may carry.
type Dimension struct {
	ID        uuid.UUID        `json:"id"`
	CompanyID uuid.UUID        `json:"companyId"`
	Type      DimensionType    `json:"type"`
	Values    []DimensionValue `json:"values,omitempty"`
}

// LineDimensions pins one optional tag per dimension type on a line.
type LineDimensions map[DimensionType]uuid.UUID

// AccountingPeriod is a closeable date range within a company.
type AccountingPeriod struct {
	ID             uuid.UUID      `json:"id"`
	CompanyID      uuid.UUID      `json:"companyId"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Type           string         `json:"type"`
	State          PeriodState    `json:"state"`
	ReversalPolicy OverridePolicy `json:"reversalPolicy"`
	ClosedBy       *uuid.UUID     `json:"closedBy,omitempty"`
	ClosedAt       *time.Time     `json:"closedAt,omitempty"`
}

// Contains reports whether d falls within [Start, End].
func (p AccountingPeriod) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// TransactionLine is one leg of a Transaction. Exactly one of
// DebitMinor/CreditMinor is positive; the other is zero (spec.md §3
// invariant 2).
type TransactionLine struct {
	ID              uuid.UUID      `json:"id"`
	TransactionID   uuid.UUID      `json:"transactionId"`
	CompanyID       uuid.UUID      `json:"companyId"`
	AccountID       uuid.UUID      `json:"accountId"`
	DebitMinor      int64          `json:"debitMinor"`
	CreditMinor     int64          `json:"creditMinor"`
	Description     string         `json:"description,omitempty"`
	Dimensions      LineDimensions `json:"dimensions,omitempty"`
	LineNumber      int            `json:"lineNumber"`
}

// Side reports which leg of the line carries the non-zero amount.
func (l TransactionLine) Side() Side {
	if l.DebitMinor > 0 {
		return SideDebit
	}

	return SideCredit
}

// Amount reports the line's non-zero leg amount.
func (l TransactionLine) Amount() int64 {
	if l.DebitMinor > 0 {
		return l.DebitMinor
	}

	return l.CreditMinor
}

// Reversed returns a line with debit and credit swapped, for building a
// reversing Transaction line-for-line (spec.md §4.3).
func (l TransactionLine) Reversed() TransactionLine {
	r := l
	r.ID = uuid.Nil
	r.DebitMinor, r.CreditMinor = l.CreditMinor, l.DebitMinor

	return r
}

// Transaction is a posted (or draft) journal entry.
type Transaction struct {
	ID                    uuid.UUID         `json:"id"`
	CompanyID             uuid.UUID         `json:"companyId"`
	TransactionNumber     string            `json:"transactionNumber,omitempty"`
	Date                  time.Time         `json:"date"`
	Description           string            `json:"description,omitempty"`
	Reference             string            `json:"reference,omitempty"`
	Type                  TransactionType   `json:"type"`
	Status                TransactionStatus `json:"status"`
	ReversedTransactionID *uuid.UUID        `json:"reversedTransactionId,omitempty"`
	IdempotencyKey        string            `json:"idempotencyKey,omitempty"`
	CreatedBy             uuid.UUID         `json:"createdBy"`
	CreatedAt             time.Time         `json:"createdAt"`
	PostedAt              *time.Time        `json:"postedAt,omitempty"`
	Lines                 []TransactionLine `json:"lines,omitempty"`
}

// TotalDebitMinor sums the debit leg over all lines.
func (t Transaction) TotalDebitMinor() int64 {
	var total int64
	for _, l := range t.Lines {
		total += l.DebitMinor
	}

	return total
}

// TotalCreditMinor sums the credit leg over all lines.
func (t Transaction) TotalCreditMinor() int64 {
	var total int64
	for _, l := range t.Lines {
		total += l.CreditMinor
	}

	return total
}

// Balanced reports whether the transaction satisfies spec.md §3
// invariant 1 (Σdebit = Σcredit).
func (t Transaction) Balanced() bool {
	return t.TotalDebitMinor() == t.TotalCreditMinor()
}
