// Package posting implements the Posting Engine of spec.md §4.3: the
// single path every journal entry must go through to become a posted
// Transaction. Structurally grounded on the teacher's UseCase command
// functions (create-ledger.go's validate -> write -> side-effect
// shape), generalized from a single-entity create to the multi-line,
// multi-invariant posting pipeline and composed over this module's own
// idempotency/periodlock/audit/outbox/retry packages instead of the
// teacher's metadata/audit-tree side calls.
package posting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgercore/core/internal/idempotency"
	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/money"
	"github.com/ledgercore/core/internal/periodlock"
	"github.com/ledgercore/core/internal/retry"
	"github.com/ledgercore/core/internal/scope"
	"github.com/ledgercore/core/internal/storage"

	auditlog "github.com/ledgercore/core/internal/audit"
)

// Engine posts journal entries and reverses posted transactions. The
// zero value is not usable; Repo, Idempotency, PeriodLock, Audit and
// Retry are required. A zero MaxLines or MaxLineAmountMinor disables
// that bound, and a nil Logger disables logging.
type Engine struct {
	Repo        storage.Repository
	Idempotency *idempotency.Store
	PeriodLock  *periodlock.Manager
	Audit       *auditlog.Log
	Retry       retry.Config

	MaxLines           int
	MaxLineAmountMinor int64

	Logger *zap.Logger
}

// LineInput is one caller-supplied leg of a journal entry. Exactly one
// of the resulting DebitMinor/CreditMinor is populated based on Side,
// matching the storage-level invariant (spec.md §3 invariant 2).
type LineInput struct {
	AccountID   uuid.UUID
	Side        ledger.Side
	AmountMinor int64
	Description string
	Dimensions  ledger.LineDimensions
}

// PostJournalInput is the Posting Engine's entry point payload. The
// higher-level mutations spec.md §6 names (finalizeInvoice,
// applyPayment, executePayroll, reconcileLedger) are all, at the
// ledger's core, "post one balanced journal entry exactly once" — they
// go through this same struct, tagging Operation/EventType/reference
// fields differently instead of duplicating the 13-step algorithm
// (internal/api builds these).
type PostJournalInput struct {
	CompanyID      uuid.UUID
	Date           time.Time
	Description    string
	Reference      string
	Lines          []LineInput
	IdempotencyKey string
	CreatedBy      uuid.UUID
	OutboxEvents   []OutboxEventInput

	// Operation scopes the idempotency key; zero value defaults to
	// ledger.OperationPostJournal.
	Operation ledger.Operation
	// EventType names the primary outbox event emitted for this
	// posting; zero value defaults to ledger.EventTransactionPosted.
	EventType string
	// ReferenceEntityType/ReferenceEntityID identify the originating
	// domain object (an invoice, pay run, bank transaction, ...) for
	// the audit entry, when this posting is not a bare journal entry.
	ReferenceEntityType string
	ReferenceEntityID   string
}

func (in PostJournalInput) operation() ledger.Operation {
	if in.Operation == "" {
		return ledger.OperationPostJournal
	}

	return in.Operation
}

func (in PostJournalInput) eventType() string {
	if in.EventType == "" {
		return ledger.EventTransactionPosted
	}

	return in.EventType
}

// OutboxEventInput is one post-commit side effect the caller wants
// enqueued atomically with the posting (spec.md §4.2, §6).
type OutboxEventInput struct {
	EventType string
	Payload   []byte
}

// PostJournal validates, balances, and durably posts a journal entry,
// replaying a prior response verbatim when called again with the same
// idempotency key (spec.md §4.3, §4.4). The second return value
// reports whether the response was replayed from the idempotency store
// rather than freshly posted, so the caller can distinguish
// first-create from retry-of-create (spec.md §6).
func (e *Engine) PostJournal(ctx context.Context, in PostJournalInput) (*ledger.Transaction, bool, error) {
	if err := scope.AssertCompanyScope(ctx, in.CompanyID); err != nil {
		return nil, false, err
	}

	outcome, err := e.Idempotency.Begin(ctx, in.operation(), in.IdempotencyKey, in)
	if err != nil {
		return nil, false, err
	}

	if !outcome.Claimed {
		var replay ledger.Transaction
		if err := json.Unmarshal(outcome.Record.ResponseBody, &replay); err != nil {
			return nil, false, fmt.Errorf("posting: unmarshal replayed response: %w", err)
		}

		return &replay, true, nil
	}

	var result *ledger.Transaction

	err = retry.Do(ctx, e.Retry, func(ctx context.Context, attempt int) error {
		txErr := e.Repo.WithinTransaction(ctx, func(ctx context.Context) error {
			t, err := e.postOnce(ctx, in)
			if err != nil {
				return err
			}

			result = t

			return nil
		})

		return wrapIfConcurrency(txErr)
	})
	if err != nil {
		if e.Logger != nil {
			e.Logger.Error("posting failed", zap.String("company_id", in.CompanyID.String()), zap.Error(err))
		}

		return nil, false, err
	}

	body, err := json.Marshal(result)
	if err != nil {
		return nil, false, fmt.Errorf("posting: marshal response for idempotency finalize: %w", err)
	}

	if err := e.Idempotency.Finalize(ctx, in.operation(), in.IdempotencyKey, 201, body); err != nil {
		return nil, false, err
	}

	if e.Logger != nil {
		e.Logger.Info("transaction posted",
			zap.String("transaction_id", result.ID.String()),
			zap.String("transaction_number", result.TransactionNumber))
	}

	return result, false, nil
}

// wrapIfConcurrency marks a KindConcurrency error Retryable so
// retry.Do backs off and retries instead of propagating it to the
// caller on the first serialization conflict (spec.md §5).
func wrapIfConcurrency(err error) error {
	if err == nil {
		return nil
	}

	var lerr *ledger.Error
	if errors.As(err, &lerr) && lerr.Kind == ledger.KindConcurrency {
		return retry.Retryable{Err: err}
	}

	return err
}

// postOnce runs the 13-step posting algorithm once, inside the
// caller's open database transaction. A returned error aborts the
// transaction; retry.Do decides whether postOnce runs again.
func (e *Engine) postOnce(ctx context.Context, in PostJournalInput) (*ledger.Transaction, error) {
	if err := e.validateLineCount(in.Lines); err != nil {
		return nil, err
	}

	lines, err := e.buildLines(in.Lines)
	if err != nil {
		return nil, err
	}

	locked, _, err := e.PeriodLock.IsLocked(ctx, in.Date)
	if err != nil {
		return nil, err
	}

	// An ordinary posting is never a permitted reversing entry; a
	// closed period rejects it regardless of the period's reversal
	// override policy (that override applies only in voidOnce).
	if locked {
		return nil, ledger.Integrity(ledger.CodePeriodLocked, "accounting period is closed")
	}

	accountIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		accountIDs = append(accountIDs, l.AccountID)
	}

	accounts, err := e.Repo.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if _, ok := accounts[l.AccountID]; !ok {
			return nil, ledger.Validation(ledger.CodeUnknownAccount, fmt.Sprintf("unknown account %s", l.AccountID))
		}
	}

	number, err := e.Repo.NextTransactionNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	t := &ledger.Transaction{
		ID:                uuid.New(),
		CompanyID:         in.CompanyID,
		TransactionNumber: number,
		Date:              in.Date,
		Description:       in.Description,
		Reference:         in.Reference,
		Type:              ledger.TransactionTypeOrdinary,
		Status:            ledger.TransactionPosted,
		IdempotencyKey:    in.IdempotencyKey,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         now,
		PostedAt:          &now,
		Lines:             lines,
	}

	totalDebit, totalCredit, err := sumLegs(t.Lines)
	if err != nil {
		return nil, err
	}

	if totalDebit != totalCredit {
		return nil, ledger.Validation(ledger.CodeUnbalanced, "debits and credits are not equal")
	}

	for i := range t.Lines {
		t.Lines[i].ID = uuid.New()
		t.Lines[i].TransactionID = t.ID
		t.Lines[i].CompanyID = in.CompanyID
		t.Lines[i].LineNumber = i + 1
	}

	if err := e.Repo.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}

	if err := e.Repo.InsertLines(ctx, t.Lines); err != nil {
		return nil, err
	}

	if err := e.checkNegativeBalances(ctx, t.Lines, accounts); err != nil {
		return nil, err
	}

	if err := e.appendAuditForPost(ctx, t, in.ReferenceEntityType, in.ReferenceEntityID); err != nil {
		return nil, err
	}

	if err := e.enqueueOutbox(ctx, t, in.eventType(), in.OutboxEvents); err != nil {
		return nil, err
	}

	return t, nil
}

// sumLegs totals each leg with overflow-checked arithmetic: an entry
// whose legs exceed int64 minor units is rejected, never wrapped or
// truncated.
func sumLegs(lines []ledger.TransactionLine) (debit, credit money.Minor, err error) {
	for _, l := range lines {
		debit, err = money.Add(debit, money.Minor(l.DebitMinor))
		if err != nil {
			return 0, 0, ledger.Validation(ledger.CodeAmountOverflow, "total debits overflow minor units")
		}

		credit, err = money.Add(credit, money.Minor(l.CreditMinor))
		if err != nil {
			return 0, 0, ledger.Validation(ledger.CodeAmountOverflow, "total credits overflow minor units")
		}
	}

	return debit, credit, nil
}

func (e *Engine) validateLineCount(lines []LineInput) error {
	if len(lines) < 2 {
		return ledger.Validation(ledger.CodeTooFewLines, "a journal entry requires at least two lines")
	}

	if e.MaxLines > 0 && len(lines) > e.MaxLines {
		return ledger.Validation(ledger.CodeTooManyLines, fmt.Sprintf("a journal entry may not exceed %d lines", e.MaxLines))
	}

	return nil
}

func (e *Engine) buildLines(inputs []LineInput) ([]ledger.TransactionLine, error) {
	lines := make([]ledger.TransactionLine, 0, len(inputs))

	for _, in := range inputs {
		if in.AmountMinor <= 0 {
			return nil, ledger.Validation(ledger.CodeNegativeAmount, "line amount must be positive")
		}

		if e.MaxLineAmountMinor > 0 && in.AmountMinor > e.MaxLineAmountMinor {
			return nil, ledger.Validation(ledger.CodeAmountOverflow, "line amount exceeds the configured maximum")
		}

		line := ledger.TransactionLine{
			AccountID:   in.AccountID,
			Description: in.Description,
			Dimensions:  in.Dimensions,
		}

		switch in.Side {
		case ledger.SideDebit:
			line.DebitMinor = in.AmountMinor
		case ledger.SideCredit:
			line.CreditMinor = in.AmountMinor
		default:
			return nil, ledger.Validation(ledger.CodeLineSignViolation, "line side must be debit or credit")
		}

		lines = append(lines, line)
	}

	return lines, nil
}

func (e *Engine) checkNegativeBalances(ctx context.Context, lines []ledger.TransactionLine, accounts map[uuid.UUID]*ledger.Account) error {
	touched := map[uuid.UUID]struct{}{}

	for _, l := range lines {
		touched[l.AccountID] = struct{}{}
	}

	for accountID := range touched {
		account := accounts[accountID]
		if account.AllowNegativeBalance {
			continue
		}

		debit, credit, err := e.Repo.AccountRunningBalance(ctx, accountID)
		if err != nil {
			return err
		}

		balance := signedBalance(account.Type, debit, credit)
		if balance < 0 {
			return ledger.Integrity(ledger.CodeNegativeBalance, fmt.Sprintf("account %s would go negative", account.Code))
		}
	}

	return nil
}

// signedBalance reports an account's balance on its normal side: a
// debit-normal account's balance is debit-credit, a credit-normal
// account's balance is credit-debit (spec.md §3).
func signedBalance(accountType ledger.AccountType, debit, credit int64) int64 {
	if accountType.NormalSide() == ledger.SideDebit {
		return debit - credit
	}

	return credit - debit
}

// appendAuditForPost records the posting. When the posting originates
// from a higher-level mutation (an invoice, a pay run, ...), entityType
// and entityID name that originating object instead of the generic
// "Transaction"/transaction ID, so the audit trail reads in domain
// terms.
func (e *Engine) appendAuditForPost(ctx context.Context, t *ledger.Transaction, entityType, entityID string) error {
	s, _ := scope.Current(ctx)

	if entityType == "" {
		entityType = "Transaction"
	}

	if entityID == "" {
		entityID = t.ID.String()
	}

	return e.Audit.Append(ctx, &ledger.AuditEvent{
		CompanyID:   &t.CompanyID,
		ActorUserID: s.UserID,
		Action:      ledger.ActionTransactionPosted,
		EntityType:  entityType,
		EntityID:    entityID,
		After:       t,
	})
}

// VoidTransactionInput is the Posting Engine's reversal entry point
// payload (spec.md §4.3's "corrections are a new Transaction" rule).
type VoidTransactionInput struct {
	CompanyID              uuid.UUID
	OriginalTransactionID  uuid.UUID
	Reason                 string
	IdempotencyKey         string
	CreatedBy              uuid.UUID
}

// VoidTransaction posts a line-for-line reversal of an already-posted
// transaction and marks the original reversed, without ever mutating
// the original's lines (spec.md §3 invariant 4, §4.3). The second
// return value reports an idempotent replay, as with PostJournal.
func (e *Engine) VoidTransaction(ctx context.Context, in VoidTransactionInput) (*ledger.Transaction, bool, error) {
	if err := scope.AssertCompanyScope(ctx, in.CompanyID); err != nil {
		return nil, false, err
	}

	outcome, err := e.Idempotency.Begin(ctx, ledger.OperationPostJournal, in.IdempotencyKey, in)
	if err != nil {
		return nil, false, err
	}

	if !outcome.Claimed {
		var replay ledger.Transaction
		if err := json.Unmarshal(outcome.Record.ResponseBody, &replay); err != nil {
			return nil, false, fmt.Errorf("posting: unmarshal replayed response: %w", err)
		}

		return &replay, true, nil
	}

	var result *ledger.Transaction

	err = retry.Do(ctx, e.Retry, func(ctx context.Context, attempt int) error {
		txErr := e.Repo.WithinTransaction(ctx, func(ctx context.Context) error {
			t, err := e.voidOnce(ctx, in)
			if err != nil {
				return err
			}

			result = t

			return nil
		})

		return wrapIfConcurrency(txErr)
	})
	if err != nil {
		if e.Logger != nil {
			e.Logger.Error("void failed", zap.String("original_transaction_id", in.OriginalTransactionID.String()), zap.Error(err))
		}

		return nil, false, err
	}

	body, err := json.Marshal(result)
	if err != nil {
		return nil, false, fmt.Errorf("posting: marshal response for idempotency finalize: %w", err)
	}

	if err := e.Idempotency.Finalize(ctx, ledger.OperationPostJournal, in.IdempotencyKey, 201, body); err != nil {
		return nil, false, err
	}

	return result, false, nil
}

func (e *Engine) voidOnce(ctx context.Context, in VoidTransactionInput) (*ledger.Transaction, error) {
	original, err := e.Repo.GetTransactionWithLines(ctx, in.OriginalTransactionID)
	if err != nil {
		return nil, err
	}

	if original.Status != ledger.TransactionPosted {
		return nil, ledger.Integrity(ledger.CodeImmutabilityViolation, "only a posted transaction can be voided")
	}

	locked, period, err := e.PeriodLock.IsLocked(ctx, original.Date)
	if err != nil {
		return nil, err
	}

	if locked && !periodlock.AllowsReversal(period) {
		return nil, ledger.Integrity(ledger.CodePeriodLocked, "accounting period is closed")
	}

	number, err := e.Repo.NextTransactionNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	reversal := &ledger.Transaction{
		ID:                    uuid.New(),
		CompanyID:             in.CompanyID,
		TransactionNumber:     number,
		Date:                  now,
		Description:           fmt.Sprintf("reversal of %s: %s", original.TransactionNumber, in.Reason),
		Reference:             original.Reference,
		Type:                  ledger.TransactionTypeReversal,
		Status:                ledger.TransactionPosted,
		ReversedTransactionID: &original.ID,
		IdempotencyKey:        in.IdempotencyKey,
		CreatedBy:             in.CreatedBy,
		CreatedAt:             now,
		PostedAt:              &now,
	}

	reversal.Lines = make([]ledger.TransactionLine, len(original.Lines))
	for i, l := range original.Lines {
		r := l.Reversed()
		r.ID = uuid.New()
		r.TransactionID = reversal.ID
		r.CompanyID = in.CompanyID
		r.LineNumber = i + 1
		reversal.Lines[i] = r
	}

	if !reversal.Balanced() {
		return nil, ledger.Integrity(ledger.CodeUnbalanced, "reversal of a balanced transaction must itself balance")
	}

	if err := e.Repo.InsertTransaction(ctx, reversal); err != nil {
		return nil, err
	}

	if err := e.Repo.InsertLines(ctx, reversal.Lines); err != nil {
		return nil, err
	}

	if err := e.Repo.MarkReversed(ctx, original.ID, reversal.ID); err != nil {
		return nil, err
	}

	s, _ := scope.Current(ctx)

	if err := e.Audit.Append(ctx, &ledger.AuditEvent{
		CompanyID:   &in.CompanyID,
		ActorUserID: s.UserID,
		Action:      ledger.ActionTransactionReversed,
		EntityType:  "Transaction",
		EntityID:    reversal.ID.String(),
		Before:      original,
		After:       reversal,
	}); err != nil {
		return nil, err
	}

	if err := e.enqueueOutbox(ctx, reversal, ledger.EventTransactionPosted, nil); err != nil {
		return nil, err
	}

	return reversal, nil
}

func (e *Engine) enqueueOutbox(ctx context.Context, t *ledger.Transaction, eventType string, events []OutboxEventInput) error {
	defaultPayload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("posting: marshal outbox payload: %w", err)
	}

	if err := e.Repo.EnqueueOutbox(ctx, &ledger.OutboxRecord{
		DatabaseTransactionID: t.ID,
		EventType:             eventType,
		Payload:               defaultPayload,
		Status:                ledger.OutboxPending,
		CreatedAt:             time.Now().UTC(),
	}); err != nil {
		return err
	}

	for _, ev := range events {
		if err := e.Repo.EnqueueOutbox(ctx, &ledger.OutboxRecord{
			DatabaseTransactionID: t.ID,
			EventType:             ev.EventType,
			Payload:               ev.Payload,
			Status:                ledger.OutboxPending,
			CreatedAt:             time.Now().UTC(),
		}); err != nil {
			return err
		}
	}

	return nil
}
