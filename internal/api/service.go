// Package api exposes the ledger core's ingress contract as plain Go
// methods. It owns no wire framing: an HTTP or CLI surface in a
// separate compilation unit resolves identity, builds a
// scope.RequestScope, and calls these methods. Each mutating method
// requires a caller-supplied idempotency key and reports whether its
// response was freshly created or replayed from the idempotency store.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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
	"github.com/ledgercore/core/internal/storage"
)

// Status tells a handler whether a mutation executed now or was
// replayed: handlers map StatusCreated to 201 and StatusOK to 200.
type Status string

const (
	StatusCreated Status = "created"
	StatusOK      Status = "ok"
)

// maxIdempotencyKeyLen bounds the caller-supplied key. The
// idempotency_keys.key column is unbounded TEXT, so this is the only
// length check.
const maxIdempotencyKeyLen = 255

// RolePeriodAdmin is the membership role allowed to close and reopen
// accounting periods.
const RolePeriodAdmin = "admin"

// Service is the library ingress: one method per contract operation.
// Construct it once at startup and hand it to the transport layer; it
// holds no per-request state.
type Service struct {
	Repo        storage.Repository
	Engine      *posting.Engine
	Periods     *periodlock.Manager
	Audit       *auditlog.Log
	Reports     *reporting.Reporter
	Idempotency *idempotency.Store
	Logger      *zap.Logger

	// DefaultLockPolicy is applied to a newly created period that does
	// not name its own reversal policy.
	DefaultLockPolicy ledger.OverridePolicy
}

// New wires a Service from configuration: the posting retry bound,
// per-transaction line limits, idempotency TTL, and the default period
// lock policy all come from cfg so a deployment tunes them through the
// environment rather than code.
func New(cfg *config.Config, repo storage.Repository, redis idempotency.RedisClient, logger *zap.Logger) *Service {
	store := &idempotency.Store{
		Redis: redis,
		Repo:  repo,
		TTL:   cfg.IdempotencyTTL(),
		Poll: retry.Config{
			MaxRetries:     10,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     time.Second,
			JitterFactor:   0.25,
		},
	}
	periods := &periodlock.Manager{Repo: repo}
	audit := &auditlog.Log{Repo: repo}

	engine := &posting.Engine{
		Repo:               repo,
		Idempotency:        store,
		PeriodLock:         periods,
		Audit:              audit,
		Retry:              retry.DefaultPostingConfig().WithMaxRetries(cfg.PostingRetryMax),
		MaxLines:           cfg.LineCountMaxPerTxn,
		MaxLineAmountMinor: cfg.LineAmountMaxMinor,
		Logger:             logger,
	}

	return &Service{
		Repo:              repo,
		Engine:            engine,
		Periods:           periods,
		Audit:             audit,
		Reports:           &reporting.Reporter{Repo: repo},
		Idempotency:       store,
		Logger:            logger,
		DefaultLockPolicy: ledger.OverridePolicy(cfg.PeriodLockOverridePolicy),
	}
}

// JournalEntry is the caller-supplied ledger effect of a mutation: the
// dated, described set of lines to post. Higher-level mutations
// (invoice finalize, payment apply, payroll) carry one of these
// alongside their domain identifiers, because at the ledger's core
// each of them is a balanced journal entry posted exactly once.
type JournalEntry struct {
	Date        time.Time
	Description string
	Reference   string
	Lines       []posting.LineInput
}

// MutationResult pairs a posted transaction with the created/ok
// status. Transaction is the response body; Status is envelope-only
// and never part of the stored idempotency body, so replays stay
// byte-identical.
type MutationResult struct {
	Status      Status
	Transaction *ledger.Transaction
}

func statusOf(replayed bool) Status {
	if replayed {
		return StatusOK
	}

	return StatusCreated
}

func requireIdempotencyKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ledger.Validation(ledger.CodeIdempotencyKeyRequired, "an idempotency key is required for this operation")
	}

	if len(key) > maxIdempotencyKeyLen {
		return ledger.Validation(ledger.CodeIdempotencyKeyRequired, fmt.Sprintf("idempotency key exceeds %d bytes", maxIdempotencyKeyLen))
	}

	return nil
}

// PostJournalRequest posts a bare journal entry.
type PostJournalRequest struct {
	CompanyID      uuid.UUID
	Entry          JournalEntry
	IdempotencyKey string
}

// PostJournal posts a journal entry under the active scope.
func (s *Service) PostJournal(ctx context.Context, req PostJournalRequest) (*MutationResult, error) {
	return s.post(ctx, req.CompanyID, req.Entry, req.IdempotencyKey, postOptions{})
}

// postOptions carries the per-operation tags the higher-level
// mutations layer onto the shared posting pipeline.
type postOptions struct {
	operation  ledger.Operation
	eventType  string
	entityType string
	entityID   string
}

func (s *Service) post(ctx context.Context, companyID uuid.UUID, entry JournalEntry, key string, opts postOptions) (*MutationResult, error) {
	if err := requireIdempotencyKey(key); err != nil {
		return nil, err
	}

	actor, _ := scope.Current(ctx)

	tx, replayed, err := s.Engine.PostJournal(ctx, posting.PostJournalInput{
		CompanyID:           companyID,
		Date:                entry.Date,
		Description:         entry.Description,
		Reference:           entry.Reference,
		Lines:               entry.Lines,
		IdempotencyKey:      key,
		CreatedBy:           actor.UserID,
		Operation:           opts.operation,
		EventType:           opts.eventType,
		ReferenceEntityType: opts.entityType,
		ReferenceEntityID:   opts.entityID,
	})
	if err != nil {
		return nil, err
	}

	return &MutationResult{Status: statusOf(replayed), Transaction: tx}, nil
}

// FinalizeInvoiceRequest finalizes an invoice by posting its journal
// entry (typically receivable debit against revenue and tax credits).
// The invoice document itself lives outside this module; InvoiceID
// ties the posting, audit entry, and outbox event back to it.
type FinalizeInvoiceRequest struct {
	CompanyID      uuid.UUID
	InvoiceID      uuid.UUID
	TargetStatus   string
	Entry          JournalEntry
	IdempotencyKey string
}

// FinalizeInvoice posts the invoice's ledger effect exactly once and
// emits an invoice.finalized outbox event.
func (s *Service) FinalizeInvoice(ctx context.Context, req FinalizeInvoiceRequest) (*MutationResult, error) {
	entry := req.Entry
	if entry.Reference == "" {
		entry.Reference = "invoice:" + req.InvoiceID.String()
	}

	return s.post(ctx, req.CompanyID, entry, req.IdempotencyKey, postOptions{
		operation:  ledger.OperationFinalizeInvoice,
		eventType:  ledger.EventInvoiceFinalized,
		entityType: "Invoice",
		entityID:   req.InvoiceID.String(),
	})
}

// ApplyPaymentRequest applies a received or sent payment to the ledger
// (typically cash debit against receivable credit).
type ApplyPaymentRequest struct {
	CompanyID      uuid.UUID
	PaymentID      uuid.UUID
	InvoiceID      *uuid.UUID
	Entry          JournalEntry
	IdempotencyKey string
}

// ApplyPayment posts the payment's ledger effect exactly once and
// emits a payment.applied outbox event.
func (s *Service) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*MutationResult, error) {
	entry := req.Entry
	if entry.Reference == "" && req.InvoiceID != nil {
		entry.Reference = "invoice:" + req.InvoiceID.String()
	}

	return s.post(ctx, req.CompanyID, entry, req.IdempotencyKey, postOptions{
		operation:  ledger.OperationApplyPayment,
		eventType:  ledger.EventPaymentApplied,
		entityType: "Payment",
		entityID:   req.PaymentID.String(),
	})
}

// ExecutePayrollRequest executes a pay run by posting its aggregate
// journal entry (salary expense against cash and withholding
// liabilities).
type ExecutePayrollRequest struct {
	CompanyID      uuid.UUID
	PayRunID       uuid.UUID
	TargetStatus   string
	Entry          JournalEntry
	IdempotencyKey string
}

// ExecutePayroll posts the pay run's ledger effect exactly once and
// emits a payroll.executed outbox event.
func (s *Service) ExecutePayroll(ctx context.Context, req ExecutePayrollRequest) (*MutationResult, error) {
	entry := req.Entry
	if entry.Reference == "" {
		entry.Reference = "payrun:" + req.PayRunID.String()
	}

	return s.post(ctx, req.CompanyID, entry, req.IdempotencyKey, postOptions{
		operation:  ledger.OperationExecutePayroll,
		eventType:  ledger.EventPayrollExecuted,
		entityType: "PayRun",
		entityID:   req.PayRunID.String(),
	})
}

// VoidTransactionRequest voids a posted transaction by reversal.
type VoidTransactionRequest struct {
	CompanyID      uuid.UUID
	TransactionID  uuid.UUID
	Reason         string
	IdempotencyKey string
}

// VoidTransaction posts a line-for-line reversal of the named
// transaction and marks the original reversed.
func (s *Service) VoidTransaction(ctx context.Context, req VoidTransactionRequest) (*MutationResult, error) {
	if err := requireIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	}

	actor, _ := scope.Current(ctx)

	tx, replayed, err := s.Engine.VoidTransaction(ctx, posting.VoidTransactionInput{
		CompanyID:             req.CompanyID,
		OriginalTransactionID: req.TransactionID,
		Reason:                req.Reason,
		IdempotencyKey:        req.IdempotencyKey,
		CreatedBy:             actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	return &MutationResult{Status: statusOf(replayed), Transaction: tx}, nil
}

// Reconciliation is the response body of ReconcileLedger: the durable
// record that a bank transaction was matched to a ledger transaction.
type Reconciliation struct {
	BankTransactionID    uuid.UUID `json:"bankTransactionId"`
	MatchedTransactionID uuid.UUID `json:"matchedTransactionId"`
	ReconciledBy         uuid.UUID `json:"reconciledBy"`
	ReconciledAt         time.Time `json:"reconciledAt"`
}

// ReconcileResult pairs the reconciliation record with the created/ok
// status.
type ReconcileResult struct {
	Status         Status
	Reconciliation *Reconciliation
}

// ReconcileLedgerRequest matches an imported bank transaction against
// a posted ledger transaction.
type ReconcileLedgerRequest struct {
	CompanyID            uuid.UUID
	BankTransactionID    uuid.UUID
	MatchedTransactionID uuid.UUID
	IdempotencyKey       string
}

// ReconcileLedger records a bank-to-ledger match exactly once. Unlike
// the other mutations it posts no lines: its state change is the audit
// entry plus the ledger.reconciled outbox event, both written in one
// database transaction. The matched transaction must exist in scope
// and be posted.
func (s *Service) ReconcileLedger(ctx context.Context, req ReconcileLedgerRequest) (*ReconcileResult, error) {
	if err := requireIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	}

	if err := scope.AssertCompanyScope(ctx, req.CompanyID); err != nil {
		return nil, err
	}

	outcome, err := s.Idempotency.Begin(ctx, ledger.OperationReconcileLedger, req.IdempotencyKey, req)
	if err != nil {
		return nil, err
	}

	if !outcome.Claimed {
		var replay Reconciliation
		if err := json.Unmarshal(outcome.Record.ResponseBody, &replay); err != nil {
			return nil, fmt.Errorf("api: unmarshal replayed reconciliation: %w", err)
		}

		return &ReconcileResult{Status: StatusOK, Reconciliation: &replay}, nil
	}

	actor, _ := scope.Current(ctx)

	rec := &Reconciliation{
		BankTransactionID:    req.BankTransactionID,
		MatchedTransactionID: req.MatchedTransactionID,
		ReconciledBy:         actor.UserID,
		ReconciledAt:         time.Now().UTC(),
	}

	err = s.Repo.WithinTransaction(ctx, func(ctx context.Context) error {
		matched, err := s.Repo.GetTransactionWithLines(ctx, req.MatchedTransactionID)
		if err != nil {
			return err
		}

		if matched.Status != ledger.TransactionPosted {
			return ledger.Integrity(ledger.CodeImmutabilityViolation, "only a posted transaction can be reconciled")
		}

		if err := s.Audit.Append(ctx, &ledger.AuditEvent{
			CompanyID:   &req.CompanyID,
			ActorUserID: actor.UserID,
			Action:      ledger.ActionLedgerReconciled,
			EntityType:  "BankTransaction",
			EntityID:    req.BankTransactionID.String(),
			After:       rec,
		}); err != nil {
			return err
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("api: marshal reconciliation payload: %w", err)
		}

		return s.Repo.EnqueueOutbox(ctx, &ledger.OutboxRecord{
			DatabaseTransactionID: matched.ID,
			EventType:             ledger.EventLedgerReconciled,
			Payload:               payload,
			Status:                ledger.OutboxPending,
			CreatedAt:             time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("api: marshal reconciliation response: %w", err)
	}

	if err := s.Idempotency.Finalize(ctx, ledger.OperationReconcileLedger, req.IdempotencyKey, 201, body); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("ledger reconciled",
			zap.String("bank_transaction_id", req.BankTransactionID.String()),
			zap.String("matched_transaction_id", req.MatchedTransactionID.String()))
	}

	return &ReconcileResult{Status: StatusCreated, Reconciliation: rec}, nil
}

// periodAudit is the audit payload of a period lock/unlock, carrying
// the operator's stated reason alongside the period's new state.
type periodAudit struct {
	Period *ledger.AccountingPeriod `json:"period"`
	Reason string                   `json:"reason,omitempty"`
}

// LockPeriod closes the named accounting period. The actor must hold
// the admin role; the transition is audit-logged with the stated
// reason inside the same database transaction.
func (s *Service) LockPeriod(ctx context.Context, periodID uuid.UUID, reason string) (*ledger.AccountingPeriod, error) {
	return s.transitionPeriod(ctx, periodID, reason, ledger.PeriodClosed)
}

// UnlockPeriod reopens the named accounting period, under the same
// privilege and audit rules as LockPeriod.
func (s *Service) UnlockPeriod(ctx context.Context, periodID uuid.UUID, reason string) (*ledger.AccountingPeriod, error) {
	return s.transitionPeriod(ctx, periodID, reason, ledger.PeriodOpen)
}

func (s *Service) transitionPeriod(ctx context.Context, periodID uuid.UUID, reason string, target ledger.PeriodState) (*ledger.AccountingPeriod, error) {
	actor, ok := scope.Current(ctx)
	if !ok {
		return nil, ledger.New(ledger.KindScope, ledger.CodeScopeMissing, "period transitions require an active scope")
	}

	if !actor.HasRole(RolePeriodAdmin) {
		return nil, ledger.New(ledger.KindScope, ledger.CodeUnauthorized, "period transitions require the admin role")
	}

	var period *ledger.AccountingPeriod

	err := s.Repo.WithinTransaction(ctx, func(ctx context.Context) error {
		before, err := s.Repo.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}

		action := ledger.ActionPeriodLocked

		switch target {
		case ledger.PeriodClosed:
			period, err = s.Periods.Lock(ctx, periodID, actor.UserID)
		case ledger.PeriodOpen:
			action = ledger.ActionPeriodUnlocked
			period, err = s.Periods.Unlock(ctx, periodID, actor.UserID)
		}

		if err != nil {
			return err
		}

		return s.Audit.Append(ctx, &ledger.AuditEvent{
			CompanyID:   &period.CompanyID,
			ActorUserID: actor.UserID,
			Action:      action,
			EntityType:  "AccountingPeriod",
			EntityID:    periodID.String(),
			Before:      before,
			After:       periodAudit{Period: period, Reason: reason},
		})
	})
	if err != nil {
		return nil, err
	}

	return period, nil
}

// CreateAccount adds an account to the active company's chart of
// accounts. Reference-data provisioning needs no idempotency key: the
// per-company unique code makes a duplicate create a Conflict, not a
// double-insert.
func (s *Service) CreateAccount(ctx context.Context, a *ledger.Account) (*ledger.Account, error) {
	return s.Repo.CreateAccount(ctx, a)
}

// CreateDimension adds a dimension (and its values) to the active
// company.
func (s *Service) CreateDimension(ctx context.Context, d *ledger.Dimension) (*ledger.Dimension, error) {
	return s.Repo.CreateDimension(ctx, d)
}

// CreatePeriod adds an accounting period, defaulting its reversal
// policy to the configured deployment-wide policy when the caller
// leaves it unset.
func (s *Service) CreatePeriod(ctx context.Context, p *ledger.AccountingPeriod) (*ledger.AccountingPeriod, error) {
	if p.ReversalPolicy == "" {
		p.ReversalPolicy = s.DefaultLockPolicy
	}

	if p.ReversalPolicy == "" {
		p.ReversalPolicy = ledger.OverrideDeny
	}

	return s.Repo.CreatePeriod(ctx, p)
}

// TrialBalance derives the trial balance over [from, to].
func (s *Service) TrialBalance(ctx context.Context, from, to time.Time) (reporting.Report, error) {
	return s.Reports.TrialBalance(ctx, from, to)
}

// ProfitAndLoss derives the P&L over [from, to].
func (s *Service) ProfitAndLoss(ctx context.Context, from, to time.Time) (reporting.Report, error) {
	return s.Reports.ProfitAndLoss(ctx, from, to)
}

// BalanceSheet derives cumulative balances through asOf.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (reporting.Report, error) {
	return s.Reports.BalanceSheet(ctx, asOf)
}

// CashFlow derives the net movement of the caller-designated cash
// accounts over [from, to].
func (s *Service) CashFlow(ctx context.Context, from, to time.Time, cashAccountIDs []uuid.UUID) (reporting.CashFlowReport, error) {
	return s.Reports.CashFlow(ctx, from, to, cashAccountIDs)
}

// VerifyAuditChain replays the active company's audit chain and
// reports the first broken link, if any. The disaster-recovery
// readiness check consumes this.
func (s *Service) VerifyAuditChain(ctx context.Context) (auditlog.VerifyResult, error) {
	return s.Audit.VerifyChain(ctx)
}

// PurgeExpiredIdempotency deletes idempotency rows whose retention
// window has passed. It is a maintenance operation: only a system
// scope may call it, and the bypass is recorded in the process log
// rather than a company's audit chain, since it belongs to no company.
func (s *Service) PurgeExpiredIdempotency(ctx context.Context, olderThan time.Time) (int64, error) {
	sc, ok := scope.Current(ctx)
	if !ok || sc.Kind != scope.KindSystem {
		return 0, ledger.New(ledger.KindScope, ledger.CodeUnauthorized, "idempotency purge requires system scope")
	}

	n, err := s.Repo.PurgeExpiredIdempotency(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	if s.Logger != nil {
		s.Logger.Info("system scope purge completed",
			zap.String("request_id", sc.RequestID.String()),
			zap.Int64("purged", n))
	}

	return n, nil
}
