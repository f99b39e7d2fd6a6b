package ledger

import (
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the lifecycle state of one outbox record, grounded on
// the teacher's outbox state machine
// (components/transaction/.../outbox/state_machine_test.go).
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxPublished  OutboxStatus = "published"
	OutboxFailed     OutboxStatus = "failed"
	OutboxDLQ        OutboxStatus = "dlq"
)

// validOutboxTransitions mirrors the teacher's ValidOutboxTransitions
// table exactly.
var validOutboxTransitions = map[OutboxStatus][]OutboxStatus{
	OutboxPending:    {OutboxProcessing},
	OutboxProcessing: {OutboxPublished, OutboxFailed},
	OutboxFailed:     {OutboxProcessing, OutboxDLQ},
	OutboxPublished:  {},
	OutboxDLQ:        {},
}

// CanTransitionTo reports whether from->to is a legal outbox transition.
func (from OutboxStatus) CanTransitionTo(to OutboxStatus) bool {
	for _, allowed := range validOutboxTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// OutboxRecord is one post-commit side effect declared by a caller of
// the Posting Engine (spec.md §3, §6). It is written inside the same
// database transaction as the posting it originates from.
type OutboxRecord struct {
	ID                  uuid.UUID    `json:"id"`
	DatabaseTransactionID uuid.UUID  `json:"databaseTransactionId"`
	EventType           string       `json:"eventType"`
	Payload             []byte       `json:"payload"`
	Status              OutboxStatus `json:"status"`
	Attempts            int          `json:"attempts"`
	NextAttemptAt       *time.Time   `json:"nextAttemptAt,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
}

// Known outbound event types (spec.md §6).
const (
	EventTransactionPosted = "transaction.posted"
	EventInvoiceFinalized  = "invoice.finalized"
	EventPaymentApplied    = "payment.applied"
	EventPayrollExecuted   = "payroll.executed"
	EventLedgerReconciled  = "ledger.reconciled"
)
