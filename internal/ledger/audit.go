package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is one link in a company's tamper-evident hash chain
// (spec.md §3, §4.6). Rows are append-only: never updated, never
// deleted.
type AuditEvent struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      *uuid.UUID `json:"companyId,omitempty"`
	ActorUserID    uuid.UUID  `json:"actorUserId"`
	Action         string     `json:"action"`
	EntityType     string     `json:"entityType"`
	EntityID       string     `json:"entityId"`
	Before         any        `json:"before,omitempty"`
	After          any        `json:"after,omitempty"`
	PreviousHash   string     `json:"previousHash"`
	EventHash      string     `json:"eventHash"`
	OccurredAt     time.Time  `json:"occurredAt"`
	CorrelationID  string     `json:"correlationId,omitempty"`
}

// Canonical actions recorded by this module's components.
const (
	ActionTransactionPosted   = "transaction.posted"
	ActionTransactionReversed = "transaction.reversed"
	ActionPeriodLocked        = "period.locked"
	ActionPeriodUnlocked      = "period.unlocked"
	ActionLedgerReconciled    = "ledger.reconciled"
	ActionSystemScopeUsed     = "scope.system_bypass"
)
