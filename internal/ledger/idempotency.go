package ledger

import "time"

// IdempotencyState is the lifecycle of one IdempotencyRecord (spec.md §4.4).
type IdempotencyState string

const (
	IdempotencyInFlight IdempotencyState = "inflight"
	IdempotencyDone     IdempotencyState = "done"
)

// Operation is the closed enum of mutation names idempotency keys scope
// to (spec.md §4.4).
type Operation string

const (
	OperationPostJournal     Operation = "postJournal"
	OperationApplyPayment    Operation = "applyPayment"
	OperationFinalizeInvoice Operation = "finalizeInvoice"
	OperationExecutePayroll  Operation = "executePayroll"
	OperationReconcileLedger Operation = "reconcileLedger"
)

// IdempotencyRecord is the durable row backing the Idempotency Store
// (spec.md §3, §4.4).
type IdempotencyRecord struct {
	CompanyID        string           `json:"companyId"`
	Operation        Operation        `json:"operation"`
	Key              string           `json:"key"`
	Fingerprint      string           `json:"fingerprint"`
	State            IdempotencyState `json:"state"`
	ResponseStatus   int              `json:"responseStatus"`
	ResponseBody     []byte           `json:"responseBody,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	ExpiresAt        time.Time        `json:"expiresAt"`
}
