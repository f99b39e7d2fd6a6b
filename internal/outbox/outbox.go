// Package outbox drains ledger.OutboxRecord rows written by
// internal/posting and hands each one to a Publisher, advancing the
// state machine ledger.OutboxStatus.CanTransitionTo already enforces
// at the domain layer. Grounded on the teacher's outbox state machine
// (components/transaction/internal/adapters/postgres/outbox/
// state_machine_test.go) for the transition table and
// components/consumer/internal/adapters/rabbitmq/producer.rabbitmq.go
// for the publish-then-advance-status shape.
package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/storage"
)

// Publisher sends one outbox record's payload to a message transport.
// The exchange/routing key is derived from the record's EventType by
// the caller's Router, not hardcoded here, so Drain stays transport-
// and topology-agnostic.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// Router maps an outbound event type to a routing key. Callers that
// don't need topic fan-out can use the event type itself.
type Router func(eventType string) (routingKey string)

// DefaultRouter routes every event type to itself.
func DefaultRouter(eventType string) string { return eventType }

// Drainer pulls pending/retryable outbox records and publishes them,
// advancing each record's status as it goes. It never deletes rows;
// terminal states (published, dlq) are left for a retention job.
type Drainer struct {
	Repo      storage.OutboxRepository
	Publisher Publisher
	Router    Router
	MaxAttempts int
	Logger    *zap.Logger
}

func (d *Drainer) router() Router {
	if d.Router == nil {
		return DefaultRouter
	}
	return d.Router
}

func (d *Drainer) maxAttempts() int {
	if d.MaxAttempts <= 0 {
		return 5
	}
	return d.MaxAttempts
}

// ErrInvalidTransition is returned by ForceDLQ when the caller-supplied
// from status does not permit a move to dlq.
var ErrInvalidTransition = errors.New("outbox: invalid status transition")

// Drain publishes up to limit pending or failed records, pending ones
// first, returning how many were successfully published. Failed
// records are retried on every call; NextAttemptAt is not consulted. A
// publish failure on one record does not stop the batch; it is marked
// failed or dlq and Drain continues with the next one.
func (d *Drainer) Drain(ctx context.Context, limit int) (published int, err error) {
	pending, err := d.Repo.ListOutbox(ctx, ledger.OutboxPending, limit)
	if err != nil {
		return 0, fmt.Errorf("outbox: list pending: %w", err)
	}

	failed, err := d.Repo.ListOutbox(ctx, ledger.OutboxFailed, limit)
	if err != nil {
		return 0, fmt.Errorf("outbox: list failed: %w", err)
	}

	records := append(pending, failed...)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	for _, rec := range records {
		if d.drainOne(ctx, rec) {
			published++
		}
	}

	return published, nil
}

func (d *Drainer) drainOne(ctx context.Context, rec *ledger.OutboxRecord) bool {
	if !rec.Status.CanTransitionTo(ledger.OutboxProcessing) {
		return false
	}

	if err := d.Repo.UpdateOutboxStatus(ctx, rec.ID, ledger.OutboxProcessing, rec.Attempts); err != nil {
		d.logError(rec, err)
		return false
	}

	routingKey := d.router()(rec.EventType)

	pubErr := d.Publisher.Publish(ctx, routingKey, rec.Payload)
	attempts := rec.Attempts + 1

	if pubErr == nil {
		if err := d.Repo.UpdateOutboxStatus(ctx, rec.ID, ledger.OutboxPublished, attempts); err != nil {
			d.logError(rec, err)
			return false
		}

		return true
	}

	next := ledger.OutboxFailed
	if attempts >= d.maxAttempts() {
		next = ledger.OutboxDLQ
	}

	if err := d.Repo.UpdateOutboxStatus(ctx, rec.ID, next, attempts); err != nil {
		d.logError(rec, err)
	}

	if d.Logger != nil {
		d.Logger.Error("outbox publish failed",
			zap.String("record_id", rec.ID.String()),
			zap.String("event_type", rec.EventType),
			zap.Int("attempts", attempts),
			zap.String("next_status", string(next)),
			zap.Error(pubErr))
	}

	return false
}

func (d *Drainer) logError(rec *ledger.OutboxRecord, err error) {
	if d.Logger == nil {
		return
	}

	d.Logger.Error("outbox status update failed",
		zap.String("record_id", rec.ID.String()),
		zap.Error(err))
}

// ForceDLQ moves a record straight to the dead-letter state, used by
// an operator tool when a record's payload is known to be unprocessable.
func ForceDLQ(ctx context.Context, repo storage.OutboxRepository, id uuid.UUID, from ledger.OutboxStatus, attempts int) error {
	if !from.CanTransitionTo(ledger.OutboxDLQ) {
		return ErrInvalidTransition
	}

	return repo.UpdateOutboxStatus(ctx, id, ledger.OutboxDLQ, attempts)
}
