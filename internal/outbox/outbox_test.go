package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/storage/memory"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	failKeys  map[string]int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failKeys: map[string]int{}}
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failKeys[routingKey] > 0 {
		p.failKeys[routingKey]--
		return errors.New("broker unavailable")
	}

	p.published = append(p.published, routingKey)

	return nil
}

func enqueue(t *testing.T, repo *memory.Repository, eventType string) *ledger.OutboxRecord {
	t.Helper()

	rec := &ledger.OutboxRecord{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{"ok":true}`),
		CreatedAt: time.Now(),
	}

	require.NoError(t, repo.EnqueueOutbox(context.Background(), rec))

	return rec
}

func TestDrain_PublishesPendingRecords(t *testing.T) {
	repo := memory.New()
	enqueue(t, repo, ledger.EventTransactionPosted)
	enqueue(t, repo, ledger.EventInvoiceFinalized)

	pub := newFakePublisher()
	d := &Drainer{Repo: repo, Publisher: pub}

	n, err := d.Drain(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	published, err := repo.ListOutbox(context.Background(), ledger.OutboxPublished, 10)
	require.NoError(t, err)
	assert.Len(t, published, 2)
}

func TestDrain_FailureMovesToFailedThenRetries(t *testing.T) {
	repo := memory.New()
	rec := enqueue(t, repo, ledger.EventPaymentApplied)

	pub := newFakePublisher()
	pub.failKeys[ledger.EventPaymentApplied] = 1

	d := &Drainer{Repo: repo, Publisher: pub, MaxAttempts: 5}

	n, err := d.Drain(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	failed, err := repo.ListOutbox(context.Background(), ledger.OutboxFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, rec.ID, failed[0].ID)
	assert.Equal(t, 1, failed[0].Attempts)

	n, err = d.Drain(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	published, err := repo.ListOutbox(context.Background(), ledger.OutboxPublished, 10)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, 2, published[0].Attempts)
}

func TestDrain_ExhaustsIntoDLQ(t *testing.T) {
	repo := memory.New()
	enqueue(t, repo, ledger.EventPayrollExecuted)

	pub := newFakePublisher()
	pub.failKeys[ledger.EventPayrollExecuted] = 10

	d := &Drainer{Repo: repo, Publisher: pub, MaxAttempts: 2}

	for i := 0; i < 2; i++ {
		_, err := d.Drain(context.Background(), 10)
		require.NoError(t, err)
	}

	dlq, err := repo.ListOutbox(context.Background(), ledger.OutboxDLQ, 10)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	assert.Equal(t, 2, dlq[0].Attempts)
}

func TestDrain_CustomRouterRewritesRoutingKey(t *testing.T) {
	repo := memory.New()
	enqueue(t, repo, ledger.EventLedgerReconciled)

	pub := newFakePublisher()
	d := &Drainer{
		Repo:      repo,
		Publisher: pub,
		Router:    func(eventType string) string { return "ledger." + eventType },
	}

	_, err := d.Drain(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "ledger."+ledger.EventLedgerReconciled, pub.published[0])
}

func TestForceDLQ_RejectsInvalidTransition(t *testing.T) {
	repo := memory.New()
	rec := enqueue(t, repo, ledger.EventTransactionPosted)

	err := ForceDLQ(context.Background(), repo, rec.ID, ledger.OutboxPending, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestForceDLQ_AllowsFromFailed(t *testing.T) {
	repo := memory.New()
	rec := enqueue(t, repo, ledger.EventTransactionPosted)
	require.NoError(t, repo.UpdateOutboxStatus(context.Background(), rec.ID, ledger.OutboxFailed, 1))

	err := ForceDLQ(context.Background(), repo, rec.ID, ledger.OutboxFailed, 1)
	require.NoError(t, err)

	dlq, err := repo.ListOutbox(context.Background(), ledger.OutboxDLQ, 10)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	assert.Equal(t, rec.ID, dlq[0].ID)
}
