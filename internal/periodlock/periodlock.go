// Package periodlock implements the Period Lock Manager of spec.md
// §4.5: once an AccountingPeriod is closed, ordinary postings into it
// are rejected; reversals may be allowed depending on the company's
// OverridePolicy. There is no teacher/pack file for this concern
// specifically — it is grounded directly on spec.md §4.5's TOCTOU
// requirement ("the check must happen inside the same transaction as
// the write it is gating") and built on storage.PeriodRepository the
// same way every other domain service in this module is built on
// storage.Repository.
package periodlock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/storage"
)

// Manager consults and transitions AccountingPeriod state.
type Manager struct {
	Repo storage.PeriodRepository
}

// IsLocked reports whether date falls inside a closed period for the
// active company. Must be called from inside the Posting Engine's
// open database transaction (spec.md §4.5), never from a separate
// read before the write transaction begins, or a period closed between
// the check and the write would slip through.
func (m *Manager) IsLocked(ctx context.Context, date time.Time) (bool, *ledger.AccountingPeriod, error) {
	period, err := m.Repo.GetPeriodForDate(ctx, date)
	if err != nil {
		var lerr *ledger.Error
		if errors.As(err, &lerr) && lerr.Kind == ledger.KindNotFound {
			return false, nil, nil
		}

		return false, nil, err
	}

	return period.State == ledger.PeriodClosed, period, nil
}

// AllowsReversal reports whether a closed period's override policy
// permits a reversing entry to post anyway (spec.md §6
// period_lock_override_policy).
func AllowsReversal(period *ledger.AccountingPeriod) bool {
	switch period.ReversalPolicy {
	case ledger.OverrideAllowReversalOnly, ledger.OverrideAllowWithAudit:
		return true
	default:
		return false
	}
}

// Lock closes period, recording the actor responsible for the audit
// trail (internal/audit).
func (m *Manager) Lock(ctx context.Context, periodID, actor uuid.UUID) (*ledger.AccountingPeriod, error) {
	return m.Repo.UpdatePeriodState(ctx, periodID, ledger.PeriodClosed, actor)
}

// Unlock reopens period.
func (m *Manager) Unlock(ctx context.Context, periodID, actor uuid.UUID) (*ledger.AccountingPeriod, error) {
	return m.Repo.UpdatePeriodState(ctx, periodID, ledger.PeriodOpen, actor)
}
