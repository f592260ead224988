package remote

import (
	"context"
	"fmt"

	"financas/internal/store"
)

// Apply replays one recorded mutation against a backend adapter. It is
// the single translation point between the journal's mutation log and
// the adapter's typed operations, shared by the direct journal and the
// outbox sync worker.
func Apply(ctx context.Context, a Adapter, m store.Mutation) error {
	switch m.Op {
	case store.OpSetInitialBalance:
		if m.Balance == nil {
			return fmt.Errorf("apply %s: missing balance payload", m.Op)
		}
		return a.SetInitialBalance(ctx, m.MonthKey, *m.Balance)
	case store.OpCreateTransaction:
		if m.Transaction == nil {
			return fmt.Errorf("apply %s: missing transaction payload", m.Op)
		}
		_, err := a.CreateTransaction(ctx, m.MonthKey, *m.Transaction)
		return err
	case store.OpUpdateTransaction:
		if m.Transaction == nil {
			return fmt.Errorf("apply %s: missing transaction payload", m.Op)
		}
		return a.UpdateTransaction(ctx, m.EntityID, *m.Transaction)
	case store.OpDeleteTransaction:
		return a.DeleteTransaction(ctx, m.EntityID)
	case store.OpCreateBudget:
		if m.Budget == nil {
			return fmt.Errorf("apply %s: missing budget payload", m.Op)
		}
		_, err := a.CreateBudget(ctx, m.MonthKey, *m.Budget)
		return err
	case store.OpUpdateBudget:
		if m.Budget == nil {
			return fmt.Errorf("apply %s: missing budget payload", m.Op)
		}
		return a.UpdateBudget(ctx, m.EntityID, *m.Budget)
	case store.OpDeleteBudget:
		return a.DeleteBudget(ctx, m.EntityID)
	default:
		return fmt.Errorf("apply: unknown op %q", m.Op)
	}
}

// DirectJournal synchronizes each mutation inline against the adapter,
// with no intermediate persistence. It suits backends that are already
// local or tests that want immediate visibility of remote state.
type DirectJournal struct {
	adapter Adapter
}

// NewDirectJournal wires a journal straight to the given adapter.
func NewDirectJournal(a Adapter) *DirectJournal {
	return &DirectJournal{adapter: a}
}

// Record implements store.Journal.
func (j *DirectJournal) Record(ctx context.Context, m store.Mutation) error {
	return Apply(ctx, j.adapter, m)
}
