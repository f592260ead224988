package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"financas/internal/core"
	"financas/internal/store"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleMutation() store.Mutation {
	return store.Mutation{
		Op:       store.OpCreateTransaction,
		MonthKey: "2024-03",
		Transaction: &core.Transaction{
			ID:          "t1",
			Description: "mercado",
			Amount:      core.Money{Cents: 2500},
			Kind:        core.Expense,
			Date:        core.NewDate(2024, 3, 10),
		},
	}
}

func TestAppendAndGetMutation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.AppendMutation(ctx, sampleMutation())
	if err != nil {
		t.Fatalf("AppendMutation: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want positive", id)
	}

	got, err := repo.GetMutation(ctx, id)
	if err != nil {
		t.Fatalf("GetMutation: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.SyncedAt != nil {
		t.Error("SyncedAt should be nil before sync")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
	if got.Mutation.Op != store.OpCreateTransaction || got.Mutation.MonthKey != "2024-03" {
		t.Errorf("payload lost: %+v", got.Mutation)
	}
	if got.Mutation.Transaction == nil || got.Mutation.Transaction.Amount.Cents != 2500 {
		t.Errorf("transaction payload lost: %+v", got.Mutation.Transaction)
	}
	if got.Mutation.Transaction.Date.ISO() != "2024-03-10" {
		t.Errorf("date round trip broken: %s", got.Mutation.Transaction.Date.ISO())
	}
}

func TestGetMutationNotFound(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.GetMutation(context.Background(), 999)
	if !errors.Is(err, ErrMutationNotFound) {
		t.Errorf("got %v, want ErrMutationNotFound", err)
	}
}

func TestGetPendingMutationsOldestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := repo.AppendMutation(ctx, sampleMutation())
		if err != nil {
			t.Fatalf("AppendMutation: %v", err)
		}
		ids = append(ids, id)
	}

	pending, err := repo.GetPendingMutations(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingMutations: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	for i, m := range pending {
		if m.ID != ids[i] {
			t.Errorf("pending[%d].ID = %d, want %d (oldest first)", i, m.ID, ids[i])
		}
	}

	limited, err := repo.GetPendingMutations(ctx, 2)
	if err != nil {
		t.Fatalf("GetPendingMutations limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}
}

func TestMarkSynced(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, _ := repo.AppendMutation(ctx, sampleMutation())
	if err := repo.MarkSynced(ctx, id); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	got, err := repo.GetMutation(ctx, id)
	if err != nil {
		t.Fatalf("GetMutation: %v", err)
	}
	if got.Status != StatusSynced {
		t.Errorf("Status = %q, want synced", got.Status)
	}
	if got.SyncedAt == nil {
		t.Error("SyncedAt not stamped")
	}

	pending, _ := repo.GetPendingMutations(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("synced row still pending")
	}
}

func TestMarkSyncError(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, _ := repo.AppendMutation(ctx, sampleMutation())
	if err := repo.MarkSyncError(ctx, id); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	got, _ := repo.GetMutation(ctx, id)
	if got.Status != StatusError {
		t.Errorf("Status = %q, want error", got.Status)
	}

	// Errored rows are excluded from the pending sweep.
	pending, _ := repo.GetPendingMutations(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("errored row still pending")
	}
}
