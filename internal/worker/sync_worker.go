// Package worker drains the mutation outbox to the remote backend. It is
// driven by AMQP notifications with a periodic pending sweep as backup
// for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/remote"
	"financas/internal/storage"
)

// SyncWorker replays outbox mutations against the remote adapter.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	adapter   remote.Adapter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, adapter remote.Adapter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		adapter:   adapter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single mutation sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MutationSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"op", msg.Op)

	row, err := w.storage.GetMutation(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get mutation from storage: %w", err)
	}

	if row.Status == storage.StatusSynced {
		slog.InfoContext(ctx, "Mutation already synced, skipping", "id", msg.ID)
		return nil
	}

	if err := w.syncMutation(ctx, row); err != nil {
		return fmt.Errorf("sync mutation: %w", err)
	}

	return nil
}

// ProcessPendingMutations replays any pending outbox rows. This is the
// backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingMutations(ctx context.Context) error {
	pending, err := w.storage.GetPendingMutations(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending mutations: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending mutations", "count", len(pending))

	for _, row := range pending {
		if err := w.syncMutation(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync mutation", "id", row.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the backlog once at worker startup, with a
// larger batch than the periodic sweep. Recovers from missed AMQP
// messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingMutations(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending mutations for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending mutations found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending mutations on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, row := range pending {
		if err := w.syncMutation(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to sync mutation during startup",
				"id", row.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncMutation(ctx context.Context, row storage.OutboxMutation) error {
	if err := remote.Apply(ctx, w.adapter, row.Mutation); err != nil {
		// A vanished entity is a stale delete or update; the remote
		// already converged, so treat it as synced.
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Mutation target gone on remote, marking synced",
				"id", row.ID, "op", string(row.Mutation.Op))
			if markErr := w.storage.MarkSynced(ctx, row.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark as synced", "id", row.ID, "error", markErr)
			}
			return nil
		}

		if markErr := w.storage.MarkSyncError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", markErr)
		}
		return fmt.Errorf("apply mutation: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, row.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", row.ID, "error", err)
		// Don't return error here - the sync actually worked
	}

	slog.InfoContext(ctx, "Successfully synced mutation",
		"id", row.ID,
		"op", string(row.Mutation.Op),
		"month_key", row.Mutation.MonthKey)

	return nil
}
