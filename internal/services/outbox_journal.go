// Package services wires the store's journal to the local outbox and the
// message broker.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/storage"
	"financas/internal/store"
)

// OutboxJournal implements store.Journal by persisting each mutation to
// the SQLite outbox and then notifying the sync worker over AMQP. The
// outbox write is the durable step; a failed publish only delays sync
// until the worker's next pending sweep.
type OutboxJournal struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewOutboxJournal(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *OutboxJournal {
	return &OutboxJournal{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Record implements store.Journal.
func (j *OutboxJournal) Record(ctx context.Context, m store.Mutation) error {
	id, err := j.storage.AppendMutation(ctx, m)
	if err != nil {
		return fmt.Errorf("append mutation: %w", err)
	}

	if err := j.publishSyncMessage(ctx, id, string(m.Op)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "op", string(m.Op), "error", err)
		// Don't fail the record - the mutation is durable in the outbox
		// and the worker's pending sweep will pick it up.
	}

	return nil
}

func (j *OutboxJournal) publishSyncMessage(ctx context.Context, id int64, op string) error {
	if j.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return j.amqpClient.PublishMutationSync(ctx, id, op)
}

// Close closes both storage and AMQP connections.
func (j *OutboxJournal) Close() error {
	var errs []error

	if j.storage != nil {
		if err := j.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if j.amqpClient != nil {
		if err := j.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close journal: %v", errs)
	}
	return nil
}
