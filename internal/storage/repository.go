// Package storage persists the mutation outbox in SQLite. Mutations are
// appended locally first and drained to the remote backend by the sync
// worker, so the app keeps working offline.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"financas/internal/store"

	_ "modernc.org/sqlite"
)

// Sync statuses of an outbox row.
const (
	StatusPending = "pending"
	StatusSynced  = "synced"
	StatusError   = "error"
)

// ErrMutationNotFound is returned when an outbox id does not exist.
var ErrMutationNotFound = errors.New("mutation not found")

// OutboxMutation is one persisted mutation awaiting remote sync.
type OutboxMutation struct {
	ID        int64
	Mutation  store.Mutation
	Status    string
	CreatedAt time.Time
	SyncedAt  *time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AppendMutation stores a mutation as pending and returns its outbox id.
func (r *SQLiteRepository) AppendMutation(ctx context.Context, m store.Mutation) (int64, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("marshal mutation: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO outbox (op, month_key, entity_id, payload) VALUES (?, ?, ?, ?)`,
		string(m.Op), m.MonthKey, m.EntityID, string(payload))
	if err != nil {
		return 0, fmt.Errorf("insert mutation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Mutation appended to outbox",
		"id", id,
		"op", string(m.Op),
		"month_key", m.MonthKey)

	return id, nil
}

// GetMutation loads a single outbox row by id.
func (r *SQLiteRepository) GetMutation(ctx context.Context, id int64) (OutboxMutation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, payload, status, created_at, synced_at FROM outbox WHERE id = ?`, id)
	m, err := scanMutation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return OutboxMutation{}, fmt.Errorf("mutation %d: %w", id, ErrMutationNotFound)
	}
	if err != nil {
		return OutboxMutation{}, fmt.Errorf("get mutation: %w", err)
	}
	return m, nil
}

// GetPendingMutations returns up to limit pending rows, oldest first.
func (r *SQLiteRepository) GetPendingMutations(ctx context.Context, limit int) ([]OutboxMutation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payload, status, created_at, synced_at FROM outbox
		 WHERE status = ? ORDER BY id ASC LIMIT ?`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending mutations: %w", err)
	}
	defer rows.Close()

	var out []OutboxMutation
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending mutation: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending mutations: %w", err)
	}
	return out, nil
}

// MarkSynced marks an outbox row as successfully replayed.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET status = ?, synced_at = CURRENT_TIMESTAMP WHERE id = ?`,
		StatusSynced, id)
	if err != nil {
		return fmt.Errorf("mark mutation synced: %w", err)
	}

	slog.InfoContext(ctx, "Mutation marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an outbox row as failed. The row stays for manual
// inspection or a later retry sweep.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET status = ? WHERE id = ?`, StatusError, id)
	if err != nil {
		return fmt.Errorf("mark mutation sync error: %w", err)
	}

	slog.WarnContext(ctx, "Mutation marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMutation(row rowScanner) (OutboxMutation, error) {
	var (
		m        OutboxMutation
		payload  string
		syncedAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &payload, &m.Status, &m.CreatedAt, &syncedAt); err != nil {
		return OutboxMutation{}, err
	}
	if err := json.Unmarshal([]byte(payload), &m.Mutation); err != nil {
		return OutboxMutation{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	if syncedAt.Valid {
		m.SyncedAt = &syncedAt.Time
	}
	return m, nil
}
