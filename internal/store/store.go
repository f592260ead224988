// Package store owns the month partitions for one user session.
//
// The store is the source of truth for rendering: every mutation is
// applied to local state first and then recorded through a Journal for
// remote synchronization. A failed journal record never rolls the local
// mutation back; it becomes a SyncFailure event the caller can surface.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"financas/internal/calendar"
	"financas/internal/core"
	applog "financas/internal/log"
)

// MonthFetcher loads a month partition from the remote backend. The store
// uses it once per partition, on first read; afterwards local state wins
// until an explicit Reload.
type MonthFetcher interface {
	FetchMonth(ctx context.Context, monthKey string) (core.MonthData, error)
}

// Journal records mutations for asynchronous remote sync. Implementations
// may call the backend directly or persist to an outbox; either way the
// store treats a record failure as a reported event, not a veto.
type Journal interface {
	Record(ctx context.Context, m Mutation) error
}

// SyncFailure is a recorded journal failure correlated to its mutation.
type SyncFailure struct {
	Mutation Mutation  `json:"mutation"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// Store holds all month partitions for the session plus the current
// date selection. It is an explicit object owned by the application, not
// a package-level singleton; construct one at startup and pass it down.
//
// Reads and mutations name their month explicitly so concurrent callers
// working on different months cannot cross; the selection only tracks
// the current date for day clamping and date defaults.
type Store struct {
	mu       sync.Mutex
	months   map[string]*core.MonthData
	loaded   map[string]bool
	fetcher  MonthFetcher
	journal  Journal
	failures []SyncFailure

	selYear  int
	selMonth int
	selDay   int

	newID func() string
	now   func() time.Time
}

// New creates a store selecting today's date. Both fetcher and journal
// may be nil: a nil fetcher means partitions start empty, a nil journal
// means mutations stay local.
func New(fetcher MonthFetcher, journal Journal) *Store {
	s := &Store{
		months:  make(map[string]*core.MonthData),
		loaded:  make(map[string]bool),
		fetcher: fetcher,
		journal: journal,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	now := s.now()
	s.selYear, s.selMonth, s.selDay = now.Year(), int(now.Month()), now.Day()
	return s
}

// Select moves the selection to the given year and month, keeping the
// currently selected day clamped to the new month's last valid day. This
// is the invariant-restoring step that must follow every month change.
func (s *Store) Select(year, month int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selYear, s.selMonth = year, month
	s.selDay = calendar.ClampDay(s.selDay, year, month)
}

// SelectDay picks a day within the selected month, clamped to range.
func (s *Store) SelectDay(day int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selDay = calendar.ClampDay(day, s.selYear, s.selMonth)
}

// SelectedDay returns the currently selected day of month.
func (s *Store) SelectedDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selDay
}

// SelectedDate returns the full selected date.
func (s *Store) SelectedDate() core.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewDate(s.selYear, s.selMonth, s.selDay)
}

// MonthKey returns the key of the selected month partition.
func (s *Store) MonthKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return calendar.MonthKey(s.selYear, s.selMonth)
}

// Partition returns a snapshot of the given month's partition, loading
// it from the remote backend on first access when a fetcher is wired in.
// The local partition is always returned, even when the remote load
// fails; the error tells the caller the snapshot may be incomplete.
func (s *Store) Partition(ctx context.Context, year, month int) (core.MonthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partitionLocked(ctx, calendar.MonthKey(year, month))
}

// Reload discards the loaded flag of the given month's partition and
// fetches it again. This is the explicit reconciliation point after
// optimistic local mutations diverged from the remote.
func (s *Store) Reload(ctx context.Context, year, month int) (core.MonthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := calendar.MonthKey(year, month)
	delete(s.loaded, key)
	delete(s.months, key)
	return s.partitionLocked(ctx, key)
}

// snapshotLocked clones the partition and orders transactions newest
// first, which is the presentation order for every consumer.
func (s *Store) snapshotLocked(key string) core.MonthData {
	snap := s.ensureLocked(key).Clone()
	sort.SliceStable(snap.Transactions, func(i, j int) bool {
		return snap.Transactions[j].Date.Before(snap.Transactions[i].Date.Time)
	})
	return snap
}

func (s *Store) partitionLocked(ctx context.Context, key string) (core.MonthData, error) {
	if s.fetcher != nil && !s.loaded[key] {
		data, err := s.fetcher.FetchMonth(ctx, key)
		if err != nil {
			slog.ErrorContext(ctx, "Month fetch failed, serving local partition",
				applog.FieldMonthKey, key, applog.FieldError, err)
			return s.snapshotLocked(key), err
		}
		s.months[key] = &data
		s.loaded[key] = true
		slog.InfoContext(ctx, "Month partition loaded",
			applog.FieldMonthKey, key,
			"transactions", len(data.Transactions),
			"budgets", len(data.Budgets))
	}
	return s.snapshotLocked(key), nil
}

// ensureLocked implicitly creates an empty partition on first read.
func (s *Store) ensureLocked(key string) *core.MonthData {
	if m, ok := s.months[key]; ok {
		return m
	}
	m := &core.MonthData{}
	s.months[key] = m
	return m
}

// Summary computes the aggregated totals of the given month.
func (s *Store) Summary(ctx context.Context, year, month int) (core.Summary, error) {
	data, err := s.Partition(ctx, year, month)
	return core.Summarize(data), err
}

// SetInitialBalance replaces the given month's initial balance. There
// is no validation beyond numeric coercion, which the caller does via
// core.CoerceDecimalToCents; anything non-numeric arrives here as 0.
func (s *Store) SetInitialBalance(ctx context.Context, year, month int, cents int64) {
	s.mu.Lock()
	key := calendar.MonthKey(year, month)
	s.ensureLocked(key).InitialBalance = core.Money{Cents: cents}
	s.mu.Unlock()

	s.record(ctx, Mutation{
		Op:       OpSetInitialBalance,
		MonthKey: key,
		Balance:  &core.Money{Cents: cents},
	})
}

// AddTransaction validates the record, assigns a fresh identifier and
// appends it to the partition owning its date. Returns the created record.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.newID()
	key := calendar.MonthKeyFor(t.Date.Time)

	s.mu.Lock()
	part := s.ensureLocked(key)
	part.Transactions = append(part.Transactions, t)
	s.mu.Unlock()

	s.record(ctx, Mutation{
		Op:          OpCreateTransaction,
		MonthKey:    key,
		Transaction: &t,
	})
	return t, nil
}

// EditTransaction replaces the record matching id in the given month's
// partition, preserving the identifier. When the new date crosses a month
// boundary the move is not atomic: it is modeled as delete in the old
// partition plus recreate in the new one, since partitions are keyed
// independently.
func (s *Store) EditTransaction(ctx context.Context, year, month int, id string, t core.Transaction) error {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	oldKey := calendar.MonthKey(year, month)
	part := s.ensureLocked(oldKey)
	idx := -1
	for i, cur := range part.Transactions {
		if cur.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	t.ID = id
	newKey := calendar.MonthKeyFor(t.Date.Time)
	if newKey == oldKey {
		part.Transactions[idx] = t
		s.mu.Unlock()
		s.record(ctx, Mutation{Op: OpUpdateTransaction, MonthKey: oldKey, EntityID: id, Transaction: &t})
		return nil
	}

	// Cross-month move: delete + recreate in the new partition.
	part.Transactions = append(part.Transactions[:idx], part.Transactions[idx+1:]...)
	dest := s.ensureLocked(newKey)
	dest.Transactions = append(dest.Transactions, t)
	s.mu.Unlock()

	s.record(ctx, Mutation{Op: OpDeleteTransaction, MonthKey: oldKey, EntityID: id})
	s.record(ctx, Mutation{Op: OpCreateTransaction, MonthKey: newKey, Transaction: &t})
	return nil
}

// RemoveTransaction deletes the record matching id from the given
// month's partition. An absent id is signalled with core.ErrNotFound and
// leaves the partition unchanged.
func (s *Store) RemoveTransaction(ctx context.Context, year, month int, id string) error {
	s.mu.Lock()
	key := calendar.MonthKey(year, month)
	part := s.ensureLocked(key)
	idx := -1
	for i, cur := range part.Transactions {
		if cur.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	part.Transactions = append(part.Transactions[:idx], part.Transactions[idx+1:]...)
	s.mu.Unlock()

	s.record(ctx, Mutation{Op: OpDeleteTransaction, MonthKey: key, EntityID: id})
	return nil
}

// AddBudget creates a budget scoped to the given month.
func (s *Store) AddBudget(ctx context.Context, year, month int, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.ID = s.newID()

	s.mu.Lock()
	key := calendar.MonthKey(year, month)
	part := s.ensureLocked(key)
	part.Budgets = append(part.Budgets, b)
	s.mu.Unlock()

	s.record(ctx, Mutation{Op: OpCreateBudget, MonthKey: key, Budget: &b})
	return b, nil
}

// EditBudget replaces the budget matching id in the given month's
// partition, preserving the identifier.
func (s *Store) EditBudget(ctx context.Context, year, month int, id string, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	key := calendar.MonthKey(year, month)
	part := s.ensureLocked(key)
	idx := -1
	for i, cur := range part.Budgets {
		if cur.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	b.ID = id
	part.Budgets[idx] = b
	s.mu.Unlock()

	s.record(ctx, Mutation{Op: OpUpdateBudget, MonthKey: key, EntityID: id, Budget: &b})
	return nil
}

// RemoveBudget deletes the budget matching id from the given month's
// partition. Transactions referencing it are neither cascaded nor
// reassigned; their references go dangling and resolve to the
// placeholder label from then on.
func (s *Store) RemoveBudget(ctx context.Context, year, month int, id string) error {
	s.mu.Lock()
	key := calendar.MonthKey(year, month)
	part := s.ensureLocked(key)
	idx := -1
	for i, cur := range part.Budgets {
		if cur.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	part.Budgets = append(part.Budgets[:idx], part.Budgets[idx+1:]...)
	s.mu.Unlock()

	s.record(ctx, Mutation{Op: OpDeleteBudget, MonthKey: key, EntityID: id})
	return nil
}

// Failures returns a copy of the recorded sync failures, oldest first.
func (s *Store) Failures() []SyncFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SyncFailure(nil), s.failures...)
}

// record hands a mutation to the journal. Failures are recorded and
// logged, never returned: the local mutation already happened and stays.
func (s *Store) record(ctx context.Context, m Mutation) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, m); err != nil {
		slog.ErrorContext(ctx, "Mutation sync failed",
			"op", string(m.Op),
			applog.FieldMonthKey, m.MonthKey,
			"entity_id", m.EntityID,
			applog.FieldError, err)
		s.mu.Lock()
		s.failures = append(s.failures, SyncFailure{
			Mutation: m,
			Error:    err.Error(),
			At:       s.now(),
		})
		s.mu.Unlock()
	}
}
