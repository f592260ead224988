// Package memory implements the remote adapter against process-local
// state. It backs the default development backend and the test suites:
// same contract as a real backend, no network.
package memory

import (
	"context"
	"fmt"
	"sync"

	"financas/internal/core"
	"financas/internal/remote"
)

// Adapter stores month partitions in maps guarded by a mutex. Entities
// are indexed by id across months so update and delete do not need the
// month key, mirroring the real backend's id-addressed mutations.
type Adapter struct {
	mu       sync.Mutex
	months   map[string]*core.MonthData
	txMonth  map[string]string
	budMonth map[string]string
}

// New returns an empty in-memory backend.
func New() *Adapter {
	return &Adapter{
		months:   make(map[string]*core.MonthData),
		txMonth:  make(map[string]string),
		budMonth: make(map[string]string),
	}
}

func (a *Adapter) month(key string) *core.MonthData {
	if m, ok := a.months[key]; ok {
		return m
	}
	m := &core.MonthData{}
	a.months[key] = m
	return m
}

// FetchMonth implements remote.Adapter.
func (a *Adapter) FetchMonth(ctx context.Context, monthKey string) (core.MonthData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.month(monthKey).Clone(), nil
}

// SetInitialBalance implements remote.Adapter.
func (a *Adapter) SetInitialBalance(ctx context.Context, monthKey string, balance core.Money) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.month(monthKey).InitialBalance = balance
	return nil
}

// CreateTransaction implements remote.Adapter.
func (a *Adapter) CreateTransaction(ctx context.Context, monthKey string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, remote.WrapErr("create transaction", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.month(monthKey)
	m.Transactions = append(m.Transactions, t)
	a.txMonth[t.ID] = monthKey
	return t, nil
}

// UpdateTransaction implements remote.Adapter.
func (a *Adapter) UpdateTransaction(ctx context.Context, id string, t core.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key, ok := a.txMonth[id]
	if !ok {
		return remote.WrapErr("update transaction", fmt.Errorf("transaction %s: %w", id, core.ErrNotFound))
	}
	m := a.month(key)
	for i, cur := range m.Transactions {
		if cur.ID == id {
			t.ID = id
			m.Transactions[i] = t
			return nil
		}
	}
	return remote.WrapErr("update transaction", fmt.Errorf("transaction %s: %w", id, core.ErrNotFound))
}

// DeleteTransaction implements remote.Adapter.
func (a *Adapter) DeleteTransaction(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key, ok := a.txMonth[id]
	if !ok {
		return remote.WrapErr("delete transaction", fmt.Errorf("transaction %s: %w", id, core.ErrNotFound))
	}
	m := a.month(key)
	for i, cur := range m.Transactions {
		if cur.ID == id {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			delete(a.txMonth, id)
			return nil
		}
	}
	return remote.WrapErr("delete transaction", fmt.Errorf("transaction %s: %w", id, core.ErrNotFound))
}

// CreateBudget implements remote.Adapter.
func (a *Adapter) CreateBudget(ctx context.Context, monthKey string, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, remote.WrapErr("create budget", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.month(monthKey)
	m.Budgets = append(m.Budgets, b)
	a.budMonth[b.ID] = monthKey
	return b, nil
}

// UpdateBudget implements remote.Adapter.
func (a *Adapter) UpdateBudget(ctx context.Context, id string, b core.Budget) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key, ok := a.budMonth[id]
	if !ok {
		return remote.WrapErr("update budget", fmt.Errorf("budget %s: %w", id, core.ErrNotFound))
	}
	m := a.month(key)
	for i, cur := range m.Budgets {
		if cur.ID == id {
			b.ID = id
			m.Budgets[i] = b
			return nil
		}
	}
	return remote.WrapErr("update budget", fmt.Errorf("budget %s: %w", id, core.ErrNotFound))
}

// DeleteBudget implements remote.Adapter.
func (a *Adapter) DeleteBudget(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key, ok := a.budMonth[id]
	if !ok {
		return remote.WrapErr("delete budget", fmt.Errorf("budget %s: %w", id, core.ErrNotFound))
	}
	m := a.month(key)
	for i, cur := range m.Budgets {
		if cur.ID == id {
			m.Budgets = append(m.Budgets[:i], m.Budgets[i+1:]...)
			delete(a.budMonth, id)
			return nil
		}
	}
	return remote.WrapErr("delete budget", fmt.Errorf("budget %s: %w", id, core.ErrNotFound))
}
