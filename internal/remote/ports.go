// Package remote defines the boundary to the external persistence and
// auth service. The core never talks to the backend directly; it goes
// through the Adapter, which normalizes remote records into core shapes.
package remote

import (
	"context"
	"errors"

	"financas/internal/core"
)

// Adapter is the data access boundary required from any backend.
type Adapter interface {
	// FetchMonth returns the full partition for a month key. Missing
	// months come back as a zero-valued partition, not an error.
	FetchMonth(ctx context.Context, monthKey string) (core.MonthData, error)

	SetInitialBalance(ctx context.Context, monthKey string, balance core.Money) error

	// CreateTransaction persists a new record and returns it as stored.
	CreateTransaction(ctx context.Context, monthKey string, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	CreateBudget(ctx context.Context, monthKey string, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, id string, b core.Budget) error
	DeleteBudget(ctx context.Context, id string) error
}

// Session is the authentication boundary. The core consumes it, it never
// implements it: a missing session is a precondition failure for every
// remote operation, not a data-model concern.
type Session interface {
	Valid() bool
	UserID() string
}

// ErrNoSession is returned when a remote operation is attempted without a
// valid session.
var ErrNoSession = errors.New("no valid session")

// Error wraps a failed remote operation. It is never fatal: local state
// stays as-is and the failure is surfaced to the user after the fact.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "remote " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapErr wraps err as a remote Error unless it already is one.
func WrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Op: op, Err: err}
}
