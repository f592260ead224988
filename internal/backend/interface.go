// Package backend assembles the store, journal and remote adapter for a
// configured deployment mode.
package backend

import (
	"context"
	"time"

	"financas/internal/remote"
	"financas/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the assembled components and optional cleanup.
type BackendResult struct {
	Store   *store.Store
	Adapter remote.Adapter
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite outbox specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Remote API specific
	RemoteBaseURL string
	RemoteToken   string
	RemoteUserID  string
	RemoteTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	// MemoryBackend keeps everything in process, for development and tests.
	MemoryBackend BackendType = "memory"
	// RESTBackend syncs each mutation directly against the remote API.
	RESTBackend BackendType = "rest"
	// SQLiteBackend journals mutations to a local outbox drained by the
	// sync worker, for offline-tolerant deployments.
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, RESTBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
