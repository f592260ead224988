package backend

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/remote"
	"financas/internal/remote/memory"
	"financas/internal/remote/rest"
	"financas/internal/services"
	"financas/internal/storage"
	"financas/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case RESTBackend:
		return f.createRESTBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	adapter := memory.New()
	st := store.New(adapter, remote.NewDirectJournal(adapter))

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Store:   st,
		Adapter: adapter,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

func (f *DefaultFactory) createRESTBackend(config Config) (*BackendResult, error) {
	session := rest.StaticSession{Token: config.RemoteToken, User: config.RemoteUserID}
	adapter := rest.New(rest.Config{
		BaseURL: config.RemoteBaseURL,
		Timeout: config.RemoteTimeout,
	}, session)
	st := store.New(adapter, remote.NewDirectJournal(adapter))

	f.logger.Info("Initialized REST backend", "base_url", config.RemoteBaseURL)

	return &BackendResult{
		Store:   st,
		Adapter: adapter,
		Cleanup: nil, // HTTP client needs no explicit teardown
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP client is optional; without it the worker's pending sweep
	// still drains the outbox.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync notifications", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	session := rest.StaticSession{Token: config.RemoteToken, User: config.RemoteUserID}
	adapter := rest.New(rest.Config{
		BaseURL: config.RemoteBaseURL,
		Timeout: config.RemoteTimeout,
	}, session)

	journal := services.NewOutboxJournal(sqliteRepo, amqpClient)
	st := store.New(adapter, journal)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Store:   st,
		Adapter: adapter,
		Cleanup: journal.Close,
	}, nil
}
