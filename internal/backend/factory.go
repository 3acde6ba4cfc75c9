package backend

import (
	"context"
	"errors"
	"fmt"

	"financeflow/internal/events"
	"financeflow/internal/log"
	"financeflow/internal/storage"
	"financeflow/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv      storage.KV
		closeKV CleanupFunc
		err     error
	)
	switch config.Type {
	case MemoryBackend:
		kv = f.createMemoryBackend(config)
	case FileBackend:
		kv, err = f.createFileBackend(config)
	case SQLiteBackend:
		kv, closeKV, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		kv, closeKV, err = f.createPostgresBackend(ctx, config)
	case RedisBackend:
		kv, closeKV, err = f.createRedisBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	publisher := f.createPublisher(ctx, config)

	result := &BackendResult{
		KV: kv,
		Cleanup: func() error {
			var errs []error
			if publisher != nil {
				errs = append(errs, publisher.Close())
			}
			if closeKV != nil {
				errs = append(errs, closeKV())
			}
			return errors.Join(errs...)
		},
	}
	if publisher != nil {
		result.Publisher = publisher
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) storage.KV {
	var store *memory.Store
	if config.DataDirectory != "" {
		store = memory.NewFromFiles(config.DataDirectory, config.StorageKey, config.MemoryQuota)
	} else {
		store = memory.New(config.MemoryQuota)
	}

	f.logger.Info("Initialized memory backend",
		"data_directory", config.DataDirectory,
		"quota_bytes", config.MemoryQuota)
	return store
}

func (f *DefaultFactory) createFileBackend(config Config) (storage.KV, error) {
	store, err := storage.NewFileStore(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)
	return store, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (storage.KV, CleanupFunc, error) {
	store, err := storage.OpenSQLite(config.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return store, store.Close, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (storage.KV, CleanupFunc, error) {
	store, err := storage.OpenPostgres(ctx, config.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Postgres storage: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")
	return store, store.Close, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (storage.KV, CleanupFunc, error) {
	store, err := storage.OpenRedis(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Redis storage: %w", err)
	}

	f.logger.Info("Initialized Redis backend", "addr", config.RedisAddr, "db", config.RedisDB)
	return store, store.Close, nil
}

// createPublisher connects the optional AMQP publisher. A broker that cannot
// be reached only disables events.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) *events.AMQPPublisher {
	if config.AMQPURL == "" {
		return nil
	}

	attempts := config.AMQPConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	publisher, err := events.NewAMQPPublisher(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, attempts)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		return nil
	}

	f.logger.Info("Initialized AMQP publisher",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return publisher
}
