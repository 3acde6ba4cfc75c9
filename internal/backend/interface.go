package backend

import (
	"context"

	"financeflow/internal/events"
	"financeflow/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the storage slot, the optional event publisher and
// a cleanup function releasing both.
type BackendResult struct {
	KV        storage.KV
	Publisher events.Publisher // nil when AMQP is not configured or unreachable
	Cleanup   CleanupFunc
}

// Close runs Cleanup if present.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File and memory
	DataDirectory string
	StorageKey    string
	MemoryQuota   int

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresURL string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AMQP events, optional for every backend
	AMQPURL             string
	AMQPExchange        string
	AMQPQueue           string
	AMQPConnectAttempts int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	RedisBackend    BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend, RedisBackend:
		return true
	default:
		return false
	}
}
