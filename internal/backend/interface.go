// Package backend builds the storage backend and the optional event
// publisher selected by configuration.
package backend

import (
	"context"

	"motocusto/internal/amqp"
	"motocusto/internal/ports"
)

// CleanupFunc releases what a backend holds open.
type CleanupFunc func() error

// BackendResult contains the store, the publisher and the cleanup function.
// Publisher is nil when AMQP is not configured or could not connect.
type BackendResult struct {
	Store     ports.Store
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN      string
	PostgresMaxConns int32

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
