// Package store persists sites and healthcheck results. It exposes a
// small Driver contract per database engine and a Store that wraps every
// driver operation with bounded retries.
package store

import (
	"context"
	"fmt"

	"webmon/internal/config"
)

// Row is one fetched table row, keyed by column name. NULLs come back as
// nil and are mapped to zero values by the model converters.
type Row map[string]any

// Driver is the minimal contract a database engine must satisfy.
// Implementations own connection pooling and SSL; they must be safe for
// concurrent use once Open has returned.
type Driver interface {
	Open(ctx context.Context) error
	Close() error
	// Fetch runs a query and returns all resulting rows.
	Fetch(ctx context.Context, query string) ([]Row, error)
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string) error
	// ExecuteMany runs one parameterized statement per value set.
	ExecuteMany(ctx context.Context, query string, rows [][]any) error
	// Dialect reports the SQL dialect for query generation.
	Dialect() Dialect
}

// NewDriver returns the Driver for the configured engine.
func NewDriver(cfg *config.DB) (Driver, error) {
	switch cfg.Type {
	case config.EnginePostgres:
		return newPostgresDriver(cfg), nil
	case config.EngineSQLite:
		return newSQLiteDriver(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unknown db type %q", cfg.Type)
	}
}

// StorageError wraps any failure from the underlying driver.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
