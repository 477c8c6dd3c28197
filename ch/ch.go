// Package ch writes batched rows to ClickHouse and reads them back.
package ch

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type TableName string

// Row is one record destined for a ClickHouse table.
// Columns and Values must have the same length and order.
type Row interface {
	TableName() TableName
	Columns() []string
	Values() []any
}

// Writer buffers rows and inserts them in batches
type Writer interface {
	Start() error
	Close() error
	// Write queues rows without waiting for the insert
	Write(ctx context.Context, rows []Row) error
}

// Client is the unified ClickHouse client interface for both query and batch write operations
type Client interface {
	// Writer returns the Writer interface for batch writing
	Writer() (Writer, error)
	// Exec runs a statement that returns no rows
	Exec(ctx context.Context, query string, args ...any) error
	// Query executes a ClickHouse query and returns driver.Rows
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	// Close closes the client and all associated resources
	Close() error
}
