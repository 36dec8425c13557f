package postgres

import (
	"context"
	"database/sql"
)

// Client is the database handle used by the Postgres store
type Client interface {
	// Connect opens the pool and waits until the server answers
	Connect(ctx context.Context) error

	// Disconnect closes the pool
	Disconnect() error

	// Exec executes a statement without returning rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query executes a query that returns rows
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// QueryRow executes a query expected to return at most one row
	QueryRow(ctx context.Context, query string, args ...interface{}) Row

	// Transaction runs fn in a transaction, rolled back when fn fails
	Transaction(ctx context.Context, fn func(*sql.Tx) error) error

	// HealthCheck reports connection and pool state
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}

// Row is the result of QueryRow. *sql.Row satisfies it.
type Row interface {
	Scan(dest ...interface{}) error
}
