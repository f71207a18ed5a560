package endpoint

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Options holds connection settings for a database/sql backed endpoint.
type Options struct {
	// Driver is the registered database/sql driver name (sqlite3, duckdb, ...)
	Driver string

	// DSN is passed to sql.Open unchanged
	DSN string

	// MaxOpenConns bounds concurrent connections (default: 4)
	MaxOpenConns int

	// ConnMaxLifetime closes connections older than this (default: 5 minutes)
	ConnMaxLifetime time.Duration
}

// DefaultOptions returns the default connection settings for a driver and DSN.
func DefaultOptions(driver, dsn string) Options {
	return Options{
		Driver:          driver,
		DSN:             dsn,
		MaxOpenConns:    4,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// SQL is an Endpoint over a database/sql handle. The binary registers the
// drivers; this package imports none.
type SQL struct {
	db *sql.DB
}

// Open opens and pings a database/sql handle.
func Open(ctx context.Context, opts Options) (*SQL, error) {
	if opts.Driver == "" {
		return nil, fmt.Errorf("endpoint: driver is required")
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 4
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 5 * time.Minute
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("endpoint: failed to open %s connection: %w", opts.Driver, err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("endpoint: failed to ping %s connection: %w", opts.Driver, err)
	}

	return NewSQL(db), nil
}

// NewSQL wraps an already opened handle.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// Execute runs the statement. Driver errors are returned unwrapped so that
// callers see the engine's own message.
func (e *SQL) Execute(ctx context.Context, query string) (*ResultSet, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: make([]ColumnMeta, len(columns)), Rows: [][]any{}}
	for i, c := range columns {
		rs.Columns[i] = ColumnMeta{Name: c.Name(), DeclaredType: strings.ToLower(c.DatabaseTypeName())}
	}

	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// Drivers may reuse byte buffers between rows
		for i, c := range cells {
			if b, ok := c.([]byte); ok {
				cells[i] = append([]byte(nil), b...)
			}
		}
		rs.Rows = append(rs.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// DB returns the underlying handle.
func (e *SQL) DB() *sql.DB {
	return e.db
}

// Close closes the underlying handle.
func (e *SQL) Close() error {
	return e.db.Close()
}
