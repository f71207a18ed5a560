// Package endpoint defines the collaborator that executes SQL text against an
// engine and returns raw, un-normalized result sets.
package endpoint

import (
	"context"
)

// ColumnMeta describes one result column as the engine reported it.
type ColumnMeta struct {
	Name string `json:"name"`

	// DeclaredType is the engine-native type text, empty when the driver
	// does not report one
	DeclaredType string `json:"declared_type,omitempty"`
}

// ResultSet is a raw result: cells are whatever the transport produced.
type ResultSet struct {
	Columns []ColumnMeta `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// ColumnNames returns the column names in result order.
func (rs *ResultSet) ColumnNames() []string {
	if rs == nil {
		return nil
	}
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// Endpoint executes one SQL statement and blocks until the engine answers.
// Statements that produce no rows return an empty ResultSet.
type Endpoint interface {
	Execute(ctx context.Context, sql string) (*ResultSet, error)
}

// Func adapts a function to the Endpoint interface.
type Func func(ctx context.Context, sql string) (*ResultSet, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, sql string) (*ResultSet, error) {
	return f(ctx, sql)
}
