package scenario

import (
	"context"
	"strings"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/value"
)

// Query is the read side of an assertion.
type Query interface {
	run(ctx context.Context, x *execution, s *dialect.Session) (output, error)
}

// output is one engine's answer to a query.
type output struct {
	sql  string
	raw  [][]any
	rows []value.Row
}

// Read selects from the scenario table, or from the table it names. A zero
// Schema reads under the table's current schema snapshot.
func Read(sel dialect.Select) Query { return readQuery{sel} }

// ReadAll selects every column of the scenario table.
func ReadAll() Query { return readQuery{} }

// List runs SHOW TABLES in the scenario schema. {table} in the pattern is
// replaced by the isolated scenario table name.
func List(like string) Query { return listQuery{like} }

type readQuery struct{ dialect.Select }

func (q readQuery) run(ctx context.Context, x *execution, s *dialect.Session) (output, error) {
	sel := q.Select
	sel.Table = x.state.resolve(sel.Table)
	if sel.Schema.Columns == nil {
		sel.Schema = x.state.schemaOf(sel.Table, x.scenario.Schema)
	}

	// Rendered separately for the diagnostic; Select renders it again
	sql, err := s.Adapter.RenderSelect(sel)
	if err != nil {
		return output{}, err
	}
	rows, rs, err := s.Select(ctx, sel)
	out := output{sql: sql, rows: rows}
	if rs != nil {
		out.raw = rs.Rows
	}
	return out, err
}

type listQuery struct{ like string }

func (q listQuery) run(ctx context.Context, x *execution, s *dialect.Session) (output, error) {
	op := dialect.ShowTables{
		Schema: x.state.Table.Schema,
		Like:   strings.ReplaceAll(q.like, "{table}", x.state.Table.Name),
	}
	names, err := s.ShowTables(ctx, op)
	if err != nil {
		return output{}, err
	}
	out := output{sql: s.Adapter.RenderShowTables(op)}
	for _, n := range names {
		out.raw = append(out.raw, []any{n})
		out.rows = append(out.rows, TableNameRow(n))
	}
	return out, nil
}

// TableNameRow is the row List produces for one table.
func TableNameRow(name string) value.Row {
	return value.NewRow([]string{"table"}, []value.Value{value.String(name)})
}
