package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Op is a setup operation. Implementations fill in the scenario table and
// the current schema snapshot before rendering.
type Op interface {
	fmt.Stringer
	apply(ctx context.Context, x *execution, s *dialect.Session) error
}

// Create creates a table. A zero Schema uses the scenario schema and an
// empty Format the scenario format.
func Create(op dialect.CreateTable) Op { return createOp{op} }

// Insert inserts literal rows into the scenario table.
func Insert(rows ...[]value.Value) Op { return insertOp{dialect.Insert{Rows: rows}} }

// InsertInto inserts literal rows into a specific table.
func InsertInto(op dialect.Insert) Op { return insertOp{op} }

// Alter changes a column of the scenario table. The schema snapshot of the
// table advances when the engine accepts the change.
func Alter(op dialect.Alter) Op { return alterOp{op} }

// Rename renames a column or nested field of the scenario table.
func Rename(path, newName string) Op {
	return alterOp{dialect.RenameColumn(types.TableRef{}, path, newName)}
}

// DropColumn drops a column or nested field of the scenario table.
func DropColumn(path string) Op {
	return alterOp{dialect.DropColumn(types.TableRef{}, path)}
}

// AddColumn adds a column or nested field to the scenario table.
func AddColumn(path string, t types.LogicalType) Op {
	return alterOp{dialect.AddColumn(types.TableRef{}, path, t)}
}

// Drop drops the scenario table.
func Drop() Op { return dropOp{dialect.DropTable{}} }

// DropRelated drops a related table, see State.Related.
func DropRelated(name string) Op {
	return dropOp{dialect.DropTable{Table: types.TableRef{Name: name}}}
}

// Exec runs raw SQL. {table} is replaced by the engine's qualified name of
// the scenario table.
func Exec(template string) Op { return execOp(template) }

type createOp struct{ dialect.CreateTable }

func (o createOp) String() string { return "create " + o.Mode.String() }

func (o createOp) apply(ctx context.Context, x *execution, s *dialect.Session) error {
	op := o.CreateTable
	op.Table = x.state.resolve(op.Table)
	if op.Schema.Columns == nil {
		op.Schema = x.scenario.Schema
	}
	if op.Format == "" {
		op.Format = x.scenario.Format
	}
	if err := s.Create(ctx, op); err != nil {
		return err
	}
	x.state.created(ctx, op.Table, op.Schema, op.Format)
	return nil
}

type insertOp struct{ dialect.Insert }

func (o insertOp) String() string { return fmt.Sprintf("insert %d rows", len(o.Rows)) }

func (o insertOp) apply(ctx context.Context, x *execution, s *dialect.Session) error {
	op := o.Insert
	op.Table = x.state.resolve(op.Table)
	if op.Schema.Columns == nil {
		op.Schema = x.state.schemaOf(op.Table, x.scenario.Schema)
	}
	return s.Insert(ctx, op)
}

type alterOp struct{ dialect.Alter }

func (o alterOp) String() string { return strings.ToLower(o.Kind.String()) + " " + o.Path.String() }

func (o alterOp) apply(ctx context.Context, x *execution, s *dialect.Session) error {
	op := o.Alter
	op.Table = x.state.resolve(op.Table)
	if err := s.Alter(ctx, op); err != nil {
		return err
	}
	return x.state.altered(ctx, op)
}

type dropOp struct{ dialect.DropTable }

func (o dropOp) String() string { return "drop table" }

func (o dropOp) apply(ctx context.Context, x *execution, s *dialect.Session) error {
	op := o.DropTable
	op.Table = x.state.resolve(op.Table)
	return s.Drop(ctx, op)
}

type execOp string

func (o execOp) String() string { return "exec " + string(o) }

func (o execOp) apply(ctx context.Context, x *execution, s *dialect.Session) error {
	sql := strings.ReplaceAll(string(o), "{table}", s.Adapter.Qualify(x.state.Table))
	_, err := s.Exec(ctx, sql)
	return err
}
