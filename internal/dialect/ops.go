package dialect

import (
	"fmt"
	"strconv"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// CreateMode selects how a CreateTable populates the new table.
type CreateMode int

const (
	// CreateAndInsert declares the columns, then inserts Rows if any
	CreateAndInsert CreateMode = iota

	// CreateAsSelect creates the table from a SELECT over the literal Rows
	CreateAsSelect

	// CreateAsSelectNoData creates the table from the shape of a SELECT,
	// then inserts Rows if any
	CreateAsSelectNoData
)

func (m CreateMode) String() string {
	switch m {
	case CreateAndInsert:
		return "CREATE+INSERT"
	case CreateAsSelect:
		return "CTAS"
	case CreateAsSelectNoData:
		return "CTAS WITH NO DATA"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// CreateModes lists every create mode.
func CreateModes() []CreateMode {
	return []CreateMode{CreateAndInsert, CreateAsSelect, CreateAsSelectNoData}
}

// CreateTable creates the shared table.
type CreateTable struct {
	Table  types.TableRef
	Schema types.TableSchema
	Mode   CreateMode

	// Format is the data file format; empty keeps the engine default
	Format types.StorageFormat

	// PartitionBy lists identity partition columns
	PartitionBy []string

	// Properties are extra table properties, rendered in key order
	Properties map[string]string

	// Rows are written by the create itself (CTAS) or by a follow-up insert
	Rows [][]value.Value
}

// Insert appends literal rows. Each row holds one value per schema column.
type Insert struct {
	Table  types.TableRef
	Schema types.TableSchema
	Rows   [][]value.Value
}

// StepKind is the kind of an access step in a projection.
type StepKind int

const (
	StepField StepKind = iota
	StepElement
	StepKey
)

// Step dereferences one level of a nested value.
type Step struct {
	Kind StepKind

	// Field is the struct field name for StepField
	Field string

	// Position is the logical 1-based element position for StepElement
	Position int

	// Key is the map key for StepKey
	Key value.Value
}

// FieldStep selects a struct field.
func FieldStep(name string) Step { return Step{Kind: StepField, Field: name} }

// ElementStep selects the k-th array element, 1 being the first.
func ElementStep(k int) Step { return Step{Kind: StepElement, Position: k} }

// KeyStep selects the map value stored under key.
func KeyStep(key value.Value) Step { return Step{Kind: StepKey, Key: key} }

// Projection is one output column of a Select.
type Projection struct {
	Column string
	Steps  []Step
	Alias  string

	// Type overrides the type derived from the table schema. Metadata table
	// projections must set it.
	Type *types.LogicalType

	// Count renders COUNT(*) and ignores Column
	Count bool
}

// Col projects a column, optionally dereferenced by steps.
func Col(name string, steps ...Step) Projection {
	return Projection{Column: name, Steps: steps}
}

// CountAll projects COUNT(*).
func CountAll() Projection {
	return Projection{Count: true, Alias: "count"}
}

// As sets the output name.
func (p Projection) As(alias string) Projection {
	p.Alias = alias
	return p
}

// Typed sets the result type explicitly.
func (p Projection) Typed(t types.LogicalType) Projection {
	p.Type = &t
	return p
}

// Name returns the output column name.
func (p Projection) Name() string {
	if p.Alias != "" {
		return p.Alias
	}
	if len(p.Steps) > 0 && p.Steps[len(p.Steps)-1].Kind == StepField {
		return p.Steps[len(p.Steps)-1].Field
	}
	return p.Column
}

// Predicate is an equality filter on a column or struct field. A Null value
// renders IS NULL.
type Predicate struct {
	Path  types.ColumnPath
	Value value.Value
}

// Eq builds an equality predicate on a dotted path.
func Eq(path string, v value.Value) Predicate {
	return Predicate{Path: types.ParsePath(path), Value: v}
}

// MetadataTable names a table format metadata table.
type MetadataTable string

const (
	MetadataNone      MetadataTable = ""
	MetadataSnapshots MetadataTable = "snapshots"
	MetadataFiles     MetadataTable = "files"
)

// Select reads the shared table or one of its metadata tables.
type Select struct {
	Table  types.TableRef
	Schema types.TableSchema

	// Projections default to every schema column in schema order
	Projections []Projection
	Where       []Predicate
	Metadata    MetadataTable

	// OrderBy lists output column names
	OrderBy []string
}

// ResultColumn is a normalized output column.
type ResultColumn struct {
	Name string
	Type types.LogicalType
}

// ResultColumns derives the output columns of the select from the schema.
func (s Select) ResultColumns() ([]ResultColumn, error) {
	if len(s.Projections) == 0 {
		if s.Metadata != MetadataNone {
			return nil, invalidf("metadata table %s needs typed projections", s.Metadata)
		}
		out := make([]ResultColumn, len(s.Schema.Columns))
		for i, c := range s.Schema.Columns {
			out[i] = ResultColumn{Name: c.Name, Type: c.Type}
		}
		return out, nil
	}

	out := make([]ResultColumn, len(s.Projections))
	for i, p := range s.Projections {
		t, err := s.projectionType(p)
		if err != nil {
			return nil, err
		}
		out[i] = ResultColumn{Name: p.Name(), Type: t}
	}
	return out, nil
}

func (s Select) projectionType(p Projection) (types.LogicalType, error) {
	switch {
	case p.Type != nil:
		return *p.Type, nil
	case p.Count:
		return types.BigintType, nil
	case s.Metadata != MetadataNone:
		return types.LogicalType{}, invalidf("metadata table projection %s needs a type", p.Name())
	}

	col, err := s.Schema.Lookup(types.ColumnPath{p.Column})
	if err != nil {
		return types.LogicalType{}, invalidf("projection %s: %v", p.Column, err)
	}
	t := col.Type
	for _, step := range p.Steps {
		switch step.Kind {
		case StepField:
			if t.ID != types.TypeStruct {
				return types.LogicalType{}, invalidf("projection %s: field %s of non-struct %s", p.Column, step.Field, t)
			}
			idx := types.IndexOf(t.Fields, step.Field)
			if idx < 0 {
				return types.LogicalType{}, invalidf("projection %s: no field %s in %s", p.Column, step.Field, t)
			}
			t = t.Fields[idx].Type
		case StepElement:
			if t.ID != types.TypeArray {
				return types.LogicalType{}, invalidf("projection %s: element access on %s", p.Column, t)
			}
			t = *t.Elem
		case StepKey:
			if t.ID != types.TypeMap {
				return types.LogicalType{}, invalidf("projection %s: key access on %s", p.Column, t)
			}
			t = *t.Value
		}
	}
	return t, nil
}

// AlterKind is the kind of a column change.
type AlterKind int

const (
	AlterRename AlterKind = iota
	AlterDrop
	AlterAdd
)

func (k AlterKind) String() string {
	switch k {
	case AlterRename:
		return "RENAME COLUMN"
	case AlterDrop:
		return "DROP COLUMN"
	case AlterAdd:
		return "ADD COLUMN"
	default:
		return "alter(" + strconv.Itoa(int(k)) + ")"
	}
}

// Alter changes one column or nested field.
type Alter struct {
	Table types.TableRef
	Kind  AlterKind
	Path  types.ColumnPath

	// NewName is the new leaf name for AlterRename
	NewName string

	// Type is the type of the added column for AlterAdd
	Type types.LogicalType
}

// RenameColumn renames the column or nested field at a dotted path.
func RenameColumn(table types.TableRef, path, newName string) Alter {
	return Alter{Table: table, Kind: AlterRename, Path: types.ParsePath(path), NewName: newName}
}

// DropColumn drops the column or nested field at a dotted path.
func DropColumn(table types.TableRef, path string) Alter {
	return Alter{Table: table, Kind: AlterDrop, Path: types.ParsePath(path)}
}

// AddColumn adds a column or nested field at a dotted path.
func AddColumn(table types.TableRef, path string, t types.LogicalType) Alter {
	return Alter{Table: table, Kind: AlterAdd, Path: types.ParsePath(path), Type: t}
}

// DropTable drops the shared table.
type DropTable struct {
	Table    types.TableRef
	IfExists bool
}

// ShowTables lists tables of a schema whose names match Like. Like uses SQL
// LIKE wildcards (% and _).
type ShowTables struct {
	Schema string
	Like   string
}

func invalidf(format string, args ...interface{}) error {
	return oerrors.New(oerrors.ErrCategoryScenario, oerrors.CodeInvalidScenario, fmt.Sprintf(format, args...))
}
