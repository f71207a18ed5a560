package types

import (
	"fmt"
	"strings"
)

// Column is a table column or a struct field.
type Column struct {
	// Name is the current column name
	Name string `json:"name"`

	// Type is the logical type of the column
	Type LogicalType `json:"type"`

	// FieldID is the stable identity of the column across schema evolution.
	// Renames keep it; a dropped and re-added column gets a new one.
	FieldID int `json:"field_id"`
}

// Col is shorthand for a column without an assigned field id.
func Col(name string, t LogicalType) Column {
	return Column{Name: name, Type: t}
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	return Column{Name: c.Name, Type: c.Type.Clone(), FieldID: c.FieldID}
}

// ColumnPath addresses a top-level column or a nested struct field, e.g.
// ["_struct", "rename"].
type ColumnPath []string

// ParsePath splits a dotted path.
func ParsePath(dotted string) ColumnPath {
	return ColumnPath(strings.Split(dotted, "."))
}

// String returns the dotted form of the path.
func (p ColumnPath) String() string {
	return strings.Join(p, ".")
}

// Parent returns the path of the enclosing struct, or nil for a top-level column.
func (p ColumnPath) Parent() ColumnPath {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// Leaf returns the last path element.
func (p ColumnPath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// TableSchema is an immutable snapshot of a table's columns. Operations that
// change a schema return a new snapshot and leave the receiver untouched.
type TableSchema struct {
	// SchemaID increases with every evolution step
	SchemaID int `json:"schema_id"`

	// Columns are the top-level columns in schema order
	Columns []Column `json:"columns"`

	// LastFieldID is the highest field id ever assigned in this table,
	// including ids of dropped columns
	LastFieldID int `json:"last_field_id"`
}

// NewSchema builds a schema snapshot and assigns field ids to every column and
// nested struct field that has none. Top-level columns are numbered first,
// then nested fields level by level.
func NewSchema(columns ...Column) TableSchema {
	s := TableSchema{Columns: make([]Column, len(columns))}
	for i, c := range columns {
		s.Columns[i] = c.Clone()
	}
	s.LastFieldID = maxFieldID(s.Columns)
	s.assignIDs(s.Columns)
	return s
}

func maxFieldID(columns []Column) int {
	max := 0
	for _, c := range columns {
		if c.FieldID > max {
			max = c.FieldID
		}
		if c.Type.ID == TypeStruct {
			if m := maxFieldID(c.Type.Fields); m > max {
				max = m
			}
		}
	}
	return max
}

// assignIDs numbers columns breadth first, the way the table format assigns
// ids for a freshly created table.
func (s *TableSchema) assignIDs(columns []Column) {
	for i := range columns {
		if columns[i].FieldID == 0 {
			s.LastFieldID++
			columns[i].FieldID = s.LastFieldID
		}
	}
	for i := range columns {
		s.assignNested(&columns[i].Type)
	}
}

func (s *TableSchema) assignNested(t *LogicalType) {
	switch t.ID {
	case TypeStruct:
		s.assignIDs(t.Fields)
	case TypeArray:
		s.assignNested(t.Elem)
	case TypeMap:
		s.assignNested(t.Key)
		s.assignNested(t.Value)
	}
}

// AllocateFieldID returns the id the next added column receives together with
// the snapshot that records it as used.
func (s TableSchema) AllocateFieldID() (int, TableSchema) {
	next := s.Clone()
	next.LastFieldID++
	return next.LastFieldID, next
}

// AssignNewIDs assigns fresh ids to a column and its nested fields, returning
// the updated column and snapshot.
func (s TableSchema) AssignNewIDs(c Column) (Column, TableSchema) {
	next := s.Clone()
	c = c.Clone()
	c.FieldID = 0
	clearIDs(&c.Type)
	cols := []Column{c}
	next.assignIDs(cols)
	return cols[0], next
}

func clearIDs(t *LogicalType) {
	switch t.ID {
	case TypeStruct:
		for i := range t.Fields {
			t.Fields[i].FieldID = 0
			clearIDs(&t.Fields[i].Type)
		}
	case TypeArray:
		clearIDs(t.Elem)
	case TypeMap:
		clearIDs(t.Key)
		clearIDs(t.Value)
	}
}

// Clone returns a deep copy of the snapshot.
func (s TableSchema) Clone() TableSchema {
	cp := TableSchema{SchemaID: s.SchemaID, LastFieldID: s.LastFieldID, Columns: make([]Column, len(s.Columns))}
	for i, c := range s.Columns {
		cp.Columns[i] = c.Clone()
	}
	return cp
}

// Names returns the top-level column names in schema order.
func (s TableSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup resolves a column path. Names compare case-sensitively.
func (s TableSchema) Lookup(path ColumnPath) (Column, error) {
	if len(path) == 0 {
		return Column{}, fmt.Errorf("%w: empty path", ErrColumnNotFound)
	}
	fields := s.Columns
	var found Column
	for i, name := range path {
		idx := indexOf(fields, name)
		if idx < 0 {
			return Column{}, fmt.Errorf("%w: %s", ErrColumnNotFound, path)
		}
		found = fields[idx]
		if i < len(path)-1 {
			if found.Type.ID != TypeStruct {
				return Column{}, fmt.Errorf("%w: %s", ErrNotAStruct, ColumnPath(path[:i+1]))
			}
			fields = found.Type.Fields
		}
	}
	return found, nil
}

// FindByID locates a column or nested field by field id and returns its
// current path.
func (s TableSchema) FindByID(id int) (Column, ColumnPath, bool) {
	return findByID(s.Columns, id, nil)
}

func findByID(columns []Column, id int, prefix ColumnPath) (Column, ColumnPath, bool) {
	for _, c := range columns {
		path := append(append(ColumnPath{}, prefix...), c.Name)
		if c.FieldID == id {
			return c, path, true
		}
		if c.Type.ID == TypeStruct {
			if found, p, ok := findByID(c.Type.Fields, id, path); ok {
				return found, p, true
			}
		}
	}
	return Column{}, nil, false
}

// WithFields returns a snapshot in which the field list addressed by parent
// (nil for top-level) is replaced by fn's result. The schema id is bumped.
func (s TableSchema) WithFields(parent ColumnPath, fn func([]Column) ([]Column, error)) (TableSchema, error) {
	next := s.Clone()
	if len(parent) == 0 {
		cols, err := fn(next.Columns)
		if err != nil {
			return TableSchema{}, err
		}
		next.Columns = cols
		next.SchemaID++
		return next, nil
	}

	fields := next.Columns
	for i, name := range parent {
		idx := indexOf(fields, name)
		if idx < 0 {
			return TableSchema{}, fmt.Errorf("%w: %s", ErrColumnNotFound, parent)
		}
		if fields[idx].Type.ID != TypeStruct {
			return TableSchema{}, fmt.Errorf("%w: %s", ErrNotAStruct, ColumnPath(parent[:i+1]))
		}
		if i == len(parent)-1 {
			updated, err := fn(fields[idx].Type.Fields)
			if err != nil {
				return TableSchema{}, err
			}
			fields[idx].Type.Fields = updated
			break
		}
		fields = fields[idx].Type.Fields
	}
	next.SchemaID++
	return next, nil
}

// IndexOf returns the position of the named column in columns, or -1.
func IndexOf(columns []Column, name string) int {
	return indexOf(columns, name)
}

func indexOf(columns []Column, name string) int {
	for i, c := range columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// TableRef names a table inside an engine catalog. The catalog itself is an
// engine setting, so the same TableRef addresses the shared table on both
// engines.
type TableRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

// String returns schema.name.
func (r TableRef) String() string {
	if r.Schema == "" {
		return r.Name
	}
	return r.Schema + "." + r.Name
}

// WithSuffix returns a ref whose table name carries the given suffix.
func (r TableRef) WithSuffix(suffix string) TableRef {
	if suffix == "" {
		return r
	}
	return TableRef{Schema: r.Schema, Name: r.Name + "_" + suffix}
}
