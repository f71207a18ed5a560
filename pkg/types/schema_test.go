package types

import (
	"errors"
	"testing"
)

func nestedSchema() TableSchema {
	return NewSchema(
		Col("_string", StringType),
		Col("_bigint", BigintType),
		Col("_struct", StructOf(
			Col("rename", IntegerType),
			Col("keep", IntegerType),
			Col("drop_and_add", IntegerType),
		)),
	)
}

func TestNewSchema_AssignsIDsBreadthFirst(t *testing.T) {
	s := nestedSchema()

	want := map[string]int{
		"_string":              1,
		"_bigint":              2,
		"_struct":              3,
		"_struct.rename":       4,
		"_struct.keep":         5,
		"_struct.drop_and_add": 6,
	}
	for path, id := range want {
		c, err := s.Lookup(ParsePath(path))
		if err != nil {
			t.Fatalf("Lookup(%s): %v", path, err)
		}
		if c.FieldID != id {
			t.Errorf("%s field id = %d, want %d", path, c.FieldID, id)
		}
	}
	if s.LastFieldID != 6 {
		t.Errorf("LastFieldID = %d, want 6", s.LastFieldID)
	}
}

func TestNewSchema_KeepsExplicitIDs(t *testing.T) {
	s := NewSchema(Column{Name: "a", Type: IntegerType, FieldID: 10}, Col("b", IntegerType))
	b, _ := s.Lookup(ColumnPath{"b"})
	if b.FieldID != 11 {
		t.Errorf("b field id = %d, want 11", b.FieldID)
	}
}

func TestLookup_Errors(t *testing.T) {
	s := nestedSchema()
	if _, err := s.Lookup(ColumnPath{"missing"}); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
	if _, err := s.Lookup(ParsePath("_string.x")); !errors.Is(err, ErrNotAStruct) {
		t.Errorf("expected ErrNotAStruct, got %v", err)
	}
	if _, err := s.Lookup(nil); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound for empty path, got %v", err)
	}
}

func TestFindByID(t *testing.T) {
	s := nestedSchema()
	c, path, ok := s.FindByID(5)
	if !ok || c.Name != "keep" || path.String() != "_struct.keep" {
		t.Errorf("FindByID(5) = %v %v %v", c.Name, path, ok)
	}
	if _, _, ok := s.FindByID(99); ok {
		t.Error("FindByID(99) should not resolve")
	}
}

func TestWithFields_IsImmutable(t *testing.T) {
	s := nestedSchema()
	next, err := s.WithFields(ColumnPath{"_struct"}, func(fields []Column) ([]Column, error) {
		fields[0].Name = "renamed"
		return fields, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Lookup(ParsePath("_struct.rename")); err != nil {
		t.Error("original snapshot should be unchanged")
	}
	renamed, err := next.Lookup(ParsePath("_struct.renamed"))
	if err != nil {
		t.Fatal(err)
	}
	if renamed.FieldID != 4 {
		t.Errorf("renamed field id = %d, want 4", renamed.FieldID)
	}
	if next.SchemaID != s.SchemaID+1 {
		t.Errorf("SchemaID = %d, want %d", next.SchemaID, s.SchemaID+1)
	}
}

func TestAssignNewIDs(t *testing.T) {
	s := nestedSchema()
	c, next := s.AssignNewIDs(Column{Name: "drop_and_add", Type: IntegerType, FieldID: 6})
	if c.FieldID != 7 || next.LastFieldID != 7 {
		t.Errorf("new id = %d, last = %d, want 7", c.FieldID, next.LastFieldID)
	}
	if s.LastFieldID != 6 {
		t.Error("original snapshot should keep its LastFieldID")
	}

	id, after := next.AllocateFieldID()
	if id != 8 || after.LastFieldID != 8 {
		t.Errorf("AllocateFieldID = %d", id)
	}
}

func TestColumnPath(t *testing.T) {
	p := ParsePath("a.b.c")
	if p.Leaf() != "c" || p.Parent().String() != "a.b" {
		t.Errorf("leaf=%q parent=%q", p.Leaf(), p.Parent())
	}
	if ParsePath("a").Parent() != nil {
		t.Error("top-level path should have nil parent")
	}
}

func TestTableRef(t *testing.T) {
	ref := TableRef{Schema: "default", Name: "test_primitive_types"}
	if got := ref.WithSuffix("ab12cd34").String(); got != "default.test_primitive_types_ab12cd34" {
		t.Errorf("got %q", got)
	}
	if ref.WithSuffix("") != ref {
		t.Error("empty suffix should be a no-op")
	}
}
