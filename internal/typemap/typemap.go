// Package typemap is the static bidirectional mapping between the table
// format's logical types and each engine's native SQL types, including the
// documented gaps: unsupported types, unsupported file formats and
// unsupported nested ALTER.
package typemap

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Engine names an engine in the mapping table.
type Engine string

const (
	Trino Engine = "trino"
	Spark Engine = "spark"
)

// Engines lists the engines the table covers.
func Engines() []Engine { return []Engine{Trino, Spark} }

// Mapping is one engine's side of an entry.
type Mapping struct {
	// Native is the engine's type text; decimals use %d placeholders
	Native    string
	Supported bool
	Notes     string
}

// Entry maps one logical type to every engine.
type Entry struct {
	Logical types.TypeID
	Engines map[Engine]Mapping
}

// Name returns the logical type name the entry is keyed by.
func (e Entry) Name() string { return types.LogicalType{ID: e.Logical}.Name() }

var table = map[types.TypeID]Entry{
	types.TypeString: {types.TypeString, map[Engine]Mapping{
		Trino: {"varchar", true, ""},
		Spark: {"string", true, ""},
	}},
	types.TypeBigint: {types.TypeBigint, map[Engine]Mapping{
		Trino: {"bigint", true, ""},
		Spark: {"bigint", true, ""},
	}},
	types.TypeInteger: {types.TypeInteger, map[Engine]Mapping{
		Trino: {"integer", true, ""},
		Spark: {"int", true, ""},
	}},
	types.TypeReal: {types.TypeReal, map[Engine]Mapping{
		Trino: {"real", true, ""},
		Spark: {"float", true, ""},
	}},
	types.TypeDouble: {types.TypeDouble, map[Engine]Mapping{
		Trino: {"double", true, ""},
		Spark: {"double", true, ""},
	}},
	types.TypeDecimal: {types.TypeDecimal, map[Engine]Mapping{
		Trino: {"decimal(%d,%d)", true, ""},
		Spark: {"decimal(%d,%d)", true, ""},
	}},
	types.TypeBoolean: {types.TypeBoolean, map[Engine]Mapping{
		Trino: {"boolean", true, ""},
		Spark: {"boolean", true, ""},
	}},
	types.TypeTimestamp: {types.TypeTimestamp, map[Engine]Mapping{
		Trino: {"timestamp(6)", true, ""},
		Spark: {"", false, "Iceberg's timestamp without time zone is currently not supported with Spark"},
	}},
	types.TypeTimestampTZ: {types.TypeTimestampTZ, map[Engine]Mapping{
		Trino: {"timestamp(6) with time zone", true, ""},
		Spark: {"timestamp", true, "rendered in the session zone without a zone annotation"},
	}},
	types.TypeDate: {types.TypeDate, map[Engine]Mapping{
		Trino: {"date", true, ""},
		Spark: {"date", true, ""},
	}},
	types.TypeTime: {types.TypeTime, map[Engine]Mapping{
		Trino: {"time(6)", true, ""},
		Spark: {"", false, "Iceberg's time is currently not supported with Spark"},
	}},
	types.TypeArray: {types.TypeArray, map[Engine]Mapping{
		Trino: {"array(%s)", true, "elements are addressed from 1"},
		Spark: {"array<%s>", true, "elements are addressed from 0"},
	}},
	types.TypeMap: {types.TypeMap, map[Engine]Mapping{
		Trino: {"map(%s, %s)", true, ""},
		Spark: {"map<%s,%s>", true, ""},
	}},
	types.TypeStruct: {types.TypeStruct, map[Engine]Mapping{
		Trino: {"row(%s)", true, "nested fields cannot be altered"},
		Spark: {"struct<%s>", true, ""},
	}},
}

// structSyntax is how each engine spells the fields of a struct type.
var structSyntax = map[Engine]struct{ field, sep string }{
	Trino: {"%s %s", ", "},
	Spark: {"%s:%s", ","},
}

var nestedAlter = map[Engine]bool{
	Trino: false,
	Spark: true,
}

// Entries returns the table ordered by logical type.
func Entries() []Entry {
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Logical < out[j].Logical })
	return out
}

// Lookup returns the mapping of a logical type for an engine.
func Lookup(engine Engine, id types.TypeID) (Mapping, bool) {
	e, ok := table[id]
	if !ok {
		return Mapping{}, false
	}
	m, ok := e.Engines[engine]
	return m, ok
}

// Native renders the engine type text for lt, recursing into nested types.
// It fails with an UnsupportedTypeMapping when any component has no mapping.
func Native(engine Engine, lt types.LogicalType) (string, error) {
	m, ok := Lookup(engine, lt.ID)
	if !ok {
		return "", oerrors.NewUnsupportedTypeMapping(string(engine), lt.String(), "no mapping")
	}
	if !m.Supported {
		return "", oerrors.NewUnsupportedTypeMapping(string(engine), lt.String(), m.Notes)
	}

	switch lt.ID {
	case types.TypeDecimal:
		return fmt.Sprintf(m.Native, lt.Precision, lt.Scale), nil
	case types.TypeArray:
		elem, err := Native(engine, *lt.Elem)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(m.Native, elem), nil
	case types.TypeMap:
		k, err := Native(engine, *lt.Key)
		if err != nil {
			return "", err
		}
		v, err := Native(engine, *lt.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(m.Native, k, v), nil
	case types.TypeStruct:
		fields := make([]string, len(lt.Fields))
		for i, f := range lt.Fields {
			ft, err := Native(engine, f.Type)
			if err != nil {
				return "", err
			}
			fields[i] = fmt.Sprintf(structSyntax[engine].field, f.Name, ft)
		}
		return fmt.Sprintf(m.Native, strings.Join(fields, structSyntax[engine].sep)), nil
	default:
		return m.Native, nil
	}
}

// CheckSchema verifies that every column of a schema maps to the engine.
func CheckSchema(engine Engine, schema types.TableSchema) error {
	for _, c := range schema.Columns {
		if _, err := Native(engine, c.Type); err != nil {
			return fmt.Errorf("column %s: %w", c.Name, err)
		}
	}
	return nil
}

// SupportsNestedAlter reports whether the engine can rename, drop or add
// fields inside a struct column.
func SupportsNestedAlter(engine Engine) bool {
	return nestedAlter[engine]
}

var formats = map[Engine][]types.StorageFormat{
	Trino: {types.FormatParquet, types.FormatORC},
	Spark: {types.FormatParquet, types.FormatORC, types.FormatAvro},
}

// SupportsFormat reports whether the engine reads and writes the format.
func SupportsFormat(engine Engine, format types.StorageFormat) bool {
	for _, f := range formats[engine] {
		if f == format {
			return true
		}
	}
	return false
}

// Format fails with an UnsupportedTypeMapping for file formats the engine
// cannot read.
func Format(engine Engine, format types.StorageFormat) error {
	if SupportsFormat(engine, format) {
		return nil
	}
	return oerrors.NewUnsupportedTypeMapping(string(engine), "file format "+string(format), formatFailureMessage(format))
}

func formatFailureMessage(format types.StorageFormat) string {
	return "File format not supported for Iceberg: " + string(format)
}

// Expectation states that an operation on an engine fails with a message
// matching Pattern.
type Expectation struct {
	Engine  Engine
	Subject string
	Pattern string
}

// Regexp compiles the pattern.
func (e Expectation) Regexp() *regexp.Regexp {
	return regexp.MustCompile(e.Pattern)
}

// Matches reports whether an engine message satisfies the expectation.
func (e Expectation) Matches(message string) bool {
	return e.Regexp().MatchString(message)
}

// FailureFor returns the documented failure of reading a table stored in an
// unsupported format. ok is false when the engine supports the format.
func FailureFor(engine Engine, format types.StorageFormat) (Expectation, bool) {
	if SupportsFormat(engine, format) {
		return Expectation{}, false
	}
	return Expectation{
		Engine:  engine,
		Subject: "file format " + string(format),
		Pattern: regexp.QuoteMeta(formatFailureMessage(format)),
	}, true
}
