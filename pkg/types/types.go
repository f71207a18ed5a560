// Package types provides the engine-neutral table model shared by every
// component of the compatibility oracle: logical types, columns with stable
// field ids, immutable table schema snapshots and storage formats.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeID identifies the kind of a logical type.
type TypeID int

const (
	TypeUnknown TypeID = iota
	TypeString
	TypeBigint
	TypeInteger
	TypeReal
	TypeDouble
	TypeDecimal
	TypeBoolean
	TypeTimestamp
	TypeTimestampTZ
	TypeDate
	TypeTime
	TypeArray
	TypeMap
	TypeStruct
)

// typeNames maps type ids to the neutral type names used in type text and as
// keys of the type mapping table.
var typeNames = map[TypeID]string{
	TypeString:      "string",
	TypeBigint:      "bigint",
	TypeInteger:     "integer",
	TypeReal:        "real",
	TypeDouble:      "double",
	TypeDecimal:     "decimal",
	TypeBoolean:     "boolean",
	TypeTimestamp:   "timestamp",
	TypeTimestampTZ: "timestamptz",
	TypeDate:        "date",
	TypeTime:        "time",
	TypeArray:       "array",
	TypeMap:         "map",
	TypeStruct:      "struct",
}

// MaxDecimalPrecision is the largest decimal precision the table format stores.
const MaxDecimalPrecision = 38

// LogicalType is a table-format type. Nested types reference their
// components; struct fields are Columns so that they carry field ids.
type LogicalType struct {
	ID TypeID

	// Precision and Scale are set for decimals only
	Precision int
	Scale     int

	// Elem is the element type of an array
	Elem *LogicalType

	// Key and Value are the entry types of a map
	Key   *LogicalType
	Value *LogicalType

	// Fields are the ordered fields of a struct
	Fields []Column
}

// Primitive types.
var (
	StringType      = LogicalType{ID: TypeString}
	BigintType      = LogicalType{ID: TypeBigint}
	IntegerType     = LogicalType{ID: TypeInteger}
	RealType        = LogicalType{ID: TypeReal}
	DoubleType      = LogicalType{ID: TypeDouble}
	BooleanType     = LogicalType{ID: TypeBoolean}
	TimestampType   = LogicalType{ID: TypeTimestamp}
	TimestampTZType = LogicalType{ID: TypeTimestampTZ}
	DateType        = LogicalType{ID: TypeDate}
	TimeType        = LogicalType{ID: TypeTime}
)

// Decimal returns a decimal(precision, scale) type.
func Decimal(precision, scale int) LogicalType {
	return LogicalType{ID: TypeDecimal, Precision: precision, Scale: scale}
}

// ArrayOf returns an array type with the given element type.
func ArrayOf(elem LogicalType) LogicalType {
	return LogicalType{ID: TypeArray, Elem: &elem}
}

// MapOf returns a map type.
func MapOf(key, value LogicalType) LogicalType {
	return LogicalType{ID: TypeMap, Key: &key, Value: &value}
}

// StructOf returns a struct type with the given fields. Field ids are
// assigned when the struct becomes part of a TableSchema.
func StructOf(fields ...Column) LogicalType {
	return LogicalType{ID: TypeStruct, Fields: fields}
}

// Name returns the neutral base name of the type ("decimal", "array", ...).
func (t LogicalType) Name() string {
	if name, ok := typeNames[t.ID]; ok {
		return name
	}
	return "unknown"
}

// IsNested reports whether the type has component types.
func (t LogicalType) IsNested() bool {
	return t.ID == TypeArray || t.ID == TypeMap || t.ID == TypeStruct
}

// String renders the type in neutral type text, the inverse of ParseType.
func (t LogicalType) String() string {
	switch t.ID {
	case TypeDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case TypeArray:
		return "array<" + t.Elem.String() + ">"
	case TypeMap:
		return "map<" + t.Key.String() + "," + t.Value.String() + ">"
	case TypeStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ":" + f.Type.String()
		}
		return "struct<" + strings.Join(parts, ",") + ">"
	default:
		return t.Name()
	}
}

// Equal compares two types structurally. Struct field ids are ignored.
func (t LogicalType) Equal(o LogicalType) bool {
	if t.ID != o.ID {
		return false
	}
	switch t.ID {
	case TypeDecimal:
		return t.Precision == o.Precision && t.Scale == o.Scale
	case TypeArray:
		return t.Elem.Equal(*o.Elem)
	case TypeMap:
		return t.Key.Equal(*o.Key) && t.Value.Equal(*o.Value)
	case TypeStruct:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Clone returns a deep copy of the type.
func (t LogicalType) Clone() LogicalType {
	cp := t
	if t.Elem != nil {
		e := t.Elem.Clone()
		cp.Elem = &e
	}
	if t.Key != nil {
		k := t.Key.Clone()
		cp.Key = &k
	}
	if t.Value != nil {
		v := t.Value.Clone()
		cp.Value = &v
	}
	if t.Fields != nil {
		cp.Fields = make([]Column, len(t.Fields))
		for i, f := range t.Fields {
			cp.Fields[i] = f.Clone()
		}
	}
	return cp
}

// MustParseType parses type text and panics on error. Intended for static
// scenario definitions.
func MustParseType(text string) LogicalType {
	t, err := ParseType(text)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseType parses neutral type text such as "decimal(38,19)" or
// "map<string,array<struct<name:string,n:integer>>>".
func ParseType(text string) (LogicalType, error) {
	p := &typeParser{input: text}
	t, err := p.parseType()
	if err != nil {
		return LogicalType{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return LogicalType{}, p.errorf("unexpected trailing input")
	}
	return t, nil
}

// typeParser is a small recursive descent parser over type text.
type typeParser struct {
	input string
	pos   int
}

func (p *typeParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %q at offset %d: %s", ErrInvalidType, p.input, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) expect(ch byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != ch {
		return p.errorf("expected %q", ch)
	}
	p.pos++
	return nil
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *typeParser) number() (int, error) {
	word := p.ident()
	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, p.errorf("expected number, got %q", word)
	}
	return n, nil
}

func (p *typeParser) parseType() (LogicalType, error) {
	name := strings.ToLower(p.ident())
	switch name {
	case "string":
		return StringType, nil
	case "bigint", "long":
		return BigintType, nil
	case "integer", "int":
		return IntegerType, nil
	case "real", "float":
		return RealType, nil
	case "double":
		return DoubleType, nil
	case "boolean":
		return BooleanType, nil
	case "timestamp":
		return TimestampType, nil
	case "timestamptz":
		return TimestampTZType, nil
	case "date":
		return DateType, nil
	case "time":
		return TimeType, nil
	case "decimal":
		if err := p.expect('('); err != nil {
			return LogicalType{}, err
		}
		precision, err := p.number()
		if err != nil {
			return LogicalType{}, err
		}
		if err := p.expect(','); err != nil {
			return LogicalType{}, err
		}
		scale, err := p.number()
		if err != nil {
			return LogicalType{}, err
		}
		if err := p.expect(')'); err != nil {
			return LogicalType{}, err
		}
		if precision < 1 || precision > MaxDecimalPrecision || scale < 0 || scale > precision {
			return LogicalType{}, p.errorf("decimal(%d,%d) out of range", precision, scale)
		}
		return Decimal(precision, scale), nil
	case "array":
		if err := p.expect('<'); err != nil {
			return LogicalType{}, err
		}
		elem, err := p.parseType()
		if err != nil {
			return LogicalType{}, err
		}
		if err := p.expect('>'); err != nil {
			return LogicalType{}, err
		}
		return ArrayOf(elem), nil
	case "map":
		if err := p.expect('<'); err != nil {
			return LogicalType{}, err
		}
		key, err := p.parseType()
		if err != nil {
			return LogicalType{}, err
		}
		if err := p.expect(','); err != nil {
			return LogicalType{}, err
		}
		value, err := p.parseType()
		if err != nil {
			return LogicalType{}, err
		}
		if err := p.expect('>'); err != nil {
			return LogicalType{}, err
		}
		return MapOf(key, value), nil
	case "struct":
		if err := p.expect('<'); err != nil {
			return LogicalType{}, err
		}
		var fields []Column
		for {
			fieldName := p.ident()
			if fieldName == "" {
				return LogicalType{}, p.errorf("expected field name")
			}
			if err := p.expect(':'); err != nil {
				return LogicalType{}, err
			}
			ft, err := p.parseType()
			if err != nil {
				return LogicalType{}, err
			}
			fields = append(fields, Column{Name: fieldName, Type: ft})
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect('>'); err != nil {
			return LogicalType{}, err
		}
		return StructOf(fields...), nil
	case "":
		return LogicalType{}, p.errorf("expected type name")
	default:
		return LogicalType{}, p.errorf("unknown type %q", name)
	}
}

// MarshalText renders the type as neutral type text.
func (t LogicalType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses neutral type text.
func (t *LogicalType) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
