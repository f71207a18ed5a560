// Package value implements the engine-neutral value model every engine's
// result set is normalized into before comparison.
package value

import (
	"fmt"
	"math/big"
	"time"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt64
	KindInt32
	KindFloat32
	KindFloat64
	KindDecimal
	KindBoolean
	KindTimestamp
	KindDate
	KindTime
	KindArray
	KindMap
	KindStruct
)

var kindNames = [...]string{
	KindNull:      "null",
	KindString:    "string",
	KindInt64:     "int64",
	KindInt32:     "int32",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindDecimal:   "decimal",
	KindBoolean:   "boolean",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindTime:      "time",
	KindArray:     "array",
	KindMap:       "map",
	KindStruct:    "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a tagged union over the canonical scalar and nested values.
// The zero Value is Null. Values are immutable once built.
type Value struct {
	kind Kind

	str string
	i   int64 // int64, int32, epoch micros, epoch day, micros of day
	f   float64
	b   bool

	// decimal
	precision int
	scale     int
	unscaled  *big.Int

	// timestamp
	zoned     bool
	hasOffset bool
	offset    int // seconds east of UTC as rendered by the engine

	elems   []Value
	entries []MapEntry
	fields  []Field
}

// MapEntry is one key/value pair of a map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Field is a named value: a struct field or a row cell.
type Field struct {
	Name  string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

func Int32(i int32) Value { return Value{kind: KindInt32, i: int64(i)} }

func Float32(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }

func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Decimal returns a decimal with the given precision, scale and unscaled
// value. The unscaled value is copied.
func Decimal(precision, scale int, unscaled *big.Int) Value {
	return Value{kind: KindDecimal, precision: precision, scale: scale, unscaled: new(big.Int).Set(unscaled)}
}

// Timestamp returns a timestamp without time zone from microseconds since the
// epoch, read as wall-clock time in UTC.
func Timestamp(epochMicros int64) Value {
	return Value{kind: KindTimestamp, i: epochMicros}
}

// TimestampOf returns a timestamp without time zone from wall-clock fields.
func TimestampOf(year int, month time.Month, day, hour, min, sec, micros int) Value {
	return Timestamp(time.Date(year, month, day, hour, min, sec, micros*1000, time.UTC).UnixMicro())
}

// TimestampTZ returns a timestamp with time zone for the instant t, keeping the
// offset t was rendered in.
func TimestampTZ(t time.Time) Value {
	_, offset := t.Zone()
	return Value{kind: KindTimestamp, i: t.UnixMicro(), zoned: true, hasOffset: true, offset: offset}
}

// TimestampTZInstant returns a timestamp with time zone for an instant whose
// rendering carried no zone.
func TimestampTZInstant(epochMicros int64) Value {
	return Value{kind: KindTimestamp, i: epochMicros, zoned: true}
}

// Date returns a date from days since the epoch.
func Date(epochDay int64) Value { return Value{kind: KindDate, i: epochDay} }

// DateOf returns a date from calendar fields.
func DateOf(year int, month time.Month, day int) Value {
	return Date(epochDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)))
}

// Time returns a time of day from microseconds since midnight.
func Time(microsOfDay int64) Value { return Value{kind: KindTime, i: microsOfDay} }

// Array returns an array of the given elements.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, elems: append([]Value{}, elems...)}
}

// Map returns a map of the given entries. Keys must be unique.
func Map(entries ...MapEntry) (Value, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		k := Key(e.Key)
		if _, dup := seen[k]; dup {
			return Value{}, fmt.Errorf("duplicate map key %s", Format(e.Key))
		}
		seen[k] = struct{}{}
	}
	return Value{kind: KindMap, entries: append([]MapEntry{}, entries...)}, nil
}

// MustMap is Map for static definitions; it panics on duplicate keys.
func MustMap(entries ...MapEntry) Value {
	v, err := Map(entries...)
	if err != nil {
		panic(err)
	}
	return v
}

// Entry is shorthand for a MapEntry.
func Entry(k, v Value) MapEntry { return MapEntry{Key: k, Value: v} }

// Struct returns a struct with the given ordered fields.
func Struct(fields ...Field) Value {
	return Value{kind: KindStruct, fields: append([]Field{}, fields...)}
}

// F is shorthand for a Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Str() string    { return v.str }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool     { return v.b }

// DecimalParts returns precision, scale and a copy of the unscaled value.
func (v Value) DecimalParts() (precision, scale int, unscaled *big.Int) {
	if v.unscaled == nil {
		return v.precision, v.scale, new(big.Int)
	}
	return v.precision, v.scale, new(big.Int).Set(v.unscaled)
}

// EpochMicros returns the timestamp's microseconds since the epoch. For zoned
// timestamps this is the UTC instant.
func (v Value) EpochMicros() int64 { return v.i }

// Zoned reports whether the timestamp is a timestamp with time zone.
func (v Value) Zoned() bool { return v.zoned }

// Offset returns the zone offset in seconds the engine rendered, if any.
func (v Value) Offset() (int, bool) { return v.offset, v.hasOffset }

// EpochDay returns the date's days since the epoch.
func (v Value) EpochDay() int64 { return v.i }

func (v Value) Elems() []Value      { return v.elems }
func (v Value) Entries() []MapEntry { return v.entries }
func (v Value) Fields() []Field     { return v.fields }

// Field returns the named struct field.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Lookup returns the value stored under key in a map.
func (v Value) Lookup(key Value) (Value, bool) {
	for _, e := range v.entries {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// At returns the element at logical position k (1 = first) of an array.
func (v Value) At(k int) (Value, bool) {
	if k < 1 || k > len(v.elems) {
		return Value{}, false
	}
	return v.elems[k-1], true
}

// Time converts a timestamp to a time.Time. Zoned timestamps use the rendered
// offset when one was seen, UTC otherwise.
func (v Value) Time() time.Time {
	t := time.UnixMicro(v.i).UTC()
	if v.zoned && v.hasOffset && v.offset != 0 {
		t = t.In(time.FixedZone("", v.offset))
	}
	return t
}

func epochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
