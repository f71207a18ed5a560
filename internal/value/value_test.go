package value

import (
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/pkg/types"
)

func mustNormalize(t *testing.T, raw any, declared string) Value {
	t.Helper()
	v, err := Normalize(raw, types.MustParseType(declared))
	if err != nil {
		t.Fatalf("Normalize(%v, %s): %v", raw, declared, err)
	}
	return v
}

func TestNormalize_Primitives(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		declared string
		want     Value
	}{
		{"string", "a_string", "string", String("a_string")},
		{"bytes", []byte("a_string"), "string", String("a_string")},
		{"bigint", int64(1000000000000000), "bigint", Int64(1000000000000000)},
		{"bigint text", "1000000000000000", "bigint", Int64(1000000000000000)},
		{"integer", int64(1000000000), "integer", Int32(1000000000)},
		{"real", float64(float32(10000000.123)), "real", Float32(10000000.123)},
		{"real text", "1.0000000123E7", "real", Float32(10000000.123)},
		{"double", 100000000000.123, "double", Float64(100000000000.123)},
		{"boolean", true, "boolean", Boolean(true)},
		{"boolean int", int64(1), "boolean", Boolean(true)},
		{"boolean text", "false", "boolean", Boolean(false)},
		{"null", nil, "decimal(8,2)", Null()},
		{"date", "1950-06-28", "date", DateOf(1950, time.June, 28)},
		{"date time", time.Date(1950, 6, 28, 0, 0, 0, 0, time.UTC), "date", DateOf(1950, time.June, 28)},
		{"timestamp", "2020-06-28 14:16:00.456", "timestamp", TimestampOf(2020, time.June, 28, 14, 16, 0, 456000)},
		{"timestamp iso", "2020-06-28T14:16:00.456", "timestamp", TimestampOf(2020, time.June, 28, 14, 16, 0, 456000)},
		{"time", "14:16:00.5", "time", Time(51360500000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustNormalize(t, tt.raw, tt.declared)
			if !Equal(got, tt.want) {
				t.Errorf("got %s (%s), want %s (%s)", Format(got), got.Kind(), Format(tt.want), tt.want.Kind())
			}
		})
	}
}

func TestNormalize_TimestampIgnoresDriverZone(t *testing.T) {
	warsaw := time.FixedZone("CEST", 2*3600)
	got := mustNormalize(t, time.Date(2020, 6, 28, 14, 16, 0, 456000000, warsaw), "timestamp")
	want := TimestampOf(2020, time.June, 28, 14, 16, 0, 456000)
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", Format(got), Format(want))
	}
}

func TestNormalize_TimestampTZRenderings(t *testing.T) {
	want := TimestampTZ(time.Date(2020, 6, 28, 12, 16, 0, 456000000, time.UTC))
	renderings := []any{
		"2020-06-28 12:16:00.456 UTC",
		"2020-06-28 12:16:00.456",
		"2020-06-28 14:16:00.456 +02:00",
		"2020-06-28 14:16:00.456+02:00",
		"2020-06-28 14:16:00.456 Europe/Warsaw",
		"2020-06-28T14:16:00.456+02:00",
		"2020-06-28 08:16:00.456 -04:00",
		time.Date(2020, 6, 28, 14, 16, 0, 456000000, time.FixedZone("", 7200)),
	}
	for _, raw := range renderings {
		got := mustNormalize(t, raw, "timestamptz")
		if !Equal(got, want) {
			t.Errorf("%v: got %s, want %s", raw, Format(got), Format(want))
		}
	}

	plus2 := mustNormalize(t, "2020-06-28 14:16:00.456 +02:00", "timestamptz")
	if off, ok := plus2.Offset(); !ok || off != 7200 {
		t.Errorf("offset = %d, %v; want 7200", off, ok)
	}
	bare := mustNormalize(t, "2020-06-28 12:16:00.456", "timestamptz")
	if _, ok := bare.Offset(); ok {
		t.Error("rendering without zone should carry no offset")
	}
}

func TestNormalize_ZonedAndUnzonedDiffer(t *testing.T) {
	a := mustNormalize(t, "2020-06-28 14:16:00", "timestamp")
	b := mustNormalize(t, "2020-06-28 14:16:00 UTC", "timestamptz")
	if Equal(a, b) {
		t.Error("timestamp and timestamp with time zone should not compare equal")
	}
}

func TestNormalize_Decimal(t *testing.T) {
	v := mustNormalize(t, "1234567890123456789.0123456789012345678", "decimal(38,19)")
	p, s, u := v.DecimalParts()
	want, _ := new(big.Int).SetString("12345678901234567890123456789012345678", 10)
	if p != 38 || s != 19 || u.Cmp(want) != 0 {
		t.Errorf("got (%d, %d, %s)", p, s, u)
	}

	// Trailing zeros are padded to the declared scale
	short := mustNormalize(t, "123456.7", "decimal(8,2)")
	if DecimalText(short) != "123456.70" {
		t.Errorf("DecimalText = %s", DecimalText(short))
	}
	if !Equal(mustNormalize(t, 123456.78, "decimal(8,2)"), MustDecimal("123456.78", 8, 2)) {
		t.Error("float cell should normalize to the same decimal")
	}
}

func TestNormalize_DecimalRejectsLossyValues(t *testing.T) {
	for _, raw := range []string{"1.234", "1234567.00", "abc"} {
		_, err := Normalize(raw, types.Decimal(8, 2))
		if err == nil {
			t.Errorf("Normalize(%q) should fail", raw)
			continue
		}
		if !errors.Is(err, oerrors.New(oerrors.ErrCategoryValue, oerrors.CodeNormalizeFailed, "")) {
			t.Errorf("Normalize(%q) error = %v, want NORMALIZE_FAILED", raw, err)
		}
	}
}

func TestNormalize_IntegerOverflow(t *testing.T) {
	if _, err := Normalize(int64(math.MaxInt32)+1, types.IntegerType); err == nil {
		t.Error("expected overflow error")
	}
	if _, err := Normalize(1.5, types.BigintType); err == nil {
		t.Error("expected error for fractional bigint")
	}
}

func TestNormalize_Nested(t *testing.T) {
	declared := "struct<id:integer,info:map<string,integer>,pets:array<string>,user_info:struct<name:string,surname:string>>"
	raw := `{"id": 1, "info": {"age": 42}, "pets": ["Kitty", "Pupper"], "user_info": {"name": "Jo", "surname": "Doe"}}`

	got := mustNormalize(t, raw, declared)
	want := Struct(
		F("id", Int32(1)),
		F("info", MustMap(Entry(String("age"), Int32(42)))),
		F("pets", Array(String("Kitty"), String("Pupper"))),
		F("user_info", Struct(F("name", String("Jo")), F("surname", String("Doe")))),
	)
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", Format(got), Format(want))
	}

	pets, _ := got.Field("pets")
	second, ok := pets.At(2)
	if !ok || second.Str() != "Pupper" {
		t.Errorf("At(2) = %s", Format(second))
	}
	if _, ok := pets.At(0); ok {
		t.Error("At(0) should not resolve")
	}
}

func TestNormalize_StructKeySetMustMatch(t *testing.T) {
	declared := types.MustParseType("struct<renamed:bigint,keep:bigint,drop_and_add:bigint>")
	for _, raw := range []string{
		`{"renamed": 1, "keep": 2, "unexpected": 9}`,
		`{"renamed": 1, "keep": 2}`,
		`{"renamed": 1, "keep": 2, "drop_and_add": null, "extra": 3}`,
	} {
		if v, err := Normalize(raw, declared); err == nil {
			t.Errorf("Normalize(%s) = %s, want error", raw, Format(v))
		}
	}

	got := mustNormalize(t, `{"RENAMED": 1, "Keep": 2, "drop_and_add": null}`, declared.String())
	want := Struct(F("renamed", Int64(1)), F("keep", Int64(2)), F("drop_and_add", Null()))
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", Format(got), Format(want))
	}
}

func TestNormalize_NestedGoValues(t *testing.T) {
	got := mustNormalize(t, []any{[]any{int64(1), int64(2)}, nil}, "array<array<bigint>>")
	want := Array(Array(Int64(1), Int64(2)), Null())
	if !Equal(got, want) {
		t.Errorf("got %s, want %s", Format(got), Format(want))
	}

	m := mustNormalize(t, map[any]any{int64(2): "b", int64(1): "a"}, "map<integer,string>")
	if v, ok := m.Lookup(Int32(2)); !ok || v.Str() != "b" {
		t.Errorf("Lookup(2) = %s", Format(v))
	}
}

func TestEqual_FloatsByCanonicalText(t *testing.T) {
	if !Equal(Float32(10000000.123), Float32(float32(10000000.123))) {
		t.Error("same float32 should be equal")
	}
	if Equal(Float64(0.1+0.2), Float64(0.3)) {
		t.Error("no epsilon tolerance for doubles")
	}
	if Equal(Float32(1), Float64(1)) {
		t.Error("float widths should not compare equal")
	}
	if !Equal(Float64(math.NaN()), Float64(math.NaN())) {
		t.Error("NaN renders identically and should compare equal")
	}
}

func TestEqual_DecimalRequiresSameScale(t *testing.T) {
	a := MustDecimal("1.50", 8, 2)
	b := MustDecimal("1.5", 8, 1)
	if Equal(a, b) {
		t.Error("decimals with different scale should differ")
	}
	if Equal(MustDecimal("1.5", 8, 1), MustDecimal("1.5", 9, 1)) {
		t.Error("decimals with different precision should differ")
	}
}

func TestEqual_MapsIgnoreEntryOrder(t *testing.T) {
	a := MustMap(Entry(String("a"), Int32(1)), Entry(String("b"), Int32(2)))
	b := MustMap(Entry(String("b"), Int32(2)), Entry(String("a"), Int32(1)))
	c := MustMap(Entry(String("a"), Int32(1)))
	if !Equal(a, b) || Key(a) != Key(b) {
		t.Error("maps with the same entries should be equal")
	}
	if Equal(a, c) {
		t.Error("maps with different key sets should differ")
	}
	if _, err := Map(Entry(String("a"), Int32(1)), Entry(String("a"), Int32(2))); err == nil {
		t.Error("duplicate keys should be rejected")
	}
}

func TestEqual_NestedLengthMismatch(t *testing.T) {
	if Equal(Array(Int32(1)), Array(Int32(1), Int32(2))) {
		t.Error("arrays of different length should differ")
	}
	if Equal(Struct(F("a", Null())), Struct(F("b", Null()))) {
		t.Error("structs with different field names should differ")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "NULL"},
		{String("it's"), `"it's"`},
		{MustDecimal("123456.78", 8, 2), "123456.78"},
		{TimestampOf(2020, time.June, 28, 14, 16, 0, 456000), "2020-06-28 14:16:00.456"},
		{TimestampTZInstant(0), "1970-01-01 00:00:00 UTC"},
		{DateOf(1950, time.June, 28), "1950-06-28"},
		{Array(Int32(1), Int32(2)), "[1, 2]"},
	}
	for _, tt := range tests {
		if got := Format(tt.v); got != tt.want {
			t.Errorf("Format = %q, want %q", got, tt.want)
		}
	}
}
