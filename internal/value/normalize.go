package value

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // region names in zoned renderings

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Normalize converts a raw result cell into a Value of the declared type. Raw
// cells are what a database/sql driver or a text transport hands back: nil,
// strings, byte slices, Go numbers, bools, time.Time, nested Go slices and
// maps, or JSON text for nested values.
func Normalize(raw any, declared types.LogicalType) (Value, error) {
	v, err := normalize(raw, declared)
	if err != nil {
		return Value{}, oerrors.NewValueError(fmt.Sprintf("cannot normalize %v (%T) as %s", raw, raw, declared), err)
	}
	return v, nil
}

func normalize(raw any, t types.LogicalType) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}

	switch t.ID {
	case types.TypeString:
		return normalizeString(raw)
	case types.TypeBigint:
		i, err := toInt64(raw)
		if err != nil {
			return Value{}, err
		}
		return Int64(i), nil
	case types.TypeInteger:
		i, err := toInt64(raw)
		if err != nil {
			return Value{}, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return Value{}, fmt.Errorf("%d overflows integer", i)
		}
		return Int32(int32(i)), nil
	case types.TypeReal:
		f, err := toFloat(raw, 32)
		if err != nil {
			return Value{}, err
		}
		return Float32(float32(f)), nil
	case types.TypeDouble:
		f, err := toFloat(raw, 64)
		if err != nil {
			return Value{}, err
		}
		return Float64(f), nil
	case types.TypeDecimal:
		return normalizeDecimal(raw, t.Precision, t.Scale)
	case types.TypeBoolean:
		return normalizeBoolean(raw)
	case types.TypeTimestamp:
		return normalizeTimestamp(raw)
	case types.TypeTimestampTZ:
		return normalizeTimestampTZ(raw)
	case types.TypeDate:
		return normalizeDate(raw)
	case types.TypeTime:
		return normalizeTime(raw)
	case types.TypeArray:
		return normalizeArray(raw, t)
	case types.TypeMap:
		return normalizeMap(raw, t)
	case types.TypeStruct:
		return normalizeStruct(raw, t)
	default:
		return Value{}, fmt.Errorf("unknown declared type %s", t)
	}
}

func normalizeString(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case json.Number:
		return String(x.String()), nil
	default:
		return Value{}, fmt.Errorf("expected text")
	}
}

func toInt64(raw any) (int64, error) {
	switch x := raw.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return 0, fmt.Errorf("%v is not an exact integer", x)
		}
		return int64(x), nil
	case json.Number:
		return strconv.ParseInt(x.String(), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	default:
		return 0, fmt.Errorf("expected integer")
	}
}

func toFloat(raw any, bits int) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case json.Number:
		return strconv.ParseFloat(x.String(), bits)
	case string:
		return parseFloatText(strings.TrimSpace(x), bits)
	default:
		return 0, fmt.Errorf("expected floating point")
	}
}

// parseFloatText accepts the special value spellings engines use.
func parseFloatText(s string, bits int) (float64, error) {
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN(), nil
	case "infinity", "inf", "+infinity":
		return math.Inf(1), nil
	case "-infinity", "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, bits)
}

func normalizeDecimal(raw any, precision, scale int) (Value, error) {
	switch x := raw.(type) {
	case string:
		return DecimalFromString(x, precision, scale)
	case json.Number:
		return DecimalFromString(x.String(), precision, scale)
	case decimal.Decimal:
		return DecimalFrom(x, precision, scale)
	case float64:
		return DecimalFrom(decimal.NewFromFloat(x), precision, scale)
	case float32:
		return DecimalFrom(decimal.NewFromFloat32(x), precision, scale)
	case int64:
		return DecimalFrom(decimal.NewFromInt(x), precision, scale)
	case int:
		return DecimalFrom(decimal.NewFromInt(int64(x)), precision, scale)
	case int32:
		return DecimalFrom(decimal.NewFromInt(int64(x)), precision, scale)
	case fmt.Stringer:
		return DecimalFromString(x.String(), precision, scale)
	default:
		return Value{}, fmt.Errorf("expected decimal")
	}
}

func normalizeBoolean(raw any) (Value, error) {
	switch x := raw.(type) {
	case bool:
		return Boolean(x), nil
	case int64:
		if x == 0 || x == 1 {
			return Boolean(x == 1), nil
		}
	case int:
		if x == 0 || x == 1 {
			return Boolean(x == 1), nil
		}
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return Value{}, err
		}
		return Boolean(b), nil
	}
	return Value{}, fmt.Errorf("expected boolean")
}

var wallClockLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseWallClock(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// normalizeTimestamp reads the wall-clock fields of the cell as UTC. A zone
// attached by the driver is ignored: the column has no zone.
func normalizeTimestamp(raw any) (Value, error) {
	switch x := raw.(type) {
	case time.Time:
		return Timestamp(wallClockUTC(x).UnixMicro()), nil
	case string:
		t, err := parseWallClock(strings.TrimSpace(x), time.UTC)
		if err != nil {
			return Value{}, err
		}
		return Timestamp(t.UnixMicro()), nil
	default:
		return Value{}, fmt.Errorf("expected timestamp")
	}
}

func wallClockUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// normalizeTimestampTZ accepts a time.Time or a rendering with a trailing zone:
// "UTC", "Z", a numeric offset or a region name. A rendering without any zone
// is taken as UTC, which is how the session zone of the engines is set.
func normalizeTimestampTZ(raw any) (Value, error) {
	switch x := raw.(type) {
	case time.Time:
		return TimestampTZ(x), nil
	case string:
		return parseZoned(strings.TrimSpace(x))
	default:
		return Value{}, fmt.Errorf("expected timestamp with time zone")
	}
}

func parseZoned(s string) (Value, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return TimestampTZ(t), nil
	}

	body, zone := s, ""
	if i := strings.LastIndexByte(s, ' '); i > 0 && looksLikeZone(s[i+1:]) {
		body, zone = s[:i], s[i+1:]
	} else if i := strings.LastIndexAny(s, "+-"); i > len("2006-01-02") {
		// "2020-06-28 14:16:00.456+02:00"
		body, zone = s[:i], s[i:]
	}

	if zone == "" {
		t, err := parseWallClock(body, time.UTC)
		if err != nil {
			return Value{}, err
		}
		return TimestampTZInstant(t.UnixMicro()), nil
	}

	loc, err := zoneLocation(zone)
	if err != nil {
		return Value{}, err
	}
	t, err := parseWallClock(body, loc)
	if err != nil {
		return Value{}, err
	}
	return TimestampTZ(t), nil
}

func looksLikeZone(s string) bool {
	if s == "" {
		return false
	}
	if s == "UTC" || s == "Z" || s == "GMT" || strings.Contains(s, "/") {
		return true
	}
	return s[0] == '+' || s[0] == '-'
}

func zoneLocation(zone string) (*time.Location, error) {
	switch zone {
	case "UTC", "Z", "GMT":
		return time.UTC, nil
	}
	if zone[0] == '+' || zone[0] == '-' {
		digits := strings.ReplaceAll(zone[1:], ":", "")
		if len(digits) == 2 {
			digits += "00"
		}
		if len(digits) != 4 {
			return nil, fmt.Errorf("invalid zone offset %q", zone)
		}
		h, err1 := strconv.Atoi(digits[:2])
		m, err2 := strconv.Atoi(digits[2:])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid zone offset %q", zone)
		}
		secs := h*3600 + m*60
		if zone[0] == '-' {
			secs = -secs
		}
		return time.FixedZone(zone, secs), nil
	}
	return time.LoadLocation(zone)
}

func normalizeDate(raw any) (Value, error) {
	switch x := raw.(type) {
	case time.Time:
		return Date(epochDay(x)), nil
	case int64:
		return Date(x), nil
	case string:
		s := strings.TrimSpace(x)
		if len(s) > len("2006-01-02") {
			s = s[:len("2006-01-02")]
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Value{}, err
		}
		return Date(epochDay(t)), nil
	default:
		return Value{}, fmt.Errorf("expected date")
	}
}

func normalizeTime(raw any) (Value, error) {
	switch x := raw.(type) {
	case time.Time:
		midnight := time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, x.Location())
		return Time(x.Sub(midnight).Microseconds()), nil
	case string:
		t, err := time.Parse("15:04:05", strings.TrimSpace(x))
		if err != nil {
			return Value{}, err
		}
		return Time(t.Sub(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)).Microseconds()), nil
	default:
		return Value{}, fmt.Errorf("expected time")
	}
}

// decodeJSON decodes nested JSON text, keeping numbers exact.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid nested value %q: %w", s, err)
	}
	return out, nil
}

func normalizeArray(raw any, t types.LogicalType) (Value, error) {
	if s, ok := raw.(string); ok {
		decoded, err := decodeJSON(s)
		if err != nil {
			return Value{}, err
		}
		raw = decoded
	}
	items, ok := raw.([]any)
	if !ok {
		return Value{}, fmt.Errorf("expected array")
	}
	elems := make([]Value, len(items))
	for i, item := range items {
		v, err := normalize(item, *t.Elem)
		if err != nil {
			return Value{}, fmt.Errorf("element %d: %w", i+1, err)
		}
		elems[i] = v
	}
	return Value{kind: KindArray, elems: elems}, nil
}

func normalizeMap(raw any, t types.LogicalType) (Value, error) {
	if s, ok := raw.(string); ok {
		decoded, err := decodeJSON(s)
		if err != nil {
			return Value{}, err
		}
		raw = decoded
	}

	var entries []MapEntry
	add := func(k, v any) error {
		key, err := normalize(k, *t.Key)
		if err != nil {
			return fmt.Errorf("map key: %w", err)
		}
		if key.IsNull() {
			return fmt.Errorf("map key is null")
		}
		val, err := normalize(v, *t.Value)
		if err != nil {
			return fmt.Errorf("map value for %s: %w", Format(key), err)
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
		return nil
	}

	switch x := raw.(type) {
	case map[string]any:
		for k, v := range x {
			if err := add(k, v); err != nil {
				return Value{}, err
			}
		}
	case map[any]any:
		for k, v := range x {
			if err := add(k, v); err != nil {
				return Value{}, err
			}
		}
	case []MapEntry:
		return Map(x...)
	default:
		return Value{}, fmt.Errorf("expected map")
	}
	return Map(entries...)
}

// structField looks a field up by name. Trino lower-cases row field names, so
// an exact miss falls back to a case-insensitive match.
func structField(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func normalizeStruct(raw any, t types.LogicalType) (Value, error) {
	if s, ok := raw.(string); ok {
		decoded, err := decodeJSON(s)
		if err != nil {
			return Value{}, err
		}
		raw = decoded
	}

	fields := make([]Field, len(t.Fields))
	switch x := raw.(type) {
	case map[string]any:
		if len(x) != len(t.Fields) {
			return Value{}, fmt.Errorf("struct has %d fields, got %d", len(t.Fields), len(x))
		}
		for i, f := range t.Fields {
			cell, ok := structField(x, f.Name)
			if !ok {
				return Value{}, fmt.Errorf("struct field %s is missing", f.Name)
			}
			v, err := normalize(cell, f.Type)
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fields[i] = Field{Name: f.Name, Value: v}
		}
	case []any:
		if len(x) != len(t.Fields) {
			return Value{}, fmt.Errorf("struct has %d fields, got %d", len(t.Fields), len(x))
		}
		for i, f := range t.Fields {
			v, err := normalize(x[i], f.Type)
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			fields[i] = Field{Name: f.Name, Value: v}
		}
	default:
		return Value{}, fmt.Errorf("expected struct")
	}
	return Value{kind: KindStruct, fields: fields}, nil
}
