package value

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Equal compares two values. It is structural except that zoned timestamps
// compare by instant regardless of the offset they were rendered in, and
// floats compare by the shortest text that round-trips at their width, with
// no tolerance. Maps compare by key set regardless of entry order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindInt64, KindInt32, KindDate, KindTime:
		return a.i == b.i
	case KindFloat32:
		return floatText(a.f, 32) == floatText(b.f, 32)
	case KindFloat64:
		return floatText(a.f, 64) == floatText(b.f, 64)
	case KindDecimal:
		_, _, ua := a.DecimalParts()
		_, _, ub := b.DecimalParts()
		return a.precision == b.precision && a.scale == b.scale && ua.Cmp(ub) == 0
	case KindBoolean:
		return a.b == b.b
	case KindTimestamp:
		return a.zoned == b.zoned && a.i == b.i
	case KindArray:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for _, e := range a.entries {
			other, ok := b.Lookup(e.Key)
			if !ok || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if a.fields[i].Name != b.fields[i].Name || !Equal(a.fields[i].Value, b.fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func floatText(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// Key returns a canonical text for v such that Key(a) == Key(b) iff Equal(a, b).
func Key(v Value) string {
	var b strings.Builder
	writeKey(&b, v)
	return b.String()
}

func writeKey(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindString:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(v.str))
	case KindInt64:
		b.WriteString("i64:")
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindInt32:
		b.WriteString("i32:")
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat32:
		b.WriteString("f32:")
		b.WriteString(floatText(v.f, 32))
	case KindFloat64:
		b.WriteString("f64:")
		b.WriteString(floatText(v.f, 64))
	case KindDecimal:
		_, _, u := v.DecimalParts()
		b.WriteString("dec(")
		b.WriteString(strconv.Itoa(v.precision))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(v.scale))
		b.WriteString("):")
		b.WriteString(u.String())
	case KindBoolean:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(v.b))
	case KindTimestamp:
		if v.zoned {
			b.WriteString("tstz:")
		} else {
			b.WriteString("ts:")
		}
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindDate:
		b.WriteString("d:")
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindTime:
		b.WriteString("t:")
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				b.WriteByte(',')
			}
			writeKey(b, e)
		}
		b.WriteByte(']')
	case KindMap:
		keys := make([]string, len(v.entries))
		for i, e := range v.entries {
			keys[i] = Key(e.Key) + "=" + Key(e.Value)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		b.WriteString(strings.Join(keys, ","))
		b.WriteByte('}')
	case KindStruct:
		b.WriteByte('(')
		for i, f := range v.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(f.Name))
			b.WriteByte('=')
			writeKey(b, f.Value)
		}
		b.WriteByte(')')
	}
}

// Format renders v for diagnostics.
func Format(v Value) string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindString:
		return strconv.Quote(v.str)
	case KindInt64, KindInt32:
		return strconv.FormatInt(v.i, 10)
	case KindFloat32:
		return floatText(v.f, 32) + "f"
	case KindFloat64:
		return floatText(v.f, 64)
	case KindDecimal:
		return DecimalText(v)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindTimestamp:
		t := v.Time()
		text := t.Format("2006-01-02 15:04:05.999999")
		if !v.zoned {
			return text
		}
		if !v.hasOffset || v.offset == 0 {
			return text + " UTC"
		}
		return text + " " + t.Format("-07:00")
	case KindDate:
		return time.Unix(v.i*86400, 0).UTC().Format("2006-01-02")
	case KindTime:
		return time.UnixMicro(v.i).UTC().Format("15:04:05.999999")
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = Format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.entries))
		for i, e := range v.entries {
			parts[i] = Format(e.Key) + ": " + Format(e.Value)
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case KindStruct:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + "=" + Format(f.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "?"
	}
}
