package value

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Row is an ordered sequence of named cells in table schema order.
type Row []Field

// NewRow builds a row from parallel name and value slices.
func NewRow(names []string, values []Value) Row {
	row := make(Row, len(values))
	for i, v := range values {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		row[i] = Field{Name: name, Value: v}
	}
	return row
}

// Values returns the row's values in order.
func (r Row) Values() []Value {
	out := make([]Value, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

// Get returns the value of the named cell.
func (r Row) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Key returns the canonical text of the row's values. Cell names are not part
// of the key: engines label the same projection differently.
func (r Row) Key() string {
	var b strings.Builder
	for i, f := range r {
		if i > 0 {
			b.WriteByte('|')
		}
		writeKey(&b, f.Value)
	}
	return b.String()
}

// String renders the row for diagnostics.
func (r Row) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = Format(f.Value)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RowsEqual reports whether two rows hold equal values position by position.
func RowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// hashRow computes a murmur3 128-bit hash of the row key and folds it to 64 bits.
func hashRow(r Row) uint64 {
	h := murmur3.New128()
	h.Write([]byte(r.Key()))
	h1, h2 := h.Sum128()
	return h1 ^ h2
}

// Diff describes how an actual row set differs from an expected one.
type Diff struct {
	// Missing are expected rows that were not returned
	Missing []Row

	// Unexpected are returned rows that were not expected
	Unexpected []Row

	// Position is the first differing 1-based row position of an ordered
	// comparison, 0 otherwise
	Position int
}

// Empty reports whether the row sets matched.
func (d Diff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Unexpected) == 0 && d.Position == 0
}

func (d Diff) String() string {
	if d.Empty() {
		return "rows match"
	}
	var parts []string
	if d.Position > 0 {
		parts = append(parts, fmt.Sprintf("first difference at row %d", d.Position))
	}
	if len(d.Missing) > 0 {
		parts = append(parts, "missing "+joinRows(d.Missing))
	}
	if len(d.Unexpected) > 0 {
		parts = append(parts, "unexpected "+joinRows(d.Unexpected))
	}
	return strings.Join(parts, "; ")
}

func joinRows(rows []Row) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// CompareRows compares two row sets. Unordered comparison treats them as
// multisets: duplicates must occur the same number of times.
func CompareRows(expected, actual []Row, ordered bool) Diff {
	if ordered {
		return compareOrdered(expected, actual)
	}

	// Bucket expected rows by hash; collisions are resolved by key
	type bucketEntry struct {
		key   string
		rows  []Row
		count int
	}
	buckets := make(map[uint64][]*bucketEntry, len(expected))
	for _, r := range expected {
		h, k := hashRow(r), r.Key()
		var entry *bucketEntry
		for _, e := range buckets[h] {
			if e.key == k {
				entry = e
				break
			}
		}
		if entry == nil {
			entry = &bucketEntry{key: k}
			buckets[h] = append(buckets[h], entry)
		}
		entry.rows = append(entry.rows, r)
		entry.count++
	}

	var diff Diff
	for _, r := range actual {
		h, k := hashRow(r), r.Key()
		matched := false
		for _, e := range buckets[h] {
			if e.key == k && e.count > 0 {
				e.count--
				matched = true
				break
			}
		}
		if !matched {
			diff.Unexpected = append(diff.Unexpected, r)
		}
	}
	for _, r := range expected {
		h, k := hashRow(r), r.Key()
		for _, e := range buckets[h] {
			if e.key == k && e.count > 0 {
				e.count--
				diff.Missing = append(diff.Missing, r)
				break
			}
		}
	}
	return diff
}

func compareOrdered(expected, actual []Row) Diff {
	var diff Diff
	n := len(expected)
	if len(actual) < n {
		n = len(actual)
	}
	for i := 0; i < n; i++ {
		if !RowsEqual(expected[i], actual[i]) {
			diff.Position = i + 1
			diff.Missing = append(diff.Missing, expected[i])
			diff.Unexpected = append(diff.Unexpected, actual[i])
			return diff
		}
	}
	if len(expected) > n {
		diff.Position = n + 1
		diff.Missing = append(diff.Missing, expected[n:]...)
	}
	if len(actual) > n {
		diff.Position = n + 1
		diff.Unexpected = append(diff.Unexpected, actual[n:]...)
	}
	return diff
}

// EqualRows reports whether two row sets match.
func EqualRows(a, b []Row, ordered bool) bool {
	return CompareRows(a, b, ordered).Empty()
}

// Keys returns the diagnostic rendering of each row.
func Keys(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String()
	}
	return out
}
