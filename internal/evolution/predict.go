package evolution

import (
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// PredictPostEvolutionValue returns the value a reader sees in readCol for a
// value historically written in writeCol: the historical value when the
// policy considers them the same identity, NULL otherwise. Struct values are
// projected field by field under the same rule.
func PredictPostEvolutionValue(historical value.Value, writeCol, readCol types.Column, policy Policy) value.Value {
	if !policy.Same(writeCol, readCol) {
		return value.Null()
	}
	return project(historical, writeCol.Type, readCol.Type, policy)
}

func project(v value.Value, written, read types.LogicalType, policy Policy) value.Value {
	if v.IsNull() || written.ID != types.TypeStruct || read.ID != types.TypeStruct {
		return v
	}
	fields := make([]value.Field, len(read.Fields))
	for i, rf := range read.Fields {
		out := value.Null()
		for _, wf := range written.Fields {
			if policy.Same(wf, rf) {
				hv, _ := v.Field(wf.Name)
				out = project(hv, wf.Type, rf.Type, policy)
				break
			}
		}
		fields[i] = value.F(rf.Name, out)
	}
	return value.Struct(fields...)
}

// PredictRow predicts how a row written under writeSchema reads under
// readSchema. The row holds one value per written column in schema order;
// the result holds one value per read column.
func PredictRow(writeSchema, readSchema types.TableSchema, row value.Row, policy Policy) value.Row {
	names := readSchema.Names()
	vals := make([]value.Value, len(readSchema.Columns))
	for i, rc := range readSchema.Columns {
		vals[i] = value.Null()
		for j, wc := range writeSchema.Columns {
			if j < len(row) && policy.Same(wc, rc) {
				vals[i] = PredictPostEvolutionValue(row[j].Value, wc, rc, policy)
				break
			}
		}
	}
	return value.NewRow(names, vals)
}

// PredictRows applies PredictRow to every row.
func PredictRows(writeSchema, readSchema types.TableSchema, rows []value.Row, policy Policy) []value.Row {
	out := make([]value.Row, len(rows))
	for i, r := range rows {
		out[i] = PredictRow(writeSchema, readSchema, r, policy)
	}
	return out
}
