package dialect

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/literal"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

const (
	timestampLayout = "2006-01-02 15:04:05.000000"
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.000000"
)

// kinds maps logical types to the value kind a literal of that type holds.
var kinds = map[types.TypeID]value.Kind{
	types.TypeString:      value.KindString,
	types.TypeBigint:      value.KindInt64,
	types.TypeInteger:     value.KindInt32,
	types.TypeReal:        value.KindFloat32,
	types.TypeDouble:      value.KindFloat64,
	types.TypeDecimal:     value.KindDecimal,
	types.TypeBoolean:     value.KindBoolean,
	types.TypeTimestamp:   value.KindTimestamp,
	types.TypeTimestampTZ: value.KindTimestamp,
	types.TypeDate:        value.KindDate,
	types.TypeTime:        value.KindTime,
	types.TypeArray:       value.KindArray,
	types.TypeMap:         value.KindMap,
	types.TypeStruct:      value.KindStruct,
}

func ident(a Adapter, name string) string {
	return a.Grammar().QuoteIdentifier(name)
}

func qualify(a Adapter, ref types.TableRef) string {
	parts := []string{ident(a, a.Catalog())}
	if ref.Schema != "" {
		parts = append(parts, ident(a, ref.Schema))
	}
	return strings.Join(append(parts, ident(a, ref.Name)), ".")
}

func pathExpr(a Adapter, path types.ColumnPath) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = ident(a, p)
	}
	return strings.Join(parts, ".")
}

// renderLiteral renders v as a literal of logical type t.
func renderLiteral(a syntax, v value.Value, t types.LogicalType) (string, error) {
	if v.IsNull() {
		return "NULL", nil
	}
	if want := kinds[t.ID]; v.Kind() != want {
		return "", invalidf("value %s is a %s, column type %s needs a %s", value.Format(v), v.Kind(), t, want)
	}

	switch t.ID {
	case types.TypeString:
		return literal.EscapeStringLiteral(a.Grammar(), v.Str())
	case types.TypeBigint, types.TypeInteger:
		return strconv.FormatInt(v.Int(), 10), nil
	case types.TypeReal:
		return a.floatLiteral(floatLiteralText(v.Float(), 32), 32), nil
	case types.TypeDouble:
		return a.floatLiteral(floatLiteralText(v.Float(), 64), 64), nil
	case types.TypeDecimal:
		p, s, _ := v.DecimalParts()
		if p != t.Precision || s != t.Scale {
			return "", invalidf("decimal(%d,%d) value for column type %s", p, s, t)
		}
		return a.decimalLiteral(value.DecimalText(v), p, s), nil
	case types.TypeBoolean:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case types.TypeTimestamp, types.TypeTimestampTZ:
		zoned := t.ID == types.TypeTimestampTZ
		if v.Zoned() != zoned {
			return "", invalidf("timestamp value %s for column type %s", value.Format(v), t)
		}
		return a.timestampLiteral(time.UnixMicro(v.EpochMicros()).UTC().Format(timestampLayout), zoned), nil
	case types.TypeDate:
		return "DATE '" + time.Unix(v.EpochDay()*86400, 0).UTC().Format(dateLayout) + "'", nil
	case types.TypeTime:
		return a.timeLiteral(time.UnixMicro(v.Int()).UTC().Format(timeLayout)), nil
	case types.TypeArray:
		elems := make([]string, len(v.Elems()))
		for i, e := range v.Elems() {
			lit, err := renderLiteral(a, e, *t.Elem)
			if err != nil {
				return "", err
			}
			elems[i] = lit
		}
		return a.arrayLiteral(elems), nil
	case types.TypeMap:
		entries := v.Entries()
		keys := make([]string, len(entries))
		vals := make([]string, len(entries))
		for i, e := range entries {
			k, err := renderLiteral(a, e.Key, *t.Key)
			if err != nil {
				return "", err
			}
			val, err := renderLiteral(a, e.Value, *t.Value)
			if err != nil {
				return "", err
			}
			keys[i], vals[i] = k, val
		}
		return a.mapLiteral(keys, vals), nil
	case types.TypeStruct:
		native, err := typemap.Native(a.Name(), t)
		if err != nil {
			return "", err
		}
		names := make([]string, len(t.Fields))
		vals := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fv, _ := v.Field(f.Name)
			lit, err := renderLiteral(a, fv, f.Type)
			if err != nil {
				return "", err
			}
			names[i], vals[i] = f.Name, lit
		}
		return a.structLiteral(native, names, vals), nil
	default:
		return "", invalidf("no literal syntax for %s", t)
	}
}

// floatLiteralText renders the shortest text that round-trips at the width,
// spelling non-finite values the way SQL casts accept them.
func floatLiteralText(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// columnDefs renders "name type, ..." for a CREATE TABLE column list.
func columnDefs(a Adapter, schema types.TableSchema) (string, error) {
	if len(schema.Columns) == 0 {
		return "", invalidf("at least one column is required")
	}
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		native, err := typemap.Native(a.Name(), c.Type)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.Name, err)
		}
		defs[i] = ident(a, c.Name) + " " + native
	}
	return strings.Join(defs, ", "), nil
}

func checkRow(schema types.TableSchema, row []value.Value) error {
	if len(row) != len(schema.Columns) {
		return invalidf("row has %d values, table has %d columns", len(row), len(schema.Columns))
	}
	return nil
}

// renderValues renders the VALUES rows of an insert.
func renderValues(a syntax, schema types.TableSchema, rows [][]value.Value) (string, error) {
	if len(rows) == 0 {
		return "", invalidf("insert without rows")
	}
	tuples := make([]string, len(rows))
	for i, row := range rows {
		if err := checkRow(schema, row); err != nil {
			return "", err
		}
		lits := make([]string, len(row))
		for j, v := range row {
			lit, err := renderLiteral(a, v, schema.Columns[j].Type)
			if err != nil {
				return "", fmt.Errorf("column %s: %w", schema.Columns[j].Name, err)
			}
			lits[j] = lit
		}
		tuples[i] = "(" + strings.Join(lits, ", ") + ")"
	}
	return strings.Join(tuples, ", "), nil
}

// renderSource renders the SELECT a CTAS creates its table from. Every
// literal is cast to the column's native type so that the created table has
// the declared schema. Without rows the source is a single typed NULL row.
func renderSource(a syntax, schema types.TableSchema, rows [][]value.Value) (string, error) {
	natives := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		native, err := typemap.Native(a.Name(), c.Type)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.Name, err)
		}
		natives[i] = native
	}

	if len(rows) == 0 {
		rows = [][]value.Value{make([]value.Value, len(schema.Columns))}
	}
	selects := make([]string, len(rows))
	for i, row := range rows {
		if err := checkRow(schema, row); err != nil {
			return "", err
		}
		cols := make([]string, len(row))
		for j, v := range row {
			lit, err := renderLiteral(a, v, schema.Columns[j].Type)
			if err != nil {
				return "", fmt.Errorf("column %s: %w", schema.Columns[j].Name, err)
			}
			cols[j] = fmt.Sprintf("CAST(%s AS %s) AS %s", lit, natives[j], ident(a, schema.Columns[j].Name))
		}
		selects[i] = "SELECT " + strings.Join(cols, ", ")
	}
	return strings.Join(selects, " UNION ALL "), nil
}

func renderInsert(a syntax, op Insert) (string, error) {
	if err := typemap.CheckSchema(a.Name(), op.Schema); err != nil {
		return "", err
	}
	rows, err := renderValues(a, op.Schema, op.Rows)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INSERT INTO %s VALUES %s", a.Qualify(op.Table), rows), nil
}

func renderProjection(a syntax, p Projection, schema types.TableSchema) (string, error) {
	if p.Count {
		expr := "count(*)"
		if p.Alias != "" {
			expr += " AS " + ident(a, p.Alias)
		}
		return expr, nil
	}

	expr := ident(a, p.Column)
	t := types.LogicalType{}
	if col, err := schema.Lookup(types.ColumnPath{p.Column}); err == nil {
		t = col.Type
	}
	for _, step := range p.Steps {
		switch step.Kind {
		case StepField:
			expr += "." + ident(a, step.Field)
			if t.ID == types.TypeStruct {
				if idx := types.IndexOf(t.Fields, step.Field); idx >= 0 {
					t = t.Fields[idx].Type
				}
			}
		case StepElement:
			idx, err := a.ElementIndex(step.Position)
			if err != nil {
				return "", err
			}
			expr += "[" + strconv.Itoa(idx) + "]"
			if t.ID == types.TypeArray {
				t = *t.Elem
			}
		case StepKey:
			if t.ID != types.TypeMap {
				return "", invalidf("projection %s: key access on %s", p.Column, t)
			}
			key, err := renderLiteral(a, step.Key, *t.Key)
			if err != nil {
				return "", err
			}
			expr += "[" + key + "]"
			t = *t.Value
		}
	}
	if p.Alias != "" {
		expr += " AS " + ident(a, p.Alias)
	}
	return expr, nil
}

func renderPredicate(a syntax, pred Predicate, schema types.TableSchema) (string, error) {
	expr := pathExpr(a, pred.Path)
	if pred.Value.IsNull() {
		return expr + " IS NULL", nil
	}
	col, err := schema.Lookup(pred.Path)
	if err != nil {
		return "", invalidf("predicate on %s: %v", pred.Path, err)
	}
	lit, err := renderLiteral(a, pred.Value, col.Type)
	if err != nil {
		return "", err
	}
	return expr + " = " + lit, nil
}

func renderSelect(a syntax, op Select) (string, error) {
	var cols []string
	switch {
	case len(op.Projections) > 0:
		for _, p := range op.Projections {
			expr, err := renderProjection(a, p, op.Schema)
			if err != nil {
				return "", err
			}
			cols = append(cols, expr)
		}
	case op.Metadata == MetadataNone && len(op.Schema.Columns) > 0:
		for _, c := range op.Schema.Columns {
			cols = append(cols, ident(a, c.Name))
		}
	default:
		cols = []string{"*"}
	}

	from := a.Qualify(op.Table)
	if op.Metadata != MetadataNone {
		from = a.metadataTable(op.Table, op.Metadata)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(from)

	if len(op.Where) > 0 {
		conds := make([]string, len(op.Where))
		for i, pred := range op.Where {
			cond, err := renderPredicate(a, pred, op.Schema)
			if err != nil {
				return "", err
			}
			conds[i] = cond
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if len(op.OrderBy) > 0 {
		keys := make([]string, len(op.OrderBy))
		for i, k := range op.OrderBy {
			keys[i] = ident(a, k)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(keys, ", "))
	}
	return b.String(), nil
}

func renderAlter(a syntax, op Alter) (string, error) {
	if len(op.Path) == 0 {
		return "", invalidf("alter without a column path")
	}
	if len(op.Path) > 1 && !typemap.SupportsNestedAlter(a.Name()) {
		return "", unsupportedNestedAlter(a.Name(), op)
	}

	prefix := "ALTER TABLE " + a.Qualify(op.Table) + " "
	switch op.Kind {
	case AlterRename:
		if op.NewName == "" {
			return "", invalidf("rename of %s without a new name", op.Path)
		}
		return prefix + "RENAME COLUMN " + pathExpr(a, op.Path) + " TO " + ident(a, op.NewName), nil
	case AlterDrop:
		return prefix + "DROP COLUMN " + pathExpr(a, op.Path), nil
	case AlterAdd:
		native, err := typemap.Native(a.Name(), op.Type)
		if err != nil {
			return "", err
		}
		return prefix + "ADD COLUMN " + pathExpr(a, op.Path) + " " + native, nil
	default:
		return "", invalidf("unknown alter kind %s", op.Kind)
	}
}

func unsupportedNestedAlter(engine typemap.Engine, op Alter) error {
	return oerrors.NewUnsupportedTypeMapping(string(engine), op.Kind.String()+" "+op.Path.String(),
		"nested field ALTER is not supported")
}

func renderDrop(a Adapter, op DropTable) string {
	if op.IfExists {
		return "DROP TABLE IF EXISTS " + a.Qualify(op.Table)
	}
	return "DROP TABLE " + a.Qualify(op.Table)
}

func renderShowTables(a syntax, op ShowTables) string {
	stmt := "SHOW TABLES FROM " + ident(a, a.Catalog())
	if op.Schema != "" {
		stmt += "." + ident(a, op.Schema)
	}
	if op.Like != "" {
		stmt += " LIKE " + a.Grammar().Quote(a.likePattern(op.Like))
	}
	return stmt
}

// sortedProperties returns the property keys in order.
func sortedProperties(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
