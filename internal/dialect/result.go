package dialect

import (
	"fmt"
	"strings"

	"github.com/arkilian/enginecompat/internal/endpoint"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// parseResultSet maps each requested column to a raw column by name, then
// by position, and normalizes the cells.
func parseResultSet(engine typemap.Engine, rs *endpoint.ResultSet, columns []ResultColumn) ([]value.Row, error) {
	if rs == nil {
		return nil, nil
	}
	if len(columns) == 0 {
		declared, err := declaredColumns(engine, rs)
		if err != nil {
			return nil, err
		}
		columns = declared
	}

	positions, err := resolvePositions(rs, columns)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	rows := make([]value.Row, 0, len(rs.Rows))
	for r, raw := range rs.Rows {
		vals := make([]value.Value, len(columns))
		for i, c := range columns {
			pos := positions[i]
			if pos >= len(raw) {
				return nil, oerrors.NewValueError(fmt.Sprintf("row %d has %d cells, column %s is at %d", r+1, len(raw), c.Name, pos+1), nil)
			}
			v, err := value.Normalize(raw[pos], c.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r+1, c.Name, err)
			}
			vals[i] = v
		}
		rows = append(rows, value.NewRow(names, vals))
	}
	return rows, nil
}

// resolvePositions binds each requested column to its own raw column. The
// k-th requested column of a name takes the k-th raw column of that name, so
// unaliased projections that share a label (s.x next to x) stay apart.
func resolvePositions(rs *endpoint.ResultSet, columns []ResultColumn) ([]int, error) {
	byName := make(map[string][]int, len(rs.Columns))
	for i, c := range rs.Columns {
		key := strings.ToLower(c.Name)
		byName[key] = append(byName[key], i)
	}

	seen := make(map[string]int, len(columns))
	positions := make([]int, len(columns))
	for i, c := range columns {
		key := strings.ToLower(c.Name)
		k := seen[key]
		seen[key]++
		if candidates := byName[key]; k < len(candidates) {
			positions[i] = candidates[k]
			continue
		}
		if len(rs.Columns) > 0 && i >= len(rs.Columns) {
			return nil, oerrors.NewValueError(fmt.Sprintf("result has no column %s", c.Name), nil)
		}
		positions[i] = i
	}
	return positions, nil
}

func declaredColumns(engine typemap.Engine, rs *endpoint.ResultSet) ([]ResultColumn, error) {
	out := make([]ResultColumn, len(rs.Columns))
	for i, c := range rs.Columns {
		if c.DeclaredType == "" {
			return nil, oerrors.NewValueError(fmt.Sprintf("column %s has no declared type", c.Name), nil)
		}
		t, err := typemap.Logical(engine, c.DeclaredType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		out[i] = ResultColumn{Name: c.Name, Type: t}
	}
	return out, nil
}

func parseTableNames(rs *endpoint.ResultSet, column string) ([]string, error) {
	if rs == nil {
		return nil, nil
	}
	rows, err := parseResultSet("", rs, []ResultColumn{{Name: column, Type: types.StringType}})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r[0].Value.Str()
	}
	return names, nil
}
