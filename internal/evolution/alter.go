package evolution

import (
	"fmt"

	"github.com/arkilian/enginecompat/pkg/types"
)

// Rename returns a snapshot in which the column or nested field at path is
// called newName. The field id is kept.
func Rename(schema types.TableSchema, path types.ColumnPath, newName string) (types.TableSchema, error) {
	if newName == "" {
		return types.TableSchema{}, fmt.Errorf("rename %s: new name is empty", path)
	}
	return schema.WithFields(path.Parent(), func(fields []types.Column) ([]types.Column, error) {
		idx := types.IndexOf(fields, path.Leaf())
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", types.ErrColumnNotFound, path)
		}
		if newName != path.Leaf() && types.IndexOf(fields, newName) >= 0 {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateColumn, newName)
		}
		fields[idx].Name = newName
		return fields, nil
	})
}

// Drop returns a snapshot without the column or nested field at path. The
// field id is never reused.
func Drop(schema types.TableSchema, path types.ColumnPath) (types.TableSchema, error) {
	return schema.WithFields(path.Parent(), func(fields []types.Column) ([]types.Column, error) {
		idx := types.IndexOf(fields, path.Leaf())
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", types.ErrColumnNotFound, path)
		}
		if len(fields) == 1 {
			return nil, fmt.Errorf("drop %s: cannot drop the only remaining field", path)
		}
		out := make([]types.Column, 0, len(fields)-1)
		out = append(out, fields[:idx]...)
		return append(out, fields[idx+1:]...), nil
	})
}

// Add returns a snapshot with a new column or nested field appended at path.
// The column and its nested fields get fresh field ids.
func Add(schema types.TableSchema, path types.ColumnPath, t types.LogicalType) (types.TableSchema, error) {
	if len(path) == 0 || path.Leaf() == "" {
		return types.TableSchema{}, fmt.Errorf("add: empty column path")
	}
	if parent := path.Parent(); len(parent) > 0 {
		if _, err := schema.Lookup(parent); err != nil {
			return types.TableSchema{}, err
		}
	}

	col, next := schema.AssignNewIDs(types.Col(path.Leaf(), t))
	return next.WithFields(path.Parent(), func(fields []types.Column) ([]types.Column, error) {
		if types.IndexOf(fields, col.Name) >= 0 {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateColumn, path)
		}
		return append(fields, col), nil
	})
}
