package evolution

import (
	"fmt"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Tracker threads schema snapshots forward through a sequence of alter
// operations and keeps the lifecycle of every field id. It is not safe for
// concurrent use; a scenario owns its tracker.
type Tracker struct {
	snapshots  []types.TableSchema
	lifecycles map[int]*Lifecycle
	dropped    map[string]bool
}

// NewTracker starts tracking from the initial snapshot. Every column and
// nested field starts active.
func NewTracker(initial types.TableSchema) *Tracker {
	t := &Tracker{
		snapshots:  []types.TableSchema{initial},
		lifecycles: make(map[int]*Lifecycle),
		dropped:    make(map[string]bool),
	}
	t.register(initial.Columns, StateActive)
	return t
}

func (t *Tracker) register(columns []types.Column, state string) {
	for _, c := range columns {
		t.lifecycles[c.FieldID] = newLifecycle(c.FieldID, c.Name, state)
		if c.Type.ID == types.TypeStruct {
			// Fields of an added struct are new, but not re-added themselves
			t.register(c.Type.Fields, StateActive)
		}
	}
}

// Current returns the latest snapshot.
func (t *Tracker) Current() types.TableSchema {
	return t.snapshots[len(t.snapshots)-1]
}

// Initial returns the snapshot tracking started from.
func (t *Tracker) Initial() types.TableSchema {
	return t.snapshots[0]
}

// Snapshots returns every snapshot, oldest first.
func (t *Tracker) Snapshots() []types.TableSchema {
	return append([]types.TableSchema(nil), t.snapshots...)
}

// Lifecycle returns the lifecycle of a field id.
func (t *Tracker) Lifecycle(fieldID int) (*Lifecycle, bool) {
	l, ok := t.lifecycles[fieldID]
	return l, ok
}

// StateOf returns the lifecycle state of the column currently at path.
func (t *Tracker) StateOf(path types.ColumnPath) (string, error) {
	col, err := t.Current().Lookup(path)
	if err != nil {
		return "", err
	}
	return t.lifecycles[col.FieldID].State(), nil
}

// Rename renames the column at path.
func (t *Tracker) Rename(path types.ColumnPath, newName string) (types.TableSchema, error) {
	col, err := t.Current().Lookup(path)
	if err != nil {
		return types.TableSchema{}, err
	}
	next, err := Rename(t.Current(), path, newName)
	if err != nil {
		return types.TableSchema{}, err
	}
	if err := t.lifecycles[col.FieldID].fire(EventRename, newName); err != nil {
		return types.TableSchema{}, err
	}
	return t.push(next), nil
}

// Drop drops the column at path together with its nested fields.
func (t *Tracker) Drop(path types.ColumnPath) (types.TableSchema, error) {
	col, err := t.Current().Lookup(path)
	if err != nil {
		return types.TableSchema{}, err
	}
	next, err := Drop(t.Current(), path)
	if err != nil {
		return types.TableSchema{}, err
	}
	if err := t.dropAll(col); err != nil {
		return types.TableSchema{}, err
	}
	t.dropped[path.String()] = true
	return t.push(next), nil
}

func (t *Tracker) dropAll(col types.Column) error {
	if err := t.lifecycles[col.FieldID].fire(EventDrop); err != nil {
		return err
	}
	if col.Type.ID == types.TypeStruct {
		for _, f := range col.Type.Fields {
			if err := t.dropAll(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Add adds a column at path. A column added under a previously dropped path
// starts in the readded state.
func (t *Tracker) Add(path types.ColumnPath, typ types.LogicalType) (types.TableSchema, error) {
	next, err := Add(t.Current(), path, typ)
	if err != nil {
		return types.TableSchema{}, err
	}
	col, err := next.Lookup(path)
	if err != nil {
		return types.TableSchema{}, err
	}

	state := StateActive
	if t.dropped[path.String()] {
		state = StateReadded
	}
	t.lifecycles[col.FieldID] = newLifecycle(col.FieldID, col.Name, state)
	if col.Type.ID == types.TypeStruct {
		t.register(col.Type.Fields, StateActive)
	}
	return t.push(next), nil
}

// Apply advances the tracker by a dialect alter operation.
func (t *Tracker) Apply(op dialect.Alter) (types.TableSchema, error) {
	switch op.Kind {
	case dialect.AlterRename:
		return t.Rename(op.Path, op.NewName)
	case dialect.AlterDrop:
		return t.Drop(op.Path)
	case dialect.AlterAdd:
		return t.Add(op.Path, op.Type)
	default:
		return types.TableSchema{}, fmt.Errorf("unknown alter kind %s", op.Kind)
	}
}

func (t *Tracker) push(next types.TableSchema) types.TableSchema {
	t.snapshots = append(t.snapshots, next)
	return next
}
