// Package evolution models table schema evolution: alter operations that
// return new immutable snapshots, the lifecycle of every column identity,
// and the prediction of which historical values stay visible after a change.
package evolution

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// Column lifecycle states.
const (
	StateActive  = "active"
	StateRenamed = "renamed"
	StateDropped = "dropped"
	StateReadded = "readded"
)

// Column lifecycle events.
const (
	EventRename = "rename"
	EventDrop   = "drop"
)

var lifecycleEvents = fsm.Events{
	{Name: EventRename, Src: []string{StateActive, StateRenamed, StateReadded}, Dst: StateRenamed},
	{Name: EventDrop, Src: []string{StateActive, StateRenamed, StateReadded}, Dst: StateDropped},
}

// Lifecycle tracks one field id. Dropped is terminal: a column added back
// under the same name is a new identity that starts in readded.
type Lifecycle struct {
	FieldID int
	machine *fsm.FSM
	names   []string
}

func newLifecycle(fieldID int, name, initial string) *Lifecycle {
	l := &Lifecycle{FieldID: fieldID, names: []string{name}}
	l.machine = fsm.NewFSM(initial, lifecycleEvents, fsm.Callbacks{
		"after_" + EventRename: func(_ context.Context, e *fsm.Event) {
			if len(e.Args) > 0 {
				if name, ok := e.Args[0].(string); ok {
					l.names = append(l.names, name)
				}
			}
		},
	})
	return l
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() string {
	return l.machine.Current()
}

// Live reports whether the identity is still part of the table.
func (l *Lifecycle) Live() bool {
	return !l.machine.Is(StateDropped)
}

// Names returns every name the identity has had, oldest first.
func (l *Lifecycle) Names() []string {
	return append([]string(nil), l.names...)
}

// fire applies an event. Renaming a renamed column is not an error.
func (l *Lifecycle) fire(event string, args ...interface{}) error {
	err := l.machine.Event(context.Background(), event, args...)
	var noTransition fsm.NoTransitionError
	if err == nil || errors.As(err, &noTransition) {
		return nil
	}
	return fmt.Errorf("field %d: cannot %s a column in state %s: %w", l.FieldID, event, l.State(), err)
}
