package scenario

import (
	"context"

	"go.uber.org/zap"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/endpoint"
	"github.com/arkilian/enginecompat/internal/evolution"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/pkg/types"
)

// State is what a scenario has done so far: the isolated table names, the
// tables created and the schema snapshots of each. Expectations computed at
// assertion time read it.
type State struct {
	// Table is the isolated scenario table
	Table types.TableRef

	// Format is the format the scenario table was created in
	Format types.StorageFormat

	// Policies resolve field identity per reader engine and format
	Policies evolution.PolicySet

	trackers map[string]*evolution.Tracker
	history  *evolution.History
	log      *zap.Logger
}

// Related returns the isolated name of a table the scenario creates next to
// its own, e.g. Related("for_spark").
func (s *State) Related(name string) types.TableRef {
	return s.Table.WithSuffix(name)
}

// Tracker returns the schema tracker of the scenario table, nil before it
// is created.
func (s *State) Tracker() *evolution.Tracker {
	return s.trackers[s.Table.String()]
}

// Policy returns the identity policy of a reader engine on the scenario table.
func (s *State) Policy(engine typemap.Engine) evolution.Policy {
	return s.Policies.For(engine, s.Format)
}

// resolve maps an operation's table to the isolated name: the zero ref is the
// scenario table, a bare name is a related table.
func (s *State) resolve(ref types.TableRef) types.TableRef {
	if ref.Name == "" {
		return s.Table
	}
	out := s.Related(ref.Name)
	if ref.Schema != "" {
		out.Schema = ref.Schema
	}
	return out
}

func (s *State) schemaOf(ref types.TableRef, fallback types.TableSchema) types.TableSchema {
	if tr, ok := s.trackers[ref.String()]; ok {
		return tr.Current()
	}
	return fallback
}

func (s *State) created(ctx context.Context, ref types.TableRef, schema types.TableSchema, format types.StorageFormat) {
	s.trackers[ref.String()] = evolution.NewTracker(schema)
	if ref == s.Table && format != "" {
		s.Format = format
	}
	s.record(ctx, ref, schema)
}

func (s *State) altered(ctx context.Context, op dialect.Alter) error {
	tr, ok := s.trackers[op.Table.String()]
	if !ok {
		return invalidf("alter of %s before it was created", op.Table)
	}
	next, err := tr.Apply(op)
	if err != nil {
		return invalidf("alter %s %s: %v", op.Kind, op.Path, err)
	}
	s.record(ctx, op.Table, next)
	return nil
}

// record keeps the snapshot in the schema history when one is configured.
// History failures do not affect the scenario.
func (s *State) record(ctx context.Context, ref types.TableRef, schema types.TableSchema) {
	if s.history == nil {
		return
	}
	version, err := s.history.Register(ctx, ref.String(), schema)
	if err != nil {
		s.log.Warn("failed to record schema version", zap.String("table", ref.String()), zap.Error(err))
		return
	}
	s.log.Debug("schema version recorded", zap.String("table", ref.String()), zap.Int("version", version))
}

// execution is one run of a scenario.
type execution struct {
	scenario  Scenario
	state     *State
	engines   []typemap.Engine
	sessions  map[typemap.Engine]*dialect.Session
	recorders []*endpoint.Recorder
	log       *zap.Logger
}

func (x *execution) session(engine typemap.Engine) (*dialect.Session, error) {
	s, ok := x.sessions[engine]
	if !ok {
		return nil, invalidf("scenario %s uses engine %s, which the runner does not have", x.scenario.Name, engine)
	}
	return s, nil
}

func (x *execution) transcript() []endpoint.Entry {
	transcripts := make([][]endpoint.Entry, len(x.recorders))
	for i, r := range x.recorders {
		transcripts[i] = r.Transcript()
	}
	return endpoint.Merge(transcripts...)
}
