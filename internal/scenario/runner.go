package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/endpoint"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/evolution"
	"github.com/arkilian/enginecompat/internal/logger"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Target is one engine the runner drives.
type Target struct {
	Adapter  dialect.Adapter
	Endpoint endpoint.Endpoint
}

// Options configure a Runner.
type Options struct {
	// Schema is used for scenario tables that do not name one
	Schema string

	// Concurrency bounds RunAll
	Concurrency int

	// ScenarioTimeout bounds the steps and assertions of one scenario
	ScenarioTimeout time.Duration

	// TeardownTimeout bounds the drop of the scenario tables
	TeardownTimeout time.Duration

	Policies evolution.PolicySet

	// History records schema snapshots when set
	History *evolution.History

	Logger *zap.Logger

	// Suffix returns the suffix isolating a scenario's tables
	Suffix func() string
}

// DefaultOptions returns the runner defaults.
func DefaultOptions() Options {
	return Options{
		Schema:          "default",
		Concurrency:     4,
		ScenarioTimeout: 2 * time.Minute,
		TeardownTimeout: 30 * time.Second,
		Policies:        evolution.DefaultPolicySet(),
		Suffix:          RandomSuffix,
	}
}

// RandomSuffix returns eight random hex digits.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Runner runs scenarios against two engines.
type Runner struct {
	targets []Target
	opts    Options
	log     *zap.Logger
}

// NewRunner creates a runner. a is the engine assertions are reported as
// ActualA; both must be different engines.
func NewRunner(a, b Target, opts Options) (*Runner, error) {
	if a.Adapter == nil || b.Adapter == nil || a.Endpoint == nil || b.Endpoint == nil {
		return nil, fmt.Errorf("runner needs an adapter and an endpoint for both engines")
	}
	if a.Adapter.Name() == b.Adapter.Name() {
		return nil, fmt.Errorf("runner needs two different engines, both are %s", a.Adapter.Name())
	}

	defaults := DefaultOptions()
	if opts.Schema == "" {
		opts.Schema = defaults.Schema
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaults.Concurrency
	}
	if opts.ScenarioTimeout <= 0 {
		opts.ScenarioTimeout = defaults.ScenarioTimeout
	}
	if opts.TeardownTimeout <= 0 {
		opts.TeardownTimeout = defaults.TeardownTimeout
	}
	if opts.Suffix == nil {
		opts.Suffix = defaults.Suffix
	}

	return &Runner{
		targets: []Target{a, b},
		opts:    opts,
		log:     logger.OrNop(opts.Logger).Named(logger.ComponentRunner),
	}, nil
}

// Engines returns the engines in A, B order.
func (r *Runner) Engines() []typemap.Engine {
	return []typemap.Engine{r.targets[0].Adapter.Name(), r.targets[1].Adapter.Name()}
}

// RunAll runs scenarios in parallel, at most Concurrency at a time. Results
// are in scenario order. After a fatal error no further scenario starts;
// those not yet started get an error result.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, len(scenarios))

	var (
		mu      sync.Mutex
		aborted error
	)
	abortedBy := func() error {
		mu.Lock()
		defer mu.Unlock()
		return aborted
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if cause := abortedBy(); cause != nil {
				results[i] = skipped(sc, cause)
				return nil
			}
			results[i] = r.Run(ctx, sc)
			if oerrors.IsFatal(results[i].Err) {
				mu.Lock()
				if aborted == nil {
					aborted = fmt.Errorf("scenario %s: %w", sc.Name, results[i].Err)
					r.log.Error("run aborted", zap.String("scenario", sc.Name), zap.Error(results[i].Err))
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func skipped(sc Scenario, cause error) Result {
	err := oerrors.NewScenarioError(oerrors.CodeRunAborted, "not run", cause)
	return Result{Scenario: sc.Name, Status: StatusError, Err: err, Diagnostic: err.Error()}
}

// Run runs one scenario. The scenario tables are dropped on every exit
// path, with a context that outlives the scenario deadline. A panic inside
// the scenario is reported as an error result after teardown.
func (r *Runner) Run(ctx context.Context, sc Scenario) (res Result) {
	start := time.Now()
	res = Result{Scenario: sc.Name}
	if err := sc.Validate(); err != nil {
		res.Status, res.Err, res.Diagnostic = StatusError, err, err.Error()
		return res
	}

	table := sc.Table
	if table.Schema == "" {
		table.Schema = r.opts.Schema
	}
	table = table.WithSuffix(r.opts.Suffix())
	res.Table = table

	log := r.log.With(zap.String("scenario", sc.Name), zap.String("table", table.String()))
	x := r.newExecution(sc, table, log)
	log.Info("scenario started")

	var err error
	defer func() {
		if p := recover(); p != nil {
			err = oerrors.NewInternalError(fmt.Sprintf("scenario %s panicked: %v", sc.Name, p), nil)
			log.Error("scenario panicked", zap.Any("panic", p), zap.Stack("stack"))
		}

		if terr := r.teardown(ctx, x); terr != nil {
			res.TeardownError = terr.Error()
		}

		res.Err = err
		res.Status = classify(err)
		if err != nil {
			res.Diagnostic = err.Error()
		}
		res.Duration = time.Since(start)
		res.Transcript = x.transcript()

		fields := []zap.Field{zap.String("status", string(res.Status)), zap.Duration("duration", res.Duration)}
		if err != nil {
			fields = append(fields, zap.Bool("preflight", oerrors.IsPreflight(err)))
		}
		switch res.Status {
		case StatusPass:
			log.Info("scenario finished", fields...)
		default:
			log.Warn("scenario finished", append(fields, zap.Error(err))...)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.opts.ScenarioTimeout)
	defer cancel()
	err = x.run(runCtx)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = oerrors.Wrap(oerrors.ErrCategoryScenario, oerrors.CodeTimeout,
			fmt.Sprintf("scenario %s exceeded %s", sc.Name, r.opts.ScenarioTimeout), err)
	}
	return res
}

func (r *Runner) newExecution(sc Scenario, table types.TableRef, log *zap.Logger) *execution {
	x := &execution{
		scenario: sc,
		state: &State{
			Table:    table,
			Format:   sc.Format,
			Policies: r.opts.Policies,
			trackers: make(map[string]*evolution.Tracker),
			history:  r.opts.History,
			log:      log,
		},
		sessions: make(map[typemap.Engine]*dialect.Session, len(r.targets)),
		log:      log,
	}
	for _, t := range r.targets {
		engine := t.Adapter.Name()
		rec := endpoint.NewRecorder(string(engine), t.Endpoint)
		x.engines = append(x.engines, engine)
		x.recorders = append(x.recorders, rec)
		x.sessions[engine] = dialect.NewSession(t.Adapter, rec, log)
	}
	return x
}

func (x *execution) run(ctx context.Context) error {
	for i, step := range x.scenario.Steps {
		if err := x.runStep(ctx, i, step); err != nil {
			return err
		}
	}
	for _, a := range x.scenario.Assertions {
		if err := x.runAssertion(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (x *execution) runStep(ctx context.Context, i int, step Step) error {
	if step.Assert != nil {
		if err := x.runAssertion(ctx, *step.Assert); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		return nil
	}
	s, err := x.session(step.Engine)
	if err != nil {
		return err
	}
	err = step.Op.apply(ctx, x, s)

	if step.Fails == nil {
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		return nil
	}
	switch {
	case step.Fails.Matches(err):
		x.log.Debug("step failed as expected", zap.Int("step", i+1), zap.Error(err))
		return nil
	case err == nil:
		return oerrors.NewScenarioError(oerrors.CodeExpectedFailureMissing,
			fmt.Sprintf("step %d (%s): expected %s, but it succeeded", i+1, step, step.Fails), nil)
	default:
		return fmt.Errorf("step %d (%s): expected %s: %w", i+1, step, step.Fails, err)
	}
}

// teardownTarget is a table dropped after the scenario on the engine that
// created it.
type teardownTarget struct {
	table  types.TableRef
	engine typemap.Engine
}

// teardownTargets lists every table a create step addresses, whether or not
// it ran, and the scenario table itself. Drops use IF EXISTS.
func (x *execution) teardownTargets() []teardownTarget {
	var targets []teardownTarget
	seen := make(map[types.TableRef]bool)
	for _, step := range x.scenario.Steps {
		c, ok := step.Op.(createOp)
		if !ok {
			continue
		}
		ref := x.state.resolve(c.Table)
		if !seen[ref] {
			seen[ref] = true
			targets = append(targets, teardownTarget{table: ref, engine: step.Engine})
		}
	}
	if !seen[x.state.Table] {
		targets = append(targets, teardownTarget{table: x.state.Table, engine: x.engines[0]})
	}

	// Reverse creation order
	for i, j := 0, len(targets)-1; i < j; i, j = i+1, j-1 {
		targets[i], targets[j] = targets[j], targets[i]
	}
	return targets
}

// teardown drops the scenario tables. Failures are logged and returned but
// never replace the scenario outcome.
func (r *Runner) teardown(ctx context.Context, x *execution) error {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.TeardownTimeout)
	defer cancel()

	var errs []error
	for _, t := range x.teardownTargets() {
		s, err := x.session(t.engine)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.Drop(tctx, dialect.DropTable{Table: t.table, IfExists: true}); err != nil {
			x.log.Warn("teardown failed",
				zap.String("drop_table", t.table.String()),
				zap.String("engine", string(t.engine)),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return oerrors.NewScenarioError(oerrors.CodeTeardownFailed,
		fmt.Sprintf("teardown of scenario %s", x.scenario.Name), errors.Join(errs...))
}
