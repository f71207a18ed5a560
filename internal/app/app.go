// Package app wires configuration, engine endpoints, the scenario runner,
// the schema history and report storage into one application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkilian/enginecompat/internal/config"
	"github.com/arkilian/enginecompat/internal/dialect"
	"github.com/arkilian/enginecompat/internal/endpoint"
	"github.com/arkilian/enginecompat/internal/evolution"
	"github.com/arkilian/enginecompat/internal/logger"
	"github.com/arkilian/enginecompat/internal/report"
	"github.com/arkilian/enginecompat/internal/scenario"
	"github.com/arkilian/enginecompat/internal/storage"
	"github.com/arkilian/enginecompat/internal/typemap"
)

// App owns the resources of a run. Close releases them.
type App struct {
	cfg *config.Config
	log *zap.Logger

	runner  *scenario.Runner
	reports *report.Store

	// closers are closed in reverse order of registration
	closers   []io.Closer
	closersMu sync.Mutex
}

// New resolves and validates cfg, then connects to both engines. The
// writer is engine A of the runner, the reader engine B.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	a := &App{cfg: cfg, log: logger.OrNop(log)}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	writer, err := a.target(ctx, "writer", a.cfg.Writer)
	if err != nil {
		return err
	}
	reader, err := a.target(ctx, "reader", a.cfg.Reader)
	if err != nil {
		return err
	}

	policies, err := evolution.PolicySetFromConfig(evolution.DefaultPolicySet(), a.cfg.Policies)
	if err != nil {
		return err
	}

	opts := scenario.Options{
		Schema:          a.cfg.Runner.Schema,
		Concurrency:     a.cfg.Runner.Concurrency,
		ScenarioTimeout: a.cfg.Runner.ScenarioTimeout,
		TeardownTimeout: a.cfg.Runner.TeardownTimeout,
		Policies:        policies,
		Logger:          a.log,
	}
	if a.cfg.HistoryEnabled() {
		history, err := evolution.OpenHistory(ctx, a.cfg.Runner.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open schema history: %w", err)
		}
		a.RegisterCloser(history)
		opts.History = history
	}

	a.runner, err = scenario.NewRunner(writer, reader, opts)
	if err != nil {
		return err
	}

	if a.cfg.Report.Enabled {
		s, err := storage.New(ctx, a.cfg.Report.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize report storage: %w", err)
		}
		a.reports = report.NewStore(s, a.log.Named(logger.ComponentReport))
	}
	return nil
}

// target opens one engine's endpoint and pairs it with its adapter.
func (a *App) target(ctx context.Context, role string, e config.EngineConfig) (scenario.Target, error) {
	adapter, err := dialect.New(typemap.Engine(e.Dialect), e.Catalog)
	if err != nil {
		return scenario.Target{}, fmt.Errorf("%s: %w", role, err)
	}

	opts := endpoint.DefaultOptions(e.Driver, e.DSN)
	opts.MaxOpenConns = e.PoolSize
	ep, err := endpoint.Open(ctx, opts)
	if err != nil {
		return scenario.Target{}, fmt.Errorf("%s: %w", role, err)
	}
	a.RegisterCloser(ep)

	a.log.Named(logger.ComponentEndpoint).Info("Engine connected",
		zap.String("role", role),
		zap.String("engine", e.Dialect),
		zap.String("driver", e.Driver),
		zap.String("catalog", adapter.Catalog()))
	return scenario.Target{Adapter: adapter, Endpoint: ep}, nil
}

// RegisterCloser adds a resource to release on Close.
func (a *App) RegisterCloser(c io.Closer) {
	a.closersMu.Lock()
	defer a.closersMu.Unlock()
	a.closers = append(a.closers, c)
}

// Runner returns the scenario runner.
func (a *App) Runner() *scenario.Runner {
	return a.runner
}

// Reports returns the report store, nil when reports are disabled.
func (a *App) Reports() *report.Store {
	return a.reports
}

// Run runs the scenarios and saves the report when reports are enabled. The
// report is returned even if saving it failed.
func (a *App) Run(ctx context.Context, scenarios []scenario.Scenario) (*report.Report, []scenario.Result, error) {
	runID := uuid.NewString()
	engines := a.runner.Engines()
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = string(e)
	}

	a.log.Info("Run started", zap.String("run_id", runID), zap.Int("scenarios", len(scenarios)))
	started := time.Now()
	results := a.runner.RunAll(ctx, scenarios)
	rep := report.New(runID, names, started, time.Now(), results)
	a.log.Info("Run finished",
		zap.String("run_id", runID),
		zap.Int("passed", rep.Summary.Passed),
		zap.Int("failed", rep.Summary.Failed),
		zap.Int("errors", rep.Summary.Errors),
		zap.Duration("duration", rep.Duration()))

	if a.reports == nil {
		return rep, results, nil
	}
	// A cancelled run still gets its report
	if err := a.reports.Save(context.WithoutCancel(ctx), rep, results); err != nil {
		return rep, results, err
	}
	return rep, results, nil
}

// Close releases every registered resource in reverse order.
func (a *App) Close() error {
	a.closersMu.Lock()
	closers := a.closers
	a.closers = nil
	a.closersMu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
