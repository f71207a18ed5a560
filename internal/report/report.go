// Package report records run outcomes: a JSON summary per run plus one
// snappy-compressed transcript per scenario, kept in object storage.
package report

import (
	"time"

	"github.com/arkilian/enginecompat/internal/scenario"
)

// Report summarizes one run of the suite.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Engines are the engine names in runner order
	Engines []string `json:"engines"`

	Summary   Summary         `json:"summary"`
	Scenarios []ScenarioEntry `json:"scenarios"`
}

// Summary counts scenarios by status.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}

// ScenarioEntry is the reported outcome of one scenario.
type ScenarioEntry struct {
	Name          string          `json:"name"`
	Table         string          `json:"table"`
	Status        scenario.Status `json:"status"`
	DurationMS    int64           `json:"duration_ms"`
	Diagnostic    string          `json:"diagnostic,omitempty"`
	TeardownError string          `json:"teardown_error,omitempty"`
	Statements    int             `json:"statements"`

	// Transcript is the object path of the compressed transcript, set when
	// the report is saved
	Transcript string `json:"transcript,omitempty"`
}

// New builds the report of a run. Scenarios keep the order of results.
func New(runID string, engines []string, started, finished time.Time, results []scenario.Result) *Report {
	r := &Report{
		RunID:      runID,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Engines:    engines,
		Scenarios:  make([]ScenarioEntry, len(results)),
	}
	for i, res := range results {
		r.Scenarios[i] = ScenarioEntry{
			Name:          res.Scenario,
			Table:         res.Table.String(),
			Status:        res.Status,
			DurationMS:    res.Duration.Milliseconds(),
			Diagnostic:    res.Diagnostic,
			TeardownError: res.TeardownError,
			Statements:    len(res.Transcript),
		}
		r.Summary.Total++
		switch res.Status {
		case scenario.StatusPass:
			r.Summary.Passed++
		case scenario.StatusFail:
			r.Summary.Failed++
		default:
			r.Summary.Errors++
		}
	}
	return r
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	return r.Summary.Passed == r.Summary.Total
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
