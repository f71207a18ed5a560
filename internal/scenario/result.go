package scenario

import (
	"time"

	"github.com/arkilian/enginecompat/internal/endpoint"
	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Status is the outcome of a scenario.
type Status string

const (
	// StatusPass means every step and assertion behaved as declared
	StatusPass Status = "pass"

	// StatusFail means the engines disagreed, an engine rejected an
	// operation unexpectedly, an expected failure did not happen or the
	// scenario timed out
	StatusFail Status = "fail"

	// StatusError means the oracle itself could not carry out the scenario
	StatusError Status = "error"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario   string           `json:"scenario"`
	Table      types.TableRef   `json:"table"`
	Status     Status           `json:"status"`
	Err        error            `json:"-"`
	Diagnostic string           `json:"diagnostic,omitempty"`
	Duration   time.Duration    `json:"duration_ns"`
	Transcript []endpoint.Entry `json:"transcript,omitempty"`

	// TeardownError is logged and reported but never changes Status
	TeardownError string `json:"teardown_error,omitempty"`
}

// Passed reports whether the scenario passed.
func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// classify maps a scenario error to a status by its outermost code.
func classify(err error) Status {
	if err == nil {
		return StatusPass
	}
	switch oerrors.GetCode(err) {
	case oerrors.CodeCompatibilityViolation,
		oerrors.CodeEngineQueryFailed,
		oerrors.CodeTimeout,
		oerrors.CodeExpectedFailureMissing:
		return StatusFail
	default:
		return StatusError
	}
}
