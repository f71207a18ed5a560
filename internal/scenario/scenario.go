// Package scenario runs compatibility scenarios: ordered setup steps against
// the engines sharing a table, then assertions that read the table through
// both engines and compare the normalized rows.
package scenario

import (
	"fmt"
	"regexp"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
	"github.com/arkilian/enginecompat/pkg/types"
)

// Scenario is a declarative compatibility check. Operations and queries that
// leave their table unset address the scenario table, which the runner
// isolates with a random suffix per run.
type Scenario struct {
	Name string

	// Table is the base name of the shared table
	Table types.TableRef

	// Schema is the schema created tables default to
	Schema types.TableSchema

	// Format is the data file format the table is written in; it selects
	// the identity policy used for evolution predictions
	Format types.StorageFormat

	Steps      []Step
	Assertions []Assertion
}

// Step runs one operation on one engine, or checks an assertion between
// operations.
type Step struct {
	Engine typemap.Engine
	Op     Op

	// Fails, when set, requires the operation to fail this way
	Fails *Failure

	// Assert is checked in place of an operation
	Assert *Assertion
}

// On builds a step.
func On(engine typemap.Engine, op Op) Step {
	return Step{Engine: engine, Op: op}
}

// Failing returns a copy of the step that must fail with f.
func (s Step) Failing(f *Failure) Step {
	s.Fails = f
	return s
}

// Verify checks an assertion at this point of the setup, e.g. that a table
// is empty before the first insert.
func Verify(a Assertion) Step {
	return Step{Assert: &a}
}

func (s Step) String() string {
	if s.Assert != nil {
		return fmt.Sprintf("verify %q", s.Assert.Name)
	}
	return fmt.Sprintf("%s on %s", s.Op, s.Engine)
}

// Assertion reads the shared state through one or more engines.
type Assertion struct {
	Name  string
	Query Query

	// Engines defaults to both engines of the runner
	Engines []typemap.Engine

	// Expected rows, when set, are compared with every engine's result.
	// Without expectations the engines are compared with each other.
	Expected []value.Row

	// ExpectedBy computes the expected rows of one engine at assertion
	// time. It takes precedence over Expected.
	ExpectedBy func(s *State, engine typemap.Engine) []value.Row

	// Ordered compares rows position by position instead of as multisets
	Ordered bool

	// Fails lists engines whose query must fail, and how
	Fails map[typemap.Engine]*Failure

	// Check runs additional checks on an engine's rows
	Check func(s *State, engine typemap.Engine, rows []value.Row) error
}

func (a Assertion) expected(s *State, engine typemap.Engine) ([]value.Row, bool) {
	if a.ExpectedBy != nil {
		return a.ExpectedBy(s, engine), true
	}
	if a.Expected != nil {
		return a.Expected, true
	}
	return nil, false
}

// Failure describes an expected failure: an engine error whose raw message
// matches Pattern, or a pre-flight unsupported type mapping.
type Failure struct {
	Pattern     *regexp.Regexp
	Unsupported bool
}

// FailsWith expects an engine error matching the regular expression.
func FailsWith(pattern string) *Failure {
	return &Failure{Pattern: regexp.MustCompile(pattern)}
}

// FailsContaining expects an engine error containing text.
func FailsContaining(text string) *Failure {
	return &Failure{Pattern: regexp.MustCompile(regexp.QuoteMeta(text))}
}

// FailsUnsupported expects the operation to be rejected before it is sent.
func FailsUnsupported() *Failure {
	return &Failure{Unsupported: true}
}

// FailsLike expects the documented failure of an engine and format pair.
func FailsLike(e typemap.Expectation) *Failure {
	return &Failure{Pattern: e.Regexp()}
}

// Matches reports whether err is the expected failure.
func (f *Failure) Matches(err error) bool {
	if err == nil {
		return false
	}
	if f.Unsupported {
		return oerrors.GetCode(err) == oerrors.CodeUnsupportedTypeMapping
	}
	qe := oerrors.AsEngineQueryError(err)
	if qe == nil {
		return false
	}
	return f.Pattern == nil || f.Pattern.MatchString(qe.RawMessage)
}

func (f *Failure) String() string {
	if f.Unsupported {
		return "unsupported type mapping"
	}
	if f.Pattern == nil {
		return "any engine error"
	}
	return fmt.Sprintf("engine error matching %q", f.Pattern.String())
}

// Validate checks the scenario is well formed before anything runs.
func (sc Scenario) Validate() error {
	if sc.Name == "" {
		return invalidf("scenario has no name")
	}
	if sc.Table.Name == "" {
		return invalidf("scenario %s: table name is required", sc.Name)
	}
	if len(sc.Steps) == 0 && len(sc.Assertions) == 0 {
		return invalidf("scenario %s: nothing to run", sc.Name)
	}
	for i, step := range sc.Steps {
		if step.Assert != nil {
			if err := step.Assert.validate(); err != nil {
				return invalidf("scenario %s: step %d: %v", sc.Name, i+1, err)
			}
			continue
		}
		if step.Op == nil {
			return invalidf("scenario %s: step %d has no operation", sc.Name, i+1)
		}
		if step.Engine == "" {
			return invalidf("scenario %s: step %d has no engine", sc.Name, i+1)
		}
	}
	for i, a := range sc.Assertions {
		if err := a.validate(); err != nil {
			return invalidf("scenario %s: assertion %d: %v", sc.Name, i+1, err)
		}
	}
	return nil
}

func (a Assertion) validate() error {
	if a.Name == "" {
		return fmt.Errorf("assertion has no name")
	}
	if a.Query == nil {
		return fmt.Errorf("assertion %q has no query", a.Name)
	}
	return nil
}

func invalidf(format string, args ...interface{}) error {
	return oerrors.New(oerrors.ErrCategoryScenario, oerrors.CodeInvalidScenario, fmt.Sprintf(format, args...))
}
