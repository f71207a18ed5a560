package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	oerrors "github.com/arkilian/enginecompat/internal/errors"
	"github.com/arkilian/enginecompat/internal/typemap"
	"github.com/arkilian/enginecompat/internal/value"
)

type engineOutput struct {
	engine typemap.Engine
	output
}

func (a Assertion) engines(x *execution) []typemap.Engine {
	if len(a.Engines) > 0 {
		return a.Engines
	}
	return x.engines
}

// runAssertion queries every engine of the assertion, then compares each
// result with its expectation, or the two results with each other when no
// expectation is declared.
func (x *execution) runAssertion(ctx context.Context, a Assertion) error {
	var outputs []engineOutput
	for _, engine := range a.engines(x) {
		s, err := x.session(engine)
		if err != nil {
			return err
		}
		out, err := a.Query.run(ctx, x, s)

		if f := a.Fails[engine]; f != nil {
			switch {
			case f.Matches(err):
				x.log.Debug("query failed as expected", zap.String("assertion", a.Name), zap.String("engine", string(engine)))
				continue
			case err == nil:
				return oerrors.NewScenarioError(oerrors.CodeExpectedFailureMissing,
					fmt.Sprintf("assertion %q on %s: expected %s, but it returned %d rows", a.Name, engine, f, len(out.rows)), nil)
			default:
				return fmt.Errorf("assertion %q on %s: expected %s: %w", a.Name, engine, f, err)
			}
		}
		if err != nil {
			return fmt.Errorf("assertion %q on %s: %w", a.Name, engine, err)
		}
		outputs = append(outputs, engineOutput{engine: engine, output: out})
	}

	expectations := 0
	for _, o := range outputs {
		if a.Check != nil {
			if err := a.Check(x.state, o.engine, o.rows); err != nil {
				return x.violation(a, nil, outputs, fmt.Sprintf("%s: %v", o.engine, err))
			}
		}
		want, ok := a.expected(x.state, o.engine)
		if !ok {
			continue
		}
		expectations++
		if diff := value.CompareRows(want, o.rows, a.Ordered); !diff.Empty() {
			return x.violation(a, want, outputs, fmt.Sprintf("%s differs from expected: %s", o.engine, diff))
		}
	}

	if expectations == 0 && len(outputs) >= 2 {
		first, second := outputs[0], outputs[1]
		if diff := value.CompareRows(first.rows, second.rows, a.Ordered); !diff.Empty() {
			return x.violation(a, nil, outputs,
				fmt.Sprintf("%s disagrees with %s: %s", second.engine, first.engine, diff))
		}
	}
	return nil
}

func (x *execution) violation(a Assertion, want []value.Row, outputs []engineOutput, reason string) error {
	v := &oerrors.CompatibilityViolation{
		Scenario:  x.scenario.Name,
		Assertion: a.Name,
		Reason:    reason,
	}
	if want != nil {
		v.Expected = value.Keys(want)
	}
	if len(outputs) > 0 {
		v.ActualA = outputs[0].diagnostic()
	}
	if len(outputs) > 1 {
		v.ActualB = outputs[1].diagnostic()
	}
	return v
}

func (o engineOutput) diagnostic() oerrors.EngineOutput {
	return oerrors.EngineOutput{
		Engine:     string(o.engine),
		SQL:        o.sql,
		Raw:        o.raw,
		Normalized: value.Keys(o.rows),
	}
}
