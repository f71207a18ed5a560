// Package endpointtest provides a scripted Endpoint for tests that need
// engine-rendered cells without running an engine.
package endpointtest

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/arkilian/enginecompat/internal/endpoint"
)

type rule struct {
	re    *regexp.Regexp
	rs    *endpoint.ResultSet
	err   error
	delay time.Duration
	times int // remaining matches, -1 for unlimited
}

// Scripted answers statements from a list of rules. The first rule whose
// pattern matches the statement wins; statements matching no rule return an
// empty result.
type Scripted struct {
	mu       sync.Mutex
	rules    []*rule
	executed []string
}

// New creates an empty script.
func New() *Scripted {
	return &Scripted{}
}

// Returns answers statements matching pattern with rs.
func (s *Scripted) Returns(pattern string, rs *endpoint.ResultSet) *Scripted {
	return s.add(&rule{re: regexp.MustCompile(pattern), rs: rs, times: -1})
}

// ReturnsOnce is Returns for the next matching statement only.
func (s *Scripted) ReturnsOnce(pattern string, rs *endpoint.ResultSet) *Scripted {
	return s.add(&rule{re: regexp.MustCompile(pattern), rs: rs, times: 1})
}

// Fails answers statements matching pattern with an engine error carrying message.
func (s *Scripted) Fails(pattern, message string) *Scripted {
	return s.add(&rule{re: regexp.MustCompile(pattern), err: errors.New(message), times: -1})
}

// Blocks delays statements matching pattern by d, or until the context ends.
func (s *Scripted) Blocks(pattern string, d time.Duration) *Scripted {
	return s.add(&rule{re: regexp.MustCompile(pattern), rs: &endpoint.ResultSet{}, delay: d, times: -1})
}

func (s *Scripted) add(r *rule) *Scripted {
	s.mu.Lock()
	s.rules = append(s.rules, r)
	s.mu.Unlock()
	return s
}

// Execute implements endpoint.Endpoint.
func (s *Scripted) Execute(ctx context.Context, sql string) (*endpoint.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.executed = append(s.executed, sql)
	var matched *rule
	for _, r := range s.rules {
		if r.times != 0 && r.re.MatchString(sql) {
			matched = r
			if r.times > 0 {
				r.times--
			}
			break
		}
	}
	s.mu.Unlock()

	if matched == nil {
		return &endpoint.ResultSet{}, nil
	}
	if matched.delay > 0 {
		timer := time.NewTimer(matched.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if matched.err != nil {
		return nil, matched.err
	}
	return matched.rs, nil
}

// Executed returns the statements seen so far, in order.
func (s *Scripted) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.executed))
	copy(out, s.executed)
	return out
}

// Result builds a result set with untyped columns.
func Result(columns []string, rows ...[]any) *endpoint.ResultSet {
	rs := &endpoint.ResultSet{Columns: make([]endpoint.ColumnMeta, len(columns)), Rows: rows}
	for i, c := range columns {
		rs.Columns[i] = endpoint.ColumnMeta{Name: c}
	}
	if rs.Rows == nil {
		rs.Rows = [][]any{}
	}
	return rs
}

// Typed sets the declared type text of each column, in order.
func Typed(rs *endpoint.ResultSet, declared ...string) *endpoint.ResultSet {
	for i := range rs.Columns {
		if i < len(declared) {
			rs.Columns[i].DeclaredType = declared[i]
		}
	}
	return rs
}
