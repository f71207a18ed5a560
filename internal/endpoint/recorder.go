package endpoint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is one executed statement in a transcript.
type Entry struct {
	Engine   string        `json:"engine"`
	SQL      string        `json:"sql"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration_ns"`
	Rows     int           `json:"rows"`
	Error    string        `json:"error,omitempty"`
}

// Recorder decorates an Endpoint and keeps a transcript of every statement.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	engine  string
	next    Endpoint
	entries []Entry
}

// NewRecorder wraps next. engine labels the transcript entries.
func NewRecorder(engine string, next Endpoint) *Recorder {
	return &Recorder{engine: engine, next: next}
}

// Execute forwards to the wrapped endpoint and records the outcome.
func (r *Recorder) Execute(ctx context.Context, sql string) (*ResultSet, error) {
	start := time.Now()
	rs, err := r.next.Execute(ctx, sql)

	entry := Entry{
		Engine:   r.engine,
		SQL:      sql,
		Start:    start,
		Duration: time.Since(start),
		Rows:     rs.Len(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	return rs, err
}

// Transcript returns a copy of the recorded entries in execution order.
func (r *Recorder) Transcript() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Reset clears the transcript.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Merge interleaves transcripts by start time.
func Merge(transcripts ...[]Entry) []Entry {
	var out []Entry
	for _, t := range transcripts {
		out = append(out, t...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
