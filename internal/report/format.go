package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/arkilian/enginecompat/internal/scenario"
)

// WriteTable prints one line per scenario and a summary line. Diagnostics of
// scenarios that did not pass follow the table.
func WriteTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tSCENARIO\tDURATION\tSTATEMENTS")
	for _, s := range r.Scenarios {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", strings.ToUpper(string(s.Status)), s.Name,
			(time.Duration(s.DurationMS) * time.Millisecond).String(), s.Statements)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range r.Scenarios {
		if s.Status == scenario.StatusPass && s.TeardownError == "" {
			continue
		}
		fmt.Fprintf(w, "\n--- %s (%s)\n", s.Name, s.Table)
		if s.Diagnostic != "" {
			fmt.Fprintln(w, s.Diagnostic)
		}
		if s.TeardownError != "" {
			fmt.Fprintf(w, "teardown: %s\n", s.TeardownError)
		}
		if s.Transcript != "" {
			fmt.Fprintf(w, "transcript: %s\n", s.Transcript)
		}
	}

	_, err := fmt.Fprintf(w, "\nrun %s: %d scenarios, %d passed, %d failed, %d errors in %s\n",
		r.RunID, r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Errors, r.Duration().Round(time.Millisecond))
	return err
}

// WriteJSON prints the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteRuns prints one line per saved run.
func WriteRuns(w io.Writer, runs []*Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tTOTAL\tPASSED\tFAILED\tERRORS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.RunID, r.StartedAt.Format(time.RFC3339),
			r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Errors)
	}
	return tw.Flush()
}
