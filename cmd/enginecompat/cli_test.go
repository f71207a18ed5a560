package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/enginecompat/internal/report"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "enginecompat version dev")

	out, err = runCLI(t, "-o", "json", "version")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, "-o", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestList_Filter(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "list", "--formats", "ORC", "--filter", "nested_types")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"nested_types/spark_writes/ORC", "nested_types/trino_writes/ORC"}, names)
}

func TestList_InvalidFormat(t *testing.T) {
	_, err := runCLI(t, "list", "--formats", "CSV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runner.formats")
}

func TestList_FilterFromEnv(t *testing.T) {
	t.Setenv("ENGINECOMPAT_FILTER", "show_tables")
	out, err := runCLI(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "show_tables\n", out)
}

func TestRun_NoMatch(t *testing.T) {
	_, err := runCLI(t, "--data-dir", t.TempDir(), "run", "--filter", "no_such_scenario")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario matches")
}

// SQLite stands in for both engines; it cannot resolve catalog-qualified
// names so the scenario errors, but the run still produces a saved report.
func TestRun_ReportsFailureAndSavesReport(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "--data-dir", dir, "--log-level", "ERROR", "-o", "json",
		"run", "--filter", "show_tables", "--concurrency", "1")
	require.ErrorIs(t, err, errScenariosFailed)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.Summary.Total)
	assert.False(t, rep.OK())

	out, err = runCLI(t, "--data-dir", dir, "-o", "json", "reports")
	require.NoError(t, err)
	var runs []report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, rep.RunID, runs[0].RunID)

	out, err = runCLI(t, "--data-dir", dir, "reports", "show", rep.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "show_tables")
}
