//go:build basic

// Package integration contains integration tests for pulsecheck.
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportDoc is the subset of the JSON report the tests look at.
type reportDoc struct {
	AsOf     string `json:"as_of"`
	DayCount int    `json:"day_count"`
	Metrics  []struct {
		Metric string          `json:"metric"`
		Trend  json.RawMessage `json:"trend"`
	} `json:"metrics"`
	Correlations    []json.RawMessage `json:"correlations"`
	Recommendations []struct {
		Priority string `json:"priority"`
		Category string `json:"category"`
	} `json:"recommendations"`
}

func reportArgs(dir string, extra ...string) []string {
	args := []string{"report", "--data-dir", dir, "--days", "60", "--end", sampleEnd, "--output", "json"}
	return append(args, extra...)
}

// TestSampleReportVerification generates sample data and checks the JSON report against it.
func TestSampleReportVerification(t *testing.T) {
	dir := sampleDir(t)

	out, err := runCommand(t, nil, reportArgs(dir, "--cache-backend", "none")...)
	require.NoError(t, err)

	var doc reportDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, 60, doc.DayCount)
	assert.Equal(t, sampleEnd, doc.AsOf)
	assert.NotEmpty(t, doc.Metrics)
	assert.Len(t, doc.Correlations, 3)
	assert.NotNil(t, doc.Recommendations)
}

// TestCachedRunMatchesUncached runs the same report cold and warm against a SQLite cache.
func TestCachedRunMatchesUncached(t *testing.T) {
	dir := sampleDir(t)
	cacheDB := filepath.Join(t.TempDir(), "cache.db")
	env := []string{"PULSECHECK_CACHE_BACKEND=sqlite", "PULSECHECK_CACHE_DB_CONNECT=" + cacheDB}

	uncached, err := runCommand(t, nil, reportArgs(dir, "--cache-backend", "none")...)
	require.NoError(t, err)
	cold, err := runCommand(t, env, reportArgs(dir)...)
	require.NoError(t, err)
	warm, err := runCommand(t, env, reportArgs(dir)...)
	require.NoError(t, err)

	assert.JSONEq(t, uncached, cold)
	assert.JSONEq(t, cold, warm)

	status, err := runCommand(t, env, "data", "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, status, "Cache Backend: sqlite")
	assert.Contains(t, status, "Total Entries: 1")
}

// TestHistoryExport records a run in SQLite and exports it to Parquet.
func TestHistoryExport(t *testing.T) {
	dir := sampleDir(t)
	historyDB := filepath.Join(t.TempDir(), "history.db")
	env := []string{
		"PULSECHECK_CACHE_BACKEND=none",
		"PULSECHECK_HISTORY_BACKEND=sqlite",
		"PULSECHECK_HISTORY_DB_CONNECT=" + historyDB,
	}

	_, err := runCommand(t, env, reportArgs(dir)...)
	require.NoError(t, err)

	status, err := runCommand(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 1")

	prefix := filepath.Join(t.TempDir(), "pulse")
	_, err = runCommand(t, env, "history", "export", "--output-file", prefix)
	require.NoError(t, err)
	for _, suffix := range []string{".runs.parquet", ".trends.parquet", ".recommendations.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err, suffix)
		assert.Positive(t, info.Size(), suffix)
	}

	_, err = runCommand(t, env, "history", "clear")
	require.NoError(t, err)
	status, err = runCommand(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 0")
}

// TestViewCommands checks that every view command succeeds on sample data.
func TestViewCommands(t *testing.T) {
	dir := sampleDir(t)
	for _, command := range []string{"trends", "buckets", "weekdays", "advice"} {
		t.Run(command, func(t *testing.T) {
			out, err := runCommand(t, nil, command, "--data-dir", dir, "--days", "60", "--end", sampleEnd, "--cache-backend", "none", "--output", "json")
			require.NoError(t, err)
			assert.True(t, json.Valid([]byte(out)), out)
		})
	}
}

// TestInvalidInputFails checks that bad configuration exits non-zero.
func TestInvalidInputFails(t *testing.T) {
	dir := sampleDir(t)
	tests := [][]string{
		{"report", "--data-dir", dir, "--days", "0"},
		{"report", "--data-dir", dir, "--output", "yaml"},
		{"report", "--data-dir", dir, "--output", "pdf"},
		{"trends", "--data-dir", dir, "--metric", "hrv"},
		{"report", "--data-dir", dir, "--days", "7", "--end", sampleEnd, "--as-of", "2025-01-01"},
	}
	for _, args := range tests {
		_, err := runCommand(t, []string{"PULSECHECK_CACHE_BACKEND=none"}, args...)
		assert.Error(t, err, args)
	}
}
