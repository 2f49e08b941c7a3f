package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	published []schema.AnalysisSummary
	err       error
	closed    bool
}

func (f *fakePublisher) Publish(_ context.Context, summary schema.AnalysisSummary) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, summary)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

// withPublisher swaps the publisher factory for the duration of a test.
func withPublisher(t *testing.T, pub contract.Publisher, err error) {
	t.Helper()
	orig := newPublisher
	newPublisher = func(*contract.Config, *zap.Logger) (contract.Publisher, error) {
		return pub, err
	}
	t.Cleanup(func() { newPublisher = orig })
}

// quietContext suppresses the analysis header.
func quietContext() context.Context {
	return WithSuppressHeader(context.Background())
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	return doc
}

func TestExecutors(t *testing.T) {
	_, dir := sampleStore(t, 45)
	out := t.TempDir()

	tests := []struct {
		name    string
		exec    ExecutorFunc
		present []string
		absent  []string
	}{
		{"report", ExecuteReport, []string{"metrics", "correlations", "weekdays", "monthly", "recommendations"}, nil},
		{"trends", ExecuteTrends, []string{"metrics"}, []string{"correlations", "recommendations"}},
		{"buckets", ExecuteBuckets, []string{"correlations"}, []string{"metrics", "weekdays"}},
		{"weekdays", ExecuteWeekdays, []string{"weekdays", "monthly"}, []string{"metrics"}},
		{"advice", ExecuteAdvice, []string{"recommendations"}, []string{"metrics", "correlations"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(dir, 45)
			cfg.OutputFile = filepath.Join(out, tt.name+".json")

			require.NoError(t, tt.exec(quietContext(), cfg, noCacheManager()))

			doc := readJSON(t, cfg.OutputFile)
			assert.Equal(t, "2026-01-15", doc["as_of"])
			for _, key := range tt.present {
				assert.Contains(t, doc, key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, doc, key)
			}
		})
	}
}

func TestExecuteTrendsMetricFilter(t *testing.T) {
	_, dir := sampleStore(t, 30)
	cfg := testConfig(dir, 30)
	cfg.Metric = schema.SleepHours
	cfg.OutputFile = filepath.Join(t.TempDir(), "sleep.json")

	require.NoError(t, ExecuteTrends(quietContext(), cfg, noCacheManager()))

	metrics, ok := readJSON(t, cfg.OutputFile)["metrics"].([]any)
	require.True(t, ok)
	require.Len(t, metrics, 1)
	assert.Equal(t, "sleep_hours", metrics[0].(map[string]any)["metric"])
}

func TestExecuteReportPublishes(t *testing.T) {
	_, dir := sampleStore(t, 30)
	cfg := testConfig(dir, 30)
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")
	cfg.PublishBrokers = []string{"localhost:9092"}

	pub := &fakePublisher{}
	withPublisher(t, pub, nil)

	require.NoError(t, ExecuteReport(quietContext(), cfg, noCacheManager()))
	require.Len(t, pub.published, 1)
	assert.Equal(t, 30, pub.published[0].DayCount)
	assert.True(t, pub.closed)
}

func TestExecuteReportSkipsPublishWithoutBrokers(t *testing.T) {
	_, dir := sampleStore(t, 10)
	cfg := testConfig(dir, 10)
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")

	pub := &fakePublisher{}
	withPublisher(t, pub, nil)

	require.NoError(t, ExecuteReport(quietContext(), cfg, noCacheManager()))
	assert.Empty(t, pub.published)
	assert.False(t, pub.closed)
}

func TestExecuteReportPublishFailureIsNotFatal(t *testing.T) {
	_, dir := sampleStore(t, 10)
	cfg := testConfig(dir, 10)
	cfg.OutputFile = filepath.Join(t.TempDir(), "report.json")
	cfg.PublishBrokers = []string{"localhost:9092"}

	t.Run("publish error", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		withPublisher(t, pub, nil)
		assert.NoError(t, ExecuteReport(quietContext(), cfg, noCacheManager()))
		assert.True(t, pub.closed)
	})

	t.Run("factory error", func(t *testing.T) {
		withPublisher(t, nil, errors.New("bad brokers"))
		assert.NoError(t, ExecuteReport(quietContext(), cfg, noCacheManager()))
	})
}

func TestExecuteReportOutputError(t *testing.T) {
	_, dir := sampleStore(t, 10)
	cfg := testConfig(dir, 10)
	cfg.OutputFile = filepath.Join(t.TempDir(), "missing", "report.json")

	assert.Error(t, ExecuteReport(quietContext(), cfg, noCacheManager()))
}

func TestLogAnalysisHeader(t *testing.T) {
	cfg := testConfig("/data/garmin", 14)

	var buf bytes.Buffer
	logAnalysisHeader(&buf, cfg)
	assert.Equal(t, "🔎 Data: /data/garmin (as of latest day)\n📅 Range: 2026-01-02 → 2026-01-15 (14 days)\n", buf.String())

	buf.Reset()
	cfg.AsOf = sampleEnd
	logAnalysisHeader(&buf, cfg)
	assert.Contains(t, buf.String(), "(as of 2026-01-15)")
}

func TestAnalyzePrintsHeader(t *testing.T) {
	_, dir := sampleStore(t, 5)
	cfg := testConfig(dir, 5)

	var buf bytes.Buffer
	orig := headerWriter
	headerWriter = &buf
	t.Cleanup(func() { headerWriter = orig })

	_, err := analyze(context.Background(), cfg, noCacheManager())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "📅 Range: 2026-01-11 → 2026-01-15")

	buf.Reset()
	_, err = analyze(quietContext(), cfg, noCacheManager())
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
