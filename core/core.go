// Package core has the executors behind each CLI view of the health analysis.
package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/datastore"
	"github.com/huangsam/pulsecheck/internal/notify"
	"github.com/huangsam/pulsecheck/internal/outwriter"
	"github.com/huangsam/pulsecheck/schema"
	"go.uber.org/zap"
)

// ExecutorFunc defines the function signature for executing different analysis views.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// Seams for tests.
var (
	newRecordStore = func(cfg *contract.Config, logger *zap.Logger) contract.RecordStore {
		return datastore.NewFileStore(cfg.DataDir, logger)
	}
	newPublisher = func(cfg *contract.Config, logger *zap.Logger) (contract.Publisher, error) {
		return notify.NewKafkaPublisher(cfg.PublishBrokers, cfg.PublishTopic, logger)
	}
	headerWriter io.Writer = os.Stderr
)

// ExecuteReport runs the analysis, prints the full summary and publishes
// a digest when brokers are configured.
// It serves as the main entry point for the 'report' view.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	summary, err := analyze(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteReport(summary, cfg, time.Since(start)); err != nil {
		return err
	}
	publish(ctx, cfg, summary)
	return nil
}

// ExecuteTrends prints per-metric statistics and baseline vs recent trends.
func ExecuteTrends(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeView(ctx, cfg, mgr, outwriter.NewOutWriter().WriteTrends)
}

// ExecuteBuckets prints the correlation tables.
func ExecuteBuckets(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeView(ctx, cfg, mgr, outwriter.NewOutWriter().WriteCorrelations)
}

// ExecuteWeekdays prints the day-of-week and monthly tables.
func ExecuteWeekdays(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeView(ctx, cfg, mgr, outwriter.NewOutWriter().WriteWeekdays)
}

// ExecuteAdvice prints every recommendation.
func ExecuteAdvice(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return executeView(ctx, cfg, mgr, outwriter.NewOutWriter().WriteRecommendations)
}

// viewWriter renders one view of a summary.
type viewWriter func(schema.AnalysisSummary, *contract.Config, time.Duration) error

func executeView(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, write viewWriter) error {
	start := time.Now()
	summary, err := analyze(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return write(summary, cfg, time.Since(start))
}

// analyze prints the header and runs the analysis against the configured data directory.
func analyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.AnalysisSummary, error) {
	if !shouldSuppressHeader(ctx) {
		logAnalysisHeader(headerWriter, cfg)
	}
	store := newRecordStore(cfg, LoggerFrom(ctx))
	return RunAnalysis(ctx, cfg, store, mgr)
}

// logAnalysisHeader prints a concise, 2-line header for each analysis.
func logAnalysisHeader(w io.Writer, cfg *contract.Config) {
	asOf := "latest day"
	if !cfg.AsOf.IsZero() {
		asOf = schema.FormatDay(cfg.AsOf)
	}

	// Line 1: The data being analyzed
	_, _ = fmt.Fprintf(w, "🔎 Data: %s (as of %s)\n", cfg.DataDir, asOf)

	// Line 2: The actual date range being analyzed
	_, _ = fmt.Fprintf(w, "📅 Range: %s → %s (%d days)\n",
		schema.FormatDay(cfg.Range.Start), schema.FormatDay(cfg.Range.End), cfg.Range.Days())
}

// publish sends a digest of summary when brokers are configured.
// A failed publish is a warning since the report itself was delivered.
func publish(ctx context.Context, cfg *contract.Config, summary schema.AnalysisSummary) {
	if len(cfg.PublishBrokers) == 0 {
		return
	}
	pub, err := newPublisher(cfg, LoggerFrom(ctx))
	if err != nil {
		contract.LogWarn("Publisher initialization failed", err)
		return
	}
	defer func() { _ = pub.Close() }()

	if err := pub.Publish(ctx, summary); err != nil {
		contract.LogWarn("Failed to publish report digest", err)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "📣 Published %s to %s\n", notify.ReportGeneratedEvent, cfg.PublishTopic)
}
