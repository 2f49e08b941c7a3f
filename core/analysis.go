package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/pulsecheck/core/agg"
	"github.com/huangsam/pulsecheck/core/report"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
	"go.uber.org/zap"
)

// RunAnalysis loads cfg.Range from store, builds the day table and assembles the summary.
// When mgr has a history store the run, its trends and its recommendations are recorded.
// History failures are reported as warnings and never fail the analysis.
func RunAnalysis(ctx context.Context, cfg *contract.Config, store contract.RecordStore, mgr contract.CacheManager) (schema.AnalysisSummary, error) {
	logger := LoggerFrom(ctx)

	// --- 0. Begin Run Tracking (if configured) ---
	var history contract.HistoryStore
	if mgr != nil {
		history = mgr.GetHistoryStore()
	}
	if history != nil {
		runID, err := history.BeginRun(time.Now(), cfg.Params())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else {
			ctx = withRunID(ctx, runID)
		}
	}

	// --- 1. Load and normalize (with caching) ---
	result, err := agg.CachedLoadDays(ctx, cfg, store, mgr)
	if err != nil {
		closeFailedRun(ctx, history, cfg.Range)
		return schema.AnalysisSummary{}, fmt.Errorf("failed to load records: %w", err)
	}
	reportDrops(logger, result.Dropped)

	// --- 2. Analysis ---
	meta := schema.Metadata{
		DroppedRecords:    len(result.Dropped),
		RecordsByCategory: result.Counts,
	}
	summary, err := report.Assemble(result.Days, meta, cfg.Thresholds, cfg.AsOf)
	if err != nil {
		closeFailedRun(ctx, history, cfg.Range)
		return schema.AnalysisSummary{}, err
	}
	// The requested range is reported even when the data covers less of it
	summary.Range = cfg.Range
	logger.Debug("analysis assembled",
		zap.Int("days", summary.DayCount),
		zap.String("as_of", schema.FormatDay(summary.AsOf)),
		zap.Int("recommendations", len(summary.Recommendations)))

	// --- 3. End Run Tracking ---
	if runID, ok := getRunID(ctx); ok && history != nil {
		recordRun(history, runID, summary)
	}
	return summary, nil
}

// reportDrops logs each unusable record and prints one total for the user.
func reportDrops(logger *zap.Logger, dropped []schema.DropWarning) {
	for _, d := range dropped {
		logger.Warn("dropped record",
			zap.String("category", string(d.Category)),
			zap.String("source", d.Source),
			zap.String("reason", d.Reason))
	}
	if len(dropped) > 0 {
		contract.LogWarn("Data quality", fmt.Errorf("skipped %d unusable records", len(dropped)))
	}
}

// closeFailedRun ends a begun run that produced no summary, so it keeps an end time.
func closeFailedRun(ctx context.Context, history contract.HistoryStore, r schema.DateRange) {
	runID, ok := getRunID(ctx)
	if !ok || history == nil {
		return
	}
	if err := history.EndRun(runID, time.Now(), schema.AnalysisSummary{Range: r}); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// recordRun stores the trends and recommendations of summary and closes the run.
func recordRun(history contract.HistoryStore, runID int64, summary schema.AnalysisSummary) {
	for _, ms := range summary.Metrics {
		if ms.Trend == nil {
			continue
		}
		if err := history.RecordTrend(runID, *ms.Trend); err != nil {
			contract.LogWarn(fmt.Sprintf("Run tracking failed for trend %s", ms.Metric), err)
		}
	}
	for _, rec := range summary.Recommendations {
		if err := history.RecordRecommendation(runID, rec); err != nil {
			contract.LogWarn(fmt.Sprintf("Run tracking failed for recommendation %s", rec.Rule), err)
		}
	}
	if err := history.EndRun(runID, time.Now(), summary); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
