package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/parquet"
)

// ExportResult lists the files written by ExportHistory.
type ExportResult struct {
	RunsFile            string
	TrendsFile          string
	RecommendationsFile string
	Runs                int
	Trends              int
	Recommendations     int
}

// ExportHistory writes every run, trend and recommendation of store to
// Parquet files named after outputPrefix.
func ExportHistory(w io.Writer, store contract.HistoryStore, outputPrefix string) (ExportResult, error) {
	var res ExportResult
	if outputPrefix == "" {
		return res, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return res, errors.New("run history is not enabled")
	}

	status, err := store.GetStatus()
	if err != nil {
		return res, fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return res, errors.New("no run history found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting %d runs from %s backend...\n", status.TotalRuns, status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return res, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	trends, err := store.GetAllTrends()
	if err != nil {
		return res, fmt.Errorf("failed to retrieve trends: %w", err)
	}
	recs, err := store.GetAllRecommendations()
	if err != nil {
		return res, fmt.Errorf("failed to retrieve recommendations: %w", err)
	}

	res.RunsFile = outputPrefix + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), res.RunsFile); err != nil {
		return res, fmt.Errorf("failed to write runs: %w", err)
	}
	res.Runs = len(runs)
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", res.Runs, res.RunsFile)

	res.TrendsFile = outputPrefix + ".trends.parquet"
	if err := parquet.WriteTrendsParquet(parquet.ConvertTrendRecords(trends), res.TrendsFile); err != nil {
		return res, fmt.Errorf("failed to write trends: %w", err)
	}
	res.Trends = len(trends)
	_, _ = fmt.Fprintf(w, "Exported %d trends to: %s\n", res.Trends, res.TrendsFile)

	res.RecommendationsFile = outputPrefix + ".recommendations.parquet"
	if err := parquet.WriteRecommendationsParquet(parquet.ConvertRecommendationRecords(recs), res.RecommendationsFile); err != nil {
		return res, fmt.Errorf("failed to write recommendations: %w", err)
	}
	res.Recommendations = len(recs)
	_, _ = fmt.Fprintf(w, "Exported %d recommendations to: %s\n", res.Recommendations, res.RecommendationsFile)
	return res, nil
}
