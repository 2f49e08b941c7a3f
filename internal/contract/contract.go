// Package contract provides interfaces and shared utilities for pulsecheck's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// RecordStore supplies raw vendor records for one category and date range.
// An empty result means there is no data and is not an error.
// Callers must not assume any record order.
type RecordStore interface {
	LoadRecords(ctx context.Context, category schema.Category, r schema.DateRange) ([]schema.RawRecord, error)

	// Fingerprint summarizes the files behind a category and range so that
	// cached results can be invalidated when the data changes.
	Fingerprint(ctx context.Context, category schema.Category, r schema.DateRange) (string, error)
}

// CacheManager defines the interface for managing cache and history stores.
// This allows the storage layer to be mocked for testing.
type CacheManager interface {
	GetDayStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Clear() error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking analysis runs.
type HistoryStore interface {
	// BeginRun creates a new run row and returns its ID.
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun completes a run with the summary it produced.
	EndRun(runID int64, endTime time.Time, summary schema.AnalysisSummary) error

	// RecordTrend stores one metric trend for a run.
	RecordTrend(runID int64, trend schema.TrendResult) error

	// RecordRecommendation stores one recommendation for a run.
	RecordRecommendation(runID int64, rec schema.Recommendation) error

	// GetStatus returns status information about the history store.
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every run, oldest first.
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllTrends returns every stored trend row.
	GetAllTrends() ([]schema.TrendRecord, error)

	// GetAllRecommendations returns every stored recommendation row.
	GetAllRecommendations() ([]schema.RecommendationRecord, error)

	// Clear removes all runs and their children.
	Clear() error

	// Close closes the underlying connection.
	Close() error
}

// Publisher delivers a finished summary to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, summary schema.AnalysisSummary) error
	Close() error
}
