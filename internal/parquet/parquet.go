// Package parquet exports pulsecheck run history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/pulsecheck/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one analysis run. It maps to the pulse_runs table.
type Run struct {
	RunID               int64      `parquet:"run_id,snappy"`
	RunUUID             string     `parquet:"run_uuid,snappy"`
	StartTime           time.Time  `parquet:"start_time,snappy"`
	EndTime             *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs       *int32     `parquet:"run_duration_ms,optional,snappy"`
	AsOf                string     `parquet:"as_of,snappy"` // YYYY-MM-DD, empty when unfinished
	RangeStart          string     `parquet:"range_start,snappy"`
	RangeEnd            string     `parquet:"range_end,snappy"`
	DayCount            int32      `parquet:"day_count,snappy"`
	DroppedRecords      int32      `parquet:"dropped_records,snappy"`
	RecommendationCount int32      `parquet:"recommendation_count,snappy"`
	ConfigParams        *string    `parquet:"config_params,optional,snappy"`
}

// Trend is one metric trend of a run. It maps to the pulse_trends table.
type Trend struct {
	RunID        int64   `parquet:"run_id,snappy"`
	Metric       string  `parquet:"metric,snappy"`
	AsOf         string  `parquet:"as_of,snappy"`
	RecentMean   float64 `parquet:"recent_mean,snappy"`
	BaselineMean float64 `parquet:"baseline_mean,snappy"`
	Change       float64 `parquet:"change_value,snappy"`
	Direction    string  `parquet:"direction,snappy"`
}

// Recommendation is one recommendation of a run. It maps to the pulse_recommendations table.
type Recommendation struct {
	RunID    int64  `parquet:"run_id,snappy"`
	Rule     string `parquet:"rule_name,snappy"`
	Category string `parquet:"category,snappy"`
	Priority string `parquet:"priority,snappy"`
	Message  string `parquet:"message,snappy"`
}

// write encodes rows into a new Parquet file at outputPath.
// The schema is derived from the struct tags of T.
func write[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return write(data, outputPath)
}

// WriteTrendsParquet writes trends to a Parquet file.
func WriteTrendsParquet(data []Trend, outputPath string) error {
	return write(data, outputPath)
}

// WriteRecommendationsParquet writes recommendations to a Parquet file.
func WriteRecommendationsParquet(data []Recommendation, outputPath string) error {
	return write(data, outputPath)
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(schema.DayLayout)
}

// ConvertRunRecords converts stored runs for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:               r.RunID,
			RunUUID:             r.RunUUID,
			StartTime:           r.StartTime,
			EndTime:             r.EndTime,
			RunDurationMs:       r.RunDurationMs,
			AsOf:                day(r.AsOf),
			RangeStart:          day(r.RangeStart),
			RangeEnd:            day(r.RangeEnd),
			DayCount:            r.DayCount,
			DroppedRecords:      r.DroppedRecords,
			RecommendationCount: r.RecommendationCount,
			ConfigParams:        r.ConfigParams,
		}
	}
	return result
}

// ConvertTrendRecords converts stored trends for Parquet export.
func ConvertTrendRecords(records []schema.TrendRecord) []Trend {
	result := make([]Trend, len(records))
	for i, r := range records {
		result[i] = Trend{
			RunID:        r.RunID,
			Metric:       r.Metric,
			AsOf:         day(r.AsOf),
			RecentMean:   r.RecentMean,
			BaselineMean: r.BaselineMean,
			Change:       r.Change,
			Direction:    r.Direction,
		}
	}
	return result
}

// ConvertRecommendationRecords converts stored recommendations for Parquet export.
func ConvertRecommendationRecords(records []schema.RecommendationRecord) []Recommendation {
	result := make([]Recommendation, len(records))
	for i, r := range records {
		result[i] = Recommendation(r)
	}
	return result
}
