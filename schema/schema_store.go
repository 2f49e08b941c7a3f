package schema

import "time"

// RunRecord represents a row from the pulse_runs table.
type RunRecord struct {
	RunID               int64
	RunUUID             string
	StartTime           time.Time
	EndTime             *time.Time
	RunDurationMs       *int32
	AsOf                time.Time
	RangeStart          time.Time
	RangeEnd            time.Time
	DayCount            int32
	DroppedRecords      int32
	RecommendationCount int32
	ConfigParams        *string
}

// TrendRecord represents a row from the pulse_trends table.
type TrendRecord struct {
	RunID        int64
	Metric       string
	AsOf         time.Time
	RecentMean   float64
	BaselineMean float64
	Change       float64
	Direction    string
}

// RecommendationRecord represents a row from the pulse_recommendations table.
type RecommendationRecord struct {
	RunID    int64
	Rule     string
	Category string
	Priority string
	Message  string
}
