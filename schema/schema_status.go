package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run-history store.
type HistoryStatus struct {
	Backend              string           `json:"backend"`
	Connected            bool             `json:"connected"`
	TotalRuns            int              `json:"total_runs"`
	LastRunID            int64            `json:"last_run_id"`
	LastRunTime          time.Time        `json:"last_run_time"`
	OldestRunTime        time.Time        `json:"oldest_run_time"`
	TotalRecommendations int              `json:"total_recommendations"`
	TableSizes           map[string]int64 `json:"table_sizes"`
}

// DataStatus summarizes the raw files present for each category.
type DataStatus struct {
	Dir        string                 `json:"dir"`
	Categories map[Category]DataCount `json:"categories"`
}

// DataCount describes the files of one category.
type DataCount struct {
	Files  int       `json:"files"`
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}
