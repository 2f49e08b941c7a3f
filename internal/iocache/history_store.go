package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
)

// Table names for run history.
const (
	runsTable            = "pulse_runs"
	trendsTable          = "pulse_trends"
	recommendationsTable = "pulse_recommendations"
)

// historyTables lists the history tables, children first.
var historyTables = []string{trendsTable, recommendationsTable, runsTable}

// HistoryStoreImpl implements the HistoryStore interface on a SQL backend.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore migrates the schema to the latest version and opens the store.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	switch backend {
	case schema.NoneBackend:
		return &HistoryStoreImpl{backend: backend}, nil
	case schema.RedisBackend:
		return nil, fmt.Errorf("the %s backend cannot hold run history", backend)
	}

	if _, err := MigrateHistory(backend, connStr, LatestVersion); err != nil {
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}
	db, err := openDatabase(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) table(name string) string {
	return quoteTableName(name, hs.backend)
}

// BeginRun creates a new run row with a fresh UUID and returns its ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	runUUID := uuid.NewString()
	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, hs.table(runsTable))
		err = hs.db.QueryRow(query, runUUID, formatTime(startTime, hs.backend), string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, hs.table(runsTable))
		var result sql.Result
		result, err = hs.db.Exec(query, runUUID, formatTime(startTime, hs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun completes a run with its duration and the facts of the summary.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.AnalysisSummary) error {
	if hs.db == nil {
		return nil
	}

	var start timeScanner
	query := rebind(hs.backend, fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, hs.table(runsTable)))
	if err := hs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	update := rebind(hs.backend, fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, as_of = ?, range_start = ?, range_end = ?,
		day_count = ?, dropped_records = ?, recommendation_count = ? WHERE run_id = ?`, hs.table(runsTable)))
	_, err := hs.db.Exec(update,
		formatTime(endTime, hs.backend),
		endTime.Sub(start.Time).Milliseconds(),
		formatDay(summary.AsOf),
		formatDay(summary.Range.Start),
		formatDay(summary.Range.End),
		summary.DayCount,
		summary.Metadata.DroppedRecords,
		len(summary.Recommendations),
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordTrend stores one metric trend for a run.
func (hs *HistoryStoreImpl) RecordTrend(runID int64, trend schema.TrendResult) error {
	if hs.db == nil {
		return nil
	}
	query := rebind(hs.backend, fmt.Sprintf(`INSERT INTO %s (run_id, metric, as_of, recent_mean, baseline_mean, change_value, direction)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, hs.table(trendsTable)))
	_, err := hs.db.Exec(query, runID, string(trend.Metric), formatDay(trend.AsOf),
		trend.RecentMean, trend.BaselineMean, trend.Change, string(trend.Direction))
	if err != nil {
		return fmt.Errorf("failed to insert trend %s: %w", trend.Metric, err)
	}
	return nil
}

// RecordRecommendation stores one recommendation for a run.
func (hs *HistoryStoreImpl) RecordRecommendation(runID int64, rec schema.Recommendation) error {
	if hs.db == nil {
		return nil
	}
	query := rebind(hs.backend, fmt.Sprintf(`INSERT INTO %s (run_id, rule_name, category, priority, message) VALUES (?, ?, ?, ?, ?)`,
		hs.table(recommendationsTable)))
	_, err := hs.db.Exec(query, runID, rec.Rule, string(rec.Category), string(rec.Priority), rec.Message)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation %s: %w", rec.Rule, err)
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])
	status.TotalRecommendations = int(status.TableSizes[recommendationsTable])
	if status.TotalRuns == 0 {
		return status, nil
	}

	var last, oldest timeScanner
	lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", hs.table(runsTable))
	if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &last); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", hs.table(runsTable))
	if err := hs.db.QueryRow(oldestQuery).Scan(&oldest); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.LastRunTime = last.Time
	status.OldestRunTime = oldest.Time
	return status, nil
}

// GetAllRuns retrieves every run, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, start_time, end_time, run_duration_ms, as_of, range_start, range_end,
		day_count, dropped_records, recommendation_count, config_params FROM %s ORDER BY run_id`, hs.table(runsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var (
			record                    schema.RunRecord
			start, end                timeScanner
			duration                  sql.NullInt32
			asOf, rangeStart, rangeEd sql.NullString
			params                    sql.NullString
		)
		if err := rows.Scan(&record.RunID, &record.RunUUID, &start, &end, &duration, &asOf, &rangeStart, &rangeEd,
			&record.DayCount, &record.DroppedRecords, &record.RecommendationCount, &params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.Time
		if end.Valid {
			t := end.Time
			record.EndTime = &t
		}
		if duration.Valid {
			d := duration.Int32
			record.RunDurationMs = &d
		}
		record.AsOf = parseDay(asOf)
		record.RangeStart = parseDay(rangeStart)
		record.RangeEnd = parseDay(rangeEd)
		if params.Valid {
			p := params.String
			record.ConfigParams = &p
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllTrends retrieves every stored trend row.
func (hs *HistoryStoreImpl) GetAllTrends() ([]schema.TrendRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, metric, as_of, recent_mean, baseline_mean, change_value, direction
		FROM %s ORDER BY run_id, metric`, hs.table(trendsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TrendRecord
	for rows.Next() {
		var (
			record schema.TrendRecord
			asOf   sql.NullString
		)
		if err := rows.Scan(&record.RunID, &record.Metric, &asOf, &record.RecentMean, &record.BaselineMean,
			&record.Change, &record.Direction); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		record.AsOf = parseDay(asOf)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trends: %w", err)
	}
	return results, nil
}

// GetAllRecommendations retrieves every stored recommendation row.
func (hs *HistoryStoreImpl) GetAllRecommendations() ([]schema.RecommendationRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, rule_name, category, priority, message FROM %s ORDER BY run_id, rule_name`,
		hs.table(recommendationsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RecommendationRecord
	for rows.Next() {
		var record schema.RecommendationRecord
		if err := rows.Scan(&record.RunID, &record.Rule, &record.Category, &record.Priority, &record.Message); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}
	return results, nil
}

// Clear removes all runs and their children.
func (hs *HistoryStoreImpl) Clear() error {
	if hs.db == nil {
		return nil
	}
	for _, table := range historyTables {
		if _, err := hs.db.Exec(fmt.Sprintf("DELETE FROM %s", hs.table(table))); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// formatDay stores calendar days as YYYY-MM-DD on every backend.
func formatDay(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(schema.DayLayout)
}

func parseDay(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	d, err := schema.ParseDay(s.String)
	if err != nil {
		return time.Time{}
	}
	return d
}
