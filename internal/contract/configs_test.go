package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		DataDir:        "./data",
		Days:           30,
		End:            "2026-02-28",
		Output:         "text",
		Precision:      1,
		Color:          "yes",
		CacheBackend:   "none",
		HistoryBackend: "none",
		Thresholds:     schema.DefaultThresholds().Input(),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "yaml" }, expectError: "invalid output format"},
		{name: "pdf needs a file", mutate: func(in *ConfigRawInput) { in.Output = "pdf" }, expectError: "--output-file is required"},
		{name: "pdf with file", mutate: func(in *ConfigRawInput) { in.Output = "PDF"; in.OutputFile = "out.pdf" }},
		{name: "zero days", mutate: func(in *ConfigRawInput) { in.Days = 0 }, expectError: "days must be between"},
		{name: "too many days", mutate: func(in *ConfigRawInput) { in.Days = MaxDays + 1 }, expectError: "days must be between"},
		{name: "bad end", mutate: func(in *ConfigRawInput) { in.End = "someday" }, expectError: "invalid end date"},
		{name: "relative end", mutate: func(in *ConfigRawInput) { in.End = "3 days ago" }},
		{name: "as-of outside range", mutate: func(in *ConfigRawInput) { in.AsOf = "2025-01-01" }, expectError: "outside the analyzed range"},
		{name: "as-of inside range", mutate: func(in *ConfigRawInput) { in.AsOf = "2026-02-20" }},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: "invalid --color"},
		{name: "bad precision", mutate: func(in *ConfigRawInput) { in.Precision = 9 }, expectError: "precision"},
		{name: "unknown metric", mutate: func(in *ConfigRawInput) { in.Metric = "calories" }, expectError: "unknown metric"},
		{name: "bad log format", mutate: func(in *ConfigRawInput) { in.LogFormat = "xml" }, expectError: "invalid log format"},
		{name: "bad cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mongo" }, expectError: "invalid cache backend"},
		{name: "redis is cache only", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, expectError: "invalid history backend"},
		{name: "redis cache needs address", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: "connection string is required"},
		{name: "redis cache", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis"; in.CacheDBConnect = "localhost:6379" }},
		{name: "mysql needs tcp", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "mysql"; in.HistoryDBConnect = "user@host/db" }, expectError: "@tcp("},
		{
			name: "same sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend, in.HistoryBackend = "sqlite", "sqlite"
				in.CacheDBConnect = filepath.Join("tmp", "x.db")
				in.HistoryDBConnect = filepath.Join("tmp", "x.db")
			},
			expectError: "different SQLite database files",
		},
		{name: "missing threshold", mutate: func(in *ConfigRawInput) { in.Thresholds.StressLevel = nil }, expectError: "stress_level"},
		{name: "descending edges", mutate: func(in *ConfigRawInput) { in.Thresholds.SedentaryEdges = []float64{17, 14} }, expectError: "strictly ascending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidateValues(t *testing.T) {
	input := validInput()
	input.AsOf = "2026-02-20"
	input.PublishBrokers = " broker-1:9092, ,broker-2:9092"
	input.Metric = "Resting_HR"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	end := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, end, cfg.Range.End)
	assert.Equal(t, end.AddDate(0, 0, -29), cfg.Range.Start)
	assert.Equal(t, 30, cfg.Range.Days())
	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), cfg.AsOf)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.PublishBrokers)
	assert.Equal(t, DefaultTopic, cfg.PublishTopic)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, schema.RestingHR, cfg.Metric)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, schema.DefaultThresholds(), cfg.Thresholds)
}

func TestProcessAndValidateThresholdOverride(t *testing.T) {
	input := validInput()
	window := 14
	input.Thresholds.RecentWindowDays = &window
	input.Thresholds.TrendTolerance = map[string]float64{"steps": 500}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, 14, cfg.Thresholds.RecentWindowDays)
	assert.Equal(t, 500.0, cfg.Thresholds.Tolerance(schema.Steps))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		DataDir:        "./data",
		PublishBrokers: []string{"a:9092"},
		Thresholds:     schema.DefaultThresholds(),
	}
	clone := cfg.Clone()
	clone.PublishBrokers[0] = "b:9092"
	clone.Thresholds.SleepEdges[0] = 1
	clone.Thresholds.TrendTolerance[schema.Steps] = 1

	assert.Equal(t, "a:9092", cfg.PublishBrokers[0])
	assert.Equal(t, 6.0, cfg.Thresholds.SleepEdges[0])
	assert.Equal(t, 1000.0, cfg.Thresholds.TrendTolerance[schema.Steps])
}

func TestConfigCloneWithRange(t *testing.T) {
	cfg := &Config{DataDir: "./data", Thresholds: schema.DefaultThresholds()}
	end := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	clone := cfg.CloneWithRange(end, 7, time.Time{})
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), clone.Range.Start)
	assert.True(t, cfg.Range.Start.IsZero())
}

func TestConfigParams(t *testing.T) {
	cfg := &Config{DataDir: "./data", Output: schema.JSONOut, Range: schema.NewDateRange(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), 31)}
	params := cfg.Params()
	assert.Equal(t, "2026-01-01", params["start"])
	assert.Equal(t, "n/a", params["as_of"])
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/pulse", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{schema.MySQLBackend, "", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=pulse", false},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.RedisBackend, "redis://localhost:6379/0", false},
		{schema.RedisBackend, "localhost:6379", false},
		{schema.RedisBackend, "localhost", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend)+" "+tt.conn, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRevalidateRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	base := func() *Config {
		return &Config{Range: schema.NewDateRange(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 30)}
	}

	tests := []struct {
		name      string
		days      int
		end, asOf string
		wantStart string
		wantEnd   string
		wantAsOf  string
		wantErr   bool
	}{
		{"keeps current range", 0, "", "", "2026-01-30", "2026-02-28", "n/a", false},
		{"overrides days", 7, "", "", "2026-02-22", "2026-02-28", "n/a", false},
		{"overrides end", 0, "2026-01-31", "", "2026-01-02", "2026-01-31", "n/a", false},
		{"relative end", 10, "today", "", "2026-03-01", "2026-03-10", "n/a", false},
		{"sets as-of", 0, "", "2026-02-20", "2026-01-30", "2026-02-28", "2026-02-20", false},
		{"as-of outside range", 7, "", "2026-01-01", "", "", "", true},
		{"bad days", -1, "", "", "", "", "", true},
		{"bad end", 0, "soon", "", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			err := RevalidateRange(cfg, tt.days, tt.end, tt.asOf, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, schema.FormatDay(cfg.Range.Start))
			assert.Equal(t, tt.wantEnd, schema.FormatDay(cfg.Range.End))
			assert.Equal(t, tt.wantAsOf, schema.FormatDay(cfg.AsOf))
		})
	}
}

func TestRevalidateRangeKeepsAsOfInsideRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)
	cfg := &Config{Range: schema.NewDateRange(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 30), AsOf: asOf}

	require.NoError(t, RevalidateRange(cfg, 7, "", "", now))
	assert.Equal(t, asOf, cfg.AsOf)

	require.NoError(t, RevalidateRange(cfg, 7, "2026-02-10", "", now))
	assert.True(t, cfg.AsOf.IsZero())
}
