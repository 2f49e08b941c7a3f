package contract

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// Default values for configuration.
const (
	DefaultDataDir     = "./data"
	DefaultDays        = 30
	MaxDays            = 3650
	DefaultPrecision   = 1
	DefaultAddr        = ":8080"
	DefaultTopic       = "pulsecheck.reports"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultOutputLimit = 5 // recommendations shown in the text headline block
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	DataDir string
	Range   schema.DateRange
	AsOf    time.Time // zero means the newest day in the data

	Metric schema.Metric // optional filter for trend views

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string

	Addr string

	PublishBrokers []string
	PublishTopic   string

	Thresholds schema.Thresholds
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir          string `mapstructure:"data-dir"`
	Days             int    `mapstructure:"days"`
	End              string `mapstructure:"end"`
	AsOf             string `mapstructure:"as-of"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`

	// --- Fields from trendsCmd.Flags() ---
	Metric string `mapstructure:"metric"`

	// --- Fields from serveCmd.Flags() ---
	Addr string `mapstructure:"addr"`

	// --- Fields from reportCmd.Flags() ---
	PublishBrokers string `mapstructure:"publish-brokers"`
	PublishTopic   string `mapstructure:"publish-topic"`

	// --- Thresholds from config file or env ---
	Thresholds schema.ThresholdsInput `mapstructure:"thresholds"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.PublishBrokers != nil {
		clone.PublishBrokers = append([]string(nil), c.PublishBrokers...)
	}
	clone.Thresholds.SedentaryEdges = append([]float64(nil), c.Thresholds.SedentaryEdges...)
	clone.Thresholds.StressEdges = append([]float64(nil), c.Thresholds.StressEdges...)
	clone.Thresholds.SleepEdges = append([]float64(nil), c.Thresholds.SleepEdges...)
	if c.Thresholds.TrendTolerance != nil {
		clone.Thresholds.TrendTolerance = make(map[schema.Metric]float64, len(c.Thresholds.TrendTolerance))
		maps.Copy(clone.Thresholds.TrendTolerance, c.Thresholds.TrendTolerance)
	}
	return &clone
}

// CloneWithRange creates a copy of the Config for a different date range and as-of day.
func (c *Config) CloneWithRange(end time.Time, days int, asOf time.Time) *Config {
	clone := c.Clone()
	clone.Range = schema.NewDateRange(end, days)
	clone.AsOf = asOf
	return clone
}

// Params returns the settings recorded alongside each history run.
func (c *Config) Params() map[string]any {
	return map[string]any{
		"data_dir":   c.DataDir,
		"start":      schema.FormatDay(c.Range.Start),
		"end":        schema.FormatDay(c.Range.End),
		"as_of":      schema.FormatDay(c.AsOf),
		"output":     c.Output,
		"thresholds": c.Thresholds,
	}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDateRange(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") && !strings.Contains(connStr, ":") {
			return fmt.Errorf("redis connection string must be a redis:// URL or host:port")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// Cache and history tables live in separate SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-date fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.DataDir = strings.TrimSpace(input.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 0 || input.Precision > 3 {
		return fmt.Errorf("precision must be between 0 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, html, pdf, xlsx", input.Output)
	}
	if (cfg.Output == schema.PDFOut || cfg.Output == schema.XLSXOut) && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for %s output", cfg.Output)
	}

	if input.Metric != "" {
		m, err := schema.ParseMetric(input.Metric)
		if err != nil {
			return err
		}
		cfg.Metric = m
	}

	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be console or json", input.LogFormat)
	}

	cfg.PublishBrokers = nil
	for b := range strings.SplitSeq(input.PublishBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.PublishBrokers = append(cfg.PublishBrokers, b)
		}
	}
	cfg.PublishTopic = input.PublishTopic
	if cfg.PublishTopic == "" {
		cfg.PublishTopic = DefaultTopic
	}

	return validateBackendConfigs(cfg, input)
}

// processDateRange resolves the analyzed range and the reference day.
func processDateRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if input.Days < 1 || input.Days > MaxDays {
		return fmt.Errorf("days must be between 1 and %d (received %d)", MaxDays, input.Days)
	}

	end := now
	if input.End != "" {
		t, err := ParseDateArg(input.End, now)
		if err != nil {
			return fmt.Errorf("invalid end date '%s': %w", input.End, err)
		}
		end = t
	}
	cfg.Range = schema.NewDateRange(end, input.Days)

	cfg.AsOf = time.Time{}
	if input.AsOf != "" {
		t, err := ParseDateArg(input.AsOf, now)
		if err != nil {
			return fmt.Errorf("invalid as-of date '%s': %w", input.AsOf, err)
		}
		cfg.AsOf = schema.Day(t)
		if !cfg.Range.Contains(cfg.AsOf) {
			return fmt.Errorf("as-of date %s is outside the analyzed range %s to %s",
				schema.FormatDay(cfg.AsOf), schema.FormatDay(cfg.Range.Start), schema.FormatDay(cfg.Range.End))
		}
	}
	return nil
}

// RevalidateRange re-resolves the analyzed range for one request.
// Zero days and an empty end keep the current values. An empty asOf keeps the
// current as-of day when it still falls inside the new range.
func RevalidateRange(cfg *Config, days int, end, asOf string, now time.Time) error {
	input := &ConfigRawInput{Days: days, End: end, AsOf: asOf}
	if input.Days == 0 {
		input.Days = cfg.Range.Days()
	}
	if input.End == "" && !cfg.Range.End.IsZero() {
		input.End = cfg.Range.End.Format(schema.DayLayout)
	}
	base := cfg.AsOf
	if err := processDateRange(cfg, input, now); err != nil {
		return err
	}
	if asOf == "" && !base.IsZero() && cfg.Range.Contains(base) {
		cfg.AsOf = base
	}
	return nil
}

// processThresholds resolves and validates the analysis cutoffs.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	th, err := input.Thresholds.Resolve()
	if err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	cfg.Thresholds = th
	return nil
}
