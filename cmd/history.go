package cmd

import (
	"errors"
	"fmt"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/iocache"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper reads and validates the history backend settings.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	backend := backendFromViper("history-backend")
	if _, ok := schema.ValidHistoryBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for run-history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}
	if backend == schema.NoneBackend {
		return errors.New("run history is disabled. Set --history-backend to sqlite, mysql or postgresql")
	}

	// Initialize stores with the loaded config (no day cache for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores, since opening
// the history store would migrate the schema to the latest version first.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on run-history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by analysis commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of analysis runs and exports",
	Long: `Manage the run history used for longitudinal tracking.

When --history-backend is set, every analysis run stores:
- Run metadata (timestamps, range, as-of day, configuration)
- One trend row per metric
- Every recommendation produced

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run history statistics
  export  - Export runs, trends and recommendations to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Check history status
  pulsecheck history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  pulsecheck history export --history-backend sqlite --output-file pulse`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored analysis runs",
	Long: `Delete all stored runs with their trends and recommendations.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  pulsecheck history export --output-file backup
  pulsecheck history clear`,
	PreRunE: historySetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := iocache.Manager.GetHistoryStore().Clear(); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run history cleared successfully.")
	},
}

// historyStatusCmd shows run-history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the run history store.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total recommendations recorded
- Row counts per table

Examples:
  pulsecheck history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(cmd.OutOrStdout(), status)
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs to Parquet files for use with analytics tools.

Writes three files next to the --output-file prefix:
- <prefix>.runs.parquet
- <prefix>.trends.parquet
- <prefix>.recommendations.parquet

Requires: --output-file parameter

Examples:
  pulsecheck history export --output-file pulse
  duckdb -c "SELECT metric, direction, count(*) FROM read_parquet('pulse.trends.parquet') GROUP BY ALL"`,
	PreRunE: historySetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if _, err := iocache.ExportHistory(cmd.OutOrStdout(), iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --to for specific versions.

Examples:
  # Migrate to latest version (default)
  pulsecheck history migrate --history-backend sqlite

  # Migrate to specific version
  pulsecheck history migrate --to 1

  # Rollback every migration
  pulsecheck history migrate --to 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		res, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("to"))
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !res.Changed {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No migrations to apply (version %d).\n", res.To)
			return
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Migrated history schema from version %d to %d.\n", res.From, res.To)
	},
}
