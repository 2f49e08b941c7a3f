package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/datastore"
	"github.com/huangsam/pulsecheck/internal/iocache"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dataSetup loads minimal configuration needed for cache and data directory operations.
// This is used by commands that need cache access without full shared setup.
func dataSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", backend)
	}
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no run history for data commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.DataDir = viper.GetString("data-dir")
	if cfg.DataDir == "" {
		cfg.DataDir = contract.DefaultDataDir
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// dataSetupWrapper wraps dataSetup to provide PreRunE for data commands.
func dataSetupWrapper(_ *cobra.Command, _ []string) error {
	return dataSetup()
}

// dataCmd focused on the raw data directory and the normalized-day cache.
//
// Note: Data subcommands use minimal initialization (dataSetup) instead of
// the full sharedSetup used by analysis commands. This avoids date range
// and threshold processing for simple maintenance operations.
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage cached records and the normalized-day cache",
	Long: `Inspect and clean the local data used by every analysis.

Pulsecheck reads raw JSON records from the data directory and caches the
normalized days so that repeated runs over the same files skip parsing.
The cache key changes whenever a file in the range is added, removed or modified.

Supported cache backends: SQLite (default), MySQL, PostgreSQL, Redis, or None

Subcommands:
  status - Show data files per category and cache statistics
  clear  - Remove cached days (and optionally the raw files)`,
}

// dataStatusCmd shows data directory and cache status.
var dataStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display data files per category and cache statistics",
	Long: `Show how many raw files each category holds and the dates they span,
followed by cache backend details.

Examples:
  pulsecheck data status
  pulsecheck data status --data-dir ~/garmin --cache-backend redis --cache-db-connect redis://localhost:6379/0`,
	PreRunE: dataSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		store := datastore.NewFileStore(cfg.DataDir, logger)
		dataStatus, err := store.Status()
		if err != nil {
			contract.LogFatal("Failed to read data directory", err)
		}
		iocache.PrintDataStatus(cmd.OutOrStdout(), dataStatus)

		cacheStatus, err := iocache.Manager.GetDayStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(cmd.OutOrStdout(), cacheStatus)
	},
}

// dataClearCmd clears the cache and optionally the raw files.
var dataClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached days, and raw files with --files",
	Long: `Delete every entry of the normalized-day cache.

With --files, the raw JSON records of every category are deleted as well.
WARNING: deleting raw files cannot be undone.

Examples:
  # Force the next run to re-parse every file
  pulsecheck data clear

  # Start over with an empty data directory
  pulsecheck data clear --files`,
	PreRunE: dataSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := iocache.Manager.GetDayStore().Clear(); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared successfully.")

		if !viper.GetBool("files") {
			return
		}
		store := datastore.NewFileStore(cfg.DataDir, logger)
		removed, err := store.Clear(schema.AllCategories)
		if err != nil {
			contract.LogFatal("Failed to clear data files", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d data files from %s.\n", removed, cfg.DataDir)
	},
}
