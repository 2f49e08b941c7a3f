// Package cmd defines the command-line interface for pulsecheck.
package cmd

import (
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/iocache"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(weekdaysCmd)
	rootCmd.AddCommand(adviceCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the data subcommands to the parent data command
	dataCmd.AddCommand(dataStatusCmd)
	dataCmd.AddCommand(dataClearCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Directory holding the cached vendor records")
	rootCmd.PersistentFlags().IntP("days", "d", contract.DefaultDays, "Number of days to analyze, ending at --end")
	rootCmd.PersistentFlags().String("end", "", "Last day of the range in YYYY-MM-DD or time ago (default today)")
	rootCmd.PersistentFlags().String("as-of", "", "Reference day for the recent trend window (default newest day with data)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or html or pdf or xlsx")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of trendsCmd to Viper
	trendsCmd.Flags().String("metric", "", "Only show this metric (e.g. resting_hr, sleep_hours)")
	if err := viper.BindPFlags(trendsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding trends flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().String("publish-brokers", "", "Comma-separated Kafka brokers to publish a report.generated digest to")
	reportCmd.Flags().String("publish-topic", contract.DefaultTopic, "Kafka topic for report digests")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Address for the HTTP server to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of sampleCmd to Viper
	sampleCmd.Flags().Uint64("seed", 42, "Random seed; the same seed always produces the same files")
	if err := viper.BindPFlags(sampleCmd.Flags()); err != nil {
		contract.LogFatal("Error binding sample flags", err)
	}

	// Bind all flags of dataClearCmd to Viper
	dataClearCmd.Flags().Bool("files", false, "Also delete the raw record files in --data-dir")
	if err := viper.BindPFlags(dataClearCmd.Flags()); err != nil {
		contract.LogFatal("Error binding data clear flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("to", iocache.LatestVersion, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
