package cmd

import (
	"github.com/huangsam/pulsecheck/core"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/spf13/cobra"
)

// reportCmd renders the full health summary.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the full health summary for a date range",
	Long: `Analyze every category of cached records and print a complete summary.

The report contains:
- Baseline vs recent trends for each metric
- Correlation tables (sedentary time vs sleep, stress vs sleep, sleep vs next-day Body Battery)
- Day-of-week and monthly patterns
- Ranked recommendations

Output formats: text (default), json, csv, html, pdf, xlsx.
The pdf and xlsx formats require --output-file.

When --publish-brokers is set, a report.generated digest is also published to Kafka.

Examples:
  # Last 30 days ending today
  pulsecheck report

  # 90 days ending on a fixed date, with the recent window ending a week earlier
  pulsecheck report --days 90 --end 2026-01-15 --as-of 2026-01-08

  # Write an Excel workbook
  pulsecheck report --output xlsx --output-file pulse.xlsx

  # Publish a digest for downstream consumers
  pulsecheck report --publish-brokers localhost:9092 --publish-topic pulsecheck.reports`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run report", err)
		}
	},
}

// trendsCmd shows per-metric baseline vs recent trends.
var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Compare the recent window of each metric against its baseline",
	Long: `Split the analyzed range into a baseline and a recent window and classify
each metric as improving, stable or declining.

Whether a change is an improvement depends on the metric: a falling resting
heart rate is good, a falling Body Battery is not. Metrics without enough data
in either window are reported as insufficient.

Examples:
  # All metrics
  pulsecheck trends

  # Only resting heart rate, as JSON
  pulsecheck trends --metric resting_hr --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrends(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run trends analysis", err)
		}
	},
}

// bucketsCmd shows the correlation tables.
var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "Show how one metric varies across buckets of another",
	Long: `Group days into buckets of a driver metric and compare a target metric across them.

Tables:
- Sedentary hours vs sleep hours
- Stress level vs sleep hours
- Sleep hours vs next-day Body Battery charge

Buckets with fewer than thresholds.min_bucket_samples days are flagged.

Examples:
  pulsecheck buckets --days 90
  pulsecheck buckets --output csv --output-file buckets.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBuckets(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run bucket analysis", err)
		}
	},
}

// weekdaysCmd shows day-of-week and monthly tables.
var weekdaysCmd = &cobra.Command{
	Use:   "weekdays",
	Short: "Show day-of-week and monthly averages",
	Long: `Average sleep, stress and activity by day of week and by calendar month.

Useful for spotting weekend catch-up sleep or stressful weekdays.

Examples:
  pulsecheck weekdays --days 120
  pulsecheck weekdays --output html --output-file weekdays.html`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeekdays(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run weekday analysis", err)
		}
	},
}

// adviceCmd shows only the ranked recommendations.
var adviceCmd = &cobra.Command{
	Use:   "advice",
	Short: "Show ranked recommendations",
	Long: `Run the full analysis and print only the recommendations, highest priority first.

Cutoffs come from the thresholds block of .pulsecheck.yaml or PULSECHECK_THRESHOLDS_* env vars.

Examples:
  pulsecheck advice
  PULSECHECK_THRESHOLDS_SLEEP_HOURS=7 pulsecheck advice --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAdvice(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run advice", err)
		}
	},
}
