package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/datastore"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sampleCmd writes synthetic records into the data directory.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate synthetic health records for trying pulsecheck out",
	Long: `Write realistic, reproducible records for every category into --data-dir.

The generated data follows a training cycle: resting heart rate rises and
Body Battery falls during the build phase, weekdays are more stressful and
sedentary than weekends, and sedentary days lead to shorter sleep.
The same --seed always produces the same files.

Examples:
  # 90 days ending today
  pulsecheck sample --days 90

  # Reproducible data for a demo
  pulsecheck sample --data-dir ./demo --days 120 --end 2026-01-15 --seed 7
  pulsecheck report --data-dir ./demo --days 120 --end 2026-01-15`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := loadConfigFile(); err != nil {
			contract.LogFatal("Cannot load config", err)
		}

		days := viper.GetInt("days")
		if days < 1 || days > contract.MaxDays {
			contract.LogFatal("Cannot generate sample", fmt.Errorf("days must be between 1 and %d (received %d)", contract.MaxDays, days))
		}
		now := time.Now()
		end := now
		if s := viper.GetString("end"); s != "" {
			t, err := contract.ParseDateArg(s, now)
			if err != nil {
				contract.LogFatal("Cannot generate sample", fmt.Errorf("invalid end date '%s': %w", s, err))
			}
			end = t
		}
		dir := viper.GetString("data-dir")

		res, err := datastore.GenerateSample(dir, schema.Day(end), days, viper.GetUint64("seed"))
		if err != nil {
			contract.LogFatal("Cannot generate sample", err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "✅ Wrote %d days of sample data to %s\n", res.Days, res.Dir)
		categories := make([]string, 0, len(res.Files))
		for c := range res.Files {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)
		for _, c := range categories {
			_, _ = fmt.Fprintf(out, "  %s: %d files\n", c, res.Files[schema.Category(c)])
		}
	},
}
