package algo

import (
	"math"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// ComputeTrend compares the recent window of a series against its baseline window.
//
// The recent window is the recentWindowDays calendar days ending at asOf
// (inclusive), and the baseline window is every earlier observation.
// Observations after asOf are ignored. The result is nil when the series has
// fewer than 2*recentWindowDays observations or either window is empty.
//
// Direction applies the metric's polarity: a change within tolerance is
// stable, otherwise it is improving or declining depending on whether
// the change moves the metric in its better direction.
func ComputeTrend(series schema.MetricSeries, recentWindowDays int, asOf time.Time, tolerance float64) *schema.TrendResult {
	if recentWindowDays < 1 {
		return nil
	}
	asOf = schema.Day(asOf)
	recentStart := asOf.AddDate(0, 0, -(recentWindowDays - 1))

	var recent, baseline []float64
	for _, p := range series.Points {
		switch {
		case p.Date.After(asOf):
			continue
		case p.Date.Before(recentStart):
			baseline = append(baseline, p.Value)
		default:
			recent = append(recent, p.Value)
		}
	}

	if len(recent)+len(baseline) < 2*recentWindowDays || len(recent) == 0 || len(baseline) == 0 {
		return nil
	}

	recentMean := mean(recent)
	baselineMean := mean(baseline)
	change := recentMean - baselineMean

	var changePct float64
	if baselineMean != 0 {
		changePct = change / baselineMean * 100
	}

	return &schema.TrendResult{
		Metric:        series.Metric,
		RecentMean:    recentMean,
		BaselineMean:  baselineMean,
		Change:        change,
		ChangePct:     changePct,
		RecentCount:   len(recent),
		BaselineCount: len(baseline),
		RecentStart:   recentStart,
		AsOf:          asOf,
		Direction:     classify(series.Metric, change, tolerance),
		Movement:      movement(change),
	}
}

// classify maps a signed change to a direction using the metric's polarity.
func classify(m schema.Metric, change, tolerance float64) schema.Direction {
	if change == 0 || math.Abs(change) <= tolerance {
		return schema.Stable
	}
	if schema.PolarityOf(m).Better(change, 0) {
		return schema.Improving
	}
	return schema.Declining
}

func movement(change float64) schema.Movement {
	switch {
	case change > 0:
		return schema.Rising
	case change < 0:
		return schema.Falling
	default:
		return schema.Flat
	}
}
