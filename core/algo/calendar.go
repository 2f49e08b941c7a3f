package algo

import (
	"sort"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// AggregateByWeekday computes the mean of a series for each weekday.
//
// Entries follow Monday-first order and weekdays without observations are
// left out rather than reported as zero. Best and Worst use the metric's
// polarity, with ties going to the earlier weekday. The result does not
// depend on the order of the input points.
func AggregateByWeekday(series schema.MetricSeries) schema.WeekdayTable {
	var sums [7]float64
	var counts [7]int
	for _, p := range series.Points {
		idx := schema.WeekdayRank(p.Date.Weekday())
		sums[idx] += p.Value
		counts[idx]++
	}

	table := schema.WeekdayTable{Metric: series.Metric, Status: schema.InsufficientData}
	polarity := schema.PolarityOf(series.Metric)
	best, worst := -1, -1
	for i, wd := range schema.WeekdayOrder {
		if counts[i] == 0 {
			continue
		}
		entry := schema.WeekdayMean{Weekday: wd, Mean: sums[i] / float64(counts[i]), Count: counts[i]}
		table.Entries = append(table.Entries, entry)
		pos := len(table.Entries) - 1
		if best == -1 || polarity.Better(entry.Mean, table.Entries[best].Mean) {
			best = pos
		}
		if worst == -1 || polarity.Better(table.Entries[worst].Mean, entry.Mean) {
			worst = pos
		}
	}

	if len(table.Entries) == 0 {
		return table
	}
	table.Status = schema.Available
	bestDay := table.Entries[best].Weekday
	worstDay := table.Entries[worst].Weekday
	table.Best = &bestDay
	table.Worst = &worstDay
	return table
}

// WeekdayGap returns the difference between the best and worst weekday means.
func WeekdayGap(table schema.WeekdayTable) (float64, bool) {
	if table.Best == nil || table.Worst == nil {
		return 0, false
	}
	b, okB := table.Entry(*table.Best)
	w, okW := table.Entry(*table.Worst)
	if !okB || !okW {
		return 0, false
	}
	gap := b.Mean - w.Mean
	if gap < 0 {
		gap = -gap
	}
	return gap, true
}

// AggregateByMonth computes the mean and total of a series per calendar month, ascending.
func AggregateByMonth(series schema.MetricSeries) schema.MonthlyTable {
	type acc struct {
		sum   float64
		count int
	}
	months := make(map[string]*acc)
	for _, p := range series.Points {
		key := p.Date.Format("2006-01")
		if months[key] == nil {
			months[key] = &acc{}
		}
		months[key].sum += p.Value
		months[key].count++
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, summed := schema.SummedMetrics[series.Metric]
	table := schema.MonthlyTable{Metric: series.Metric, Summed: summed, Months: make([]schema.MonthlyMean, 0, len(keys))}
	for _, k := range keys {
		a := months[k]
		table.Months = append(table.Months, schema.MonthlyMean{Month: k, Mean: a.sum / float64(a.count), Total: a.sum, Count: a.count})
	}
	return table
}

// LatestDate returns the newest date across all days, or the zero time.
func LatestDate(days []schema.DayRecord) time.Time {
	var latest time.Time
	for _, d := range days {
		if d.Date.After(latest) {
			latest = d.Date
		}
	}
	return latest
}
