// Package report assembles the complete analysis summary from normalized days.
package report

import (
	"fmt"
	"time"

	"github.com/huangsam/pulsecheck/core/advice"
	"github.com/huangsam/pulsecheck/core/algo"
	"github.com/huangsam/pulsecheck/schema"
)

// pair is one tracked correlation between two metrics.
type pair struct {
	name        string
	independent schema.Metric
	dependent   schema.Metric
	lagDays     int
	edges       func(schema.Thresholds) []float64
}

// pairs lists the correlations reported in every summary.
var pairs = []pair{
	{schema.SedentarySleepPair, schema.SedentaryHours, schema.SleepHours, 0, func(th schema.Thresholds) []float64 { return th.SedentaryEdges }},
	{schema.StressRechargePair, schema.Stress, schema.BodyBatteryCharge, 0, func(th schema.Thresholds) []float64 { return th.StressEdges }},
	{schema.SleepBatteryPair, schema.SleepHours, schema.BodyBattery, 1, func(th schema.Thresholds) []float64 { return th.SleepEdges }},
}

// bandEdges are the fixed reporting bands for metrics that get a distribution.
var bandEdges = map[schema.Metric][]float64{
	schema.SleepHours: {6, 7, 8},
	schema.Steps:      {5000, 10000, 20000},
}

// Cutoffs above which a metric is assessed as good. Concern cutoffs come from Thresholds.
const (
	goodRestingHRDrop = 1.0
	goodBodyBattery   = 75.0
	goodSleepHours    = 7.0
	goodStress        = 35.0
)

// MonthlyMetrics are the metrics given a month-by-month table.
var MonthlyMetrics = append(append([]schema.Metric(nil), schema.AllMetrics...), schema.VigorousMinutes)

// WeekdayMetrics are the metrics given a day-of-week table.
var WeekdayMetrics = []schema.Metric{
	schema.SleepHours,
	schema.BodyBattery,
	schema.Stress,
	schema.Steps,
	schema.SedentaryHours,
}

// Assemble runs every analysis over days and packages the result.
//
// asOf anchors the recent trend window. When it is zero the newest day in
// the data is used. Assemble does not read the clock and does not modify days.
func Assemble(days []schema.DayRecord, meta schema.Metadata, th schema.Thresholds, asOf time.Time) (schema.AnalysisSummary, error) {
	if err := th.Validate(); err != nil {
		return schema.AnalysisSummary{}, fmt.Errorf("invalid thresholds: %w", err)
	}
	if asOf.IsZero() {
		asOf = algo.LatestDate(days)
	}
	asOf = schema.Day(asOf)

	series := make(map[schema.Metric]schema.MetricSeries, len(schema.AllMetrics)+len(schema.SupplementalMetrics))
	for _, ms := range [][]schema.Metric{schema.AllMetrics, schema.SupplementalMetrics} {
		for _, m := range ms {
			series[m] = schema.ProjectSeries(days, m)
		}
	}

	summary := schema.AnalysisSummary{
		Range:    dataRange(days),
		AsOf:     asOf,
		DayCount: len(days),
		Metrics:  Metrics(series, th, asOf),
		Weekdays: Weekdays(series),
		Monthly:  Monthly(series),
		Metadata: meta,
	}
	summary.Metadata.RecentWindowDays = th.RecentWindowDays

	correlations, err := Correlations(series, th)
	if err != nil {
		return schema.AnalysisSummary{}, err
	}
	summary.Correlations = correlations

	recs, err := advice.Generate(advice.NewStats(summary.Metrics, summary.Correlations, summary.Weekdays), th)
	if err != nil {
		return schema.AnalysisSummary{}, err
	}
	summary.Recommendations = recs
	return summary, nil
}

// Metrics builds one summary per tracked metric, with availability markers
// for metrics that lack observations or a trend. Sleep stages are read from
// the supplemental deep and REM series when series has them.
func Metrics(series map[schema.Metric]schema.MetricSeries, th schema.Thresholds, asOf time.Time) []schema.MetricSummary {
	out := make([]schema.MetricSummary, 0, len(schema.AllMetrics))
	for _, m := range schema.AllMetrics {
		s := series[m]
		ms := schema.MetricSummary{Metric: m, Status: schema.InsufficientData, TrendStatus: schema.InsufficientData}
		if st := algo.Describe(s); st != nil {
			ms.Status = schema.Available
			ms.Stats = st
		}
		if tr := algo.ComputeTrend(s, th.RecentWindowDays, asOf, th.Tolerance(m)); tr != nil {
			ms.TrendStatus = schema.Available
			ms.Trend = tr
		}
		if edges, ok := bandEdges[m]; ok {
			ms.Bands = algo.Distribution(s, edges)
		}
		switch m {
		case schema.SleepHours:
			ms.Share = algo.ShareOf(s, th.SleepHours, schema.BelowCutoff)
			ms.Stages = algo.Stages(s, series[schema.DeepSleepHours], series[schema.REMSleepHours])
		case schema.SedentaryHours:
			if len(th.SedentaryEdges) > 0 {
				ms.Share = algo.ShareOf(s, th.SedentaryEdges[len(th.SedentaryEdges)-1], schema.AtLeastCutoff)
			}
		case schema.Stress:
			ms.Share = algo.ShareOf(s, th.StressLevel, schema.AboveCutoff)
		case schema.VO2MaxMetric:
			if v, ok := currentLevel(ms); ok {
				ms.FitnessLevel = FitnessLevelOf(v)
			}
		}
		ms.Assessment = Assess(ms, th)
		out = append(out, ms)
	}
	return out
}

// currentLevel is the recent trend mean, falling back to the overall mean.
func currentLevel(ms schema.MetricSummary) (float64, bool) {
	if ms.Trend != nil {
		return ms.Trend.RecentMean, true
	}
	if ms.Stats != nil {
		return ms.Stats.Mean, true
	}
	return 0, false
}

// Assess grades a metric summary as good, normal or a concern.
// Metrics without a grading scheme, or without the statistics it needs, get
// an empty assessment.
func Assess(ms schema.MetricSummary, th schema.Thresholds) schema.Assessment {
	grade := func(concern, good bool) schema.Assessment {
		switch {
		case concern:
			return schema.ConcernAssessment
		case good:
			return schema.GoodAssessment
		}
		return schema.NormalAssessment
	}
	switch ms.Metric {
	case schema.RestingHR:
		if ms.Trend != nil {
			return grade(ms.Trend.Change > th.HRChangeBPM, ms.Trend.Change < -goodRestingHRDrop)
		}
	case schema.BodyBattery:
		if v, ok := currentLevel(ms); ok {
			return grade(v < th.BodyBatteryFloor, v >= goodBodyBattery)
		}
	case schema.VO2MaxMetric:
		if ms.Trend != nil {
			return grade(ms.Trend.Change < -th.VO2MaxDrop, ms.Trend.Change >= 0)
		}
	case schema.SleepHours:
		if ms.Stats != nil {
			return grade(ms.Stats.Mean < th.SleepHours, ms.Stats.Mean >= goodSleepHours)
		}
	case schema.Stress:
		if ms.Stats != nil {
			return grade(ms.Stats.Mean > th.StressLevel, ms.Stats.Mean < goodStress)
		}
	}
	return ""
}

// FitnessLevelOf maps a VO2 Max reading to its general fitness category.
// The bands are approximate and do not account for age or sex.
func FitnessLevelOf(vo2max float64) schema.FitnessLevel {
	switch {
	case vo2max >= 55:
		return schema.ExcellentFitness
	case vo2max >= 50:
		return schema.VeryGoodFitness
	case vo2max >= 45:
		return schema.GoodFitness
	case vo2max >= 40:
		return schema.FairFitness
	}
	return schema.NeedsImprovementFitness
}

// Correlations bucketizes every tracked pair.
func Correlations(series map[schema.Metric]schema.MetricSeries, th schema.Thresholds) ([]schema.CorrelationTable, error) {
	out := make([]schema.CorrelationTable, 0, len(pairs))
	for _, p := range pairs {
		independent := series[p.independent]
		if p.lagDays != 0 {
			independent = independent.Shift(p.lagDays)
		}
		table, err := algo.Bucketize(p.name, independent, series[p.dependent], p.edges(th), th.MinBucketSamples)
		if err != nil {
			return nil, err
		}
		table.LagDays = p.lagDays
		out = append(out, table)
	}
	return out, nil
}

// Weekdays builds the day-of-week tables.
func Weekdays(series map[schema.Metric]schema.MetricSeries) []schema.WeekdayTable {
	out := make([]schema.WeekdayTable, 0, len(WeekdayMetrics))
	for _, m := range WeekdayMetrics {
		out = append(out, algo.AggregateByWeekday(series[m]))
	}
	return out
}

// Monthly builds month-by-month tables for metrics that have data.
// Vigorous minutes are reported as monthly totals.
func Monthly(series map[schema.Metric]schema.MetricSeries) []schema.MonthlyTable {
	var out []schema.MonthlyTable
	for _, m := range MonthlyMetrics {
		if series[m].Len() == 0 {
			continue
		}
		out = append(out, algo.AggregateByMonth(series[m]))
	}
	return out
}

// dataRange spans the oldest through newest day present.
func dataRange(days []schema.DayRecord) schema.DateRange {
	var r schema.DateRange
	for i, d := range days {
		if i == 0 || d.Date.Before(r.Start) {
			r.Start = d.Date
		}
		if i == 0 || d.Date.After(r.End) {
			r.End = d.Date
		}
	}
	return r
}
