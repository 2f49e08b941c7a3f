package report

import (
	"testing"
	"time"

	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// fourWeeks returns 28 days with every metric except VO2 Max populated.
func fourWeeks() []schema.DayRecord {
	days := make([]schema.DayRecord, 28)
	for i := range days {
		d := schema.DayRecord{Date: start.AddDate(0, 0, i)}
		sedentary := 12.0
		sleep := 7.6
		if i%3 == 0 {
			sedentary, sleep = 18, 5.8
		}
		d.Set(schema.SedentaryHours, sedentary)
		d.Set(schema.SleepHours, sleep)
		d.Set(schema.RestingHR, 50+float64(i)*0.3)
		d.Set(schema.BodyBattery, 75)
		d.Set(schema.BodyBatteryCharge, 60)
		d.Set(schema.Stress, 30)
		d.Set(schema.Steps, 9000)
		days[i] = d
	}
	return days
}

func TestAssemble(t *testing.T) {
	days := fourWeeks()
	meta := schema.Metadata{DroppedRecords: 2, RecordsByCategory: map[schema.Category]int{schema.DailySummaries: 28}}
	summary, err := Assemble(days, meta, schema.DefaultThresholds(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 28, summary.DayCount)
	assert.Equal(t, start, summary.Range.Start)
	assert.Equal(t, start.AddDate(0, 0, 27), summary.Range.End)
	assert.Equal(t, start.AddDate(0, 0, 27), summary.AsOf, "as-of defaults to the newest day")
	assert.Equal(t, 2, summary.Metadata.DroppedRecords)
	assert.Equal(t, 7, summary.Metadata.RecentWindowDays)

	require.Len(t, summary.Metrics, len(schema.AllMetrics))
	rhr, ok := summary.Metric(schema.RestingHR)
	require.True(t, ok)
	assert.Equal(t, schema.Available, rhr.Status)
	require.NotNil(t, rhr.Trend)
	assert.Equal(t, schema.Declining, rhr.Trend.Direction)

	require.Len(t, summary.Correlations, 3)
	sed, ok := summary.Correlation(schema.SedentarySleepPair)
	require.True(t, ok)
	assert.Equal(t, schema.Available, sed.Status)
	assert.Equal(t, schema.WorstImpact, sed.Buckets[2].Impact)

	lagged, ok := summary.Correlation(schema.SleepBatteryPair)
	require.True(t, ok)
	assert.Equal(t, 1, lagged.LagDays)
	assert.Equal(t, 27, lagged.JoinedCount, "the last night has no next day")

	assert.Len(t, summary.Weekdays, len(WeekdayMetrics))
	assert.Len(t, summary.Monthly, len(schema.AllMetrics)-1)

	rules := make([]string, 0, len(summary.Recommendations))
	for _, r := range summary.Recommendations {
		rules = append(rules, r.Rule)
	}
	assert.Contains(t, rules, "resting-hr-rise")
	assert.Contains(t, rules, "sedentary-sleep-gap")
}

func TestAssembleMissingMetricIsMarked(t *testing.T) {
	summary, err := Assemble(fourWeeks(), schema.Metadata{}, schema.DefaultThresholds(), time.Time{})
	require.NoError(t, err)

	vo2, ok := summary.Metric(schema.VO2MaxMetric)
	require.True(t, ok)
	assert.Equal(t, schema.InsufficientData, vo2.Status)
	assert.Equal(t, schema.InsufficientData, vo2.TrendStatus)
	assert.Nil(t, vo2.Stats)
	assert.Nil(t, vo2.Trend)

	steps, _ := summary.Metric(schema.Steps)
	assert.Equal(t, schema.Available, steps.Status, "one metric's gap does not affect another")
}

func TestAssembleShortHistoryHasNoTrends(t *testing.T) {
	days := fourWeeks()[:10]
	summary, err := Assemble(days, schema.Metadata{}, schema.DefaultThresholds(), time.Time{})
	require.NoError(t, err)
	for _, ms := range summary.Metrics {
		assert.Equal(t, schema.InsufficientData, ms.TrendStatus, ms.Metric)
	}
}

func TestAssembleExplicitAsOf(t *testing.T) {
	asOf := start.AddDate(0, 0, 20).Add(15 * time.Hour)
	summary, err := Assemble(fourWeeks(), schema.Metadata{}, schema.DefaultThresholds(), asOf)
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 20), summary.AsOf)

	rhr, _ := summary.Metric(schema.RestingHR)
	require.NotNil(t, rhr.Trend)
	assert.Equal(t, 7, rhr.Trend.RecentCount)
	assert.Equal(t, 14, rhr.Trend.BaselineCount)
}

func TestAssembleEmpty(t *testing.T) {
	summary, err := Assemble(nil, schema.Metadata{}, schema.DefaultThresholds(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.DayCount)
	assert.Empty(t, summary.Recommendations)
	for _, ms := range summary.Metrics {
		assert.Equal(t, schema.InsufficientData, ms.Status)
	}
	for _, c := range summary.Correlations {
		assert.Equal(t, schema.InsufficientData, c.Status)
	}
}

func TestAssembleInvalidThresholds(t *testing.T) {
	th := schema.DefaultThresholds()
	th.RecentWindowDays = 0
	_, err := Assemble(fourWeeks(), schema.Metadata{}, th, time.Time{})
	assert.Error(t, err)
}

func TestAssembleDoesNotMutateDays(t *testing.T) {
	days := fourWeeks()
	first := *days[0].SleepHours
	_, err := Assemble(days, schema.Metadata{}, schema.DefaultThresholds(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, first, *days[0].SleepHours)
	assert.Equal(t, start, days[0].Date)
}

func TestAssembleDerivedStatistics(t *testing.T) {
	days := fourWeeks()
	for i := range days {
		days[i].DeepSleepHours = schema.Float(1.2)
		days[i].REMSleepHours = schema.Float(1.6)
		days[i].VigorousMinutes = schema.Float(20)
	}
	summary, err := Assemble(days, schema.Metadata{}, schema.DefaultThresholds(), time.Time{})
	require.NoError(t, err)

	sleep, _ := summary.Metric(schema.SleepHours)
	assert.Equal(t, schema.NormalAssessment, sleep.Assessment, "a 6.96h mean is neither short nor good")
	require.NotNil(t, sleep.Share)
	assert.Equal(t, schema.BelowCutoff, sleep.Share.Side)
	assert.Equal(t, 10, sleep.Share.Count)
	require.Len(t, sleep.Bands, 4)
	assert.Equal(t, "<6h", sleep.Bands[0].Label)
	assert.Equal(t, 10, sleep.Bands[0].Count)
	assert.Equal(t, 18, sleep.Bands[2].Count)
	require.NotNil(t, sleep.Stages)
	assert.Equal(t, 28, sleep.Stages.Nights)
	assert.InDelta(t, 1.2, sleep.Stages.DeepHours, 1e-9)

	sed, _ := summary.Metric(schema.SedentaryHours)
	require.NotNil(t, sed.Share)
	assert.Equal(t, 17.0, sed.Share.Cutoff)
	assert.Equal(t, schema.AtLeastCutoff, sed.Share.Side)

	stress, _ := summary.Metric(schema.Stress)
	assert.Equal(t, schema.GoodAssessment, stress.Assessment)
	require.NotNil(t, stress.Share)
	assert.Equal(t, 0, stress.Share.Count)

	rhr, _ := summary.Metric(schema.RestingHR)
	assert.Equal(t, schema.ConcernAssessment, rhr.Assessment)

	bb, _ := summary.Metric(schema.BodyBattery)
	assert.Equal(t, schema.GoodAssessment, bb.Assessment)

	steps, _ := summary.Metric(schema.Steps)
	require.Len(t, steps.Bands, 4)
	assert.Equal(t, "5000-10000", steps.Bands[1].Label)
	assert.Equal(t, 28, steps.Bands[1].Count)
	assert.Empty(t, steps.Assessment)

	vo2, _ := summary.Metric(schema.VO2MaxMetric)
	assert.Empty(t, vo2.FitnessLevel)
	assert.Empty(t, vo2.Assessment)

	var vigorous *schema.MonthlyTable
	for i := range summary.Monthly {
		if summary.Monthly[i].Metric == schema.VigorousMinutes {
			vigorous = &summary.Monthly[i]
		}
	}
	require.NotNil(t, vigorous)
	assert.True(t, vigorous.Summed)
	require.Len(t, vigorous.Months, 2, "the four weeks end on February 1")
	assert.Equal(t, 540.0, vigorous.Value(vigorous.Months[0]))
	assert.Equal(t, 20.0, vigorous.Value(vigorous.Months[1]))
}

func TestAssess(t *testing.T) {
	th := schema.DefaultThresholds()
	trend := func(m schema.Metric, change float64) schema.MetricSummary {
		return schema.MetricSummary{Metric: m, Trend: &schema.TrendResult{Change: change, RecentMean: 50}}
	}
	mean := func(m schema.Metric, v float64) schema.MetricSummary {
		return schema.MetricSummary{Metric: m, Stats: &schema.MetricStats{Count: 10, Mean: v}}
	}
	tests := []struct {
		name string
		ms   schema.MetricSummary
		want schema.Assessment
	}{
		{"resting hr up", trend(schema.RestingHR, 3.5), schema.ConcernAssessment},
		{"resting hr flat", trend(schema.RestingHR, 0), schema.NormalAssessment},
		{"resting hr down", trend(schema.RestingHR, -1.5), schema.GoodAssessment},
		{"resting hr without trend", mean(schema.RestingHR, 70), ""},
		{"body battery low", mean(schema.BodyBattery, 55), schema.ConcernAssessment},
		{"body battery high", mean(schema.BodyBattery, 80), schema.GoodAssessment},
		{"vo2max falling fast", trend(schema.VO2MaxMetric, -2.5), schema.ConcernAssessment},
		{"vo2max slipping", trend(schema.VO2MaxMetric, -1), schema.NormalAssessment},
		{"vo2max holding", trend(schema.VO2MaxMetric, 0), schema.GoodAssessment},
		{"short sleep", mean(schema.SleepHours, 6), schema.ConcernAssessment},
		{"long sleep", mean(schema.SleepHours, 7.4), schema.GoodAssessment},
		{"high stress", mean(schema.Stress, 50), schema.ConcernAssessment},
		{"middling stress", mean(schema.Stress, 40), schema.NormalAssessment},
		{"steps are not graded", mean(schema.Steps, 2000), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Assess(tt.ms, th), tt.name)
	}
}

func TestFitnessLevelOf(t *testing.T) {
	tests := []struct {
		vo2max float64
		want   schema.FitnessLevel
	}{
		{58, schema.ExcellentFitness},
		{55, schema.ExcellentFitness},
		{52, schema.VeryGoodFitness},
		{45, schema.GoodFitness},
		{41.9, schema.FairFitness},
		{39.9, schema.NeedsImprovementFitness},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FitnessLevelOf(tt.vo2max), tt.vo2max)
	}
}
