package algo

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-05 is a Monday.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func weekSeries(m schema.Metric, byOffset map[int][]float64) schema.MetricSeries {
	s := schema.MetricSeries{Metric: m}
	for offset, values := range byOffset {
		for week, v := range values {
			s.Points = append(s.Points, schema.Point{Date: monday.AddDate(0, 0, offset+7*week), Value: v})
		}
	}
	return s
}

func TestAggregateByWeekday(t *testing.T) {
	s := weekSeries(schema.SleepHours, map[int][]float64{
		0: {6, 7},   // Monday 6.5
		2: {8},      // Wednesday 8
		4: {5.5, 6}, // Friday 5.75
		6: {7.5},    // Sunday 7.5
	})
	table := AggregateByWeekday(s)

	assert.Equal(t, schema.Available, table.Status)
	require.Len(t, table.Entries, 4)
	got := []time.Weekday{}
	for _, e := range table.Entries {
		got = append(got, e.Weekday)
	}
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Sunday}, got)

	_, ok := table.Entry(time.Tuesday)
	assert.False(t, ok, "absent weekdays are omitted, not zero")

	mon, _ := table.Entry(time.Monday)
	assert.InDelta(t, 6.5, mon.Mean, 1e-9)
	assert.Equal(t, 2, mon.Count)

	require.NotNil(t, table.Best)
	require.NotNil(t, table.Worst)
	assert.Equal(t, time.Wednesday, *table.Best)
	assert.Equal(t, time.Friday, *table.Worst)

	gap, ok := WeekdayGap(table)
	require.True(t, ok)
	assert.InDelta(t, 2.25, gap, 1e-9)
}

func TestAggregateByWeekdayPolarityAndTies(t *testing.T) {
	s := weekSeries(schema.Stress, map[int][]float64{
		1: {30}, // Tuesday
		3: {30}, // Thursday
		5: {50}, // Saturday
		6: {50}, // Sunday
	})
	table := AggregateByWeekday(s)
	assert.Equal(t, time.Tuesday, *table.Best, "lower stress is better, earliest tie wins")
	assert.Equal(t, time.Saturday, *table.Worst, "earliest tie wins for worst too")
}

func TestAggregateByWeekdayEmpty(t *testing.T) {
	table := AggregateByWeekday(schema.MetricSeries{Metric: schema.Steps})
	assert.Equal(t, schema.InsufficientData, table.Status)
	assert.Empty(t, table.Entries)
	assert.Nil(t, table.Best)
	_, ok := WeekdayGap(table)
	assert.False(t, ok)
}

func TestAggregateByWeekdayOrderIndependent(t *testing.T) {
	s := schema.MetricSeries{Metric: schema.Steps}
	for i := range 60 {
		s.Points = append(s.Points, schema.Point{Date: monday.AddDate(0, 0, i), Value: float64(4000 + (i*7919)%9000)})
	}
	want := AggregateByWeekday(s)

	r := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := schema.MetricSeries{Metric: s.Metric, Points: append([]schema.Point(nil), s.Points...)}
		r.Shuffle(len(shuffled.Points), func(i, j int) {
			shuffled.Points[i], shuffled.Points[j] = shuffled.Points[j], shuffled.Points[i]
		})
		got := AggregateByWeekday(shuffled)
		require.Len(t, got.Entries, len(want.Entries))
		for i := range want.Entries {
			assert.Equal(t, want.Entries[i].Weekday, got.Entries[i].Weekday)
			assert.Equal(t, want.Entries[i].Count, got.Entries[i].Count)
			assert.InDelta(t, want.Entries[i].Mean, got.Entries[i].Mean, 1e-9)
		}
		assert.Equal(t, *want.Best, *got.Best)
		assert.Equal(t, *want.Worst, *got.Worst)
	}
}

func TestAggregateByMonth(t *testing.T) {
	s := schema.MetricSeries{Metric: schema.RestingHR, Points: []schema.Point{
		{Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Value: 50},
		{Date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), Value: 54},
		{Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Value: 52},
	}}
	table := AggregateByMonth(s)
	require.Len(t, table.Months, 2)
	assert.Equal(t, "2025-12", table.Months[0].Month)
	assert.Equal(t, "2026-02", table.Months[1].Month)
	assert.Equal(t, 51.0, table.Months[1].Mean)
	assert.Equal(t, 102.0, table.Months[1].Total)
	assert.Equal(t, 2, table.Months[1].Count)
	assert.False(t, table.Summed)
	assert.Equal(t, 51.0, table.Value(table.Months[1]))
}

func TestAggregateByMonthSumsVigorousMinutes(t *testing.T) {
	s := schema.MetricSeries{Metric: schema.VigorousMinutes, Points: []schema.Point{
		{Date: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), Value: 30},
		{Date: time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC), Value: 45},
	}}
	table := AggregateByMonth(s)
	require.Len(t, table.Months, 1)
	assert.True(t, table.Summed)
	assert.Equal(t, 75.0, table.Value(table.Months[0]))
}

func TestLatestDate(t *testing.T) {
	assert.True(t, LatestDate(nil).IsZero())
	days := []schema.DayRecord{{Date: monday}, {Date: monday.AddDate(0, 0, 3)}, {Date: monday.AddDate(0, 0, 1)}}
	assert.Equal(t, monday.AddDate(0, 0, 3), LatestDate(days))
}
