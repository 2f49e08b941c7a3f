// Package schema has models, enums and thresholds shared by all parts of pulsecheck.
package schema

import (
	"sort"
	"time"
)

// RawRecord is one vendor payload as read from the data directory.
// Its shape varies by category and device, so nothing past the normalizer
// should look inside Payload.
type RawRecord struct {
	Category Category       `json:"category"`
	Date     string         `json:"date"`   // date key derived by the store, may be empty
	Source   string         `json:"source"` // where the record came from, e.g. a file path
	Payload  map[string]any `json:"payload"`
	Err      string         `json:"error,omitempty"` // set when the source could not be decoded
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange returns the range of days ending at end, inclusive.
func NewDateRange(end time.Time, days int) DateRange {
	end = Day(end)
	if days < 1 {
		days = 1
	}
	return DateRange{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Contains reports whether the day of t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(r.Start)) && !d.After(Day(r.End))
}

// Days returns the number of calendar days in the range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(Day(r.End).Sub(Day(r.Start)).Hours()/24) + 1
}

// DayRecord is one calendar day's aggregated health state.
// Every metric is optional since devices do not report all of them every day.
type DayRecord struct {
	Date              time.Time `json:"date"`
	RestingHR         *float64  `json:"resting_hr,omitempty"`
	BodyBatteryWake   *float64  `json:"body_battery_wake,omitempty"`
	BodyBatteryCharge *float64  `json:"body_battery_charge,omitempty"`
	VO2Max            *float64  `json:"vo2max,omitempty"`
	SleepHours        *float64  `json:"sleep_hours,omitempty"`
	SedentaryHours    *float64  `json:"sedentary_hours,omitempty"`
	Stress            *float64  `json:"stress,omitempty"`
	Steps             *float64  `json:"steps,omitempty"`
	DeepSleepHours    *float64  `json:"deep_sleep_hours,omitempty"`
	REMSleepHours     *float64  `json:"rem_sleep_hours,omitempty"`
	VigorousMinutes   *float64  `json:"vigorous_minutes,omitempty"`
}

// field returns a pointer to the slot holding metric m.
func (d *DayRecord) field(m Metric) **float64 {
	switch m {
	case RestingHR:
		return &d.RestingHR
	case BodyBattery:
		return &d.BodyBatteryWake
	case BodyBatteryCharge:
		return &d.BodyBatteryCharge
	case VO2MaxMetric:
		return &d.VO2Max
	case SleepHours:
		return &d.SleepHours
	case SedentaryHours:
		return &d.SedentaryHours
	case Stress:
		return &d.Stress
	case Steps:
		return &d.Steps
	case DeepSleepHours:
		return &d.DeepSleepHours
	case REMSleepHours:
		return &d.REMSleepHours
	case VigorousMinutes:
		return &d.VigorousMinutes
	}
	return nil
}

// Value returns the value of metric m and whether it was reported.
func (d DayRecord) Value(m Metric) (float64, bool) {
	f := d.field(m)
	if f == nil || *f == nil {
		return 0, false
	}
	return **f, true
}

// Set stores v for metric m. It is only meant for building records.
func (d *DayRecord) Set(m Metric, v float64) {
	if f := d.field(m); f != nil {
		*f = &v
	}
}

// Populated counts the metrics present on the day, including supplemental ones.
func (d DayRecord) Populated() int {
	n := 0
	for _, ms := range [][]Metric{AllMetrics, SupplementalMetrics} {
		for _, m := range ms {
			if _, ok := d.Value(m); ok {
				n++
			}
		}
	}
	return n
}

// Point is one dated observation of a metric.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MetricSeries is a date-ascending sequence of observations for one metric.
type MetricSeries struct {
	Metric Metric  `json:"metric"`
	Points []Point `json:"points"`
}

// ProjectSeries extracts metric m from days, dropping days where it is absent.
// The result is sorted by date and keeps the first value for a repeated date.
func ProjectSeries(days []DayRecord, m Metric) MetricSeries {
	points := make([]Point, 0, len(days))
	for _, d := range days {
		if v, ok := d.Value(m); ok {
			points = append(points, Point{Date: Day(d.Date), Value: v})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	deduped := points[:0]
	for i, p := range points {
		if i > 0 && p.Date.Equal(deduped[len(deduped)-1].Date) {
			continue
		}
		deduped = append(deduped, p)
	}
	return MetricSeries{Metric: m, Points: deduped}
}

// Len returns the number of observations.
func (s MetricSeries) Len() int {
	return len(s.Points)
}

// Values returns the observation values in date order.
func (s MetricSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Shift returns a copy of the series with every date moved by days.
func (s MetricSeries) Shift(days int) MetricSeries {
	points := make([]Point, len(s.Points))
	for i, p := range s.Points {
		points[i] = Point{Date: p.Date.AddDate(0, 0, days), Value: p.Value}
	}
	return MetricSeries{Metric: s.Metric, Points: points}
}

// Latest returns the date of the newest observation, or the zero time.
func (s MetricSeries) Latest() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}
