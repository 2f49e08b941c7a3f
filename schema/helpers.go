package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the date format used for file names and report keys.
const DayLayout = "2006-01-02"

// minEpochMillisDigits keeps short numbers such as "3" or a 10-digit
// seconds stamp from being read as epoch milliseconds.
const minEpochMillisDigits = 12

// WeekdayOrder is the fixed Monday-first order used by weekday tables.
var WeekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders t as YYYY-MM-DD, or "n/a" when t is zero.
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(DayLayout)
}

// ParseDay parses the date layouts seen in vendor payloads and file names.
// Accepted forms are YYYY-MM-DD, RFC3339, "YYYY-MM-DD HH:MM:SS" and epoch
// milliseconds of at least twelve digits.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	layouts := []string{DayLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02T15:04:05.0"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	if len(s) < minEpochMillisDigits {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return Day(time.UnixMilli(ms).UTC()), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// WeekdayRank returns the Monday-first position of wd.
func WeekdayRank(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ValidMetrics[m]; !ok {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
