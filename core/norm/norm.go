// Package norm converts raw vendor records into one DayRecord per calendar day.
package norm

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// Result is the normalized day table plus the records that had to be dropped.
type Result struct {
	Days    []schema.DayRecord      `json:"days"`
	Dropped []schema.DropWarning    `json:"dropped"`
	Counts  map[schema.Category]int `json:"counts"`
}

// extractor pulls one value out of a raw payload.
type extractor func(payload map[string]any) (float64, bool)

// source is one candidate origin for a metric.
type source struct {
	category schema.Category
	extract  extractor
}

// field identifies where on a DayRecord a value lands.
type field func(d *schema.DayRecord) **float64

// rule lists the sources for one DayRecord field in precedence order.
type rule struct {
	name    string
	target  field
	sources []source
}

const secondsPerHour = 3600.0

// precedence is the fixed source-of-truth table. The first source that
// yields a positive value for a day wins; later sources only fill gaps.
var precedence = []rule{
	{"resting_hr", func(d *schema.DayRecord) **float64 { return &d.RestingHR }, []source{
		{schema.DailySummaries, stat("restingHeartRate")},
		{schema.HeartRate, stat("restingHeartRate")},
	}},
	{"body_battery_wake", func(d *schema.DayRecord) **float64 { return &d.BodyBatteryWake }, []source{
		{schema.DailySummaries, stat("bodyBatteryHighestValue")},
	}},
	{"body_battery_charge", func(d *schema.DayRecord) **float64 { return &d.BodyBatteryCharge }, []source{
		{schema.DailySummaries, stat("bodyBatteryChargedValue")},
	}},
	{"vo2max", func(d *schema.DayRecord) **float64 { return &d.VO2Max }, []source{
		{schema.VO2Max, vo2max},
		{schema.DailySummaries, stat("vo2MaxValue")},
	}},
	{"sleep_hours", func(d *schema.DayRecord) **float64 { return &d.SleepHours }, []source{
		{schema.Sleep, hours(nested("dailySleepDTO", "sleepTimeSeconds"))},
		{schema.DailySummaries, hours(stat("sleepingSeconds"))},
	}},
	{"deep_sleep_hours", func(d *schema.DayRecord) **float64 { return &d.DeepSleepHours }, []source{
		{schema.Sleep, hours(nested("dailySleepDTO", "deepSleepSeconds"))},
	}},
	{"rem_sleep_hours", func(d *schema.DayRecord) **float64 { return &d.REMSleepHours }, []source{
		{schema.Sleep, hours(nested("dailySleepDTO", "remSleepSeconds"))},
	}},
	{"sedentary_hours", func(d *schema.DayRecord) **float64 { return &d.SedentaryHours }, []source{
		{schema.DailySummaries, hours(stat("sedentarySeconds"))},
	}},
	{"stress", func(d *schema.DayRecord) **float64 { return &d.Stress }, []source{
		{schema.DailySummaries, stat("averageStressLevel")},
	}},
	{"steps", func(d *schema.DayRecord) **float64 { return &d.Steps }, []source{
		{schema.DailySummaries, stat("totalSteps")},
	}},
	{"vigorous_minutes", func(d *schema.DayRecord) **float64 { return &d.VigorousMinutes }, []source{
		{schema.DailySummaries, stat("vigorousIntensityMinutes")},
	}},
}

// Precedence describes the source order for every normalized field, for documentation and tests.
func Precedence() map[string][]schema.Category {
	out := make(map[string][]schema.Category, len(precedence))
	for _, r := range precedence {
		cats := make([]schema.Category, len(r.sources))
		for i, s := range r.sources {
			cats[i] = s.category
		}
		out[r.name] = cats
	}
	return out
}

// dated is a raw record whose date has been resolved.
type dated struct {
	date   time.Time
	source string
	record schema.RawRecord
}

// Normalize merges raw records from every category into a date-sorted day table.
//
// Records the store could not decode and records without a usable date are
// dropped with a warning. Within a category,
// repeated dates resolve to the first record in (date, source) order. Days where
// no metric could be extracted are left out. The input is never modified.
func Normalize(batches map[schema.Category][]schema.RawRecord) Result {
	res := Result{Counts: make(map[schema.Category]int, len(batches))}
	byCategory := make(map[schema.Category]map[int64]dated, len(batches))
	dates := make(map[int64]time.Time)

	for _, cat := range sortedCategories(batches) {
		records := batches[cat]
		res.Counts[cat] = len(records)

		resolved := make([]dated, 0, len(records))
		for _, rec := range records {
			if rec.Err != "" {
				res.Dropped = append(res.Dropped, schema.DropWarning{Category: cat, Source: rec.Source, Reason: rec.Err})
				continue
			}
			d, err := recordDate(rec)
			if err != nil {
				res.Dropped = append(res.Dropped, schema.DropWarning{Category: cat, Source: rec.Source, Reason: err.Error()})
				continue
			}
			resolved = append(resolved, dated{date: d, source: rec.Source, record: rec})
		}
		sort.SliceStable(resolved, func(i, j int) bool {
			if !resolved[i].date.Equal(resolved[j].date) {
				return resolved[i].date.Before(resolved[j].date)
			}
			return resolved[i].source < resolved[j].source
		})

		perDate := make(map[int64]dated, len(resolved))
		for _, r := range resolved {
			key := r.date.Unix()
			if _, dup := perDate[key]; dup {
				continue
			}
			perDate[key] = r
			dates[key] = r.date
		}
		byCategory[cat] = perDate
	}

	keys := make([]int64, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	res.Days = make([]schema.DayRecord, 0, len(keys))
	for _, key := range keys {
		day := schema.DayRecord{Date: dates[key]}
		for _, r := range precedence {
			for _, src := range r.sources {
				rec, ok := byCategory[src.category][key]
				if !ok || rec.record.Payload == nil {
					continue
				}
				if v, ok := src.extract(rec.record.Payload); ok {
					*r.target(&day) = schema.Float(v)
					break
				}
			}
		}
		if day.Populated() > 0 {
			res.Days = append(res.Days, day)
		}
	}
	return res
}

// sortedCategories returns the batch keys in a stable order.
func sortedCategories(batches map[schema.Category][]schema.RawRecord) []schema.Category {
	cats := make([]schema.Category, 0, len(batches))
	for c := range batches {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// recordDate resolves the calendar day of a raw record.
func recordDate(rec schema.RawRecord) (time.Time, error) {
	candidates := []string{rec.Date}
	for _, key := range []string{"calendarDate", "_date", "date"} {
		if s, ok := asString(rec.Payload[key]); ok {
			candidates = append(candidates, s)
		}
	}
	if dto, ok := rec.Payload["dailySleepDTO"].(map[string]any); ok {
		if s, ok := asString(dto["calendarDate"]); ok {
			candidates = append(candidates, s)
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if d, err := schema.ParseDay(c); err == nil {
			return d, nil
		}
	}
	if rec.Date != "" {
		return time.Time{}, fmt.Errorf("unparseable date %q", rec.Date)
	}
	return time.Time{}, fmt.Errorf("missing date")
}

// stat reads key at the top level or under a nested "stats" object.
func stat(key string) extractor {
	return func(payload map[string]any) (float64, bool) {
		if v, ok := positive(payload[key]); ok {
			return v, true
		}
		if stats, ok := payload["stats"].(map[string]any); ok {
			return positive(stats[key])
		}
		return 0, false
	}
}

// nested reads a value from a fixed path of objects.
func nested(path ...string) extractor {
	return func(payload map[string]any) (float64, bool) {
		cur := payload
		for _, key := range path[:len(path)-1] {
			next, ok := cur[key].(map[string]any)
			if !ok {
				return 0, false
			}
			cur = next
		}
		return positive(cur[path[len(path)-1]])
	}
}

// hours converts an extractor that yields seconds into one that yields hours.
func hours(seconds extractor) extractor {
	return func(payload map[string]any) (float64, bool) {
		v, ok := seconds(payload)
		if !ok {
			return 0, false
		}
		return v / secondsPerHour, true
	}
}

// vo2max tries the generic reading first, then sport-specific, then flat keys.
func vo2max(payload map[string]any) (float64, bool) {
	for _, sport := range []string{"generic", "running", "cycling"} {
		if v, ok := nested(sport, "vo2MaxValue")(payload); ok {
			return v, true
		}
	}
	for _, key := range []string{"vo2MaxValue", "vo2Max"} {
		if v, ok := positive(payload[key]); ok {
			return v, true
		}
	}
	return 0, false
}

// positive converts JSON numbers and numeric strings, treating values <= 0,
// NaN and infinities as missing.
func positive(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		return strconv.FormatInt(int64(s), 10), s > 0
	}
	return "", false
}
