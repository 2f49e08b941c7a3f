package schema

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingThreshold is returned when a required threshold key is not supplied.
var ErrMissingThreshold = errors.New("missing required threshold")

// Threshold keys as they appear in configuration files.
const (
	KeyRecentWindowDays       = "recent_window_days"
	KeyMinBucketSamples       = "min_bucket_samples"
	KeyHRChangeBPM            = "hr_change_bpm"
	KeyBodyBatteryFloor       = "body_battery_floor"
	KeySleepHours             = "sleep_hours"
	KeyShortSleepPct          = "short_sleep_pct"
	KeyStressLevel            = "stress_level"
	KeySedentaryEdges         = "sedentary_edges"
	KeyStressEdges            = "stress_edges"
	KeySleepEdges             = "sleep_edges"
	KeySedentarySleepGapHours = "sedentary_sleep_gap_hours"
	KeyHighSedentaryPct       = "high_sedentary_pct"
	KeyVO2MaxDrop             = "vo2max_drop"
	KeyStepStdDev             = "step_stddev"
	KeyWeekdaySleepGapHours   = "weekday_sleep_gap_hours"
	KeyTrendTolerance         = "trend_tolerance"
)

// Thresholds is the complete set of numeric cutoffs used by the analysis.
type Thresholds struct {
	RecentWindowDays       int                `json:"recent_window_days"`
	MinBucketSamples       int                `json:"min_bucket_samples"`
	HRChangeBPM            float64            `json:"hr_change_bpm"`
	BodyBatteryFloor       float64            `json:"body_battery_floor"`
	SleepHours             float64            `json:"sleep_hours"`
	ShortSleepPct          float64            `json:"short_sleep_pct"`
	StressLevel            float64            `json:"stress_level"`
	SedentaryEdges         []float64          `json:"sedentary_edges"`
	StressEdges            []float64          `json:"stress_edges"`
	SleepEdges             []float64          `json:"sleep_edges"`
	SedentarySleepGapHours float64            `json:"sedentary_sleep_gap_hours"`
	HighSedentaryPct       float64            `json:"high_sedentary_pct"`
	VO2MaxDrop             float64            `json:"vo2max_drop"`
	StepStdDev             float64            `json:"step_stddev"`
	WeekdaySleepGapHours   float64            `json:"weekday_sleep_gap_hours"`
	TrendTolerance         map[Metric]float64 `json:"trend_tolerance"`
}

// ThresholdsInput is the raw, possibly partial form of Thresholds as decoded
// from yaml, env or JSON tool arguments. A nil field means the key was absent.
type ThresholdsInput struct {
	RecentWindowDays       *int               `mapstructure:"recent_window_days" json:"recent_window_days,omitempty"`
	MinBucketSamples       *int               `mapstructure:"min_bucket_samples" json:"min_bucket_samples,omitempty"`
	HRChangeBPM            *float64           `mapstructure:"hr_change_bpm" json:"hr_change_bpm,omitempty"`
	BodyBatteryFloor       *float64           `mapstructure:"body_battery_floor" json:"body_battery_floor,omitempty"`
	SleepHours             *float64           `mapstructure:"sleep_hours" json:"sleep_hours,omitempty"`
	ShortSleepPct          *float64           `mapstructure:"short_sleep_pct" json:"short_sleep_pct,omitempty"`
	StressLevel            *float64           `mapstructure:"stress_level" json:"stress_level,omitempty"`
	SedentaryEdges         []float64          `mapstructure:"sedentary_edges" json:"sedentary_edges,omitempty"`
	StressEdges            []float64          `mapstructure:"stress_edges" json:"stress_edges,omitempty"`
	SleepEdges             []float64          `mapstructure:"sleep_edges" json:"sleep_edges,omitempty"`
	SedentarySleepGapHours *float64           `mapstructure:"sedentary_sleep_gap_hours" json:"sedentary_sleep_gap_hours,omitempty"`
	HighSedentaryPct       *float64           `mapstructure:"high_sedentary_pct" json:"high_sedentary_pct,omitempty"`
	VO2MaxDrop             *float64           `mapstructure:"vo2max_drop" json:"vo2max_drop,omitempty"`
	StepStdDev             *float64           `mapstructure:"step_stddev" json:"step_stddev,omitempty"`
	WeekdaySleepGapHours   *float64           `mapstructure:"weekday_sleep_gap_hours" json:"weekday_sleep_gap_hours,omitempty"`
	TrendTolerance         map[string]float64 `mapstructure:"trend_tolerance" json:"trend_tolerance,omitempty"`
}

// DefaultThresholds returns the cutoffs used when nothing is configured.
// They follow common wearable guidance: 7+ hours of sleep, stress under 45,
// and resting HR rises of more than 3 bpm as a fatigue signal.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RecentWindowDays:       7,
		MinBucketSamples:       3,
		HRChangeBPM:            3,
		BodyBatteryFloor:       60,
		SleepHours:             6.5,
		ShortSleepPct:          30,
		StressLevel:            45,
		SedentaryEdges:         []float64{14, 17},
		StressEdges:            []float64{30, 45},
		SleepEdges:             []float64{6, 7.5},
		SedentarySleepGapHours: 1,
		HighSedentaryPct:       30,
		VO2MaxDrop:             2,
		StepStdDev:             8000,
		WeekdaySleepGapHours:   1.5,
		TrendTolerance: map[Metric]float64{
			RestingHR:         2,
			BodyBattery:       5,
			BodyBatteryCharge: 5,
			VO2MaxMetric:      1,
			SleepHours:        0.25,
			SedentaryHours:    0.5,
			Stress:            3,
			Steps:             1000,
		},
	}
}

// Input converts t back into its raw form with every key present.
func (t Thresholds) Input() ThresholdsInput {
	tol := make(map[string]float64, len(t.TrendTolerance))
	for m, v := range t.TrendTolerance {
		tol[string(m)] = v
	}
	return ThresholdsInput{
		RecentWindowDays:       &t.RecentWindowDays,
		MinBucketSamples:       &t.MinBucketSamples,
		HRChangeBPM:            &t.HRChangeBPM,
		BodyBatteryFloor:       &t.BodyBatteryFloor,
		SleepHours:             &t.SleepHours,
		ShortSleepPct:          &t.ShortSleepPct,
		StressLevel:            &t.StressLevel,
		SedentaryEdges:         append([]float64(nil), t.SedentaryEdges...),
		StressEdges:            append([]float64(nil), t.StressEdges...),
		SleepEdges:             append([]float64(nil), t.SleepEdges...),
		SedentarySleepGapHours: &t.SedentarySleepGapHours,
		HighSedentaryPct:       &t.HighSedentaryPct,
		VO2MaxDrop:             &t.VO2MaxDrop,
		StepStdDev:             &t.StepStdDev,
		WeekdaySleepGapHours:   &t.WeekdaySleepGapHours,
		TrendTolerance:         tol,
	}
}

// Resolve turns raw input into validated Thresholds.
// Every key is required; a missing one fails with ErrMissingThreshold.
func (in ThresholdsInput) Resolve() (Thresholds, error) {
	var missing []string
	intVal := func(key string, p *int) int {
		if p == nil {
			missing = append(missing, key)
			return 0
		}
		return *p
	}
	floatVal := func(key string, p *float64) float64 {
		if p == nil {
			missing = append(missing, key)
			return 0
		}
		return *p
	}
	edgesVal := func(key string, e []float64) []float64 {
		if len(e) == 0 {
			missing = append(missing, key)
			return nil
		}
		return append([]float64(nil), e...)
	}

	t := Thresholds{
		RecentWindowDays:       intVal(KeyRecentWindowDays, in.RecentWindowDays),
		MinBucketSamples:       intVal(KeyMinBucketSamples, in.MinBucketSamples),
		HRChangeBPM:            floatVal(KeyHRChangeBPM, in.HRChangeBPM),
		BodyBatteryFloor:       floatVal(KeyBodyBatteryFloor, in.BodyBatteryFloor),
		SleepHours:             floatVal(KeySleepHours, in.SleepHours),
		ShortSleepPct:          floatVal(KeyShortSleepPct, in.ShortSleepPct),
		StressLevel:            floatVal(KeyStressLevel, in.StressLevel),
		SedentaryEdges:         edgesVal(KeySedentaryEdges, in.SedentaryEdges),
		StressEdges:            edgesVal(KeyStressEdges, in.StressEdges),
		SleepEdges:             edgesVal(KeySleepEdges, in.SleepEdges),
		SedentarySleepGapHours: floatVal(KeySedentarySleepGapHours, in.SedentarySleepGapHours),
		HighSedentaryPct:       floatVal(KeyHighSedentaryPct, in.HighSedentaryPct),
		VO2MaxDrop:             floatVal(KeyVO2MaxDrop, in.VO2MaxDrop),
		StepStdDev:             floatVal(KeyStepStdDev, in.StepStdDev),
		WeekdaySleepGapHours:   floatVal(KeyWeekdaySleepGapHours, in.WeekdaySleepGapHours),
	}
	if in.TrendTolerance == nil {
		missing = append(missing, KeyTrendTolerance)
	} else {
		t.TrendTolerance = make(map[Metric]float64, len(in.TrendTolerance))
		for k, v := range in.TrendTolerance {
			m, err := ParseMetric(k)
			if err != nil {
				return Thresholds{}, fmt.Errorf("%s: %w", KeyTrendTolerance, err)
			}
			t.TrendTolerance[m] = v
		}
	}

	if len(missing) > 0 {
		return Thresholds{}, fmt.Errorf("%w: %v", ErrMissingThreshold, missing)
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate checks value ranges and bucket edge ordering.
func (t Thresholds) Validate() error {
	if t.RecentWindowDays < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyRecentWindowDays, t.RecentWindowDays)
	}
	if t.MinBucketSamples < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyMinBucketSamples, t.MinBucketSamples)
	}
	edges := map[string][]float64{
		KeySedentaryEdges: t.SedentaryEdges,
		KeyStressEdges:    t.StressEdges,
		KeySleepEdges:     t.SleepEdges,
	}
	for _, key := range []string{KeySedentaryEdges, KeyStressEdges, KeySleepEdges} {
		if err := ValidateEdges(edges[key]); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	nonNegative := map[string]float64{
		KeyHRChangeBPM:            t.HRChangeBPM,
		KeyBodyBatteryFloor:       t.BodyBatteryFloor,
		KeySleepHours:             t.SleepHours,
		KeyStressLevel:            t.StressLevel,
		KeySedentarySleepGapHours: t.SedentarySleepGapHours,
		KeyVO2MaxDrop:             t.VO2MaxDrop,
		KeyStepStdDev:             t.StepStdDev,
		KeyWeekdaySleepGapHours:   t.WeekdaySleepGapHours,
	}
	for key, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", key, v)
		}
	}
	for key, v := range map[string]float64{KeyShortSleepPct: t.ShortSleepPct, KeyHighSedentaryPct: t.HighSedentaryPct} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %v", key, v)
		}
	}
	for m, v := range t.TrendTolerance {
		if v < 0 {
			return fmt.Errorf("%s.%s must not be negative, got %v", KeyTrendTolerance, m, v)
		}
	}
	return nil
}

// ValidateEdges checks that bucket edges are present and strictly ascending.
func ValidateEdges(edges []float64) error {
	if len(edges) == 0 {
		return errors.New("at least one bucket edge is required")
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("bucket edges must be finite, got %v", edges)
		}
		if i > 0 && e <= edges[i-1] {
			return fmt.Errorf("bucket edges must be strictly ascending, got %v", edges)
		}
	}
	return nil
}

// Tolerance returns the neutral band for m, or zero when unset.
func (t Thresholds) Tolerance(m Metric) float64 {
	return t.TrendTolerance[m]
}
