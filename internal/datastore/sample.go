package datastore

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// SampleResult reports what GenerateSample wrote.
type SampleResult struct {
	Dir   string
	Days  int
	Files map[schema.Category]int
}

// GenerateSample writes days of synthetic but realistic data ending at end.
//
// The data follows a training cycle (base, build, then partial recovery):
// resting HR rises and Body Battery falls during the build, weekdays are more
// stressful and sedentary than weekends, sedentary days lead to short sleep,
// and VO2 Max is only measured on workout days. The same seed always yields
// the same files.
func GenerateSample(dir string, end time.Time, days int, seed uint64) (SampleResult, error) {
	if days < 1 {
		return SampleResult{}, fmt.Errorf("days must be at least 1 (received %d)", days)
	}
	res := SampleResult{Dir: dir, Days: days, Files: make(map[schema.Category]int)}
	for _, c := range schema.AllCategories {
		if err := os.MkdirAll(filepath.Join(dir, string(c)), 0o755); err != nil {
			return res, err
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	gauss := func(mu, sigma float64) float64 { return mu + rng.NormFloat64()*sigma }
	between := func(lo, hi int) int { return lo + rng.IntN(hi-lo+1) }
	clamp := func(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

	end = schema.Day(end)
	for i := range days {
		date := end.AddDate(0, 0, -(days - 1 - i))
		key := date.Format(schema.DayLayout)
		dow := schema.WeekdayRank(date.Weekday()) // 0 is Monday
		progress := float64(i) / float64(days)

		var baseRHR, baseBB, baseVO2 float64
		switch {
		case progress < 0.3:
			baseRHR, baseBB, baseVO2 = 45, 85, 48
		case progress < 0.6:
			baseRHR = 45 + (progress-0.3)*20
			baseBB = 85 - (progress-0.3)*40
			baseVO2 = 48 + (progress-0.3)*20
		default:
			baseRHR = 51 - (progress-0.6)*5
			baseBB = 73 + (progress-0.6)*15
			baseVO2 = 54 + (progress-0.6)*5
		}
		rhr := math.Round(gauss(baseRHR, 1.5))
		bbHigh := math.Round(clamp(gauss(baseBB, 8), 40, 100))

		stress := gauss(28, 8)
		if dow < 5 {
			stress = gauss(40, 10)
		}
		stress = math.Round(clamp(stress, 15, 70))

		var steps int
		switch dow {
		case 5:
			steps = between(18000, 28000)
		case 6:
			steps = between(4000, 8000)
		case 1, 3:
			steps = between(12000, 18000)
		default:
			steps = between(5000, 10000)
		}

		var sedentary float64
		switch {
		case steps > 15000:
			sedentary = 12 + rng.Float64()*3
		case steps > 10000:
			sedentary = 14 + rng.Float64()*3
		default:
			sedentary = 16 + rng.Float64()*3
		}

		vigorous := between(0, 15)
		if dow == 5 {
			vigorous = between(80, 150)
		} else if dow == 1 || dow == 3 {
			vigorous = between(30, 60)
		}

		// Charge during sleep drops as stress climbs.
		charge := math.Round(clamp(gauss(85-stress, 6), 10, 90))

		summary := map[string]any{
			"date": key,
			"stats": map[string]any{
				"calendarDate":             key,
				"totalSteps":               steps,
				"sedentarySeconds":         int(sedentary * 3600),
				"restingHeartRate":         rhr,
				"averageStressLevel":       stress,
				"bodyBatteryHighestValue":  bbHigh,
				"bodyBatteryLowestValue":   math.Max(5, bbHigh-float64(between(30, 55))),
				"bodyBatteryChargedValue":  charge,
				"bodyBatteryDrainedValue":  between(35, 70),
				"vigorousIntensityMinutes": vigorous,
				"moderateIntensityMinutes": between(10, 45),
			},
		}
		if err := writeJSON(dir, schema.DailySummaries, key, summary); err != nil {
			return res, err
		}
		res.Files[schema.DailySummaries]++

		baseSleep := 7.0
		switch {
		case sedentary > 17:
			baseSleep = 5.0
		case sedentary > 15:
			baseSleep = 6.2
		}
		switch dow {
		case 4:
			baseSleep -= 1.0
		case 6:
			baseSleep += 0.5
		}
		sleepSeconds := int(clamp(gauss(baseSleep, 0.7), 4, 9) * 3600)
		deep := 0.15 + rng.Float64()*0.10
		rem := 0.20 + rng.Float64()*0.08
		sleep := map[string]any{
			"_date": key,
			"dailySleepDTO": map[string]any{
				"calendarDate":      key,
				"sleepTimeSeconds":  sleepSeconds,
				"deepSleepSeconds":  int(float64(sleepSeconds) * deep),
				"lightSleepSeconds": int(float64(sleepSeconds) * (1 - deep - rem)),
				"remSleepSeconds":   int(float64(sleepSeconds) * rem),
			},
		}
		if err := writeJSON(dir, schema.Sleep, key, sleep); err != nil {
			return res, err
		}
		res.Files[schema.Sleep]++

		heart := map[string]any{
			"calendarDate":     key,
			"restingHeartRate": rhr,
			"maxHeartRate":     between(150, 185),
			"minHeartRate":     rhr - float64(between(2, 6)),
		}
		if err := writeJSON(dir, schema.HeartRate, key, heart); err != nil {
			return res, err
		}
		res.Files[schema.HeartRate]++

		if dow == 1 || dow == 3 || dow == 5 {
			vo2 := math.Round(clamp(gauss(baseVO2, 1), 40, 60)*10) / 10
			reading := map[string]any{
				"_date":   key,
				"generic": map[string]any{"vo2MaxValue": vo2, "calendarDate": key},
				"running": map[string]any{"vo2MaxValue": vo2, "calendarDate": key},
			}
			if err := writeJSON(dir, schema.VO2Max, key, reading); err != nil {
				return res, err
			}
			res.Files[schema.VO2Max]++
		}
	}
	return res, nil
}

// writeJSON writes one indented payload to <dir>/<category>/<key>.json.
func writeJSON(dir string, category schema.Category, key string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, string(category), key+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
