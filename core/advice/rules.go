package advice

import (
	"fmt"

	"github.com/huangsam/pulsecheck/core/algo"
	"github.com/huangsam/pulsecheck/schema"
)

// Rules is the fixed rule set evaluated by Generate.
var Rules = []Rule{
	RestingHRRise,
	BodyBatteryLow,
	ShortSleep,
	SedentarySleepGap,
	HighSedentaryShare,
	HighStress,
	VO2MaxDecline,
	StepVariability,
	WeekdaySleepGap,
}

// RestingHRRise fires when recent resting HR sits well above baseline.
var RestingHRRise = Rule{
	Name:     "resting-hr-rise",
	Category: schema.RecoveryAdvice,
	Priority: schema.HighPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		tr := s.trend(schema.RestingHR)
		if tr == nil || tr.Change <= th.HRChangeBPM {
			return nil
		}
		return &finding{
			message: fmt.Sprintf("Resting HR is up %.1f bpm (%.1f vs %.1f baseline)", tr.Change, tr.RecentMean, tr.BaselineMean),
			action:  "Schedule an easy or rest day and prioritize sleep until resting HR returns to baseline",
			rationale: fmt.Sprintf("A rise of more than %.1f bpm over baseline is an early sign of fatigue, illness or overreaching",
				th.HRChangeBPM),
		}
	},
}

// BodyBatteryLow fires when wake-up body battery stays under the floor.
var BodyBatteryLow = Rule{
	Name:     "body-battery-low",
	Category: schema.RecoveryAdvice,
	Priority: schema.HighPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		var level float64
		var scope string
		if tr := s.trend(schema.BodyBattery); tr != nil {
			level, scope = tr.RecentMean, "recent"
		} else if st := s.stats(schema.BodyBattery); st != nil {
			level, scope = st.Mean, "average"
		} else {
			return nil
		}
		if level >= th.BodyBatteryFloor {
			return nil
		}
		return &finding{
			message:   fmt.Sprintf("Body Battery at wake-up is low (%s %.0f, floor %.0f)", scope, level, th.BodyBatteryFloor),
			action:    "Lower training intensity and protect your sleep window for the next few days",
			rationale: "Waking with little charge means overnight recovery is not keeping up with daily load",
		}
	},
}

// ShortSleep fires when sleep is short on average or too often.
var ShortSleep = Rule{
	Name:     "short-sleep",
	Category: schema.SleepAdvice,
	Priority: schema.HighPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		st := s.stats(schema.SleepHours)
		if st == nil {
			return nil
		}
		var shortPct float64
		if sh := s.share(schema.SleepHours); sh != nil {
			shortPct = sh.Pct
		}
		if st.Mean >= th.SleepHours && shortPct <= th.ShortSleepPct {
			return nil
		}
		return &finding{
			message:   fmt.Sprintf("Sleep averages %.1fh and %.0f%% of nights fall under %.1fh", st.Mean, shortPct, th.SleepHours),
			action:    "Move bedtime earlier by 30 minutes and keep a consistent wake time",
			rationale: "Regular short sleep lowers recovery, raises resting HR and amplifies stress",
		}
	},
}

// SedentarySleepGap fires when sedentary days are followed by clearly worse sleep.
var SedentarySleepGap = Rule{
	Name:     "sedentary-sleep-gap",
	Category: schema.MovementAdvice,
	Priority: schema.MediumPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		table, ok := s.Correlations[schema.SedentarySleepPair]
		if !ok {
			return nil
		}
		best, okB := table.Bucket(schema.BestImpact)
		worst, okW := table.Bucket(schema.WorstImpact)
		if !okB || !okW || best.Mean == nil || worst.Mean == nil {
			return nil
		}
		gap := *best.Mean - *worst.Mean
		if gap < th.SedentarySleepGapHours {
			return nil
		}
		return &finding{
			message: fmt.Sprintf("Sleep is %.1fh on %s sedentary days vs %.1fh on %s days",
				*worst.Mean, worst.Label, *best.Mean, best.Label),
			action:    "Break up long sitting periods with short walks, especially in the afternoon",
			rationale: fmt.Sprintf("A gap of %.1fh between sedentary buckets suggests inactivity is costing sleep", gap),
		}
	},
}

// HighSedentaryShare fires when too many days reach the top sedentary bucket.
var HighSedentaryShare = Rule{
	Name:     "high-sedentary-share",
	Category: schema.MovementAdvice,
	Priority: schema.MediumPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		sh := s.share(schema.SedentaryHours)
		if sh == nil || sh.Pct <= th.HighSedentaryPct {
			return nil
		}
		return &finding{
			message:   fmt.Sprintf("%.0f%% of days have %.0fh or more sedentary time", sh.Pct, sh.Cutoff),
			action:    "Set an hourly movement reminder and add a daily walk",
			rationale: fmt.Sprintf("More than %.0f%% of days in the highest sedentary band points to a habit, not a one-off", th.HighSedentaryPct),
		}
	},
}

// HighStress fires when average stress exceeds the configured level.
var HighStress = Rule{
	Name:     "high-stress",
	Category: schema.StressAdvice,
	Priority: schema.MediumPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		st := s.stats(schema.Stress)
		if st == nil || st.Mean <= th.StressLevel {
			return nil
		}
		message := fmt.Sprintf("Average stress is %.0f (threshold %.0f)", st.Mean, th.StressLevel)
		if sh := s.share(schema.Stress); sh != nil {
			message += fmt.Sprintf(", %.0f%% of days above it", sh.Pct)
		}
		return &finding{
			message:   message,
			action:    "Add a daily breathing or wind-down routine and review late caffeine or screen time",
			rationale: "Sustained stress drains Body Battery and reduces recharge during sleep",
		}
	},
}

// VO2MaxDecline fires when VO2 Max has dropped past the allowed amount.
var VO2MaxDecline = Rule{
	Name:     "vo2max-decline",
	Category: schema.FitnessAdvice,
	Priority: schema.MediumPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		tr := s.trend(schema.VO2MaxMetric)
		if tr == nil || tr.Change >= -th.VO2MaxDrop {
			return nil
		}
		return &finding{
			message:   fmt.Sprintf("VO2 Max dropped %.1f (%.1f vs %.1f baseline)", -tr.Change, tr.RecentMean, tr.BaselineMean),
			action:    "Reintroduce one or two aerobic sessions per week with some time at higher intensity",
			rationale: "Cardiorespiratory fitness declines quickly when aerobic load drops",
		}
	},
}

// StepVariability fires when daily steps swing widely.
var StepVariability = Rule{
	Name:     "step-variability",
	Category: schema.ConsistencyAdvice,
	Priority: schema.LowPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		st := s.stats(schema.Steps)
		if st == nil || st.Count < 2 || st.StdDev <= th.StepStdDev {
			return nil
		}
		return &finding{
			message:   fmt.Sprintf("Daily steps vary widely (std dev %.0f around a mean of %.0f)", st.StdDev, st.Mean),
			action:    "Aim for a steady daily step floor instead of occasional big days",
			rationale: "Consistent daily movement supports recovery better than boom and bust weeks",
		}
	},
}

// WeekdaySleepGap fires when sleep depends strongly on the day of week.
var WeekdaySleepGap = Rule{
	Name:     "weekday-sleep-gap",
	Category: schema.PatternsAdvice,
	Priority: schema.MediumPriority,
	check: func(s Stats, th schema.Thresholds) *finding {
		table, ok := s.Weekdays[schema.SleepHours]
		if !ok {
			return nil
		}
		gap, ok := algo.WeekdayGap(table)
		if !ok || gap <= th.WeekdaySleepGapHours {
			return nil
		}
		best, worst := *table.Best, *table.Worst
		return &finding{
			message:   fmt.Sprintf("Sleep on %s nights is %.1fh shorter than on %s nights", worst, gap, best),
			action:    fmt.Sprintf("Plan a wind-down routine before %s and keep wake times within an hour across the week", worst),
			rationale: "Irregular sleep timing across the week behaves like recurring jet lag",
		}
	},
}
