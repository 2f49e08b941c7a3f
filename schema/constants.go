package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// Category represents one raw record category in the data directory.
	Category string

	// Metric represents one tracked per-day health metric.
	Metric string

	// Polarity tells whether higher values of a metric are better or worse.
	Polarity int

	// Direction is the qualitative reading of a trend after applying polarity.
	Direction string

	// Movement is the raw sign of a trend before applying polarity.
	Movement string

	// Impact labels a correlation bucket relative to its siblings.
	Impact string

	// Availability marks whether a statistic could be computed.
	Availability string

	// Priority ranks a recommendation.
	Priority string

	// AdviceCategory groups recommendations by area.
	AdviceCategory string

	// Assessment grades a metric as good, normal or a concern.
	Assessment string

	// Side tells which side of a cutoff a CutoffShare counts.
	Side string

	// FitnessLevel is the general VO2 Max category.
	FitnessLevel string
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
	HTMLOut OutputMode = "html"
	PDFOut  OutputMode = "pdf"
	XLSXOut OutputMode = "xlsx"
)

// All cache and history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// Raw record categories, one directory each under the data directory.
const (
	DailySummaries Category = "daily_summaries"
	Sleep          Category = "sleep"
	HeartRate      Category = "heart_rate"
	VO2Max         Category = "vo2max"
	Activities     Category = "activities"
)

// Tracked metrics.
const (
	RestingHR         Metric = "resting_hr"
	BodyBattery       Metric = "body_battery"
	BodyBatteryCharge Metric = "body_battery_charge"
	VO2MaxMetric      Metric = "vo2max"
	SleepHours        Metric = "sleep_hours"
	SedentaryHours    Metric = "sedentary_hours"
	Stress            Metric = "stress"
	Steps             Metric = "steps"
)

// Supplemental metrics are normalized and summarized but get no trend or advice.
const (
	DeepSleepHours  Metric = "deep_sleep_hours"
	REMSleepHours   Metric = "rem_sleep_hours"
	VigorousMinutes Metric = "vigorous_minutes"
)

// Polarity values.
const (
	HigherIsBetter Polarity = 1
	LowerIsBetter  Polarity = -1
)

// Trend directions.
const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// Trend movements.
const (
	Rising  Movement = "rising"
	Falling Movement = "falling"
	Flat    Movement = "flat"
)

// Bucket impacts.
const (
	BestImpact     Impact = "best"
	ModerateImpact Impact = "moderate"
	WorstImpact    Impact = "worst"
	NoImpact       Impact = "n/a"
)

// Availability markers.
const (
	Available        Availability = "available"
	InsufficientData Availability = "insufficient_data"
)

// Metric assessments.
const (
	GoodAssessment    Assessment = "good"
	NormalAssessment  Assessment = "normal"
	ConcernAssessment Assessment = "concern"
)

// Cutoff sides.
const (
	BelowCutoff   Side = "below"
	AtLeastCutoff Side = "at_least"
	AboveCutoff   Side = "above"
)

// VO2 Max fitness levels, best first.
const (
	ExcellentFitness        FitnessLevel = "Excellent"
	VeryGoodFitness         FitnessLevel = "Very Good"
	GoodFitness             FitnessLevel = "Good"
	FairFitness             FitnessLevel = "Fair"
	NeedsImprovementFitness FitnessLevel = "Needs Improvement"
)

// Recommendation priorities.
const (
	HighPriority   Priority = "HIGH"
	MediumPriority Priority = "MEDIUM"
	LowPriority    Priority = "LOW"
)

// Recommendation categories.
const (
	RecoveryAdvice    AdviceCategory = "Recovery"
	SleepAdvice       AdviceCategory = "Sleep"
	MovementAdvice    AdviceCategory = "Movement"
	StressAdvice      AdviceCategory = "Stress"
	FitnessAdvice     AdviceCategory = "Fitness"
	ConsistencyAdvice AdviceCategory = "Consistency"
	PatternsAdvice    AdviceCategory = "Patterns"
)

// AllCategories lists the categories read by the analysis, in load order.
var AllCategories = []Category{DailySummaries, Sleep, HeartRate, VO2Max}

// AllMetrics lists every tracked metric in report order.
var AllMetrics = []Metric{
	RestingHR,
	BodyBattery,
	BodyBatteryCharge,
	VO2MaxMetric,
	SleepHours,
	SedentaryHours,
	Stress,
	Steps,
}

// SupplementalMetrics lists the metrics outside AllMetrics that days may carry.
var SupplementalMetrics = []Metric{DeepSleepHours, REMSleepHours, VigorousMinutes}

// SummedMetrics are reported as monthly totals rather than means.
var SummedMetrics = map[Metric]struct{}{
	VigorousMinutes: {},
}

// MetricPolarity maps each metric to whether higher values are better.
var MetricPolarity = map[Metric]Polarity{
	RestingHR:         LowerIsBetter,
	BodyBattery:       HigherIsBetter,
	BodyBatteryCharge: HigherIsBetter,
	VO2MaxMetric:      HigherIsBetter,
	SleepHours:        HigherIsBetter,
	SedentaryHours:    LowerIsBetter,
	Stress:            LowerIsBetter,
	Steps:             HigherIsBetter,
}

// MetricUnits maps each metric to its display unit.
var MetricUnits = map[Metric]string{
	RestingHR:         "bpm",
	BodyBattery:       "",
	BodyBatteryCharge: "",
	VO2MaxMetric:      "ml/kg/min",
	SleepHours:        "h",
	SedentaryHours:    "h",
	Stress:            "",
	Steps:             "",
	DeepSleepHours:    "h",
	REMSleepHours:     "h",
	VigorousMinutes:   "min",
}

// MetricLabels maps each metric to a human readable name.
var MetricLabels = map[Metric]string{
	RestingHR:         "Resting HR",
	BodyBattery:       "Body Battery (wake)",
	BodyBatteryCharge: "Body Battery charge",
	VO2MaxMetric:      "VO2 Max",
	SleepHours:        "Sleep",
	SedentaryHours:    "Sedentary",
	Stress:            "Stress",
	Steps:             "Steps",
	DeepSleepHours:    "Deep sleep",
	REMSleepHours:     "REM sleep",
	VigorousMinutes:   "Vigorous",
}

// AdviceCategoryOrder breaks priority ties when sorting recommendations.
var AdviceCategoryOrder = []AdviceCategory{
	RecoveryAdvice,
	SleepAdvice,
	MovementAdvice,
	StressAdvice,
	FitnessAdvice,
	ConsistencyAdvice,
	PatternsAdvice,
}

// PriorityRank orders priorities from most to least urgent.
var PriorityRank = map[Priority]int{
	HighPriority:   3,
	MediumPriority: 2,
	LowPriority:    1,
}

// ValidOutputModes lists all valid output modes for reports.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
	HTMLOut: {},
	PDFOut:  {},
	XLSXOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid run-history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidMetrics lists all tracked metrics.
var ValidMetrics = map[Metric]struct{}{
	RestingHR:         {},
	BodyBattery:       {},
	BodyBatteryCharge: {},
	VO2MaxMetric:      {},
	SleepHours:        {},
	SedentaryHours:    {},
	Stress:            {},
	Steps:             {},
}

// ValidCategories lists every category the data store understands.
var ValidCategories = map[Category]struct{}{
	DailySummaries: {},
	Sleep:          {},
	HeartRate:      {},
	VO2Max:         {},
	Activities:     {},
}

// PolarityOf returns the polarity of a metric, defaulting to HigherIsBetter.
func PolarityOf(m Metric) Polarity {
	if p, ok := MetricPolarity[m]; ok {
		return p
	}
	return HigherIsBetter
}

// Better reports whether a is strictly better than b under polarity p.
func (p Polarity) Better(a, b float64) bool {
	if p == LowerIsBetter {
		return a < b
	}
	return a > b
}

// AdviceCategoryRank returns the fixed sort position of a category.
func AdviceCategoryRank(c AdviceCategory) int {
	for i, cc := range AdviceCategoryOrder {
		if cc == c {
			return i
		}
	}
	return len(AdviceCategoryOrder)
}

// Names of the tracked correlation tables.
const (
	SedentarySleepPair = "sedentary_sleep"
	StressRechargePair = "stress_recharge"
	SleepBatteryPair   = "sleep_next_day_battery"
)
