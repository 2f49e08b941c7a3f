package schema

import "time"

// MetricStats holds descriptive statistics over one metric's observations.
type MetricStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// TrendResult compares a recent window against the baseline window before it.
type TrendResult struct {
	Metric        Metric    `json:"metric"`
	RecentMean    float64   `json:"recent_mean"`
	BaselineMean  float64   `json:"baseline_mean"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	RecentCount   int       `json:"recent_count"`
	BaselineCount int       `json:"baseline_count"`
	RecentStart   time.Time `json:"recent_start"`
	AsOf          time.Time `json:"as_of"`
	Direction     Direction `json:"direction"`
	Movement      Movement  `json:"movement"`
}

// Band is the share of observations whose value falls in [Lower, Upper).
type Band struct {
	Label string   `json:"label"`
	Lower *float64 `json:"lower,omitempty"` // nil means unbounded
	Upper *float64 `json:"upper,omitempty"` // nil means unbounded
	Count int      `json:"count"`
	Pct   float64  `json:"pct"`
}

// CutoffShare is the share of observations on one side of a configured cutoff.
type CutoffShare struct {
	Cutoff float64 `json:"cutoff"`
	Side   Side    `json:"side"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// SleepStages summarizes deep and REM sleep over nights that report both
// stages along with total sleep.
type SleepStages struct {
	Nights    int     `json:"nights"`
	DeepHours float64 `json:"deep_hours"`
	REMHours  float64 `json:"rem_hours"`
	DeepPct   float64 `json:"deep_pct"` // of total sleep
	REMPct    float64 `json:"rem_pct"`  // of total sleep
}

// MetricSummary is the per-metric section of a summary.
// Stats and Trend are nil when their availability is InsufficientData.
// The derived fields are only set for metrics they apply to.
type MetricSummary struct {
	Metric       Metric       `json:"metric"`
	Status       Availability `json:"status"`
	Stats        *MetricStats `json:"stats,omitempty"`
	TrendStatus  Availability `json:"trend_status"`
	Trend        *TrendResult `json:"trend,omitempty"`
	Assessment   Assessment   `json:"assessment,omitempty"`
	Share        *CutoffShare `json:"share,omitempty"`
	Bands        []Band       `json:"bands,omitempty"`
	FitnessLevel FitnessLevel `json:"fitness_level,omitempty"`
	Stages       *SleepStages `json:"stages,omitempty"`
}

// CorrelationBucket is one range of the independent metric with the dependent metric's mean.
type CorrelationBucket struct {
	Label         string   `json:"label"`
	Lower         *float64 `json:"lower,omitempty"` // inclusive, nil means unbounded
	Upper         *float64 `json:"upper,omitempty"` // exclusive, nil means unbounded
	Count         int      `json:"count"`
	Mean          *float64 `json:"mean,omitempty"` // nil when Count is zero
	LowConfidence bool     `json:"low_confidence"`
	Impact        Impact   `json:"impact"`
}

// CorrelationTable is the bucketed relationship between two metrics.
type CorrelationTable struct {
	Name        string              `json:"name"`
	Independent Metric              `json:"independent"`
	Dependent   Metric              `json:"dependent"`
	LagDays     int                 `json:"lag_days"`
	Status      Availability        `json:"status"`
	JoinedCount int                 `json:"joined_count"`
	OverallMean *float64            `json:"overall_mean,omitempty"`
	Spread      *float64            `json:"spread,omitempty"` // best mean minus worst mean, absolute
	Pearson     *float64            `json:"pearson,omitempty"`
	Buckets     []CorrelationBucket `json:"buckets"`
}

// Bucket returns the bucket with the given impact, if any.
func (t CorrelationTable) Bucket(impact Impact) (CorrelationBucket, bool) {
	for _, b := range t.Buckets {
		if b.Impact == impact {
			return b, true
		}
	}
	return CorrelationBucket{}, false
}

// WeekdayMean is one weekday's mean of a metric.
type WeekdayMean struct {
	Weekday time.Weekday `json:"weekday"`
	Mean    float64      `json:"mean"`
	Count   int          `json:"count"`
}

// WeekdayTable holds per-weekday means in Monday-first order.
// Weekdays without observations are absent from Entries.
type WeekdayTable struct {
	Metric  Metric        `json:"metric"`
	Status  Availability  `json:"status"`
	Entries []WeekdayMean `json:"entries"`
	Best    *time.Weekday `json:"best,omitempty"`
	Worst   *time.Weekday `json:"worst,omitempty"`
}

// Entry returns the entry for wd, if present.
func (t WeekdayTable) Entry(wd time.Weekday) (WeekdayMean, bool) {
	for _, e := range t.Entries {
		if e.Weekday == wd {
			return e, true
		}
	}
	return WeekdayMean{}, false
}

// MonthlyMean is the mean and total of a metric within one calendar month.
type MonthlyMean struct {
	Month string  `json:"month"` // YYYY-MM
	Mean  float64 `json:"mean"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// MonthlyTable holds one metric's means by month, ascending.
// Summed tables are read by their totals instead of their means.
type MonthlyTable struct {
	Metric Metric        `json:"metric"`
	Summed bool          `json:"summed"`
	Months []MonthlyMean `json:"months"`
}

// Value returns the figure a month is reported by.
func (t MonthlyTable) Value(mm MonthlyMean) float64 {
	if t.Summed {
		return mm.Total
	}
	return mm.Mean
}

// Recommendation is a prioritized, human readable piece of advice.
type Recommendation struct {
	Rule      string         `json:"rule"`
	Category  AdviceCategory `json:"category"`
	Priority  Priority       `json:"priority"`
	Message   string         `json:"message"`
	Action    string         `json:"action"`
	Rationale string         `json:"rationale"`
}

// DropWarning describes a raw record the normalizer could not use.
type DropWarning struct {
	Category Category `json:"category"`
	Source   string   `json:"source"`
	Reason   string   `json:"reason"`
}

// Metadata carries run facts that are not statistics.
type Metadata struct {
	DroppedRecords    int              `json:"dropped_records"`
	RecordsByCategory map[Category]int `json:"records_by_category"`
	RecentWindowDays  int              `json:"recent_window_days"`
}

// AnalysisSummary is the complete output of one analysis run.
type AnalysisSummary struct {
	Range           DateRange          `json:"range"`
	AsOf            time.Time          `json:"as_of"`
	DayCount        int                `json:"day_count"`
	Metrics         []MetricSummary    `json:"metrics"`
	Correlations    []CorrelationTable `json:"correlations"`
	Weekdays        []WeekdayTable     `json:"weekdays"`
	Monthly         []MonthlyTable     `json:"monthly"`
	Recommendations []Recommendation   `json:"recommendations"`
	Metadata        Metadata           `json:"metadata"`
}

// Metric returns the summary section for m, if present.
func (s AnalysisSummary) Metric(m Metric) (MetricSummary, bool) {
	for _, ms := range s.Metrics {
		if ms.Metric == m {
			return ms, true
		}
	}
	return MetricSummary{}, false
}

// Correlation returns the correlation table with the given name, if present.
func (s AnalysisSummary) Correlation(name string) (CorrelationTable, bool) {
	for _, t := range s.Correlations {
		if t.Name == name {
			return t, true
		}
	}
	return CorrelationTable{}, false
}

// Weekday returns the weekday table for m, if present.
func (s AnalysisSummary) Weekday(m Metric) (WeekdayTable, bool) {
	for _, t := range s.Weekdays {
		if t.Metric == m {
			return t, true
		}
	}
	return WeekdayTable{}, false
}
