package outwriter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
)

// Section selects one part of a summary for rendering.
type Section int

// Summary sections. A view is any combination of them.
const (
	MetricsSection Section = 1 << iota
	CorrelationsSection
	WeekdaysSection
	MonthlySection
	RecommendationsSection

	AllSections = MetricsSection | CorrelationsSection | WeekdaysSection | MonthlySection | RecommendationsSection
)

// Has reports whether s includes every section of other.
func (s Section) Has(other Section) bool {
	return s&other == other
}

// table is the format-neutral shape every renderer draws from.
type table struct {
	Name   string // short identifier, used for sheet names
	Title  string
	Header []string
	Rows   [][]string
	Note   string
}

// labeler turns enum values into display strings. Text output colors them.
type labeler struct {
	direction  func(schema.Direction) string
	impact     func(schema.Impact) string
	priority   func(schema.Priority) string
	assessment func(schema.Assessment) string
	missing    func() string
}

var plainLabels = labeler{
	direction:  func(d schema.Direction) string { return string(d) },
	impact:     func(i schema.Impact) string { return string(i) },
	priority:   func(p schema.Priority) string { return string(p) },
	assessment: func(a schema.Assessment) string { return string(a) },
	missing:    func() string { return contract.NotAvailable },
}

var colorLabels = labeler{
	direction:  contract.GetDirectionLabel,
	impact:     contract.GetImpactLabel,
	priority:   contract.GetPriorityLabel,
	assessment: contract.GetAssessmentLabel,
	missing:    func() string { return contract.MutedColor.Sprint(contract.NotAvailable) },
}

// tableBuilder renders summary sections into tables with one number format.
type tableBuilder struct {
	fmtFloat func(float64) string
	labels   labeler
}

func newTableBuilder(cfg *contract.Config, colored bool) tableBuilder {
	fmtFloat, _ := createFormatters(cfg.Precision)
	labels := plainLabels
	if colored {
		labels = colorLabels
	}
	return tableBuilder{fmtFloat: fmtFloat, labels: labels}
}

// tables builds every selected section of summary in report order.
func (b tableBuilder) tables(summary schema.AnalysisSummary, sections Section) []table {
	var out []table
	if sections.Has(MetricsSection) {
		out = append(out, b.metricsTable(summary.Metrics))
		if details := b.detailsTable(summary.Metrics); len(details.Rows) > 0 {
			out = append(out, details)
		}
	}
	if sections.Has(CorrelationsSection) {
		for _, c := range summary.Correlations {
			out = append(out, b.correlationTable(c))
		}
	}
	if sections.Has(WeekdaysSection) && len(summary.Weekdays) > 0 {
		out = append(out, b.weekdayTable(summary.Weekdays))
	}
	if sections.Has(MonthlySection) && len(summary.Monthly) > 0 {
		out = append(out, b.monthlyTable(summary.Monthly))
	}
	if sections.Has(RecommendationsSection) {
		out = append(out, b.recommendationTable(summary.Recommendations))
	}
	return out
}

func (b tableBuilder) value(v *float64) string {
	if v == nil {
		return b.labels.missing()
	}
	return b.fmtFloat(*v)
}

func metricLabel(m schema.Metric) string {
	label := schema.MetricLabels[m]
	if label == "" {
		label = string(m)
	}
	if unit := schema.MetricUnits[m]; unit != "" {
		label += " (" + unit + ")"
	}
	return label
}

func (b tableBuilder) metricsTable(metrics []schema.MetricSummary) table {
	t := table{
		Name:   "trends",
		Title:  "Metric Trends",
		Header: []string{"Metric", "Days", "Mean", "Min", "Max", "Baseline", "Recent", "Change", "Change %", "Direction"},
	}
	for _, ms := range metrics {
		row := []string{metricLabel(ms.Metric)}
		if ms.Stats == nil {
			row = append(row, "0", b.labels.missing(), b.labels.missing(), b.labels.missing())
		} else {
			row = append(row, strconv.Itoa(ms.Stats.Count), b.fmtFloat(ms.Stats.Mean), b.fmtFloat(ms.Stats.Min), b.fmtFloat(ms.Stats.Max))
		}
		if ms.Trend == nil {
			for range 5 {
				row = append(row, b.labels.missing())
			}
		} else {
			tr := ms.Trend
			row = append(row,
				b.fmtFloat(tr.BaselineMean),
				b.fmtFloat(tr.RecentMean),
				signed(b.fmtFloat(tr.Change), tr.Change),
				signed(b.fmtFloat(tr.ChangePct), tr.ChangePct)+"%",
				b.labels.direction(tr.Direction),
			)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// detailsTable lists the assessment and derived statistics of metrics that have any.
func (b tableBuilder) detailsTable(metrics []schema.MetricSummary) table {
	t := table{
		Name:   "details",
		Title:  "Metric Details",
		Header: []string{"Metric", "Assessment", "Details"},
	}
	for _, ms := range metrics {
		var parts []string
		if ms.FitnessLevel != "" {
			parts = append(parts, "fitness level "+string(ms.FitnessLevel))
		}
		if sh := ms.Share; sh != nil {
			parts = append(parts, fmt.Sprintf("%.0f%% of days %s %s", sh.Pct, sideLabels[sh.Side], b.fmtFloat(sh.Cutoff)))
		}
		if len(ms.Bands) > 0 {
			bands := make([]string, len(ms.Bands))
			for i, band := range ms.Bands {
				bands[i] = fmt.Sprintf("%s %.0f%%", band.Label, band.Pct)
			}
			parts = append(parts, strings.Join(bands, ", "))
		}
		if st := ms.Stages; st != nil {
			parts = append(parts, fmt.Sprintf("deep %sh (%.0f%%), REM %sh (%.0f%%) over %d nights",
				b.fmtFloat(st.DeepHours), st.DeepPct, b.fmtFloat(st.REMHours), st.REMPct, st.Nights))
		}
		if ms.Assessment == "" && len(parts) == 0 {
			continue
		}
		assessment := b.labels.missing()
		if ms.Assessment != "" {
			assessment = b.labels.assessment(ms.Assessment)
		}
		t.Rows = append(t.Rows, []string{metricLabel(ms.Metric), assessment, strings.Join(parts, "; ")})
	}
	return t
}

// sideLabels phrase each cutoff side for the details table.
var sideLabels = map[schema.Side]string{
	schema.BelowCutoff:   "under",
	schema.AtLeastCutoff: "at or above",
	schema.AboveCutoff:   "above",
}

// signed prefixes positive values with a plus sign.
func signed(s string, v float64) string {
	if v > 0 {
		return "+" + s
	}
	return s
}

// correlationTitles gives each tracked pair a readable heading.
var correlationTitles = map[string]string{
	schema.SedentarySleepPair: "Sedentary Time vs Sleep",
	schema.StressRechargePair: "Stress vs Body Battery Recharge",
	schema.SleepBatteryPair:   "Sleep vs Next-Day Body Battery",
}

func (b tableBuilder) correlationTable(c schema.CorrelationTable) table {
	title := correlationTitles[c.Name]
	if title == "" {
		title = c.Name
	}
	t := table{
		Name:   c.Name,
		Title:  title,
		Header: []string{metricLabel(c.Independent), "Days", "Mean " + metricLabel(c.Dependent), "Impact", "Confidence"},
	}
	if c.Status == schema.InsufficientData {
		t.Note = fmt.Sprintf("%s: no days with both %s and %s", contract.NotAvailable, c.Independent, c.Dependent)
		return t
	}
	for _, bucket := range c.Buckets {
		confidence := "ok"
		if bucket.LowConfidence {
			confidence = "low"
		}
		t.Rows = append(t.Rows, []string{
			bucket.Label,
			strconv.Itoa(bucket.Count),
			b.value(bucket.Mean),
			b.labels.impact(bucket.Impact),
			confidence,
		})
	}
	t.Note = fmt.Sprintf("%d joined days", c.JoinedCount)
	if c.LagDays > 0 {
		t.Note += fmt.Sprintf(", %s lagged by %d day(s)", c.Dependent, c.LagDays)
	}
	if c.Pearson != nil {
		t.Note += ", pearson r = " + b.fmtFloat(*c.Pearson)
	}
	if c.Spread != nil {
		t.Note += ", spread " + b.fmtFloat(*c.Spread)
	}
	return t
}

func (b tableBuilder) weekdayTable(tables []schema.WeekdayTable) table {
	t := table{Name: "weekdays", Title: "Day-of-Week Patterns", Header: []string{"Weekday"}}
	for _, wt := range tables {
		t.Header = append(t.Header, metricLabel(wt.Metric))
	}
	for _, wd := range schema.WeekdayOrder {
		row := []string{wd.String()}
		for _, wt := range tables {
			if e, ok := wt.Entry(wd); ok {
				row = append(row, b.fmtFloat(e.Mean))
			} else {
				row = append(row, b.labels.missing())
			}
		}
		t.Rows = append(t.Rows, row)
	}
	best, worst := []string{"Best"}, []string{"Worst"}
	for _, wt := range tables {
		best = append(best, b.weekdayName(wt.Best))
		worst = append(worst, b.weekdayName(wt.Worst))
	}
	t.Rows = append(t.Rows, best, worst)
	return t
}

func (b tableBuilder) weekdayName(wd *time.Weekday) string {
	if wd == nil {
		return b.labels.missing()
	}
	return wd.String()
}

func (b tableBuilder) monthlyTable(tables []schema.MonthlyTable) table {
	t := table{Name: "monthly", Title: "Monthly Averages", Header: []string{"Month"}}
	means := make(map[string]map[schema.Metric]float64)
	for _, mt := range tables {
		label := metricLabel(mt.Metric)
		if mt.Summed {
			label += " total"
		}
		t.Header = append(t.Header, label)
		for _, mm := range mt.Months {
			if means[mm.Month] == nil {
				means[mm.Month] = make(map[schema.Metric]float64)
			}
			means[mm.Month][mt.Metric] = mt.Value(mm)
		}
	}
	months := make([]string, 0, len(means))
	for month := range means {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		row := []string{month}
		for _, mt := range tables {
			if v, ok := means[month][mt.Metric]; ok {
				row = append(row, b.fmtFloat(v))
			} else {
				row = append(row, b.labels.missing())
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (b tableBuilder) recommendationTable(recs []schema.Recommendation) table {
	t := table{
		Name:   "recommendations",
		Title:  "Recommendations",
		Header: []string{"#", "Priority", "Category", "Finding", "Action", "Why"},
	}
	for i, r := range recs {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			b.labels.priority(r.Priority),
			string(r.Category),
			r.Message,
			r.Action,
			r.Rationale,
		})
	}
	if len(recs) == 0 {
		t.Note = "No recommendations. Keep doing what you are doing."
	}
	return t
}

// headline returns the one-line description shared by every format.
func headline(summary schema.AnalysisSummary) string {
	if summary.DayCount == 0 {
		return fmt.Sprintf("No data between %s and %s", schema.FormatDay(summary.Range.Start), schema.FormatDay(summary.Range.End))
	}
	return fmt.Sprintf("%d days from %s to %s, as of %s (recent window %d days)",
		summary.DayCount,
		schema.FormatDay(summary.Range.Start),
		schema.FormatDay(summary.Range.End),
		schema.FormatDay(summary.AsOf),
		summary.Metadata.RecentWindowDays,
	)
}
