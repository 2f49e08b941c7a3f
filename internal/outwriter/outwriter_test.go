package outwriter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func weekday(wd time.Weekday) *time.Weekday { return &wd }

func fixtureSummary() schema.AnalysisSummary {
	end := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return schema.AnalysisSummary{
		Range:    schema.NewDateRange(end, 30),
		AsOf:     end,
		DayCount: 30,
		Metrics: []schema.MetricSummary{
			{
				Metric:      schema.RestingHR,
				Status:      schema.Available,
				Stats:       &schema.MetricStats{Count: 30, Mean: 56.2, Min: 52, Max: 61, StdDev: 2.1},
				TrendStatus: schema.Available,
				Trend: &schema.TrendResult{
					Metric: schema.RestingHR, RecentMean: 58.5, BaselineMean: 55.1, Change: 3.4, ChangePct: 6.17,
					Direction: schema.Declining, Movement: schema.Rising,
				},
			},
			{Metric: schema.VO2MaxMetric, Status: schema.InsufficientData, TrendStatus: schema.InsufficientData},
		},
		Correlations: []schema.CorrelationTable{
			{
				Name: schema.SedentarySleepPair, Independent: schema.SedentaryHours, Dependent: schema.SleepHours,
				Status: schema.Available, JoinedCount: 20, Pearson: schema.Float(-0.62), Spread: schema.Float(2.2),
				Buckets: []schema.CorrelationBucket{
					{Label: "<14h", Count: 10, Mean: schema.Float(7.2), Impact: schema.BestImpact},
					{Label: "14-17h", Count: 8, Mean: schema.Float(6.35), Impact: schema.ModerateImpact},
					{Label: "17h+", Count: 2, Mean: schema.Float(5.0), Impact: schema.WorstImpact, LowConfidence: true},
				},
			},
			{Name: schema.SleepBatteryPair, Independent: schema.SleepHours, Dependent: schema.BodyBattery, LagDays: 1, Status: schema.InsufficientData},
		},
		Weekdays: []schema.WeekdayTable{
			{
				Metric: schema.SleepHours, Status: schema.Available,
				Entries: []schema.WeekdayMean{{Weekday: time.Monday, Mean: 6.5, Count: 4}, {Weekday: time.Saturday, Mean: 8.1, Count: 4}},
				Best:    weekday(time.Saturday), Worst: weekday(time.Monday),
			},
		},
		Monthly: []schema.MonthlyTable{
			{Metric: schema.Steps, Months: []schema.MonthlyMean{{Month: "2026-01", Mean: 8000, Count: 15}, {Month: "2025-12", Mean: 7000, Count: 15}}},
		},
		Recommendations: []schema.Recommendation{
			{Rule: "elevated_rhr", Category: schema.RecoveryAdvice, Priority: schema.HighPriority, Message: "Resting heart rate rose 3.4 bpm", Action: "Take an easy week", Rationale: "Elevated RHR signals incomplete recovery"},
			{Rule: "short_sleep", Category: schema.SleepAdvice, Priority: schema.MediumPriority, Message: "Sleep averages 6.4 h", Action: "Go to bed earlier", Rationale: "Adults need 7-9 h"},
			{Rule: "low_steps", Category: schema.MovementAdvice, Priority: schema.LowPriority, Message: "Steps vary a lot", Action: "Walk daily", Rationale: "Consistency matters"},
			{Rule: "a4", Category: schema.StressAdvice, Priority: schema.LowPriority, Message: "m4"},
			{Rule: "a5", Category: schema.FitnessAdvice, Priority: schema.LowPriority, Message: "m5"},
			{Rule: "a6", Category: schema.PatternsAdvice, Priority: schema.LowPriority, Message: "m6"},
		},
		Metadata: schema.Metadata{DroppedRecords: 2, RecentWindowDays: 7},
	}
}

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{Output: output, OutputFile: file, Precision: 1, Width: 100, CacheBackend: schema.SQLiteBackend}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestSelectView(t *testing.T) {
	summary := fixtureSummary()

	view := SelectView(summary, MetricsSection, schema.RestingHR)
	require.Len(t, view.Metrics, 1)
	assert.Equal(t, schema.RestingHR, view.Metrics[0].Metric)
	assert.Nil(t, view.Correlations)
	assert.Nil(t, view.Recommendations)
	assert.Equal(t, summary.DayCount, view.DayCount)

	view = SelectView(summary, AllSections, "")
	assert.Len(t, view.Metrics, 2)
	assert.Len(t, view.Recommendations, 6)

	view.Recommendations[0].Message = "changed"
	assert.Equal(t, "Resting heart rate rose 3.4 bpm", summary.Recommendations[0].Message)
}

func TestSectionHas(t *testing.T) {
	assert.True(t, AllSections.Has(CorrelationsSection))
	assert.True(t, (WeekdaysSection | MonthlySection).Has(MonthlySection))
	assert.False(t, MetricsSection.Has(RecommendationsSection))
}

func TestMetricsTable(t *testing.T) {
	b := newTableBuilder(testConfig(schema.TextOut, ""), false)
	tbl := b.metricsTable(fixtureSummary().Metrics)

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"Resting HR (bpm)", "30", "56.2", "52.0", "61.0", "55.1", "58.5", "+3.4", "+6.2%", "declining"}, tbl.Rows[0])
	assert.Equal(t, "VO2 Max (ml/kg/min)", tbl.Rows[1][0])
	assert.Equal(t, "0", tbl.Rows[1][1])
	for _, cell := range tbl.Rows[1][2:] {
		assert.Equal(t, contract.NotAvailable, cell)
	}
}

func TestCorrelationTable(t *testing.T) {
	b := newTableBuilder(testConfig(schema.TextOut, ""), false)
	summary := fixtureSummary()

	tbl := b.correlationTable(summary.Correlations[0])
	assert.Equal(t, "Sedentary Time vs Sleep", tbl.Title)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"17h+", "2", "5.0", "worst", "low"}, tbl.Rows[2])
	assert.Contains(t, tbl.Note, "20 joined days")
	assert.Contains(t, tbl.Note, "pearson r = -0.6")

	tbl = b.correlationTable(summary.Correlations[1])
	assert.Empty(t, tbl.Rows)
	assert.True(t, strings.HasPrefix(tbl.Note, contract.NotAvailable))
}

func TestWeekdayAndMonthlyTables(t *testing.T) {
	b := newTableBuilder(testConfig(schema.TextOut, ""), false)
	summary := fixtureSummary()

	wt := b.weekdayTable(summary.Weekdays)
	require.Len(t, wt.Rows, 9)
	assert.Equal(t, []string{"Monday", "6.5"}, wt.Rows[0])
	assert.Equal(t, []string{"Tuesday", contract.NotAvailable}, wt.Rows[1])
	for i, wd := range schema.WeekdayOrder {
		assert.Equal(t, wd.String(), wt.Rows[i][0], "weekday rows follow the shared Monday-first order")
	}
	assert.Equal(t, []string{"Best", "Saturday"}, wt.Rows[7])
	assert.Equal(t, []string{"Worst", "Monday"}, wt.Rows[8])

	mt := b.monthlyTable(summary.Monthly)
	require.Len(t, mt.Rows, 2)
	assert.Equal(t, "2025-12", mt.Rows[0][0])
	assert.Equal(t, "8000.0", mt.Rows[1][1])
}

func TestDetailsTable(t *testing.T) {
	b := newTableBuilder(testConfig(schema.TextOut, ""), false)
	metrics := []schema.MetricSummary{
		{
			Metric:     schema.SleepHours,
			Assessment: schema.ConcernAssessment,
			Share:      &schema.CutoffShare{Cutoff: 6.5, Side: schema.BelowCutoff, Count: 9, Pct: 30},
			Bands: []schema.Band{
				{Label: "<6h", Count: 6, Pct: 20},
				{Label: "6-7h", Count: 12, Pct: 40},
				{Label: "7-8h", Count: 9, Pct: 30},
				{Label: "8h+", Count: 3, Pct: 10},
			},
			Stages: &schema.SleepStages{Nights: 28, DeepHours: 1.2, REMHours: 1.5, DeepPct: 18, REMPct: 22},
		},
		{Metric: schema.VO2MaxMetric, Assessment: schema.GoodAssessment, FitnessLevel: schema.VeryGoodFitness},
		{Metric: schema.Steps},
	}

	tbl := b.detailsTable(metrics)
	require.Len(t, tbl.Rows, 2, "metrics without derived statistics are left out")
	assert.Equal(t, "Sleep (h)", tbl.Rows[0][0])
	assert.Equal(t, "concern", tbl.Rows[0][1])
	assert.Equal(t, "30% of days under 6.5; <6h 20%, 6-7h 40%, 7-8h 30%, 8h+ 10%; deep 1.2h (18%), REM 1.5h (22%) over 28 nights", tbl.Rows[0][2])
	assert.Equal(t, []string{"VO2 Max (ml/kg/min)", "good", "fitness level Very Good"}, tbl.Rows[1])

	assert.Empty(t, b.detailsTable(fixtureSummary().Metrics).Rows)
}

func TestMonthlyTableShowsTotals(t *testing.T) {
	b := newTableBuilder(testConfig(schema.TextOut, ""), false)
	mt := b.monthlyTable([]schema.MonthlyTable{
		{Metric: schema.VigorousMinutes, Summed: true, Months: []schema.MonthlyMean{{Month: "2026-01", Mean: 25, Total: 250, Count: 10}}},
	})
	assert.Equal(t, []string{"Month", "Vigorous (min) total"}, mt.Header)
	assert.Equal(t, []string{"2026-01", "250.0"}, mt.Rows[0])
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three four", 9, []string{"one two", "three", "four"}},
		{"supercalifragilistic word", 5, []string{"supercalifragilistic", "word"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wrapText(tt.text, tt.width), tt.text)
	}
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"Summary": true}
	assert.Equal(t, "trends", sheetName("trends", used))
	assert.Equal(t, "trends_2", sheetName("trends", used))
	long := strings.Repeat("x", 40)
	assert.Len(t, sheetName(long, used), maxSheetName)
	assert.Len(t, sheetName(long, used), maxSheetName)
}

func TestWriteSummaryText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, WriteSummary(fixtureSummary(), AllSections, testConfig(schema.TextOut, path), 1500*time.Millisecond))

	out := readOutput(t, path)
	assert.Contains(t, out, "30 days from 2025-12-17 to 2026-01-15, as of 2026-01-15")
	assert.Contains(t, out, "Metric Trends")
	assert.Contains(t, out, "declining")
	assert.Contains(t, out, "Sedentary Time vs Sleep")
	assert.Contains(t, out, "Day-of-Week Patterns")
	assert.Contains(t, out, "Top Recommendations")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "Skipped 2 unusable records.")
	assert.Contains(t, out, "Cache backend: sqlite")
}

func TestWriteSummaryTextAdviceShowsAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advice.txt")
	require.NoError(t, WriteSummary(fixtureSummary(), RecommendationsSection, testConfig(schema.TextOut, path), time.Second))

	out := readOutput(t, path)
	assert.NotContains(t, out, "Metric Trends")
	assert.NotContains(t, out, "more. Run")
	assert.Contains(t, out, "6. [LOW] Patterns")
}

func TestWriteSummaryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends.json")
	cfg := testConfig(schema.JSONOut, path)
	cfg.Metric = schema.RestingHR
	require.NoError(t, WriteSummary(fixtureSummary(), MetricsSection, cfg, time.Second))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, path)), &doc))
	assert.Equal(t, "2026-01-15", doc["as_of"])
	assert.Len(t, doc["metrics"], 1)
	assert.NotContains(t, doc, "correlations")
	assert.NotContains(t, doc, "recommendations")
}

func TestWriteSummaryJSONEmptyRecommendations(t *testing.T) {
	summary := fixtureSummary()
	summary.Recommendations = nil
	path := filepath.Join(t.TempDir(), "advice.json")
	require.NoError(t, WriteSummary(summary, RecommendationsSection, testConfig(schema.JSONOut, path), time.Second))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, path)), &doc))
	assert.Equal(t, []any{}, doc["recommendations"])
}

func TestWriteSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteSummary(fixtureSummary(), AllSections, testConfig(schema.CSVOut, path), time.Second))

	out := readOutput(t, path)
	assert.True(t, strings.HasPrefix(out, "# Metric Trends\nMetric,Days,Mean"))
	assert.Contains(t, out, "Resting HR (bpm),30,56.2,52.0,61.0,55.1,58.5,+3.4,+6.2%,declining")
	assert.Contains(t, out, "\n\n# Recommendations\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteSummaryHTML(t *testing.T) {
	summary := fixtureSummary()
	summary.Recommendations[0].Message = "<script>alert(1)</script>"
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteSummary(summary, AllSections, testConfig(schema.HTMLOut, path), time.Second))

	out := readOutput(t, path)
	assert.Contains(t, out, "<h2>Metric Trends</h2>")
	assert.Contains(t, out, `<td class="declining">declining</td>`)
	assert.Contains(t, out, `<td class="worst">worst</td>`)
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, "concern", cellClass("concern"))
	assert.Contains(t, out, "Skipped 2 unusable records.")
}

func TestWriteSummaryPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, WriteSummary(fixtureSummary(), AllSections, testConfig(schema.PDFOut, path), time.Second))

	out := readOutput(t, path)
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Greater(t, len(out), 1000)
}

func TestWriteSummaryXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteSummary(fixtureSummary(), AllSections, testConfig(schema.XLSXOut, path), time.Second))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	assert.Equal(t, []string{"Summary", "trends", schema.SedentarySleepPair, schema.SleepBatteryPair, "weekdays", "monthly", "recommendations"}, sheets)

	v, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", v)

	v, err = f.GetCellValue("trends", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Resting HR (bpm)", v)

	v, err = f.GetCellValue("trends", "C2")
	require.NoError(t, err)
	assert.Equal(t, "56.2", v)
}

func TestOutWriterViews(t *testing.T) {
	ow := NewOutWriter()
	dir := t.TempDir()
	summary := fixtureSummary()

	views := map[string]func(schema.AnalysisSummary, *contract.Config, time.Duration) error{
		"report":   ow.WriteReport,
		"trends":   ow.WriteTrends,
		"buckets":  ow.WriteCorrelations,
		"weekdays": ow.WriteWeekdays,
		"advice":   ow.WriteRecommendations,
	}
	for name, write := range views {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, write(summary, testConfig(schema.JSONOut, path), time.Second), name)
		assert.FileExists(t, path)
	}

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, filepath.Join(dir, "weekdays.json"))), &doc))
	assert.Contains(t, doc, "weekdays")
	assert.Contains(t, doc, "monthly")
	assert.NotContains(t, doc, "metrics")
}
