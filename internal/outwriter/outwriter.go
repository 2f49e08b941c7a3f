// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport prints the complete summary using the configured output format.
func (ow *OutWriter) WriteReport(summary schema.AnalysisSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummary(summary, AllSections, cfg, duration)
}

// WriteTrends prints per-metric statistics and trends.
func (ow *OutWriter) WriteTrends(summary schema.AnalysisSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummary(summary, MetricsSection, cfg, duration)
}

// WriteCorrelations prints the bucketed correlation tables.
func (ow *OutWriter) WriteCorrelations(summary schema.AnalysisSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummary(summary, CorrelationsSection, cfg, duration)
}

// WriteWeekdays prints the day-of-week and monthly tables.
func (ow *OutWriter) WriteWeekdays(summary schema.AnalysisSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummary(summary, WeekdaysSection|MonthlySection, cfg, duration)
}

// WriteRecommendations prints the ranked recommendations.
func (ow *OutWriter) WriteRecommendations(summary schema.AnalysisSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteSummary(summary, RecommendationsSection, cfg, duration)
}

// WriteSummary renders the selected sections of summary, dispatching based on the output format configured.
func WriteSummary(summary schema.AnalysisSummary, sections Section, cfg *contract.Config, duration time.Duration) error {
	view := SelectView(summary, sections, cfg.Metric)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, newJSONView(view, sections))
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSV(w, newTableBuilder(cfg, false).tables(view, sections))
		}, "Wrote CSV")
	case schema.HTMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHTML(w, view, newTableBuilder(cfg, false).tables(view, sections))
		}, "Wrote HTML")
	case schema.PDFOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePDF(w, view, newTableBuilder(cfg, false).tables(view, sections))
		}, "Wrote PDF")
	case schema.XLSXOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeXLSX(w, view, newTableBuilder(cfg, false).tables(view, sections))
		}, "Wrote XLSX")
	default:
		// Default to human-readable tables
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeText(w, view, sections, cfg, duration)
		}, "Wrote table")
	}
}

// SelectView returns a copy of summary holding only the selected sections.
// A non-empty metric narrows the metrics section to that metric.
func SelectView(summary schema.AnalysisSummary, sections Section, metric schema.Metric) schema.AnalysisSummary {
	view := summary
	view.Metrics, view.Correlations, view.Weekdays, view.Monthly, view.Recommendations = nil, nil, nil, nil, nil
	if sections.Has(MetricsSection) {
		for _, ms := range summary.Metrics {
			if metric == "" || ms.Metric == metric {
				view.Metrics = append(view.Metrics, ms)
			}
		}
	}
	if sections.Has(CorrelationsSection) {
		view.Correlations = slices.Clone(summary.Correlations)
	}
	if sections.Has(WeekdaysSection) {
		view.Weekdays = slices.Clone(summary.Weekdays)
	}
	if sections.Has(MonthlySection) {
		view.Monthly = slices.Clone(summary.Monthly)
	}
	if sections.Has(RecommendationsSection) {
		view.Recommendations = slices.Clone(summary.Recommendations)
	}
	return view
}

// jsonView is the JSON document for one view. Unselected sections are omitted.
type jsonView struct {
	Range           schema.DateRange          `json:"range"`
	AsOf            string                    `json:"as_of"`
	DayCount        int                       `json:"day_count"`
	Metrics         []schema.MetricSummary    `json:"metrics,omitempty"`
	Correlations    []schema.CorrelationTable `json:"correlations,omitempty"`
	Weekdays        []schema.WeekdayTable     `json:"weekdays,omitempty"`
	Monthly         []schema.MonthlyTable     `json:"monthly,omitempty"`
	Recommendations *[]schema.Recommendation  `json:"recommendations,omitempty"`
	Metadata        schema.Metadata           `json:"metadata"`
}

func newJSONView(view schema.AnalysisSummary, sections Section) jsonView {
	out := jsonView{
		Range:        view.Range,
		AsOf:         schema.FormatDay(view.AsOf),
		DayCount:     view.DayCount,
		Metrics:      view.Metrics,
		Correlations: view.Correlations,
		Weekdays:     view.Weekdays,
		Monthly:      view.Monthly,
		Metadata:     view.Metadata,
	}
	if sections.Has(RecommendationsSection) {
		// An empty list is a result, so it is rendered as [] rather than omitted.
		recs := view.Recommendations
		if recs == nil {
			recs = []schema.Recommendation{}
		}
		out.Recommendations = &recs
	}
	return out
}

// writeCSV writes one block per table, separated by a blank record.
func writeCSV(w io.Writer, tables []table) error {
	csvWriter := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			if err := csvWriter.Write([]string{}); err != nil {
				return err
			}
		}
		if err := csvWriter.Write([]string{"# " + t.Title}); err != nil {
			return err
		}
		if err := writeCSVWithHeader(csvWriter, t.Header, t.Rows); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
