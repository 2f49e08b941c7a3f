package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeText renders the human-readable report: a headline, one table per
// section and a numbered recommendations block.
func writeText(w io.Writer, view schema.AnalysisSummary, sections Section, cfg *contract.Config, duration time.Duration) error {
	builder := newTableBuilder(cfg, cfg.UseColors)
	header := fmt.Sprint
	if cfg.UseColors {
		header = contract.HeaderColor.Sprint
	}

	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", header("pulsecheck health summary"), headline(view)); err != nil {
		return err
	}

	// Recommendations are prose, so they get a list instead of a table
	for _, t := range builder.tables(view, sections&^RecommendationsSection) {
		if err := writeTextTable(w, t, header); err != nil {
			return err
		}
	}

	if sections.Has(RecommendationsSection) {
		limit := len(view.Recommendations)
		if sections != RecommendationsSection {
			limit = min(limit, contract.DefaultOutputLimit)
		}
		if err := writeRecommendationBlock(w, view.Recommendations, limit, builder.labels, header, getTextWidth(cfg)); err != nil {
			return err
		}
	}

	if view.Metadata.DroppedRecords > 0 {
		if _, err := fmt.Fprintf(w, "Skipped %d unusable records.\n", view.Metadata.DroppedRecords); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend)
	return err
}

// writeTextTable renders one table with its title and note.
func writeTextTable(w io.Writer, t table, header func(...any) string) error {
	if _, err := fmt.Fprintln(w, header(t.Title)); err != nil {
		return err
	}
	if len(t.Rows) > 0 {
		tbl := tablewriter.NewWriter(w)
		tbl.Header(t.Header)
		tbl.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		if err := tbl.Bulk(t.Rows); err != nil {
			return err
		}
		if err := tbl.Render(); err != nil {
			return err
		}
	}
	if t.Note != "" {
		if _, err := fmt.Fprintln(w, t.Note); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// writeRecommendationBlock lists the first limit recommendations with wrapped text.
func writeRecommendationBlock(w io.Writer, recs []schema.Recommendation, limit int, labels labeler, header func(...any) string, width int) error {
	title := "Top Recommendations"
	if limit >= len(recs) {
		title = "Recommendations"
	}
	if _, err := fmt.Fprintln(w, header(title)); err != nil {
		return err
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No recommendations. Keep doing what you are doing.")
		return err
	}
	for i, r := range recs[:limit] {
		if _, err := fmt.Fprintf(w, "%d. [%s] %s\n", i+1, labels.priority(r.Priority), r.Category); err != nil {
			return err
		}
		for _, part := range []string{r.Message, r.Action, r.Rationale} {
			for _, line := range wrapText(part, width) {
				if _, err := fmt.Fprintf(w, "   %s\n", line); err != nil {
					return err
				}
			}
		}
	}
	if rest := len(recs) - limit; rest > 0 {
		if _, err := fmt.Fprintf(w, "... and %d more. Run 'pulsecheck advice' to see all.\n", rest); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
