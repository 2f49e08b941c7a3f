package notify

import (
	"fmt"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// Digest is the compact event published after a report run.
type Digest struct {
	Event           string                   `json:"event"`
	ID              string                   `json:"id"`
	GeneratedAt     time.Time                `json:"generated_at"`
	AsOf            string                   `json:"as_of"`
	Start           string                   `json:"start"`
	End             string                   `json:"end"`
	DayCount        int                      `json:"day_count"`
	Trends          map[schema.Metric]string `json:"trends"`
	Recommendations []string                 `json:"recommendations"`
	Priorities      map[schema.Priority]int  `json:"priorities"`
	DroppedRecords  int                      `json:"dropped_records"`
}

// NewDigest condenses summary into a Digest.
// Metrics without a trend are reported as "n/a".
func NewDigest(summary schema.AnalysisSummary, id string, now time.Time) Digest {
	d := Digest{
		Event:           ReportGeneratedEvent,
		ID:              id,
		GeneratedAt:     now.UTC(),
		AsOf:            schema.FormatDay(summary.AsOf),
		Start:           schema.FormatDay(summary.Range.Start),
		End:             schema.FormatDay(summary.Range.End),
		DayCount:        summary.DayCount,
		Trends:          make(map[schema.Metric]string, len(summary.Metrics)),
		Recommendations: make([]string, 0, len(summary.Recommendations)),
		Priorities:      make(map[schema.Priority]int),
		DroppedRecords:  summary.Metadata.DroppedRecords,
	}
	for _, ms := range summary.Metrics {
		if ms.Trend == nil {
			d.Trends[ms.Metric] = "n/a"
			continue
		}
		d.Trends[ms.Metric] = string(ms.Trend.Direction)
	}
	for _, r := range summary.Recommendations {
		d.Recommendations = append(d.Recommendations, fmt.Sprintf("[%s] %s: %s", r.Priority, r.Category, r.Message))
		d.Priorities[r.Priority]++
	}
	return d
}
