// Package advice turns analysis statistics into prioritized recommendations.
package advice

import (
	"fmt"
	"sort"

	"github.com/huangsam/pulsecheck/schema"
)

// Stats is everything the rules may look at. It is assembled once per run
// from the metric summaries, correlation tables and weekday tables.
type Stats struct {
	Metrics      map[schema.Metric]schema.MetricSummary
	Correlations map[string]schema.CorrelationTable
	Weekdays     map[schema.Metric]schema.WeekdayTable
}

// NewStats indexes summary sections for rule lookups.
func NewStats(metrics []schema.MetricSummary, correlations []schema.CorrelationTable, weekdays []schema.WeekdayTable) Stats {
	s := Stats{
		Metrics:      make(map[schema.Metric]schema.MetricSummary, len(metrics)),
		Correlations: make(map[string]schema.CorrelationTable, len(correlations)),
		Weekdays:     make(map[schema.Metric]schema.WeekdayTable, len(weekdays)),
	}
	for _, m := range metrics {
		s.Metrics[m.Metric] = m
	}
	for _, c := range correlations {
		s.Correlations[c.Name] = c
	}
	for _, w := range weekdays {
		s.Weekdays[w.Metric] = w
	}
	return s
}

// stats returns the descriptive stats for m, or nil.
func (s Stats) stats(m schema.Metric) *schema.MetricStats {
	return s.Metrics[m].Stats
}

// share returns the cutoff share for m, or nil.
func (s Stats) share(m schema.Metric) *schema.CutoffShare {
	return s.Metrics[m].Share
}

// trend returns the trend for m, or nil.
func (s Stats) trend(m schema.Metric) *schema.TrendResult {
	return s.Metrics[m].Trend
}

// finding is the variable text produced by a rule that fired.
type finding struct {
	message   string
	action    string
	rationale string
}

// Rule is a named check that yields at most one recommendation.
// Rules are independent of each other.
type Rule struct {
	Name     string
	Category schema.AdviceCategory
	Priority schema.Priority
	check    func(Stats, schema.Thresholds) *finding
}

// Evaluate runs the rule and returns a recommendation when it fires.
func (r Rule) Evaluate(s Stats, th schema.Thresholds) *schema.Recommendation {
	f := r.check(s, th)
	if f == nil {
		return nil
	}
	return &schema.Recommendation{
		Rule:      r.Name,
		Category:  r.Category,
		Priority:  r.Priority,
		Message:   f.message,
		Action:    f.action,
		Rationale: f.rationale,
	}
}

// Generate evaluates every rule and returns the recommendations that fired,
// ordered by priority, then category, then rule name.
func Generate(s Stats, th schema.Thresholds) ([]schema.Recommendation, error) {
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	out := make([]schema.Recommendation, 0, len(Rules))
	for _, r := range Rules {
		if rec := r.Evaluate(s, th); rec != nil {
			out = append(out, *rec)
		}
	}
	Sort(out)
	return out, nil
}

// Sort orders recommendations deterministically in place.
func Sort(recs []schema.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if pa, pb := schema.PriorityRank[a.Priority], schema.PriorityRank[b.Priority]; pa != pb {
			return pa > pb
		}
		if ca, cb := schema.AdviceCategoryRank(a.Category), schema.AdviceCategoryRank(b.Category); ca != cb {
			return ca < cb
		}
		return a.Rule < b.Rule
	})
}
