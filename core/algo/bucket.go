package algo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/huangsam/pulsecheck/schema"
)

// Bucketize groups the dependent metric by ranges of the independent metric.
//
// The two series are inner-joined on date. With edges e1 < ... < ek there are
// k+1 half-open buckets: (-inf, e1), [e1, e2), ..., [ek, +inf). Every bucket
// is reported even when empty so tables keep the same shape across runs.
// Buckets with fewer than minSamples days, empty ones included, are flagged
// low confidence.
//
// Impact compares bucket means under the dependent metric's polarity: the best
// and worst non-empty buckets are labeled as such (earliest bucket wins ties)
// and the rest are moderate.
func Bucketize(name string, independent, dependent schema.MetricSeries, edges []float64, minSamples int) (schema.CorrelationTable, error) {
	if err := schema.ValidateEdges(edges); err != nil {
		return schema.CorrelationTable{}, fmt.Errorf("bucketize %s: %w", name, err)
	}

	table := schema.CorrelationTable{
		Name:        name,
		Independent: independent.Metric,
		Dependent:   dependent.Metric,
		Buckets:     newBuckets(edges, schema.MetricUnits[independent.Metric]),
	}

	xs, ys := join(independent, dependent)
	sums := make([]float64, len(table.Buckets))
	for i, x := range xs {
		idx := bucketIndex(x, edges)
		table.Buckets[idx].Count++
		sums[idx] += ys[i]
	}
	table.JoinedCount = len(xs)
	for i := range table.Buckets {
		table.Buckets[i].LowConfidence = table.Buckets[i].Count < minSamples
	}

	if table.JoinedCount == 0 {
		table.Status = schema.InsufficientData
		for i := range table.Buckets {
			table.Buckets[i].Impact = schema.NoImpact
		}
		return table, nil
	}

	table.Status = schema.Available
	table.OverallMean = schema.Float(mean(ys))
	for i := range table.Buckets {
		b := &table.Buckets[i]
		if b.Count == 0 {
			b.Impact = schema.NoImpact
			continue
		}
		b.Mean = schema.Float(sums[i] / float64(b.Count))
	}

	labelImpacts(&table, schema.PolarityOf(dependent.Metric))

	if r, ok := pearson(xs, ys); ok {
		table.Pearson = schema.Float(r)
	}
	return table, nil
}

// newBuckets builds empty buckets for the given edges.
func newBuckets(edges []float64, unit string) []schema.CorrelationBucket {
	buckets := make([]schema.CorrelationBucket, len(edges)+1)
	for i := range buckets {
		var lower, upper *float64
		if i > 0 {
			lower = schema.Float(edges[i-1])
		}
		if i < len(edges) {
			upper = schema.Float(edges[i])
		}
		buckets[i] = schema.CorrelationBucket{
			Label: bucketLabel(lower, upper, unit),
			Lower: lower,
			Upper: upper,
		}
	}
	return buckets
}

// bucketLabel renders a range like "<14h", "14-17h" or "17h+".
func bucketLabel(lower, upper *float64, unit string) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch {
	case lower == nil && upper == nil:
		return "all"
	case lower == nil:
		return "<" + f(*upper) + unit
	case upper == nil:
		return f(*lower) + unit + "+"
	default:
		return f(*lower) + "-" + f(*upper) + unit
	}
}

// bucketIndex returns the half-open bucket that holds x.
func bucketIndex(x float64, edges []float64) int {
	for i, e := range edges {
		if x < e {
			return i
		}
	}
	return len(edges)
}

// join returns paired values for dates present in both series.
func join(a, b schema.MetricSeries) ([]float64, []float64) {
	byDate := make(map[int64]float64, b.Len())
	for _, p := range b.Points {
		byDate[schema.Day(p.Date).Unix()] = p.Value
	}
	xs := make([]float64, 0, a.Len())
	ys := make([]float64, 0, a.Len())
	seen := make(map[int64]struct{}, a.Len())
	for _, p := range a.Points {
		key := schema.Day(p.Date).Unix()
		if _, dup := seen[key]; dup {
			continue
		}
		if y, ok := byDate[key]; ok {
			seen[key] = struct{}{}
			xs = append(xs, p.Value)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// labelImpacts assigns best, worst and moderate to non-empty buckets and sets the spread.
func labelImpacts(table *schema.CorrelationTable, polarity schema.Polarity) {
	best, worst := -1, -1
	for i, b := range table.Buckets {
		if b.Mean == nil {
			continue
		}
		if best == -1 || polarity.Better(*b.Mean, *table.Buckets[best].Mean) {
			best = i
		}
		if worst == -1 || polarity.Better(*table.Buckets[worst].Mean, *b.Mean) {
			worst = i
		}
	}
	for i := range table.Buckets {
		if table.Buckets[i].Mean != nil {
			table.Buckets[i].Impact = schema.ModerateImpact
		}
	}
	if best == -1 {
		return
	}
	table.Spread = schema.Float(math.Abs(*table.Buckets[best].Mean - *table.Buckets[worst].Mean))
	if best == worst {
		return
	}
	table.Buckets[best].Impact = schema.BestImpact
	table.Buckets[worst].Impact = schema.WorstImpact
}
