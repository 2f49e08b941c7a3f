// Package algo has the statistical building blocks of the analysis:
// descriptive stats, baseline trends, correlation buckets and calendar grouping.
package algo

import (
	"math"

	"github.com/huangsam/pulsecheck/schema"
)

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the sample standard deviation of values.
// Fewer than two values have no spread and return 0.
func stdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(n-1))
}

// Describe computes descriptive statistics for a series.
// It returns nil when the series has no observations.
func Describe(series schema.MetricSeries) *schema.MetricStats {
	values := series.Values()
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return &schema.MetricStats{
		Count:  len(values),
		Mean:   mean(values),
		Min:    lo,
		Max:    hi,
		StdDev: stdDev(values),
	}
}

// ShareOf counts the observations on side of cutoff.
// It returns nil when the series has no observations.
func ShareOf(series schema.MetricSeries, cutoff float64, side schema.Side) *schema.CutoffShare {
	if series.Len() == 0 {
		return nil
	}
	n := 0
	for _, p := range series.Points {
		switch side {
		case schema.BelowCutoff:
			if p.Value < cutoff {
				n++
			}
		case schema.AtLeastCutoff:
			if p.Value >= cutoff {
				n++
			}
		case schema.AboveCutoff:
			if p.Value > cutoff {
				n++
			}
		}
	}
	return &schema.CutoffShare{Cutoff: cutoff, Side: side, Count: n, Pct: pct(n, series.Len())}
}

// Distribution splits a series into the half-open bands given by edges,
// using the same ranges and labels as Bucketize. Every band is reported.
// It returns nil when the series has no observations or the edges are invalid.
func Distribution(series schema.MetricSeries, edges []float64) []schema.Band {
	if series.Len() == 0 || schema.ValidateEdges(edges) != nil {
		return nil
	}
	buckets := newBuckets(edges, schema.MetricUnits[series.Metric])
	counts := make([]int, len(buckets))
	for _, p := range series.Points {
		counts[bucketIndex(p.Value, edges)]++
	}
	bands := make([]schema.Band, len(buckets))
	for i, b := range buckets {
		bands[i] = schema.Band{Label: b.Label, Lower: b.Lower, Upper: b.Upper, Count: counts[i], Pct: pct(counts[i], series.Len())}
	}
	return bands
}

// Stages averages deep and REM sleep over nights where total, deep and REM
// sleep are all present. It returns nil when no night qualifies.
func Stages(total, deep, rem schema.MetricSeries) *schema.SleepStages {
	deepByDate := byDate(deep)
	remByDate := byDate(rem)
	var totals, deeps, rems []float64
	seen := make(map[int64]struct{}, total.Len())
	for _, p := range total.Points {
		key := schema.Day(p.Date).Unix()
		if _, dup := seen[key]; dup {
			continue
		}
		d, okD := deepByDate[key]
		r, okR := remByDate[key]
		if !okD || !okR {
			continue
		}
		seen[key] = struct{}{}
		totals = append(totals, p.Value)
		deeps = append(deeps, d)
		rems = append(rems, r)
	}
	if len(totals) == 0 {
		return nil
	}
	sleep := mean(totals)
	st := &schema.SleepStages{Nights: len(totals), DeepHours: mean(deeps), REMHours: mean(rems)}
	if sleep > 0 {
		st.DeepPct = st.DeepHours / sleep * 100
		st.REMPct = st.REMHours / sleep * 100
	}
	return st
}

// byDate indexes a series by day, keeping the first value of a repeated date.
func byDate(s schema.MetricSeries) map[int64]float64 {
	out := make(map[int64]float64, s.Len())
	for _, p := range s.Points {
		key := schema.Day(p.Date).Unix()
		if _, dup := out[key]; !dup {
			out[key] = p.Value
		}
	}
	return out
}

// pct returns n as a percentage of total.
func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// pearson returns the Pearson correlation coefficient of paired samples.
// It reports false when there are fewer than three pairs or either side is constant.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 3 || n != len(ys) {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range n {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r)), true
}
