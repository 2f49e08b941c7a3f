package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors exported on /metrics.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	analysisRuns      *prometheus.CounterVec
	analysisDuration  prometheus.Histogram
	analyzedDays      prometheus.Gauge
	recommendations   *prometheus.GaugeVec
}

// NewMetrics registers the collectors on a fresh registry so that several
// servers (and tests) can coexist in one process.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsecheck_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsecheck_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsecheck_analysis_runs_total",
			Help: "Total analysis runs by result.",
		}, []string{"result"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsecheck_analysis_duration_seconds",
			Help:    "Histogram of analysis durations.",
			Buckets: prometheus.DefBuckets,
		}),
		analyzedDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulsecheck_analyzed_days",
			Help: "Number of days with data in the most recent analysis.",
		}),
		recommendations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulsecheck_recommendations",
			Help: "Recommendations in the most recent analysis by priority.",
		}, []string{"priority"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.analysisRuns,
		m.analysisDuration,
		m.analyzedDays,
		m.recommendations,
		collectors.NewGoCollector(),
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and durations under the matched route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one analysis run.
func (m *Metrics) ObserveAnalysis(duration time.Duration, days int, priorities map[string]int, err error) {
	if m == nil {
		return
	}
	m.analysisDuration.Observe(duration.Seconds())
	if err != nil {
		m.analysisRuns.WithLabelValues("error").Inc()
		return
	}
	m.analysisRuns.WithLabelValues("ok").Inc()
	m.analyzedDays.Set(float64(days))
	m.recommendations.Reset()
	for priority, n := range priorities {
		m.recommendations.WithLabelValues(priority).Set(float64(n))
	}
}
