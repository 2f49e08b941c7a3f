// Package server exposes the health analysis over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/huangsam/pulsecheck/core"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/datastore"
	"github.com/huangsam/pulsecheck/schema"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server answers API requests by running the analysis against the configured data.
type Server struct {
	cfg     *contract.Config
	mgr     contract.CacheManager
	store   contract.RecordStore
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// New creates a server for the given base configuration.
// Each request may narrow the range with days, end and as_of query parameters.
func New(cfg *contract.Config, mgr contract.CacheManager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))
	return &Server{
		cfg:     cfg,
		mgr:     mgr,
		store:   datastore.NewFileStore(cfg.DataDir, logger),
		logger:  logger,
		metrics: NewMetrics(),
		now:     time.Now,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metrics.Middleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.summaryHandler(func(v schema.AnalysisSummary) any { return v })).Methods(http.MethodGet)
	api.HandleFunc("/trends", s.summaryHandler(func(v schema.AnalysisSummary) any { return v.Metrics })).Methods(http.MethodGet)
	api.HandleFunc("/trends/{metric}", s.handleMetricTrend).Methods(http.MethodGet)
	api.HandleFunc("/correlations", s.summaryHandler(func(v schema.AnalysisSummary) any { return v.Correlations })).Methods(http.MethodGet)
	api.HandleFunc("/weekdays", s.summaryHandler(func(v schema.AnalysisSummary) any {
		return map[string]any{"weekdays": v.Weekdays, "monthly": v.Monthly}
	})).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", s.summaryHandler(func(v schema.AnalysisSummary) any {
		if v.Recommendations == nil {
			return []schema.Recommendation{}
		}
		return v.Recommendations
	})).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})
	return r
}

// Handler wraps the router with recovery and access logging.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	var h http.Handler = s.Router()
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	if accessLog != nil {
		h = handlers.CombinedLoggingHandler(accessLog, h)
	}
	return h
}

// ListenAndServe serves on cfg.Addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(os.Stderr),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr), zap.String("data_dir", s.cfg.DataDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// summaryHandler runs the analysis for the request and writes the selected part.
func (s *Server) summaryHandler(selectPart func(schema.AnalysisSummary) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, status, err := s.analyze(r)
		if err != nil {
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, selectPart(summary))
	}
}

func (s *Server) handleMetricTrend(w http.ResponseWriter, r *http.Request) {
	metric, err := schema.ParseMetric(mux.Vars(r)["metric"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	summary, status, err := s.analyze(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	ms, _ := summary.Metric(metric)
	writeJSON(w, http.StatusOK, ms)
}

// analyze resolves the request range and runs the analysis.
// The returned status is meaningful only when err is not nil.
func (s *Server) analyze(r *http.Request) (schema.AnalysisSummary, int, error) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		return schema.AnalysisSummary{}, http.StatusBadRequest, err
	}

	start := s.now()
	ctx := core.WithLogger(r.Context(), s.logger)
	summary, err := core.RunAnalysis(ctx, cfg, s.store, s.mgr)
	s.metrics.ObserveAnalysis(s.now().Sub(start), summary.DayCount, priorityCounts(summary), err)
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		return schema.AnalysisSummary{}, http.StatusInternalServerError, err
	}
	return summary, http.StatusOK, nil
}

// requestConfig clones the base config with the query overrides applied.
func (s *Server) requestConfig(r *http.Request) (*contract.Config, error) {
	q := r.URL.Query()
	days := 0
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, errors.New("days must be a positive integer")
		}
		days = n
	}
	cfg := s.cfg.Clone()
	if err := contract.RevalidateRange(cfg, days, q.Get("end"), q.Get("as_of"), s.now()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func priorityCounts(summary schema.AnalysisSummary) map[string]int {
	counts := make(map[string]int)
	for _, r := range summary.Recommendations {
		counts[string(r.Priority)]++
	}
	return counts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
