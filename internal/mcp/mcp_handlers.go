package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/pulsecheck/core"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/datastore"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	logger  *zap.Logger
}

func metricNames() []string {
	names := make([]string, len(schema.AllMetrics))
	for i, m := range schema.AllMetrics {
		names[i] = string(m)
	}
	return names
}

// analyze applies the range arguments of request and runs the analysis.
// A non-nil result is a tool error to hand back to the client.
func (h *toolHandler) analyze(ctx context.Context, request mcp.CallToolRequest) (schema.AnalysisSummary, *mcp.CallToolResult) {
	cfg := h.baseCfg.Clone()
	if d := request.GetString("data_dir", ""); d != "" {
		cfg.DataDir = d
	}
	days := request.GetInt("days", 0)
	if days < 0 {
		return schema.AnalysisSummary{}, mcp.NewToolResultError("invalid range parameters: days must be at least 1")
	}
	if err := contract.RevalidateRange(cfg, days, request.GetString("end", ""), request.GetString("as_of", ""), time.Now()); err != nil {
		return schema.AnalysisSummary{}, mcp.NewToolResultError(fmt.Sprintf("invalid range parameters: %v", err))
	}

	store := datastore.NewFileStore(cfg.DataDir, h.logger)
	summary, err := core.RunAnalysis(core.WithLogger(ctx, h.logger), cfg, store, h.mgr)
	if err != nil {
		return schema.AnalysisSummary{}, mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err))
	}
	return summary, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetHealthSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, errResult := h.analyze(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(summary)
}

func (h *toolHandler) handleGetMetricTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var metric schema.Metric
	if m := request.GetString("metric", ""); m != "" {
		parsed, err := schema.ParseMetric(m)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		metric = parsed
	}

	summary, errResult := h.analyze(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	if metric != "" {
		ms, _ := summary.Metric(metric)
		return jsonResult(ms)
	}
	return jsonResult(summary.Metrics)
}

func (h *toolHandler) handleGetCorrelations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, errResult := h.analyze(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(summary.Correlations)
}

func (h *toolHandler) handleGetWeekdayPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, errResult := h.analyze(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(map[string]any{
		"weekdays": summary.Weekdays,
		"monthly":  summary.Monthly,
	})
}

func (h *toolHandler) handleGetRecommendations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, errResult := h.analyze(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	recs := summary.Recommendations
	if recs == nil {
		recs = []schema.Recommendation{}
	}
	return jsonResult(recs)
}
