// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// rangeOptions are the range arguments shared by every tool.
func rangeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("data_dir", mcp.Description("Directory holding the cached health records (defaults to the configured data directory).")),
		mcp.WithNumber("days", mcp.Description("Number of days to analyze, ending at 'end'."), mcp.Min(1)),
		mcp.WithString("end", mcp.Description("Last day of the range (YYYY-MM-DD, 'today' or 'N days ago').")),
		mcp.WithString("as_of", mcp.Description("Reference day for the recent trend window. Defaults to the newest day with data.")),
	}
}

func newTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, rangeOptions()...)
	return mcp.NewTool(name, append(opts, extra...)...)
}

// NewMCPServer initializes and configures the pulsecheck MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"pulsecheck Health Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	if logger == nil {
		logger = zap.NewNop()
	}
	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		logger:  logger.With(zap.String("component", "mcp")),
	}

	// --- 1. Tool: get_health_summary ---
	s.AddTool(newTool("get_health_summary",
		"Analyze cached fitness records and return trends, correlations, weekday patterns and recommendations.",
	), h.handleGetHealthSummary)

	// --- 2. Tool: get_metric_trends ---
	s.AddTool(newTool("get_metric_trends",
		"Compare the recent window of each health metric against its baseline.",
		mcp.WithString("metric", mcp.Description("Only return this metric."), mcp.Enum(metricNames()...)),
	), h.handleGetMetricTrends)

	// --- 3. Tool: get_correlations ---
	s.AddTool(newTool("get_correlations",
		"Return bucketed correlation tables such as sedentary time vs sleep.",
	), h.handleGetCorrelations)

	// --- 4. Tool: get_weekday_patterns ---
	s.AddTool(newTool("get_weekday_patterns",
		"Return day-of-week and monthly averages of health metrics.",
	), h.handleGetWeekdayPatterns)

	// --- 5. Tool: get_recommendations ---
	s.AddTool(newTool("get_recommendations",
		"Return ranked, actionable health recommendations.",
	), h.handleGetRecommendations)

	return s
}

// StartMCPServer starts the pulsecheck MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager, logger *zap.Logger) error {
	s := NewMCPServer(baseCfg, mgr, logger)
	return server.ServeStdio(s)
}
