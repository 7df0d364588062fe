package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCoach strength training server. Query exercise logs, daily activity aggregates, training volume, and workout templates, or log daily metrics like steps and water. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetExerciseLogs, Handler: h.getExerciseLogs},
		server.ServerTool{Tool: toolGetDailyAggregates, Handler: h.getDailyAggregates},
		server.ServerTool{Tool: toolGetVolumeSummary, Handler: h.getVolumeSummary},
		server.ServerTool{Tool: toolListTemplates, Handler: h.listTemplates},
		server.ServerTool{Tool: toolLogDailyMetrics, Handler: h.logDailyMetrics},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDailySummary, Handler: h.dailySummary},
		server.ServerResource{Resource: resRecentLogs, Handler: h.recentLogs},
		server.ServerResource{Resource: resTemplates, Handler: h.templates},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resDailySummary = mcp.NewResource(
	"repcoach://daily_summary",
	"Daily Summary",
	mcp.WithResourceDescription("Today's activity aggregate (steps, water, weight, workout status) plus today's exercise logs"),
	mcp.WithMIMEType("application/json"),
)

var resRecentLogs = mcp.NewResource(
	"repcoach://recent_logs",
	"Recent Exercise Logs",
	mcp.WithResourceDescription("Exercise logs from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resTemplates = mcp.NewResource(
	"repcoach://templates",
	"Workout Templates",
	mcp.WithResourceDescription("All stored workout templates with their exercise prescriptions"),
	mcp.WithMIMEType("application/json"),
)
