package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/persist"
)

func (h *handlers) dailySummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	today := persist.DateOf(time.Now())
	tomorrow := today.AddDate(0, 0, 1)

	aggregate, err := h.ds.GetDailyAggregate(ctx, uid, today)
	if err != nil {
		return nil, err
	}
	if aggregate == nil {
		aggregate = &models.DailyAggregateRow{UserID: uid, LogDate: today}
	}

	logs, err := h.ds.QueryExerciseLogs(ctx, today, tomorrow, uid)
	if err != nil {
		h.log.Warn("daily_summary: exercise log query failed", "error", err)
	}

	summary := map[string]any{
		"date":            today.Format("2006-01-02"),
		"daily_aggregate": aggregate,
		"exercise_logs":   logs,
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentLogs(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	logs, err := h.ds.QueryExerciseLogs(ctx, start, end, uid)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(logs)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) templates(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	templates, err := h.ds.ListWorkoutTemplates(ctx, uid)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(templates)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
