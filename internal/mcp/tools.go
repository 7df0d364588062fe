package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/persist"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// optFloat returns a pointer to the argument's value when present, nil when
// absent. Absent fields must stay nil so the aggregate merge leaves the
// stored value untouched.
func optFloat(req mcp.CallToolRequest, key string) *float64 {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetFloat(key, 0)
	return &v
}

func optInt(req mcp.CallToolRequest, key string) *int {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetInt(key, 0)
	return &v
}

// --- Tool definitions ---

var toolGetExerciseLogs = mcp.NewTool("get_exercise_logs",
	mcp.WithDescription("Retrieve exercise logs in a date range. Each log is one exercise of one session with its prescription (target sets/reps) and recorded actuals (per-set reps, weight, RIR)."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetDailyAggregates = mcp.NewTool("get_daily_aggregates",
	mcp.WithDescription("Retrieve per-day activity aggregates (steps, water, weight, sleep, workout completion) in a date range."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetVolumeSummary = mcp.NewTool("get_volume_summary",
	mcp.WithDescription("Weekly/monthly strength training volume rollups: sessions, exercises, working sets, total reps, and tonnage per period."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'month'."), mcp.Enum("week", "month")),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List stored workout templates with their exercise prescriptions."),
)

var toolLogDailyMetrics = mcp.NewTool("log_daily_metrics",
	mcp.WithDescription("Record daily metrics. With accumulate=true, steps and water_liters are added to the stored totals instead of overwriting them; weight and sleep always overwrite. Omitted fields are left unchanged."),
	mcp.WithString("date", mcp.Description("Calendar date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithNumber("steps", mcp.Description("Step count, or a delta when accumulating")),
	mcp.WithNumber("water_liters", mcp.Description("Water intake in liters, or a delta when accumulating")),
	mcp.WithNumber("weight_kg", mcp.Description("Body weight in kilograms")),
	mcp.WithNumber("sleep_hours", mcp.Description("Sleep duration in hours")),
	mcp.WithBoolean("accumulate", mcp.Description("Add steps and water_liters to stored totals instead of overwriting. Defaults to false.")),
)

// --- Tool handlers ---

func (h *handlers) getExerciseLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	logs, err := h.ds.QueryExerciseLogs(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_exercise_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(logs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDailyAggregates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	rows, err := h.ds.QueryDailyAggregates(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_daily_aggregates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getVolumeSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	endStr := req.GetString("end", "")
	startStr := req.GetString("start", "")

	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
		}
	} else {
		start = end.AddDate(0, -6, 0)
	}

	bucket := req.GetString("bucket", "month")
	uid := UserIDFromContext(ctx)

	periods, err := h.ds.GetVolumeSummary(ctx, start, end, bucket, uid)
	if err != nil {
		h.log.Error("mcp get_volume_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	templates, err := h.ds.ListWorkoutTemplates(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(templates)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) logDailyMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logDate := persist.DateOf(time.Now())
	if dateStr := req.GetString("date", ""); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return mcp.NewToolResultError("invalid date: " + err.Error()), nil
		}
		logDate = parsed
	}

	uid := UserIDFromContext(ctx)
	up := models.DailyAggregateUpsert{
		UserID:      uid,
		LogDate:     logDate,
		Steps:       optInt(req, "steps"),
		WaterLiters: optFloat(req, "water_liters"),
		WeightKg:    optFloat(req, "weight_kg"),
		SleepHours:  optFloat(req, "sleep_hours"),
		Accumulate:  req.GetBool("accumulate", false),
	}
	if up.Steps == nil && up.WaterLiters == nil && up.WeightKg == nil && up.SleepHours == nil {
		return mcp.NewToolResultError("at least one metric is required"), nil
	}

	if err := h.ds.UpsertDailyAggregate(ctx, up); err != nil {
		h.log.Error("mcp log_daily_metrics", "error", err)
		return mcp.NewToolResultError("write failed: " + err.Error()), nil
	}

	row, err := h.ds.GetDailyAggregate(ctx, uid, logDate)
	if err != nil {
		h.log.Error("mcp log_daily_metrics readback", "error", err)
		return mcp.NewToolResultError("write succeeded but readback failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
