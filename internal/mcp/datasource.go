package mcp

import (
	"context"
	"time"

	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryExerciseLogs(ctx context.Context, start, end time.Time, userID int) ([]models.ExerciseLogRow, error)
	QueryDailyAggregates(ctx context.Context, start, end time.Time, userID int) ([]models.DailyAggregateRow, error)
	GetDailyAggregate(ctx context.Context, userID int, logDate time.Time) (*models.DailyAggregateRow, error)
	UpsertDailyAggregate(ctx context.Context, up models.DailyAggregateUpsert) error
	GetVolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.VolumeSummaryPeriod, error)
	ListWorkoutTemplates(ctx context.Context, userID int) ([]models.WorkoutTemplate, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
