// Package persist turns terminal session results into durable records: a
// bulk exercise-log write and a daily-aggregate upsert. The two writes are
// independent; either can fail without affecting the other, and failures
// are queued for retry rather than rolled back — the in-memory session
// outcome is already final by the time this package runs.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/session"
)

// Store is the storage surface the adapter writes through. *storage.DB
// satisfies it.
type Store interface {
	ReplaceExerciseLogs(ctx context.Context, userID int, logDate time.Time, rows []models.ExerciseLogRow) (int64, error)
	UpsertDailyAggregate(ctx context.Context, up models.DailyAggregateUpsert) error
}

// RetryQueue receives writes that failed against the Store. A nil queue
// disables retry.
type RetryQueue interface {
	EnqueueExerciseLogs(userID int, logDate time.Time, rows []models.ExerciseLogRow) error
	EnqueueAggregate(up models.DailyAggregateUpsert) error
}

// Outcome reports the two writes separately so partial failure is visible
// and each side can be retried on its own.
type Outcome struct {
	RowsWritten  int64
	LogsErr      error
	AggregateErr error
	LogsQueued   bool
	AggQueued    bool
}

// Failed reports whether either write failed.
func (o Outcome) Failed() bool { return o.LogsErr != nil || o.AggregateErr != nil }

// Adapter persists finished sessions.
type Adapter struct {
	store Store
	queue RetryQueue
	log   *slog.Logger
}

// New creates an adapter. queue may be nil.
func New(store Store, queue RetryQueue, log *slog.Logger) *Adapter {
	return &Adapter{store: store, queue: queue, log: log}
}

// Persist writes a terminal session result: exercise logs scoped to the
// session's calendar date, then the daily-aggregate upsert marking the
// workout complete. Both paths are idempotent (replace-not-append;
// last-write-wins upsert), so replaying the same result is safe.
func (a *Adapter) Persist(ctx context.Context, res session.Result) Outcome {
	logDate := DateOf(res.StartedAt)
	rows := BuildRows(res)
	var out Outcome

	n, err := a.store.ReplaceExerciseLogs(ctx, res.UserID, logDate, rows)
	out.RowsWritten = n
	if err != nil {
		out.LogsErr = fmt.Errorf("writing exercise logs: %w", err)
		a.log.Error("exercise log write failed", "session_id", res.SessionID, "error", err)
		if a.queue != nil {
			if qErr := a.queue.EnqueueExerciseLogs(res.UserID, logDate, rows); qErr != nil {
				a.log.Error("failed to queue exercise logs for retry", "error", qErr)
			} else {
				out.LogsQueued = true
			}
		}
	}

	up := AggregateUpsert(res, logDate)
	if err := a.store.UpsertDailyAggregate(ctx, up); err != nil {
		out.AggregateErr = fmt.Errorf("upserting daily aggregate: %w", err)
		a.log.Error("daily aggregate write failed", "session_id", res.SessionID, "error", err)
		if a.queue != nil {
			if qErr := a.queue.EnqueueAggregate(up); qErr != nil {
				a.log.Error("failed to queue aggregate for retry", "error", qErr)
			} else {
				out.AggQueued = true
			}
		}
	}

	if !out.Failed() {
		a.log.Info("session persisted",
			"session_id", res.SessionID,
			"log_date", logDate.Format("2006-01-02"),
			"exercises", len(rows),
			"sets", res.Summary.TotalCompletedSets,
			"duration_min", up.WorkoutDurationMinutes)
	}
	return out
}

// BuildRows converts session progress into exercise-log rows, one per
// planned exercise in plan order, carrying both the prescription and the
// recorded actuals.
func BuildRows(res session.Result) []models.ExerciseLogRow {
	rows := make([]models.ExerciseLogRow, 0, len(res.Progress))
	for _, p := range res.Progress {
		row := models.ExerciseLogRow{
			UserID:            res.UserID,
			LogDate:           DateOf(res.StartedAt),
			ExerciseName:      p.ExerciseName,
			ExerciseOrder:     p.ExerciseIndex,
			CompletedSetCount: len(p.CompletedSets),
			SetDetails:        p.CompletedSets,
			Skipped:           p.Skipped,
		}
		if p.ExerciseIndex < len(res.Plan.Exercises) {
			ex := res.Plan.Exercises[p.ExerciseIndex]
			row.TargetSets = ex.Sets
			row.TargetReps = ex.RepRange
			row.Notes = ex.Notes
		}
		rows = append(rows, row)
	}
	return rows
}

// AggregateUpsert builds the finish-time daily-aggregate write. Duration is
// rounded to whole minutes; additive fields are untouched (no accumulate).
func AggregateUpsert(res session.Result, logDate time.Time) models.DailyAggregateUpsert {
	completed := true
	workoutType := res.WorkoutType
	minutes := int(math.Round(float64(res.Summary.DurationSeconds) / 60))
	return models.DailyAggregateUpsert{
		UserID:                 res.UserID,
		LogDate:                logDate,
		WorkoutCompleted:       &completed,
		WorkoutType:            &workoutType,
		WorkoutDurationMinutes: &minutes,
	}
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
