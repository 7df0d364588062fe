package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/repcoach/internal/models"
)

// UpsertDailyAggregate applies one write to the per-(user, date) aggregate
// record. With Accumulate set, steps and water_liters are added to the
// stored values; everything else is last-write-wins, and nil fields leave
// the stored value untouched. The whole merge happens inside a single
// INSERT … ON CONFLICT DO UPDATE, so Postgres row locking serializes
// concurrent accumulating writers on the same key and no delta is lost.
func (db *DB) UpsertDailyAggregate(ctx context.Context, up models.DailyAggregateUpsert) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO daily_aggregates
			(user_id, log_date, steps, water_liters, weight_kg, sleep_hours,
			 workout_completed, workout_type, workout_duration_minutes, updated_at)
		VALUES ($1, $2, COALESCE($3::int, 0), COALESCE($4::double precision, 0),
			$5, $6, COALESCE($7::boolean, false), $8, COALESCE($9::int, 0), NOW())
		ON CONFLICT (user_id, log_date) DO UPDATE SET
			steps = CASE WHEN $10
				THEN daily_aggregates.steps + COALESCE($3::int, 0)
				ELSE COALESCE($3::int, daily_aggregates.steps) END,
			water_liters = CASE WHEN $10
				THEN daily_aggregates.water_liters + COALESCE($4::double precision, 0)
				ELSE COALESCE($4::double precision, daily_aggregates.water_liters) END,
			weight_kg = COALESCE($5::double precision, daily_aggregates.weight_kg),
			sleep_hours = COALESCE($6::double precision, daily_aggregates.sleep_hours),
			workout_completed = COALESCE($7::boolean, daily_aggregates.workout_completed),
			workout_type = COALESCE($8::text, daily_aggregates.workout_type),
			workout_duration_minutes = COALESCE($9::int, daily_aggregates.workout_duration_minutes),
			updated_at = NOW()`,
		up.UserID, up.LogDate, up.Steps, up.WaterLiters, up.WeightKg, up.SleepHours,
		up.WorkoutCompleted, up.WorkoutType, up.WorkoutDurationMinutes, up.Accumulate)
	if err != nil {
		return fmt.Errorf("upserting daily aggregate: %w", err)
	}
	return nil
}

// GetDailyAggregate retrieves the aggregate for one date, or nil when no
// record exists yet.
func (db *DB) GetDailyAggregate(ctx context.Context, userID int, logDate time.Time) (*models.DailyAggregateRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT user_id, log_date, steps, water_liters, weight_kg, sleep_hours,
		 workout_completed, workout_type, workout_duration_minutes, updated_at
		 FROM daily_aggregates
		 WHERE user_id = $1 AND log_date = $2`,
		userID, logDate)

	var r models.DailyAggregateRow
	err := row.Scan(&r.UserID, &r.LogDate, &r.Steps, &r.WaterLiters, &r.WeightKg, &r.SleepHours,
		&r.WorkoutCompleted, &r.WorkoutType, &r.WorkoutDurationMinutes, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying daily aggregate: %w", err)
	}
	return &r, nil
}

// QueryDailyAggregates retrieves aggregates in a date range, newest first.
func (db *DB) QueryDailyAggregates(ctx context.Context, start, end time.Time, userID int) ([]models.DailyAggregateRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, log_date, steps, water_liters, weight_kg, sleep_hours,
		 workout_completed, workout_type, workout_duration_minutes, updated_at
		 FROM daily_aggregates
		 WHERE log_date >= $1 AND log_date < $2 AND user_id = $3
		 ORDER BY log_date DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying daily aggregates: %w", err)
	}
	defer rows.Close()

	var result []models.DailyAggregateRow
	for rows.Next() {
		var r models.DailyAggregateRow
		if err := rows.Scan(&r.UserID, &r.LogDate, &r.Steps, &r.WaterLiters, &r.WeightKg, &r.SleepHours,
			&r.WorkoutCompleted, &r.WorkoutType, &r.WorkoutDurationMinutes, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning daily aggregate: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
