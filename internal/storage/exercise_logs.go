package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

// ReplaceExerciseLogs writes a session's exercise logs for one calendar
// date. Prior rows for that (user, date) are deleted and the new set is
// inserted in a single transaction — replace, not append — so replaying
// the same finish event can never duplicate rows. Returns the number of
// rows written.
func (db *DB) ReplaceExerciseLogs(ctx context.Context, userID int, logDate time.Time, rows []models.ExerciseLogRow) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM exercise_logs WHERE user_id = $1 AND log_date = $2`,
		userID, logDate); err != nil {
		return 0, fmt.Errorf("clearing prior exercise logs: %w", err)
	}

	if len(rows) == 0 {
		return 0, tx.Commit(ctx)
	}

	query := `INSERT INTO exercise_logs (id, user_id, log_date, exercise_name, exercise_order,
		target_sets, target_reps, completed_set_count, set_details, skipped, notes) VALUES `
	args := make([]any, 0, len(rows)*11)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		details, err := json.Marshal(r.SetDetails)
		if err != nil {
			return 0, fmt.Errorf("encoding set details for %q: %w", r.ExerciseName, err)
		}
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args, id, userID, logDate, r.ExerciseName, r.ExerciseOrder,
			r.TargetSets, r.TargetReps, r.CompletedSetCount, details, r.Skipped, r.Notes)
	}

	tag, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise logs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing exercise logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryExerciseLogs retrieves exercise logs in a date range, ordered by
// date then exercise order.
func (db *DB) QueryExerciseLogs(ctx context.Context, start, end time.Time, userID int) ([]models.ExerciseLogRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, log_date, exercise_name, exercise_order,
		 target_sets, target_reps, completed_set_count, set_details, skipped, notes
		 FROM exercise_logs
		 WHERE log_date >= $1 AND log_date < $2 AND user_id = $3
		 ORDER BY log_date DESC, exercise_order ASC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise logs: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseLogRow
	for rows.Next() {
		var r models.ExerciseLogRow
		var details []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.LogDate, &r.ExerciseName, &r.ExerciseOrder,
			&r.TargetSets, &r.TargetReps, &r.CompletedSetCount, &details, &r.Skipped, &r.Notes); err != nil {
			return nil, fmt.Errorf("scanning exercise log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &r.SetDetails); err != nil {
				return nil, fmt.Errorf("decoding set details: %w", err)
			}
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
