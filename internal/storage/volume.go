package storage

import (
	"context"
	"fmt"
	"time"
)

// VolumeSummaryPeriod holds aggregated training volume for one period.
type VolumeSummaryPeriod struct {
	Period          string  `json:"period"`
	Sessions        int     `json:"sessions"`
	ExercisesLogged int     `json:"exercises_logged"`
	WorkingSets     int     `json:"working_sets"`
	TotalReps       int     `json:"total_reps"`
	TonnageKg       float64 `json:"tonnage_kg"`
}

// GetVolumeSummary returns per-period set/rep/tonnage rollups computed from
// exercise log set details. bucket is "week" or "month".
func (db *DB) GetVolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]VolumeSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, el.log_date)::date AS period,
		        COUNT(DISTINCT el.log_date)::int AS sessions,
		        COUNT(DISTINCT el.id)::int AS exercises_logged,
		        COUNT(s)::int AS working_sets,
		        COALESCE(SUM((s->>'reps')::int), 0)::int AS total_reps,
		        COALESCE(SUM((s->>'reps')::int * (s->>'weight_kg')::double precision), 0) AS tonnage_kg
		 FROM exercise_logs el
		 LEFT JOIN LATERAL jsonb_array_elements(el.set_details) AS s ON true
		 WHERE el.log_date >= $2 AND el.log_date < $3 AND el.user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying volume summary: %w", err)
	}
	defer rows.Close()

	var result []VolumeSummaryPeriod
	for rows.Next() {
		var periodTime time.Time
		var p VolumeSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Sessions, &p.ExercisesLogged, &p.WorkingSets, &p.TotalReps, &p.TonnageKg); err != nil {
			return nil, fmt.Errorf("scanning volume summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval maps a bucket name to a date_trunc field, defaulting to month.
func truncInterval(bucket string) string {
	switch bucket {
	case "week", "1 week":
		return "week"
	default:
		return "month"
	}
}
