package models

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseLogRow is a row ready for insertion into the exercise_logs table.
// One row per exercise of a session, ordered by ExerciseOrder within LogDate.
type ExerciseLogRow struct {
	ID                uuid.UUID `json:"id"`
	UserID            int       `json:"user_id"`
	LogDate           time.Time `json:"log_date"`
	ExerciseName      string    `json:"exercise_name"`
	ExerciseOrder     int       `json:"exercise_order"`
	TargetSets        int       `json:"target_sets"`
	TargetReps        string    `json:"target_reps"`
	CompletedSetCount int       `json:"completed_set_count"`
	SetDetails        []SetLog  `json:"set_details"`
	Skipped           bool      `json:"skipped"`
	Notes             *string   `json:"notes,omitempty"`
}

// DailyAggregateRow is the single per-user-per-date record of cumulative
// activity and biometric totals.
type DailyAggregateRow struct {
	UserID                 int       `json:"user_id"`
	LogDate                time.Time `json:"log_date"`
	Steps                  int       `json:"steps"`
	WaterLiters            float64   `json:"water_liters"`
	WeightKg               *float64  `json:"weight_kg,omitempty"`
	SleepHours             *float64  `json:"sleep_hours,omitempty"`
	WorkoutCompleted       bool      `json:"workout_completed"`
	WorkoutType            *string   `json:"workout_type,omitempty"`
	WorkoutDurationMinutes int       `json:"workout_duration_minutes"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// DailyAggregateUpsert is one write against a daily aggregate. When
// Accumulate is set, Steps and WaterLiters are added to the stored values
// instead of overwriting them; all other fields are last-write-wins and
// only applied when non-nil.
type DailyAggregateUpsert struct {
	UserID                 int       `json:"-"`
	LogDate                time.Time `json:"log_date"`
	Steps                  *int      `json:"steps,omitempty"`
	WaterLiters            *float64  `json:"water_liters,omitempty"`
	WeightKg               *float64  `json:"weight_kg,omitempty"`
	SleepHours             *float64  `json:"sleep_hours,omitempty"`
	WorkoutCompleted       *bool     `json:"workout_completed,omitempty"`
	WorkoutType            *string   `json:"workout_type,omitempty"`
	WorkoutDurationMinutes *int      `json:"workout_duration_minutes,omitempty"`
	Accumulate             bool      `json:"accumulate,omitempty"`
}

// WorkoutTemplate is a stored, reusable workout plan.
type WorkoutTemplate struct {
	ID        uuid.UUID  `json:"id"`
	UserID    int        `json:"user_id"`
	Title     string     `json:"title"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
}
