package models

// Exercise is one prescribed exercise within a workout plan.
type Exercise struct {
	Name      string  `json:"name"`
	Sets      int     `json:"sets"`
	RepRange  string  `json:"reps"`
	TargetRIR *int    `json:"rir,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// WorkoutPlan is an ordered prescription for one training session.
type WorkoutPlan struct {
	Title     string     `json:"title"`
	Exercises []Exercise `json:"exercises"`
}

// SetLog records one completed set.
type SetLog struct {
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`
	RIR      *int    `json:"rir,omitempty"`
}

// Volume returns the tonnage of the set (reps × weight).
func (s SetLog) Volume() float64 {
	return float64(s.Reps) * s.WeightKg
}

// ExerciseProgress tracks actual work against one planned exercise.
// Skipped and a non-empty CompletedSets are mutually exclusive: skipping an
// exercise that already has recorded sets leaves it partially completed,
// not skipped.
type ExerciseProgress struct {
	ExerciseIndex int      `json:"exercise_index"`
	ExerciseName  string   `json:"exercise_name"`
	CompletedSets []SetLog `json:"completed_sets"`
	Skipped       bool     `json:"skipped"`
}

// SessionSummary holds the derived totals of a finished (or early-finished)
// session. Recomputed from progress on demand, never cached.
type SessionSummary struct {
	TotalCompletedSets     int     `json:"total_completed_sets"`
	TotalVolumeKg          float64 `json:"total_volume_kg"`
	CompletedExerciseCount int     `json:"completed_exercise_count"`
	SkippedExerciseCount   int     `json:"skipped_exercise_count"`
	DurationSeconds        int     `json:"duration_seconds"`
}
