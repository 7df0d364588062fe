package session

import "github.com/meltforce/repcoach/internal/models"

// Snapshot is the read-only projection handed to whatever hosts the engine
// (HTTP handlers, a headless test harness). It carries no references into
// the engine's internals.
type Snapshot struct {
	SessionID            string                    `json:"session_id"`
	State                State                     `json:"state"`
	WorkoutTitle         string                    `json:"workout_title"`
	CurrentExerciseIndex int                       `json:"current_exercise_index"`
	CurrentExercise      *models.Exercise          `json:"current_exercise,omitempty"`
	CurrentSetIndex      int                       `json:"current_set_index"`
	Resting              bool                      `json:"resting"`
	RestSecondsRemaining int                       `json:"rest_seconds_remaining"`
	RestPaused           bool                      `json:"rest_paused"`
	ElapsedSeconds       int                       `json:"elapsed_seconds"`
	Progress             []models.ExerciseProgress `json:"progress"`
}

// Snapshot returns the current projection.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		SessionID:            e.id.String(),
		State:                e.state,
		WorkoutTitle:         e.plan.Title,
		CurrentExerciseIndex: e.exerciseIdx,
		CurrentSetIndex:      e.setIdx,
		Resting:              e.state == StateResting,
		RestSecondsRemaining: e.restRemain,
		RestPaused:           e.restPaused,
		ElapsedSeconds:       e.elapsedSec,
		Progress:             cloneProgress(e.progress),
	}
	if e.state != StateComplete {
		ex := e.plan.Exercises[e.exerciseIdx]
		snap.CurrentExercise = &ex
	}
	return snap
}

// Summary recomputes the session totals from current progress. Never
// cached: the numbers are always consistent with whatever has been
// recorded, whether the session is still running or already terminal.
func (e *Engine) Summary() models.SessionSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summaryLocked()
}

func (e *Engine) summaryLocked() models.SessionSummary {
	return Summarize(e.plan, e.progress, e.elapsedSec)
}

// Summarize projects progress against a plan into totals. An exercise
// counts as completed only when every prescribed set was recorded; sets of
// partially-worked exercises still contribute to volume and set counts.
func Summarize(plan models.WorkoutPlan, progress []models.ExerciseProgress, elapsedSec int) models.SessionSummary {
	var s models.SessionSummary
	s.DurationSeconds = elapsedSec

	for i, p := range progress {
		s.TotalCompletedSets += len(p.CompletedSets)
		for _, set := range p.CompletedSets {
			s.TotalVolumeKg += set.Volume()
		}
		if p.Skipped {
			s.SkippedExerciseCount++
			continue
		}
		if i < len(plan.Exercises) && len(p.CompletedSets) >= plan.Exercises[i].Sets {
			s.CompletedExerciseCount++
		}
	}
	return s
}
