package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

func twoByTwoPlan() models.WorkoutPlan {
	return models.WorkoutPlan{
		Title: "Upper A",
		Exercises: []models.Exercise{
			{Name: "Bench Press", Sets: 2, RepRange: "8-12"},
			{Name: "Row", Sets: 2, RepRange: "8-12"},
		},
	}
}

// newTestEngine builds an engine without starting its tickers, so tests
// drive tickElapsed/tickRest by hand.
func newTestEngine(plan models.WorkoutPlan, cfg Config) *Engine {
	cfg.SessionID = uuid.New()
	return New(plan, cfg)
}

// TestScenarioA walks the canonical happy path: complete both sets of
// exercise 1, skip the rest, skip exercise 2, and verify the session
// auto-completes with the expected totals (2 sets, 440 kg volume, one
// fully completed exercise).
func TestScenarioA(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.CompleteSet(0, 1, models.SetLog{Reps: 12, WeightKg: 20})
	if snap := e.Snapshot(); !snap.Resting {
		t.Fatalf("expected resting after set 1, state = %s", snap.State)
	}
	e.SkipRest()

	e.CompleteSet(0, 2, models.SetLog{Reps: 10, WeightKg: 20})
	snap := e.Snapshot()
	if !snap.Resting {
		t.Fatal("expected rest between exercises")
	}
	if snap.CurrentExerciseIndex != 1 || snap.CurrentSetIndex != 1 {
		t.Fatalf("cursor = (%d,%d), want (1,1)", snap.CurrentExerciseIndex, snap.CurrentSetIndex)
	}
	e.SkipRest()

	e.SkipExercise(1)

	snap = e.Snapshot()
	if snap.State != StateComplete {
		t.Fatalf("state = %s, want complete", snap.State)
	}
	sum := e.Summary()
	if sum.CompletedExerciseCount != 1 {
		t.Errorf("completed exercises = %d, want 1", sum.CompletedExerciseCount)
	}
	if sum.SkippedExerciseCount != 1 {
		t.Errorf("skipped exercises = %d, want 1", sum.SkippedExerciseCount)
	}
	if sum.TotalCompletedSets != 2 {
		t.Errorf("total sets = %d, want 2", sum.TotalCompletedSets)
	}
	if sum.TotalVolumeKg != 440 {
		t.Errorf("total volume = %v, want 440", sum.TotalVolumeKg)
	}
}

// TestScenarioB verifies Finish mid-exercise: one of two sets recorded
// still contributes to set count and volume, but the exercise does not
// count as fully completed.
func TestScenarioB(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.CompleteSet(0, 1, models.SetLog{Reps: 8, WeightKg: 50})
	e.Finish()

	sum := e.Summary()
	if sum.TotalCompletedSets != 1 {
		t.Errorf("total sets = %d, want 1", sum.TotalCompletedSets)
	}
	if sum.TotalVolumeKg != 400 {
		t.Errorf("total volume = %v, want 400", sum.TotalVolumeKg)
	}
	if sum.CompletedExerciseCount != 0 {
		t.Errorf("completed exercises = %d, want 0", sum.CompletedExerciseCount)
	}
	// Partial work is not "skipped" either.
	if sum.SkippedExerciseCount != 0 {
		t.Errorf("skipped exercises = %d, want 0", sum.SkippedExerciseCount)
	}
}

// TestScenarioC verifies AdjustRest clamps at zero from below: −30 applied
// to 10 remaining seconds yields 0, not −20.
func TestScenarioC(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{RestSeconds: 10})

	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 40})
	e.AdjustRest(-30)

	snap := e.Snapshot()
	if snap.RestSecondsRemaining != 0 {
		t.Errorf("rest remaining = %d, want 0", snap.RestSecondsRemaining)
	}
	// The next tick fires the transition back to Active.
	e.tickRest()
	if snap := e.Snapshot(); snap.Resting {
		t.Error("expected rest to complete on tick at zero")
	}
}

// TestAdjustRestUnboundedAbove verifies positive adjustments have no cap.
func TestAdjustRestUnboundedAbove(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{RestSeconds: 60})
	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 40})
	e.AdjustRest(600)
	if got := e.Snapshot().RestSecondsRemaining; got != 660 {
		t.Errorf("rest remaining = %d, want 660", got)
	}
}

// TestStaleCursorDropped verifies a command whose cursor does not match the
// engine's current position is a no-op, protecting against double-click
// duplicate submissions.
func TestStaleCursorDropped(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.CompleteSet(0, 1, models.SetLog{Reps: 12, WeightKg: 20})
	e.SkipRest()
	// Replay of the same event: cursor now points at set 2.
	e.CompleteSet(0, 1, models.SetLog{Reps: 12, WeightKg: 20})

	snap := e.Snapshot()
	if got := len(snap.Progress[0].CompletedSets); got != 1 {
		t.Errorf("recorded sets = %d, want 1 (duplicate must be dropped)", got)
	}
	if snap.CurrentSetIndex != 2 {
		t.Errorf("set index = %d, want 2", snap.CurrentSetIndex)
	}

	// Wrong exercise index is equally stale.
	e.CompleteSet(1, 1, models.SetLog{Reps: 12, WeightKg: 20})
	if got := len(e.Snapshot().Progress[1].CompletedSets); got != 0 {
		t.Errorf("exercise 2 sets = %d, want 0", got)
	}
}

// TestSetIndexNeverExceedsPrescribed verifies completing the final set of
// an exercise advances to the next exercise at set 1 rather than running
// past the prescription.
func TestSetIndexNeverExceedsPrescribed(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.CompleteSet(0, 2, models.SetLog{Reps: 10, WeightKg: 30})

	snap := e.Snapshot()
	if snap.CurrentExerciseIndex != 1 {
		t.Errorf("exercise index = %d, want 1", snap.CurrentExerciseIndex)
	}
	if snap.CurrentSetIndex != 1 {
		t.Errorf("set index = %d, want 1", snap.CurrentSetIndex)
	}
}

// TestNaturalCompletionNoTrailingRest verifies the last set of the last
// exercise transitions straight to Complete with no rest period, so
// session duration never includes trailing rest.
func TestNaturalCompletionNoTrailingRest(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.CompleteSet(0, 2, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.CompleteSet(1, 1, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.CompleteSet(1, 2, models.SetLog{Reps: 10, WeightKg: 30})

	snap := e.Snapshot()
	if snap.State != StateComplete {
		t.Fatalf("state = %s, want complete", snap.State)
	}
	if snap.Resting {
		t.Error("no rest period should follow the final set")
	}
	if got := e.Summary().TotalCompletedSets; got != 4 {
		t.Errorf("total sets = %d, want 4", got)
	}
}

// TestSkipAfterPartialSetsNotMarkedSkipped verifies the mutual-exclusivity
// contract: an exercise with recorded sets that the user then skips stays
// "partially completed" — never both worked and skipped.
func TestSkipAfterPartialSetsNotMarkedSkipped(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.SkipExercise(0)

	snap := e.Snapshot()
	p := snap.Progress[0]
	if p.Skipped {
		t.Error("exercise with recorded sets must not be marked skipped")
	}
	if len(p.CompletedSets) != 1 {
		t.Errorf("recorded sets = %d, want 1", len(p.CompletedSets))
	}
	if snap.CurrentExerciseIndex != 1 {
		t.Errorf("exercise index = %d, want 1", snap.CurrentExerciseIndex)
	}

	// At session end the invariant holds for every exercise.
	e.Finish()
	for i, p := range e.Snapshot().Progress {
		if p.Skipped && len(p.CompletedSets) > 0 {
			t.Errorf("exercise %d is both skipped and worked", i)
		}
	}
}

// TestSkipDuringRestCancelsCountdown verifies skipping the upcoming
// exercise while resting cancels the countdown and advances immediately.
func TestSkipDuringRestCancelsCountdown(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{RestSeconds: 60})

	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.CompleteSet(0, 2, models.SetLog{Reps: 10, WeightKg: 30})
	// Resting between exercises; cursor already at exercise 2.
	e.SkipExercise(1)

	snap := e.Snapshot()
	if snap.State != StateComplete {
		t.Fatalf("state = %s, want complete (skipped last exercise)", snap.State)
	}
	if !snap.Progress[1].Skipped {
		t.Error("exercise 2 should be marked skipped")
	}
}

// TestPauseHoldsCountdown verifies paused rest ignores ticks and resumes
// where it left off.
func TestPauseHoldsCountdown(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{RestSeconds: 10})
	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})

	e.tickRest()
	e.tickRest()
	e.PauseRest()
	e.tickRest()
	e.tickRest()
	if got := e.Snapshot().RestSecondsRemaining; got != 8 {
		t.Errorf("rest remaining = %d, want 8 (paused ticks must not decrement)", got)
	}

	e.ResumeRest()
	e.tickRest()
	if got := e.Snapshot().RestSecondsRemaining; got != 7 {
		t.Errorf("rest remaining = %d, want 7", got)
	}
}

// TestRestCompletesExactlyOnce verifies a countdown reaching zero fires the
// transition once; stale ticks arriving afterwards are dropped.
func TestRestCompletesExactlyOnce(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{RestSeconds: 1})
	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})

	e.tickRest()
	if e.Snapshot().Resting {
		t.Fatal("expected rest complete after countdown hit zero")
	}
	before := e.Snapshot()
	e.tickRest() // stale fire
	e.tickRest()
	after := e.Snapshot()
	if after.CurrentExerciseIndex != before.CurrentExerciseIndex || after.CurrentSetIndex != before.CurrentSetIndex {
		t.Error("stale rest ticks must not move the cursor")
	}
}

// TestRestCommandsOutsideRestingAreNoOps verifies adjust/pause/resume/skip
// do nothing while active or complete.
func TestRestCommandsOutsideRestingAreNoOps(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.AdjustRest(30)
	e.PauseRest()
	e.ResumeRest()
	e.SkipRest()

	snap := e.Snapshot()
	if snap.State != StateActive || snap.RestSecondsRemaining != 0 {
		t.Errorf("state = %s remaining = %d, want active/0", snap.State, snap.RestSecondsRemaining)
	}

	e.Finish()
	e.AdjustRest(30)
	if got := e.Snapshot().RestSecondsRemaining; got != 0 {
		t.Errorf("rest remaining after finish = %d, want 0", got)
	}
}

// TestElapsedFreezesAtCompletion verifies elapsed seconds stop advancing
// once the session is terminal, even if a stale tick arrives.
func TestElapsedFreezesAtCompletion(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})

	e.tickElapsed()
	e.tickElapsed()
	e.tickElapsed()
	e.Finish()
	e.tickElapsed()

	if got := e.Summary().DurationSeconds; got != 3 {
		t.Errorf("duration = %d, want 3", got)
	}
}

// TestFinishIsTerminalAndIdempotent verifies commands after Finish are
// no-ops and the completion callback fires exactly once.
func TestFinishIsTerminalAndIdempotent(t *testing.T) {
	var mu sync.Mutex
	fired := 0
	done := make(chan struct{}, 2)

	e := newTestEngine(twoByTwoPlan(), Config{OnComplete: func(Result) {
		mu.Lock()
		fired++
		mu.Unlock()
		done <- struct{}{}
	}})

	e.CompleteSet(0, 1, models.SetLog{Reps: 10, WeightKg: 30})
	e.SkipRest()
	e.Finish()
	e.Finish()
	e.CompleteSet(0, 2, models.SetLog{Reps: 10, WeightKg: 30})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}

	mu.Lock()
	got := fired
	mu.Unlock()
	if got != 1 {
		t.Errorf("callback fired %d times, want 1", got)
	}
	if sets := e.Summary().TotalCompletedSets; sets != 1 {
		t.Errorf("sets after terminal commands = %d, want 1", sets)
	}
}

// TestCompletionResultCarriesSummary verifies the Result handed to the
// callback matches the engine's own summary and owns its progress copy.
func TestCompletionResultCarriesSummary(t *testing.T) {
	results := make(chan Result, 1)
	e := newTestEngine(twoByTwoPlan(), Config{
		UserID:     7,
		OnComplete: func(r Result) { results <- r },
	})

	e.CompleteSet(0, 1, models.SetLog{Reps: 12, WeightKg: 20})
	e.SkipRest()
	e.Finish()

	var r Result
	select {
	case r = <-results:
	case <-time.After(time.Second):
		t.Fatal("no completion result")
	}

	if r.UserID != 7 {
		t.Errorf("user = %d, want 7", r.UserID)
	}
	if r.WorkoutType != "Upper A" {
		t.Errorf("workout type = %q, want %q", r.WorkoutType, "Upper A")
	}
	if r.Summary.TotalCompletedSets != 1 || r.Summary.TotalVolumeKg != 240 {
		t.Errorf("summary = %+v, want 1 set / 240 kg", r.Summary)
	}
	if len(r.Progress) != 2 {
		t.Fatalf("progress entries = %d, want 2", len(r.Progress))
	}
	// The result must be a snapshot, not a live reference.
	r.Progress[0].CompletedSets[0].Reps = 999
	if e.Snapshot().Progress[0].CompletedSets[0].Reps == 999 {
		t.Error("result progress aliases engine state")
	}
}

// TestStartedTickersTearDown exercises the real 1 Hz tickers briefly and
// verifies Stop tears everything down without the session completing.
func TestStartedTickersTearDown(t *testing.T) {
	e := newTestEngine(twoByTwoPlan(), Config{})
	e.Start()
	defer e.Stop()

	time.Sleep(1100 * time.Millisecond)
	if got := e.Snapshot().ElapsedSeconds; got < 1 {
		t.Errorf("elapsed = %d, want >= 1 after a second of running", got)
	}

	e.Stop()
	frozen := e.Snapshot().ElapsedSeconds
	time.Sleep(1100 * time.Millisecond)
	if got := e.Snapshot().ElapsedSeconds; got != frozen {
		t.Errorf("elapsed advanced after Stop: %d -> %d", frozen, got)
	}
}
