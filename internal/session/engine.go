// Package session implements the guided-workout engine: a state machine
// that walks a validated plan set by set, interleaves rest countdowns, and
// projects completed work into durable summaries when the session ends.
//
// All transitions run synchronously under one mutex, driven either by user
// commands or by the engine's own 1 Hz tickers. Commands never return
// errors: an invalid or out-of-order command is always a no-op, so a
// delayed timer fire or a double-submitted button press cannot corrupt the
// cursor.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

// State is the engine's coarse lifecycle state.
type State string

const (
	// StateActive means the user is performing a set.
	StateActive State = "active"
	// StateResting means a rest countdown is running between sets or exercises.
	StateResting State = "resting"
	// StateComplete is terminal. Progress is frozen and handed off.
	StateComplete State = "complete"
)

// DefaultRestSeconds is the countdown started after each completed set
// unless the engine was configured otherwise.
const DefaultRestSeconds = 90

// Result is handed to the completion callback exactly once when the engine
// reaches StateComplete, whether by natural completion or Finish.
type Result struct {
	SessionID   uuid.UUID
	UserID      int
	WorkoutType string
	StartedAt   time.Time
	Plan        models.WorkoutPlan
	Progress    []models.ExerciseProgress
	Summary     models.SessionSummary
}

// Config carries per-engine settings.
type Config struct {
	SessionID   uuid.UUID
	UserID      int
	RestSeconds int // 0 means DefaultRestSeconds
	// OnComplete, if set, is invoked in its own goroutine on the terminal
	// transition. The engine does not wait for it and never rolls back.
	OnComplete func(Result)
}

// Engine is the session state machine. Create with New, drive with the
// command methods, and always Stop (or Finish) it so its tickers are torn
// down.
type Engine struct {
	mu sync.Mutex

	id     uuid.UUID
	userID int
	plan   models.WorkoutPlan

	state        State
	exerciseIdx  int
	setIdx       int // 1-based within the current exercise
	restRemain   int
	restPaused   bool
	restSeconds  int
	elapsedSec   int
	startedAt    time.Time
	lastActivity time.Time
	progress     []models.ExerciseProgress

	onComplete    func(Result)
	completeFired bool

	elapsedTicker *repeater
	restTicker    *repeater
}

// New creates an engine for a validated plan in StateActive, positioned at
// the first set of the first exercise. Tickers do not run until Start.
func New(plan models.WorkoutPlan, cfg Config) *Engine {
	rest := cfg.RestSeconds
	if rest <= 0 {
		rest = DefaultRestSeconds
	}

	progress := make([]models.ExerciseProgress, len(plan.Exercises))
	for i, ex := range plan.Exercises {
		progress[i] = models.ExerciseProgress{
			ExerciseIndex: i,
			ExerciseName:  ex.Name,
		}
	}

	return &Engine{
		id:           cfg.SessionID,
		userID:       cfg.UserID,
		plan:         plan,
		state:        StateActive,
		exerciseIdx:  0,
		setIdx:       1,
		restSeconds:  rest,
		startedAt:    time.Now(),
		lastActivity: time.Now(),
		progress:     progress,
		onComplete:   cfg.OnComplete,
	}
}

// Start launches the elapsed-time ticker. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.elapsedTicker != nil || e.state == StateComplete {
		return
	}
	e.elapsedTicker = startRepeater(time.Second, e.tickElapsed)
}

// Stop tears down both tickers without completing the session. Used when a
// session is abandoned; whatever partial progress exists is discarded by
// the caller's policy, not persisted here.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickersLocked()
}

// ID returns the session identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// LastActivity reports when the engine last accepted a command. The
// manager's janitor uses it to reap abandoned sessions.
func (e *Engine) LastActivity() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActivity
}

// CompleteSet records a finished set at the given cursor. A cursor that
// does not match the engine's current position (a duplicate submission or a
// stale client) is dropped. Completing a mid-exercise set starts a rest
// countdown; completing the last set of the last exercise ends the session
// with no trailing rest.
func (e *Engine) CompleteSet(exerciseIdx, setIdx int, set models.SetLog) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive || exerciseIdx != e.exerciseIdx || setIdx != e.setIdx {
		return
	}
	e.touchLocked()

	e.progress[e.exerciseIdx].CompletedSets = append(e.progress[e.exerciseIdx].CompletedSets, set)

	prescribed := e.plan.Exercises[e.exerciseIdx].Sets
	switch {
	case e.setIdx < prescribed:
		e.setIdx++
		e.enterRestLocked()
	case e.exerciseIdx == len(e.plan.Exercises)-1:
		e.completeLocked()
	default:
		e.exerciseIdx++
		e.setIdx = 1
		e.enterRestLocked()
	}
}

// SkipExercise abandons the exercise at the given cursor and advances with
// no rest inserted. An exercise is only marked skipped when it has no
// recorded sets; skipping after partial work leaves it partially completed.
// Skipping the last exercise ends the session. Accepted during rest as
// well, in which case the pending countdown is cancelled first.
func (e *Engine) SkipExercise(exerciseIdx int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateComplete || exerciseIdx != e.exerciseIdx {
		return
	}
	e.touchLocked()

	if e.state == StateResting {
		e.exitRestLocked()
	}

	if len(e.progress[e.exerciseIdx].CompletedSets) == 0 {
		e.progress[e.exerciseIdx].Skipped = true
	}

	if e.exerciseIdx == len(e.plan.Exercises)-1 {
		e.completeLocked()
		return
	}
	e.exerciseIdx++
	e.setIdx = 1
}

// AdjustRest shifts the current countdown by delta seconds, clamped at
// zero from below and unbounded above. No-op outside StateResting. A
// countdown adjusted to zero completes on its next tick.
func (e *Engine) AdjustRest(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResting {
		return
	}
	e.touchLocked()

	e.restRemain += delta
	if e.restRemain < 0 {
		e.restRemain = 0
	}
}

// PauseRest freezes the rest countdown. No-op outside StateResting.
func (e *Engine) PauseRest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateResting {
		return
	}
	e.touchLocked()
	e.restPaused = true
}

// ResumeRest unfreezes the rest countdown. No-op outside StateResting.
func (e *Engine) ResumeRest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateResting {
		return
	}
	e.touchLocked()
	e.restPaused = false
}

// SkipRest ends the current rest period immediately and synchronously
// returns the engine to StateActive. No-op outside StateResting.
func (e *Engine) SkipRest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateResting {
		return
	}
	e.touchLocked()
	e.restRemain = 0
	e.restCompleteLocked()
}

// Finish force-completes the session from any non-terminal state, carrying
// whatever partial progress exists. No-op once complete.
func (e *Engine) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateComplete {
		return
	}
	e.touchLocked()
	e.completeLocked()
}

// tickElapsed advances the session clock. Runs at 1 Hz while the engine is
// live; a stale tick after completion is a no-op so elapsed time stays
// frozen at its terminal value.
func (e *Engine) tickElapsed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateComplete {
		return
	}
	e.elapsedSec++
}

// tickRest advances the rest countdown. Runs at 1 Hz while resting; paused
// countdowns hold their value. Reaching zero transitions back to
// StateActive exactly once — the state check drops any stale tick that
// arrives after the transition already happened.
func (e *Engine) tickRest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateResting || e.restPaused {
		return
	}
	if e.restRemain > 0 {
		e.restRemain--
	}
	if e.restRemain == 0 {
		e.restCompleteLocked()
	}
}

func (e *Engine) enterRestLocked() {
	e.state = StateResting
	e.restRemain = e.restSeconds
	e.restPaused = false
	// Only started engines run real tickers; a headless harness drives
	// tickRest directly.
	if e.elapsedTicker != nil {
		e.restTicker = startRepeater(time.Second, e.tickRest)
	}
}

func (e *Engine) exitRestLocked() {
	e.restTicker.Stop()
	e.restTicker = nil
	e.restRemain = 0
	e.restPaused = false
	e.state = StateActive
}

func (e *Engine) restCompleteLocked() {
	if e.state != StateResting {
		return
	}
	e.exitRestLocked()
}

func (e *Engine) completeLocked() {
	e.state = StateComplete
	e.restRemain = 0
	e.restPaused = false
	e.stopTickersLocked()

	if e.onComplete != nil && !e.completeFired {
		e.completeFired = true
		res := Result{
			SessionID:   e.id,
			UserID:      e.userID,
			WorkoutType: e.plan.Title,
			StartedAt:   e.startedAt,
			Plan:        e.plan,
			Progress:    cloneProgress(e.progress),
			Summary:     e.summaryLocked(),
		}
		// Fire-and-forget: persistence must never block or roll back the
		// in-memory transition.
		go e.onComplete(res)
	}
}

func (e *Engine) stopTickersLocked() {
	e.elapsedTicker.Stop()
	e.restTicker.Stop()
}

func (e *Engine) touchLocked() {
	e.lastActivity = time.Now()
}

func cloneProgress(progress []models.ExerciseProgress) []models.ExerciseProgress {
	out := make([]models.ExerciseProgress, len(progress))
	copy(out, progress)
	for i := range out {
		sets := make([]models.SetLog, len(progress[i].CompletedSets))
		copy(sets, progress[i].CompletedSets)
		out[i].CompletedSets = sets
	}
	return out
}
