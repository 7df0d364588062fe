package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
)

const janitorInterval = time.Minute

// Manager is the in-memory registry of live engines. Sessions live only in
// process memory: there is no resume across restarts, so the manager's
// only durability duty is tearing engines down cleanly.
type Manager struct {
	mu      sync.Mutex
	engines map[uuid.UUID]*Engine

	ttl         time.Duration
	defaultRest int
	onComplete  func(Result)
	log         *slog.Logger
}

// NewManager creates a manager. Sessions idle longer than ttl are torn
// down and their partial progress silently discarded; onComplete is wired
// into every engine the manager creates. defaultRestSeconds applies when a
// session is created without an explicit rest duration; 0 falls back to
// DefaultRestSeconds.
func NewManager(ttl time.Duration, defaultRestSeconds int, onComplete func(Result), log *slog.Logger) *Manager {
	return &Manager{
		engines:     make(map[uuid.UUID]*Engine),
		ttl:         ttl,
		defaultRest: defaultRestSeconds,
		onComplete:  onComplete,
		log:         log,
	}
}

// Create starts a new engine for the given plan and user. The returned ID
// is how the HTTP surface addresses the session from then on.
func (m *Manager) Create(plan models.WorkoutPlan, userID int, restSeconds int) *Engine {
	if restSeconds <= 0 {
		restSeconds = m.defaultRest
	}
	id := uuid.New()
	eng := New(plan, Config{
		SessionID:   id,
		UserID:      userID,
		RestSeconds: restSeconds,
		OnComplete:  m.onComplete,
	})
	eng.Start()

	m.mu.Lock()
	m.engines[id] = eng
	m.mu.Unlock()

	m.log.Info("session started", "session_id", id, "user_id", userID, "workout", plan.Title, "exercises", len(plan.Exercises))
	return eng
}

// Get returns the engine for id, or nil if unknown.
func (m *Manager) Get(id uuid.UUID) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engines[id]
}

// Remove tears down and forgets the engine for id.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	eng := m.engines[id]
	delete(m.engines, id)
	m.mu.Unlock()

	if eng != nil {
		eng.Stop()
	}
}

// Run starts the janitor loop, sweeping for idle sessions until ctx is
// cancelled. On shutdown all remaining engines are stopped.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep discards sessions that have been idle past the TTL. Completed
// sessions are reaped the same way once their results have aged out.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Engine
	for id, eng := range m.engines {
		if eng.LastActivity().Before(cutoff) {
			expired = append(expired, eng)
			delete(m.engines, id)
		}
	}
	m.mu.Unlock()

	for _, eng := range expired {
		eng.Stop()
		m.log.Info("session reaped", "session_id", eng.ID(), "ttl", m.ttl)
	}
}

func (m *Manager) stopAll() {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.engines))
	for id, eng := range m.engines {
		engines = append(engines, eng)
		delete(m.engines, id)
	}
	m.mu.Unlock()

	for _, eng := range engines {
		eng.Stop()
	}
	if len(engines) > 0 {
		m.log.Info("sessions stopped on shutdown", "count", len(engines))
	}
}
