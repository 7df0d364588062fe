package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/plan"
	"github.com/meltforce/repcoach/internal/session"
)

// createSessionRequest starts a guided session from exactly one plan source:
// an inline plan object, a percent-encoded JSON payload, or a stored
// template.
type createSessionRequest struct {
	Plan        *models.WorkoutPlan `json:"plan,omitempty"`
	PlanPayload string              `json:"plan_payload,omitempty"`
	TemplateID  string              `json:"template_id,omitempty"`
	RestSeconds int                 `json:"rest_seconds,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	p, err := s.resolvePlan(r, req)
	if errors.Is(err, plan.ErrInvalidPlan) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}

	eng := s.sessions.Create(*p, userIDFromContext(r), req.RestSeconds)
	writeJSON(w, http.StatusCreated, eng.Snapshot())
}

// resolvePlan picks the plan source in priority order: inline plan, encoded
// payload, template. Returns (nil, nil) when a referenced template does not
// exist.
func (s *Server) resolvePlan(r *http.Request, req createSessionRequest) (*models.WorkoutPlan, error) {
	switch {
	case req.Plan != nil:
		if err := plan.Validate(req.Plan); err != nil {
			return nil, err
		}
		return req.Plan, nil
	case req.PlanPayload != "":
		return plan.DecodePayload(req.PlanPayload)
	case req.TemplateID != "":
		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			return nil, plan.ErrInvalidPlan
		}
		t, err := s.db.GetWorkoutTemplate(r.Context(), templateID, userIDFromContext(r))
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, nil
		}
		return plan.FromTemplate(t)
	default:
		return nil, plan.ErrInvalidPlan
	}
}

// sessionFromRequest resolves the {id} route parameter to a live engine.
// Writes the error response and returns nil when the session is unknown.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) *session.Engine {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil
	}
	eng := s.sessions.Get(id)
	if eng == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil
	}
	return eng
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}
	writeJSON(w, http.StatusOK, eng.Summary())
}

type completeSetRequest struct {
	ExerciseIndex int     `json:"exercise_index"`
	SetIndex      int     `json:"set_index"`
	Reps          int     `json:"reps"`
	WeightKg      float64 `json:"weight_kg"`
	RIR           *int    `json:"rir,omitempty"`
}

// handleCompleteSet records a finished set. A stale cursor is not an error:
// the engine drops it and the response carries the unchanged state, so the
// client converges by rendering the snapshot.
func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}

	var req completeSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	eng.CompleteSet(req.ExerciseIndex, req.SetIndex, models.SetLog{
		Reps:     req.Reps,
		WeightKg: req.WeightKg,
		RIR:      req.RIR,
	})
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleSkipExercise(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}

	var req struct {
		ExerciseIndex int `json:"exercise_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	eng.SkipExercise(req.ExerciseIndex)
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleAdjustRest(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	eng.AdjustRest(req.Delta)
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handlePauseRest(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}
	eng.PauseRest()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleResumeRest(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}
	eng.ResumeRest()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}
	eng.SkipRest()
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

type finishResponse struct {
	Snapshot session.Snapshot      `json:"snapshot"`
	Summary  models.SessionSummary `json:"summary"`
}

// handleFinishSession force-completes the session and returns the final
// summary. Persistence runs asynchronously via the completion callback; the
// engine stays registered in its terminal state until the janitor reaps it,
// so follow-up GETs still resolve.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	eng := s.sessionFromRequest(w, r)
	if eng == nil {
		return
	}
	eng.Finish()
	writeJSON(w, http.StatusOK, finishResponse{
		Snapshot: eng.Snapshot(),
		Summary:  eng.Summary(),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
