package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/persist"
	"github.com/meltforce/repcoach/internal/plan"
)

// writeLogsRequest is one date's worth of exercise logs. Writing replaces
// whatever is stored for that date.
type writeLogsRequest struct {
	LogDate   string                  `json:"log_date"`
	Exercises []models.ExerciseLogRow `json:"exercises"`
}

func (s *Server) handleWriteExerciseLogs(w http.ResponseWriter, r *http.Request) {
	var req writeLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	logDate, err := time.Parse("2006-01-02", req.LogDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "log_date must be YYYY-MM-DD"})
		return
	}
	if len(req.Exercises) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercises required"})
		return
	}
	for i := range req.Exercises {
		if req.Exercises[i].ExerciseName == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "every exercise needs a name"})
			return
		}
		if req.Exercises[i].ExerciseOrder == 0 {
			req.Exercises[i].ExerciseOrder = i
		}
	}

	userID := userIDFromContext(r)
	n, err := s.db.ReplaceExerciseLogs(r.Context(), userID, logDate, req.Exercises)
	if err != nil {
		s.log.Error("exercise log write failed", "log_date", req.LogDate, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"rows_written": n})
}

func (s *Server) handleQueryExerciseLogs(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.db.QueryExerciseLogs(r.Context(), start, end, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeAggregateRequest carries one daily-aggregate write. With accumulate
// set, steps and water_liters are added to the stored values; all other
// fields overwrite, and absent fields leave the stored value untouched.
type writeAggregateRequest struct {
	LogDate string `json:"log_date"`
	models.DailyAggregateUpsert
}

func (s *Server) handleWriteDailyAggregate(w http.ResponseWriter, r *http.Request) {
	var req writeAggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	up := req.DailyAggregateUpsert
	up.UserID = userIDFromContext(r)
	if req.LogDate == "" {
		up.LogDate = persist.DateOf(time.Now())
	} else {
		logDate, err := time.Parse("2006-01-02", req.LogDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "log_date must be YYYY-MM-DD"})
			return
		}
		up.LogDate = logDate
	}

	if err := s.db.UpsertDailyAggregate(r.Context(), up); err != nil {
		s.log.Error("daily aggregate write failed", "log_date", up.LogDate, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	row, err := s.db.GetDailyAggregate(r.Context(), up.UserID, up.LogDate)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleQueryDailyAggregates(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.db.QueryDailyAggregates(r.Context(), start, end, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleTodayAggregate(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)
	today := persist.DateOf(time.Now())

	row, err := s.db.GetDailyAggregate(r.Context(), userID, today)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if row == nil {
		row = &models.DailyAggregateRow{UserID: userID, LogDate: today}
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleVolumeSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	periods, err := s.db.GetVolumeSummary(r.Context(), start, end, r.URL.Query().Get("bucket"), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.ListWorkoutTemplates(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var p models.WorkoutPlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := plan.Validate(&p); err != nil {
		if errors.Is(err, plan.ErrInvalidPlan) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	id, err := s.db.InsertWorkoutTemplate(r.Context(), models.WorkoutTemplate{
		UserID:    userIDFromContext(r),
		Title:     p.Title,
		Exercises: p.Exercises,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template ID"})
		return
	}

	t, err := s.db.GetWorkoutTemplate(r.Context(), id, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 7 days
		end = time.Now()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
