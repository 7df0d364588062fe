package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meltforce/repcoach/internal/models"
	"github.com/meltforce/repcoach/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestQueryExerciseLogs verifies the HTTP client sends the time range and
// correctly parses the JSON array response.
func TestQueryExerciseLogs(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercise-logs": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("start"); got == "" {
				t.Error("missing start param")
			}
			writeTestJSON(t, w, []models.ExerciseLogRow{
				{ExerciseName: "Bench Press", CompletedSetCount: 3},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	logs, err := client.QueryExerciseLogs(context.Background(), start, end, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].ExerciseName != "Bench Press" || logs[0].CompletedSetCount != 3 {
		t.Errorf("log = %+v", logs[0])
	}
}

// TestUpsertDailyAggregate verifies writes carry the API key and a
// YYYY-MM-DD log_date.
func TestUpsertDailyAggregate(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/daily-aggregates": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key = %q, want secret", got)
			}
			var body struct {
				LogDate    string `json:"log_date"`
				Steps      *int   `json:"steps"`
				Accumulate bool   `json:"accumulate"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.LogDate != "2026-08-31" {
				t.Errorf("log_date = %q, want 2026-08-31", body.LogDate)
			}
			if body.Steps == nil || *body.Steps != 1000 {
				t.Errorf("steps = %v, want 1000", body.Steps)
			}
			if !body.Accumulate {
				t.Error("accumulate flag not carried")
			}
			writeTestJSON(t, w, models.DailyAggregateRow{Steps: 6000})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "secret")
	steps := 1000
	err := client.UpsertDailyAggregate(context.Background(), models.DailyAggregateUpsert{
		UserID:     1,
		LogDate:    time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Steps:      &steps,
		Accumulate: true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

// TestGetDailyAggregate verifies the one-day range query and the nil result
// when no record exists.
func TestGetDailyAggregate(t *testing.T) {
	empty := true
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/daily-aggregates": func(w http.ResponseWriter, r *http.Request) {
			if empty {
				writeTestJSON(t, w, []models.DailyAggregateRow{})
				return
			}
			writeTestJSON(t, w, []models.DailyAggregateRow{{Steps: 8000}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	row, err := client.GetDailyAggregate(context.Background(), 1, date)
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Errorf("row = %+v, want nil for empty day", row)
	}

	empty = false
	row, err = client.GetDailyAggregate(context.Background(), 1, date)
	if err != nil {
		t.Fatal(err)
	}
	if row == nil || row.Steps != 8000 {
		t.Errorf("row = %+v, want steps 8000", row)
	}
}

// TestGetVolumeSummary verifies the volume-summary endpoint parsing.
func TestGetVolumeSummary(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/volume-summary": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("bucket"); got != "week" {
				t.Errorf("bucket=%q, want week", got)
			}
			writeTestJSON(t, w, []storage.VolumeSummaryPeriod{
				{Period: "2026-08-24", WorkingSets: 42, TonnageKg: 12500},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	periods, err := client.GetVolumeSummary(context.Background(), start, end, "week", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(periods))
	}
	if periods[0].WorkingSets != 42 || periods[0].TonnageKg != 12500 {
		t.Errorf("period = %+v", periods[0])
	}
}

// TestListWorkoutTemplates verifies the templates endpoint returns a flat array.
func TestListWorkoutTemplates(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/templates": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.WorkoutTemplate{
				{Title: "Upper A", Exercises: []models.Exercise{{Name: "Bench Press", Sets: 3}}},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	templates, err := client.ListWorkoutTemplates(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	if templates[0].Title != "Upper A" {
		t.Errorf("title = %q, want Upper A", templates[0].Title)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200 responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/templates": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database down"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	_, err := client.ListWorkoutTemplates(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
