package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
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

// TestListExercisesFilters verifies category and difficulty are sent as query
// params and omitted when empty.
func TestListExercisesFilters(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("category"); got != "lower_body" {
				t.Errorf("category=%q, want lower_body", got)
			}
			if q.Has("difficulty") {
				t.Errorf("difficulty should be omitted, got %q", q.Get("difficulty"))
			}
			writeTestJSON(t, w, []models.ExerciseDefinition{{ID: "squat", Category: "lower_body"}})
		},
	})
	defer ts.Close()

	out, err := NewHTTPClient(ts.URL).ListExercises(context.Background(), "lower_body", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "squat" {
		t.Errorf("exercises = %+v", out)
	}
}

// TestGetExercisePath verifies the exercise id is placed in the path.
func TestGetExercisePath(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises/shoulder_flexion": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.ExerciseDefinition{ID: "shoulder_flexion", Name: "Shoulder Flexion"})
		},
	})
	defer ts.Close()

	ex, err := NewHTTPClient(ts.URL+"/").GetExercise(context.Background(), "shoulder_flexion")
	if err != nil {
		t.Fatal(err)
	}
	if ex.Name != "Shoulder Flexion" {
		t.Errorf("name=%q", ex.Name)
	}
}

// TestGetProgressSendsUser verifies the user id travels in the X-User-ID header.
func TestGetProgressSendsUser(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/progress": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-User-ID"); got != "alice" {
				t.Errorf("X-User-ID=%q, want alice", got)
			}
			writeTestJSON(t, w, models.UserProgress{UserID: "alice", TotalSessions: 3, StreakDays: 2})
		},
	})
	defer ts.Close()

	p, err := NewHTTPClient(ts.URL).GetProgress(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalSessions != 3 || p.StreakDays != 2 {
		t.Errorf("progress = %+v", p)
	}
}

// TestGetSessionHistoryLimit verifies the limit query param and array decoding.
func TestGetSessionHistoryLimit(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "7" {
				t.Errorf("limit=%q, want 7", got)
			}
			writeTestJSON(t, w, []models.ExerciseSession{
				{ID: "s2", StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
				{ID: "s1", StartTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
			})
		},
	})
	defer ts.Close()

	sessions, err := NewHTTPClient(ts.URL).GetSessionHistory(context.Background(), "alice", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 || sessions[0].ID != "s2" {
		t.Errorf("sessions = %+v", sessions)
	}
}

// TestGetWeeklyProgress verifies the weeks param and bucket decoding.
func TestGetWeeklyProgress(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/progress/weekly": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("weeks"); got != "2" {
				t.Errorf("weeks=%q, want 2", got)
			}
			writeTestJSON(t, w, []models.WeeklyProgress{{SessionsCompleted: 4, Goals: models.WeeklyGoal{TargetSessions: 5}}})
		},
	})
	defer ts.Close()

	weeks, err := NewHTTPClient(ts.URL).GetWeeklyProgress(context.Background(), "alice", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(weeks) != 1 || weeks[0].SessionsCompleted != 4 || weeks[0].Goals.Achieved {
		t.Errorf("weeks = %+v", weeks)
	}
}

// TestGetTrend verifies exercise and days params and result decoding.
func TestGetTrend(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/progress/trend": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("exercise") != "squat" || q.Get("days") != "14" {
				t.Errorf("query = %v", q)
			}
			writeTestJSON(t, w, progress.TrendResult{ExerciseID: "squat", Days: 14, Scores: []float64{60, 70, 80}, Trend: progress.TrendImproving})
		},
	})
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL).GetTrend(context.Background(), "alice", "squat", 14)
	if err != nil {
		t.Fatal(err)
	}
	if res.Trend != progress.TrendImproving || len(res.Scores) != 3 {
		t.Errorf("trend = %+v", res)
	}
}

// TestGetInsightsAndGoalStatus verifies the two parameterless endpoints.
func TestGetInsightsAndGoalStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/progress/insights": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, progress.Insights{Strengths: []string{"Consistent practice"}})
		},
		"/api/v1/goals/status": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, progress.GoalStatus{SessionsToday: 1, DailySessionsMet: true})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	ins, err := client.GetInsights(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(ins.Strengths) != 1 {
		t.Errorf("insights = %+v", ins)
	}

	st, err := client.GetGoalStatus(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !st.DailySessionsMet || st.SessionsToday != 1 {
		t.Errorf("status = %+v", st)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200 responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/progress": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal error"}`))
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).GetProgress(context.Background(), "alice"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
