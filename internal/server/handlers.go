package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/kinetic/internal/catalog"
	"github.com/claude/kinetic/internal/coach"
	"github.com/claude/kinetic/internal/ingest"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
)

// maxFrameBytes bounds a single pose frame request body.
const maxFrameBytes = 1 << 20

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, s.coach.Catalog().Filter(q.Get("category"), q.Get("difficulty")))
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.coach.Catalog().ByID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

type startRequest struct {
	ExerciseID        string `json:"exercise_id"`
	TargetRepetitions int    `json:"target_repetitions"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ExerciseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id is required"})
		return
	}

	started, err := s.coach.Begin(r.Context(), userInfoFromContext(r).Login, req.ExerciseID, req.TargetRepetitions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// decodeFrame reads one pose reading. The optional engine query parameter
// names its format; otherwise the format is detected.
func decodeFrame(w http.ResponseWriter, r *http.Request) (models.PoseFrame, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return models.PoseFrame{}, false
	}
	frame, err := ingest.Decode(r.URL.Query().Get("engine"), body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pose frame: " + err.Error()})
		return frame, false
	}
	return frame, true
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame, ok := decodeFrame(w, r)
	if !ok {
		return
	}
	res, err := s.coach.Frame(r.Context(), userInfoFromContext(r).Login, chi.URLParam(r, "id"), frame)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	frame, ok := decodeFrame(w, r)
	if !ok {
		return
	}
	phase, err := s.coach.Resync(r.Context(), userInfoFromContext(r).Login, chi.URLParam(r, "id"), frame)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"phase": phase})
}

type endRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	fin, err := s.coach.Finish(r.Context(), userInfoFromContext(r).Login, chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fin)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", progress.DefaultHistoryPage)
	sessions, err := s.coach.Progress().SessionHistory(r.Context(), userInfoFromContext(r).Login, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.coach.Session(r.Context(), userInfoFromContext(r).Login, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.coach.Progress().Progress(r.Context(), userInfoFromContext(r).Login)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleWeeklyProgress(w http.ResponseWriter, r *http.Request) {
	weeks := queryInt(r, "weeks", progress.DefaultWeeks)
	out, err := s.coach.Progress().WeeklyProgress(r.Context(), userInfoFromContext(r).Login, weeks)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExerciseStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := s.coach.Progress().ExerciseStats(r.Context(), userInfoFromContext(r).Login, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no sessions for exercise " + id})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	days := queryInt(r, "days", progress.DefaultTrendDays)
	res, err := s.coach.Progress().Trend(r.Context(), userInfoFromContext(r).Login, exercise, days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	in, err := s.coach.Progress().Insights(r.Context(), userInfoFromContext(r).Login)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	g, err := s.coach.Progress().Goals(r.Context(), userInfoFromContext(r).Login)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleSetGoals(w http.ResponseWriter, r *http.Request) {
	var g models.ProgressGoals
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.coach.Progress().SetGoals(r.Context(), userInfoFromContext(r).Login, g); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleGoalStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.coach.Progress().GoalStatus(r.Context(), userInfoFromContext(r).Login)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coach.ErrUnknownSession), errors.Is(err, catalog.ErrUnknownExercise):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, progress.ErrInvalidGoals):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryInt parses a positive integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
