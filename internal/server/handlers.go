package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/remote"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/syncer"
)

type openRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "plan_id is required"})
		return
	}

	if err := s.manager.Open(r.Context(), req.PlanID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.State())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state := s.manager.State()
	if state == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.manager.Progress()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type logSetRequest struct {
	ExerciseIndex int     `json:"exercise_index"`
	SetIndex      int     `json:"set_index"`
	Weight        float64 `json:"weight"`
	Reps          int     `json:"reps"`
	RIR           *int    `json:"rir,omitempty"`
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	var req logSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	entry := session.Entry{Weight: req.Weight, Reps: req.Reps, RIR: req.RIR}
	if err := s.manager.LogSet(r.Context(), req.ExerciseIndex, req.SetIndex, entry); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.State())
}

type skipRequest struct {
	ExerciseIndex int `json:"exercise_index"`
	FromSet       int `json:"from_set"`
}

func (s *Server) handleSkipExercise(w http.ResponseWriter, r *http.Request) {
	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	skipped, err := s.manager.SkipExercise(r.Context(), req.ExerciseIndex, req.FromSet)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"skipped_sets": skipped,
		"state":        s.manager.State(),
	})
}

type expandRequest struct {
	ExerciseIndex int `json:"exercise_index"`
}

func (s *Server) handleToggleExpanded(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.manager.ToggleExpanded(req.ExerciseIndex); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.State())
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.CompleteWorkout(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

type uncompleteRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) handleUncompleteWorkout(w http.ResponseWriter, r *http.Request) {
	var req uncompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "plan_id is required"})
		return
	}

	if err := s.manager.UncompleteWorkout(r.Context(), req.PlanID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.State())
}

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.sync.Sync(r.Context())
	if errors.Is(err, syncer.ErrSyncInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "sync already in progress"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"online":    s.monitor.Online(),
		"draining":  s.sync.Draining(),
		"last_sync": s.sync.LastResult(),
	})
}

func (s *Server) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.manager.PendingCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pending": count})
}

type connectivityRequest struct {
	Online bool `json:"online"`
}

// handleSetConnectivity feeds the platform connectivity signal into the
// monitor. The reconnect watcher picks up offline-to-online flips from there.
func (s *Server) handleSetConnectivity(w http.ResponseWriter, r *http.Request) {
	var req connectivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	s.monitor.Set(req.Online)
	writeJSON(w, http.StatusOK, map[string]bool{"online": s.monitor.Online()})
}

type downloadRequest struct {
	DayID  string `json:"day_id"`
	PlanID string `json:"plan_id"`
}

func (s *Server) handleDownloadDay(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.DayID == "" || req.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day_id and plan_id are required"})
		return
	}

	if err := s.manager.DownloadDay(r.Context(), req.DayID, req.PlanID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "downloaded"})
}

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	ids, err := s.manager.DownloadedDays(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"day_ids": ids})
}

func (s *Server) handleClearDownload(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayID")
	if err := s.manager.ClearDownload(r.Context(), dayID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// writeError maps engine errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrPlanNotFound),
		errors.Is(err, session.ErrDayNotFound),
		errors.Is(err, remote.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrOfflineCompletion),
		errors.Is(err, session.ErrNotCompleted):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrIndexOutOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case remote.IsTransient(err):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		s.log.Error("handler error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
