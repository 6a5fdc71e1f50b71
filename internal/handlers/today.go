package handlers

import (
	"net/http"

	"github.com/benvon/napoleon/internal/services/today"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TodayHandler serves the day view
type TodayHandler struct {
	svc *today.Service
	log *zap.Logger
}

func NewTodayHandler(svc *today.Service, log *zap.Logger) *TodayHandler {
	return &TodayHandler{svc: svc, log: log}
}

// RegisterRoutes registers day view routes under /api/today
func (h *TodayHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.GetTasks).Methods("GET")
	r.HandleFunc("/schedule", h.GetSchedule).Methods("GET")
	r.HandleFunc("/daily-message", h.GetDailyMessage).Methods("GET")
	r.HandleFunc("/motivational-message", h.GetMotivationalMessage).Methods("GET")
}

// GetTasks returns today's tasks, sorted by ?sort=time|priority
func (h *TodayHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Tasks(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_load_today", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *TodayHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Schedule(r.Context())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_load_schedule", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *TodayHandler) GetDailyMessage(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.DailyMessage(r.Context())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_build_daily_message", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *TodayHandler) GetMotivationalMessage(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.MotivationalMessage(r.Context())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_build_motivational_message", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
