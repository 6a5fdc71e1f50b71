package handlers

import (
	"net/http"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/tracker"
	"github.com/benvon/napoleon/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TrackerHandler handles daily habit metrics
type TrackerHandler struct {
	svc *tracker.Service
	log *zap.Logger
}

// NewTrackerHandler creates a new tracker handler
func NewTrackerHandler(svc *tracker.Service, log *zap.Logger) *TrackerHandler {
	return &TrackerHandler{svc: svc, log: log}
}

// RegisterRoutes registers tracker routes under /api/tracker
func (h *TrackerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/metrics/range/{start}/{end}", h.GetRange).Methods("GET")
	r.HandleFunc("/metrics/{date}", h.SaveMetrics).Methods("POST")
	r.HandleFunc("/summary", h.GetSummary).Methods("GET")
}

// SaveMetricsRequest requires all five flags; a missing flag is rejected rather than read as false
type SaveMetricsRequest struct {
	Workout        *bool `json:"workout" validate:"required"`
	Water          *bool `json:"water" validate:"required"`
	Supplements    *bool `json:"supplements" validate:"required"`
	Sleep          *bool `json:"sleep" validate:"required"`
	Accountability *bool `json:"accountability" validate:"required"`
}

func (req SaveMetricsRequest) metrics() models.Metrics {
	return models.Metrics{
		Workout:        *req.Workout,
		Water:          *req.Water,
		Supplements:    *req.Supplements,
		Sleep:          *req.Sleep,
		Accountability: *req.Accountability,
	}
}

type metricsRange struct {
	Start string `validate:"required,calendar_date"`
	End   string `validate:"required,calendar_date"`
}

// GetRange returns the records between two dates inclusive
func (h *TrackerHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rng := metricsRange{Start: vars["start"], End: vars["end"]}
	if err := validation.Validate.Struct(rng); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start and end must be YYYY-MM-DD dates")
		return
	}

	records, err := h.svc.GetRange(r.Context(), rng.Start, rng.End)
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_load_metrics", err)
		return
	}
	if records == nil {
		records = []*models.DailyMetricsRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

// SaveMetrics replaces the record for a date
func (h *TrackerHandler) SaveMetrics(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	var req SaveMetricsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.svc.SaveMetrics(r.Context(), date, req.metrics())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_save_metrics", err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// GetSummary reports analytics from the anchor date through ?end= (default today)
func (h *TrackerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), r.URL.Query().Get("end"))
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_summarize_metrics", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
