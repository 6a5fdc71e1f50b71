package handlers

import (
	"net/http"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/services/profile"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProfileHandler reads and writes the user profile
type ProfileHandler struct {
	svc *profile.Service
	log *zap.Logger
}

func NewProfileHandler(svc *profile.Service, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

// RegisterRoutes registers profile routes under /profile
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.GetProfile).Methods("GET")
	r.HandleFunc("/", h.UpdateProfile).Methods("PUT")
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	Username        string `json:"username" validate:"max=100"`
	About           string `json:"about" validate:"max=2000"`
	ShortTermGoals  string `json:"short_term_goals" validate:"max=2000"`
	MediumTermGoals string `json:"medium_term_goals" validate:"max=2000"`
	LongTermGoals   string `json:"long_term_goals" validate:"max=2000"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_load_profile", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdateProfile replaces the stored profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.svc.Update(r.Context(), &models.Profile{
		Username:        req.Username,
		About:           req.About,
		ShortTermGoals:  req.ShortTermGoals,
		MediumTermGoals: req.MediumTermGoals,
		LongTermGoals:   req.LongTermGoals,
	})
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_update_profile", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
