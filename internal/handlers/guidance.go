package handlers

import (
	"net/http"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/services/guidance"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GuidanceHandler handles coaching conversations
type GuidanceHandler struct {
	svc *guidance.Service
	log *zap.Logger
}

// NewGuidanceHandler creates a new guidance handler
func NewGuidanceHandler(svc *guidance.Service, log *zap.Logger) *GuidanceHandler {
	return &GuidanceHandler{svc: svc, log: log}
}

// RegisterRoutes registers guidance routes under /api/guidance
func (h *GuidanceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/conversations", h.ListConversations).Methods("GET")
	r.HandleFunc("/chat", h.Chat).Methods("POST")
}

// ChatRequest is one user message, optionally continuing a conversation
type ChatRequest struct {
	Message        string `json:"message" validate:"required"`
	ConversationID string `json:"conversationId,omitempty"`
}

func (h *GuidanceHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.svc.List(r.Context())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_list_conversations", err)
		return
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	respondJSON(w, http.StatusOK, convs)
}

// Chat sends a message to the assistant and returns its reply
func (h *GuidanceHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.svc.SendMessage(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_send_guidance_message", err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}
