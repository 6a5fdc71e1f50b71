package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/services/tasks"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	svc *tasks.Service
	log *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc *tasks.Service, log *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /api/todos prefix
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.ListTasks).Methods("GET")
	r.HandleFunc("/", h.CreateTask).Methods("POST")
	r.HandleFunc("/delete/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/complete/{id}", h.CompleteTask).Methods("PUT")
	r.HandleFunc("/reschedule", h.Reschedule).Methods("POST")
}

// CompleteTaskRequest carries the time actually spent on a task
type CompleteTaskRequest struct {
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// CompleteTaskResponse confirms that a task left the active set
type CompleteTaskResponse struct {
	ID        string    `json:"id"`
	Completed bool      `json:"completed"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ListTasks lists active tasks, optionally sorted with ?sort=priority|time
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_list_tasks", err)
		return
	}
	if list == nil {
		list = []*models.Task{}
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateTask validates a draft and stores it
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var draft models.TaskDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	task, err := h.svc.Create(r.Context(), &draft)
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_create_task", err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// DeleteTask removes an active task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.log, "failed_to_delete_task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask records the work interval and removes the task from the active set
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req CompleteTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := models.ParseDate(req.StartTime)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "startTime must be a date or RFC 3339 timestamp")
		return
	}
	end, err := models.ParseDate(req.EndTime)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "endTime must be a date or RFC 3339 timestamp")
		return
	}

	record, err := h.svc.Complete(r.Context(), id, start, end)
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_complete_task", err)
		return
	}
	respondJSON(w, http.StatusOK, CompleteTaskResponse{
		ID:        record.TaskID,
		Completed: true,
		StartTime: record.StartTime,
		EndTime:   record.EndTime,
	})
}

// Reschedule queues a recomputation of today's time slots
func (h *TaskHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Reschedule(r.Context())
	if err != nil {
		respondServiceError(w, r, h.log, "failed_to_queue_reschedule", err)
		return
	}
	respondJSON(w, http.StatusAccepted, result)
}
