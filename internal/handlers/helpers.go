package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/request"
	"github.com/benvon/napoleon/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrorResponse is the envelope returned for every failed request
type ErrorResponse struct {
	Success   bool               `json:"success"`
	Error     string             `json:"error"`
	Message   string             `json:"message"`
	Timestamp string             `json:"timestamp"`
	Fields    models.FieldErrors `json:"fields,omitempty"`
}

// respondJSON sends a bare JSON payload
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	sanitized := validation.SanitizeText(message)
	runes := []rune(sanitized)
	if len(runes) > 200 {
		sanitized = string(runes[:200]) + "..."
	}
	return sanitized
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeError(w, status, ErrorResponse{Error: errorType, Message: message})
}

// respondValidationError sends a 400 carrying one message per invalid field
func respondValidationError(w http.ResponseWriter, fields models.FieldErrors) {
	writeError(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Bad Request",
		Message: "Validation failed",
		Fields:  fields,
	})
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	body.Success = false
	body.Message = sanitizeErrorMessage(body.Message)
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps a service error to its HTTP status. Unexpected
// errors are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, event string, err error) {
	var vErr *models.ValidationError
	var nErr *models.NetworkError
	switch {
	case errors.As(err, &vErr):
		respondValidationError(w, vErr.Fields)
	case errors.Is(err, models.ErrInvalidRange), errors.Is(err, models.ErrInvalidInput):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, models.ErrInFlight):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &nErr):
		log.Warn(event,
			zap.String("request_id", request.RequestID(r.Context())),
			zap.String("op", nErr.Op),
			zap.Int("upstream_status", nErr.StatusCode),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", nErr.Op+" is unavailable, please try again")
	default:
		log.Error(event,
			zap.String("request_id", request.RequestID(r.Context())),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

// decodeJSON reads the request body into dst and validates its struct tags.
// It writes the error response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		// Check if error is due to request size limit
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fieldError := validationErrors[0]
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s is invalid (%s)", fieldError.Field(), fieldError.Tag()))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}
	return true
}
