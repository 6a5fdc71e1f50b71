package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/napoleon/internal/models"
	"go.uber.org/zap"
)

func TestRespondJSON_BarePayload(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, wrapped := body["success"]; wrapped {
		t.Error("success responses must not be wrapped")
	}
	if body["id"] != "abc" {
		t.Errorf("id = %v", body["id"])
	}
}

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", &models.ValidationError{Fields: models.FieldErrors{models.FieldName: "Task name is required."}}, http.StatusBadRequest, "Bad Request"},
		{"invalid range", models.ErrInvalidRange, http.StatusBadRequest, "Bad Request"},
		{"invalid input", fmt.Errorf("%w: bad date", models.ErrInvalidInput), http.StatusBadRequest, "Bad Request"},
		{"not found", fmt.Errorf("task x: %w", models.ErrNotFound), http.StatusNotFound, "Not Found"},
		{"in flight", fmt.Errorf("reschedule: %w", models.ErrInFlight), http.StatusConflict, "Conflict"},
		{"network", &models.NetworkError{Op: "assistant", StatusCode: 503, Err: errors.New("down")}, http.StatusBadGateway, "Bad Gateway"},
		{"unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			respondServiceError(rec, req, zap.NewNop(), "test_event", tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success {
				t.Error("success should be false")
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if body.Timestamp == "" {
				t.Error("timestamp should be set")
			}
			if strings.Contains(body.Message, "pq:") {
				t.Errorf("internal detail leaked: %q", body.Message)
			}
		})
	}
}

func TestRespondServiceError_ValidationFields(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondServiceError(rec, httptest.NewRequest(http.MethodPost, "/", nil), zap.NewNop(), "test_event",
		&models.ValidationError{Fields: models.FieldErrors{
			models.FieldName:  "Task name is required.",
			models.FieldGoals: "Please select at least one goal.",
		}})

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 2 || body.Fields[models.FieldGoals] != "Please select at least one goal." {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 250)
	got := sanitizeErrorMessage(long)
	if len([]rune(got)) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("long message not truncated: %d runes", len([]rune(got)))
	}
	if got := sanitizeErrorMessage("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Message string `json:"message" validate:"required"`
	}

	tests := []struct {
		name       string
		body       string
		limit      int64
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"message":"hi"}`, 0, true, http.StatusOK},
		{"malformed", `{"message":`, 0, false, http.StatusBadRequest},
		{"missing required", `{}`, 0, false, http.StatusBadRequest},
		{"too large", `{"message":"` + strings.Repeat("x", 100) + `"}`, 10, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(rec, req.Body, tt.limit)
			}
			var dst payload
			ok := decodeJSON(rec, req, &dst)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok && rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
