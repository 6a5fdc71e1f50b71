package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/storage/memory"
	"go.uber.org/zap"
)

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/todos/", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORSReloader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stored  *models.CorsConfig
		origin  string
		allowed bool
	}{
		{"fallback origin", nil, "http://localhost:3000", true},
		{"fallback second origin", nil, "https://app.example.com", true},
		{"unknown origin", nil, "https://evil.example.com", false},
		{"stored config replaces fallback", &models.CorsConfig{AllowedOrigins: "https://planner.example.com", MaxAge: 600}, "https://planner.example.com", true},
		{"stored config drops fallback", &models.CorsConfig{AllowedOrigins: "https://planner.example.com", MaxAge: 600}, "http://localhost:3000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := memory.NewConfigStore()
			if tt.stored != nil {
				if err := repo.SetCorsConfig(context.Background(), tt.stored); err != nil {
					t.Fatal(err)
				}
			}
			r := NewCORSReloader(repo, "http://localhost:3000, https://app.example.com", zap.NewNop(), 0)
			h := r.Middleware()(okHandler())

			w := preflight(h, tt.origin)
			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Expected origin %s allowed, got %q", tt.origin, got)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Expected origin %s rejected, got %q", tt.origin, got)
			}
		})
	}
}

func TestCORSReloader_StoreErrorUsesFallback(t *testing.T) {
	t.Parallel()
	r := NewCORSReloader(failingConfigStore{}, "https://app.example.com", zap.NewNop(), 0)
	h := r.Middleware()(okHandler())

	w := preflight(h, "https://app.example.com")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected fallback origin allowed, got %q", got)
	}
}
