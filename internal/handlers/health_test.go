package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		query      string
		checks     map[string]CheckFunc
		wantStatus int
		wantHealth string
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips checks",
			query:      "",
			checks:     map[string]CheckFunc{"store": down},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "extended mode all healthy",
			query:      "?mode=extended",
			checks:     map[string]CheckFunc{"store": ok, "redis": ok, "queue": nil},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantChecks: map[string]string{"store": "healthy", "redis": "healthy"},
		},
		{
			name:       "extended mode one failing",
			query:      "?mode=extended",
			checks:     map[string]CheckFunc{"store": ok, "queue": down},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantChecks: map[string]string{"store": "healthy", "queue": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthChecker(tt.checks)
			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantHealth)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, resp.Checks[name], want)
				}
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	VersionHandler("1.2.3")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.Timestamp == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
