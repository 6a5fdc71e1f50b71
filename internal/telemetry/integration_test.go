package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Routed requests produce one server span named after the route template,
// joining the caller's trace when a traceparent header is present.
func TestRouterSpans(t *testing.T) {
	t.Parallel()

	const callerTrace = "4bf92f3577b34da6a3ce929d0e0e4736"

	tests := []struct {
		name        string
		path        string
		traceParent string
		wantSpan    string
	}{
		{
			name:     "new trace",
			path:     "/api/tracker/metrics/2025-01-06",
			wantSpan: "/api/tracker/metrics/{date}",
		},
		{
			name:        "continues caller trace",
			path:        "/api/todos/complete/abc",
			traceParent: "00-" + callerTrace + "-00f067aa0ba902b7-01",
			wantSpan:    "/api/todos/complete/{id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			defer func() { _ = tp.Shutdown(context.Background()) }()

			r := mux.NewRouter()
			r.Use(otelmux.Middleware(ServiceName("server"),
				otelmux.WithTracerProvider(tp),
				otelmux.WithPropagators(propagation.TraceContext{}),
			))
			ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
			r.HandleFunc("/api/tracker/metrics/{date}", ok)
			r.HandleFunc("/api/todos/complete/{id}", ok)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("got %d spans, want 1", len(spans))
			}
			span := spans[0]
			if span.Name != tt.wantSpan {
				t.Errorf("span name = %q, want %q", span.Name, tt.wantSpan)
			}
			if !span.SpanContext.TraceID().IsValid() {
				t.Error("expected a valid trace ID")
			}
			if tt.traceParent != "" && span.SpanContext.TraceID().String() != callerTrace {
				t.Errorf("trace ID = %s, want caller's %s", span.SpanContext.TraceID(), callerTrace)
			}
		})
	}
}
