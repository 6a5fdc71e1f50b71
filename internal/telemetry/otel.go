// Package telemetry configures OpenTelemetry tracing for the server and worker.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

// ServiceName returns the OTEL service name of a napoleon component
func ServiceName(component string) string {
	return "napoleon-" + component
}

// InitTracer installs a global tracer provider exporting to an OTLP/HTTP endpoint
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // collector runs as a sidecar
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Shutdown flushes and stops the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Setup starts tracing for component when enabled and an endpoint is set.
// The returned provider is nil when tracing stays off; a setup failure is
// logged and tracing stays off rather than stopping the process.
func Setup(ctx context.Context, enabled bool, component, endpoint string, log *zap.Logger) *sdktrace.TracerProvider {
	if !enabled {
		return nil
	}
	if endpoint == "" {
		log.Warn("otel_enabled_but_endpoint_not_configured")
		return nil
	}
	tp, err := InitTracer(ctx, ServiceName(component), endpoint)
	if err != nil {
		log.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return nil
	}
	log.Info("otel_tracer_initialized", zap.String("endpoint", endpoint), zap.String("service", ServiceName(component)))
	return tp
}
