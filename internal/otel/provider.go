// Package otel provides OpenTelemetry tracer provider initialization and
// shutdown for the daemon's optional span export.
package otel

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"devmapperd/internal/config"
)

// InitProvider initializes the OTLP/HTTP tracer provider. The HTTP client
// honors HTTP_PROXY/HTTPS_PROXY/NO_PROXY via the standard transport.
func InitProvider(cfg *config.OTELConfig) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := cfg.GetEndpoint()
	log.Printf("OTEL export enabled: service=%s endpoint=%s", cfg.ServiceName, endpoint)

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	resourceOpts := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if customAttrs := cfg.ParseResourceAttributes(); len(customAttrs) > 0 {
		resourceOpts = append(resourceOpts, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, resourceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

// ShutdownProvider flushes and shuts down the tracer provider.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
