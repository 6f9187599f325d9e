// internal/common/observability/tracing.go
package observability

import (
	"context"
	"fmt"
	"time"

	"fieldsales-console/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Tracing owns the process tracer provider.
type Tracing struct {
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewTracing installs a global tracer provider for serviceName. Spans are
// exported to the jaeger collector at endpoint; an empty endpoint keeps
// spans in process only.
func NewTracing(serviceName, endpoint string, log logger.Logger) (*Tracing, error) {
	log = logger.Component(log, "observability")

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if endpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		if err != nil {
			return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		log.Info("Tracing to jaeger", map[string]interface{}{"endpoint": endpoint})
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return &Tracing{provider: provider, logger: log}, nil
}

// Provider exposes the tracer provider for tests and custom tracers.
func (t *Tracing) Provider() *sdktrace.TracerProvider {
	return t.provider
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown() {
	if t == nil || t.provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		t.logger.Warn("tracer provider shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
