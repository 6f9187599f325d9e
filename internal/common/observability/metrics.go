// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"fieldsales-console/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records console outcomes through an otel meter exported in
// prometheus format.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	logins        otelmetric.Int64Counter
	exports       otelmetric.Int64Counter
	exportRows    otelmetric.Int64Histogram
	logger        logger.Logger
}

// New builds the meter. A nil registerer uses the prometheus default. When
// the exporter cannot be created the returned value records nothing.
func New(serviceName string, registerer promclient.Registerer, log logger.Logger) *Observability {
	log = logger.Component(log, "observability")

	opts := []prometheus.Option{}
	if registerer != nil {
		opts = append(opts, prometheus.WithRegisterer(registerer))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Error("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{logger: log}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	logins, _ := meter.Int64Counter(
		"console.logins",
		otelmetric.WithDescription("Login attempts by outcome"),
	)

	exports, _ := meter.Int64Counter(
		"console.exports",
		otelmetric.WithDescription("Exports by format and outcome"),
	)

	exportRows, _ := meter.Int64Histogram(
		"console.export.rows",
		otelmetric.WithDescription("Rows per successful export"),
		otelmetric.WithUnit("{row}"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		logins:        logins,
		exports:       exports,
		exportRows:    exportRows,
		logger:        log,
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

// RecordLogin counts one finished login.
func (o *Observability) RecordLogin(ctx context.Context, succeeded bool) {
	if o.logins != nil {
		o.logins.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome(succeeded)),
		))
	}
}

// RecordExport counts one finished export and, on success, its size.
func (o *Observability) RecordExport(ctx context.Context, format string, rows int, err error) {
	if o.exports != nil {
		o.exports.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("format", format),
			attribute.String("outcome", outcome(err == nil)),
		))
	}
	if err == nil && o.exportRows != nil {
		o.exportRows.Record(ctx, int64(rows), otelmetric.WithAttributes(
			attribute.String("format", format),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			o.logger.Warn("meter provider shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
