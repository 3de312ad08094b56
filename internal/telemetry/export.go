package telemetry

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Exporter writes spans and metrics of one run as JSON to a writer.
// Metrics are flushed on Shutdown.
type Exporter struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// NewExporter builds trace and meter providers exporting to w.
func NewExporter(w io.Writer, version string) (*Exporter, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", instrumentationName),
		attribute.String("service.version", version),
	)

	spans, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, err
	}

	return &Exporter{
		tp: sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans), sdktrace.WithResource(res)),
		mp: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics)),
			sdkmetric.WithResource(res),
		),
	}, nil
}

// Config points a hook at this exporter's providers.
func (e *Exporter) Config() Config {
	return Config{TracerProvider: e.tp, MeterProvider: e.mp}
}

// StartRun opens the root span of a command; stage spans nest below it.
func (e *Exporter) StartRun(ctx context.Context, command string) (context.Context, func(error)) {
	ctx, span := e.tp.Tracer(instrumentationName).Start(ctx, "protobind "+command,
		trace.WithAttributes(attribute.String("protobind.command", command)))
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Shutdown flushes pending metrics and spans.
func (e *Exporter) Shutdown(ctx context.Context) error {
	return errors.Join(e.tp.Shutdown(ctx), e.mp.Shutdown(ctx))
}
