// Package telemetry traces and measures pipeline stages with OpenTelemetry.
//
// Usage:
//
//	p := pipeline.New(opts, compiler, differ, logger)
//	p.SetHook(telemetry.NewHook(telemetry.DefaultConfig()))
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alia5/protobind/internal/codegen/pipeline"
)

const instrumentationName = "protobind"

// Config selects the providers the hook reports to.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// Attributes are added to every span and measurement.
	Attributes []attribute.KeyValue
}

func DefaultConfig() Config { return Config{} }

// NewHook returns a pipeline.Hook recording one span per stage plus a stage
// counter and duration histogram.
func NewHook(cfg Config) pipeline.Hook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	h := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}
	meter := cfg.MeterProvider.Meter(instrumentationName)
	h.stages, _ = meter.Int64Counter("protobind.stage.runs",
		metric.WithUnit("{stage}"),
		metric.WithDescription("Number of pipeline stages run"),
	)
	h.duration, _ = meter.Float64Histogram("protobind.stage.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of pipeline stages"),
	)
	return h
}

type otelHook struct {
	cfg      Config
	tracer   trace.Tracer
	stages   metric.Int64Counter
	duration metric.Float64Histogram
}

type spanToken struct {
	span  trace.Span
	start time.Time
}

func (h *otelHook) OnStageStart(ctx context.Context, stage pipeline.Stage) (context.Context, pipeline.HookToken) {
	attrs := append([]attribute.KeyValue{attribute.String("protobind.stage", string(stage))}, h.cfg.Attributes...)
	ctx, span := h.tracer.Start(ctx, "protobind/"+string(stage), trace.WithAttributes(attrs...))
	return ctx, &spanToken{span: span, start: time.Now()}
}

func (h *otelHook) OnStageEnd(ctx context.Context, token pipeline.HookToken, stage pipeline.Stage, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = string(pipeline.Outcome(err))
	}
	attrs := append([]attribute.KeyValue{
		attribute.String("protobind.stage", string(stage)),
		attribute.String("protobind.outcome", outcome),
	}, h.cfg.Attributes...)
	set := metric.WithAttributes(attrs...)
	h.stages.Add(ctx, 1, set)
	h.duration.Record(ctx, time.Since(st.start).Seconds(), set)

	if err != nil {
		st.span.SetStatus(codes.Error, err.Error())
		st.span.RecordError(err)
		st.span.SetAttributes(attribute.String("protobind.outcome", outcome))
	} else {
		st.span.SetStatus(codes.Ok, "")
	}
	st.span.End()
}
