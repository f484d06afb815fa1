package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/trace"
)

func startTracerProvider(ctx context.Context, cfg config) (ShutdownFunc, error) {
	client := otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(cfg.endpoint), otlptracegrpc.WithInsecure())
	exp, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	tp := newTracerProvider(exp, cfg.sampleRatio)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func newTracerProvider(exp trace.SpanExporter, ratio float64) *trace.TracerProvider {
	return trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
	)
}
