// Package otel starts OpenTelemetry trace and metric pipelines exporting to an
// OTLP gRPC agent, and installs them as the global providers read by the
// Tracing and Metrics interceptors.
package otel

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/luizaranda/go-rest/pkg/interceptor"
)

const (
	_defaultAgentHost = "otel-agent"
	_defaultAgentPort = "4317"

	_otelAgentHostEnv = "OTEL_HOST"
	_otelAgentPortEnv = "OTEL_PORT"
)

// ShutdownFunc flushes and stops the pipelines started by Start.
type ShutdownFunc func(ctx context.Context) error

type config struct {
	endpoint       string
	sampleRatio    float64
	runtimeMetrics bool
}

// Option configures Start.
type Option func(*config)

// WithEndpoint sets the host:port of the OTLP agent. Defaults to
// $OTEL_HOST:$OTEL_PORT, falling back to otel-agent:4317.
func WithEndpoint(endpoint string) Option {
	return func(c *config) { c.endpoint = endpoint }
}

// WithSampleRatio sets the fraction of root spans that are sampled. Child
// spans follow their parent. Defaults to 1.
func WithSampleRatio(ratio float64) Option {
	return func(c *config) { c.sampleRatio = ratio }
}

// WithRuntimeMetrics also exports Go runtime metrics.
func WithRuntimeMetrics() Option {
	return func(c *config) { c.runtimeMetrics = true }
}

// Start installs the global tracer provider, meter provider and propagator.
func Start(ctx context.Context, opts ...Option) (ShutdownFunc, error) {
	cfg := config{endpoint: endpointFromEnv(), sampleRatio: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	shutdownTracing, err := startTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	shutdownMetrics, err := startMeterProvider(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	otel.SetTextMapPropagator(interceptor.NewPropagator())

	return func(ctx context.Context) error {
		return errors.Join(shutdownTracing(ctx), shutdownMetrics(ctx))
	}, nil
}

func endpointFromEnv() string {
	host := os.Getenv(_otelAgentHostEnv)
	if host == "" {
		host = _defaultAgentHost
	}
	port := os.Getenv(_otelAgentPortEnv)
	if port == "" {
		port = _defaultAgentPort
	}
	return fmt.Sprintf("%s:%s", host, port)
}
