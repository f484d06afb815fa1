package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/sdk/metric"
)

const (
	_collectTimeout  = 35 * time.Second
	_collectPeriod   = 30 * time.Second
	_minimumInterval = time.Minute
)

// Request durations are recorded in milliseconds.
var _histogramBuckets = []float64{5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000, 25000, 50000, 100000}

func startMeterProvider(ctx context.Context, cfg config) (ShutdownFunc, error) {
	exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.endpoint), otlpmetricgrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	mp := newMeterProvider(metric.NewPeriodicReader(exp,
		metric.WithTimeout(_collectTimeout),
		metric.WithInterval(_collectPeriod)))
	otel.SetMeterProvider(mp)

	if cfg.runtimeMetrics {
		err = runtime.Start(
			runtime.WithMeterProvider(mp),
			runtime.WithMinimumReadMemStatsInterval(_minimumInterval))
		if err != nil {
			_ = mp.Shutdown(ctx)
			return nil, err
		}
	}

	return mp.Shutdown, nil
}

// newMeterProvider replaces the default histogram buckets, which are too few
// and too low for request durations.
func newMeterProvider(reader metric.Reader) *metric.MeterProvider {
	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithView(metric.NewView(
			metric.Instrument{
				Name: "*",
				Kind: metric.InstrumentKindHistogram,
			},
			metric.Stream{
				Aggregation: metric.AggregationExplicitBucketHistogram{
					Boundaries: _histogramBuckets,
				},
			},
		)),
	)
}
