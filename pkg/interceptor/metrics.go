package interceptor

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/luizaranda/go-rest/pkg/rest"
)

const (
	_requestsMetricName = "http.client.requests"
	_durationMetricName = "http.client.duration"

	_unitKey    = attribute.Key("unit")
	_outcomeKey = attribute.Key("outcome")
)

// MetricsConfig configures the Metrics interceptor.
type MetricsConfig struct {
	// Provider defaults to the global meter provider.
	Provider metric.MeterProvider

	requests metric.Int64Counter
	duration metric.Int64Histogram
}

type metricsState struct {
	start time.Time
}

// Metrics counts invocations and records their duration in milliseconds,
// by method, status code, endpoint template and outcome.
var Metrics = rest.Intercept(rest.Handlers[MetricsConfig, metricsState]{
	Init: func(config *MetricsConfig) {
		if config.Provider == nil {
			config.Provider = otel.GetMeterProvider()
		}
		meter := config.Provider.Meter(_instrumentationName)

		var err error
		if config.requests, err = meter.Int64Counter(_requestsMetricName); err != nil {
			config.requests = noop.Int64Counter{}
		}
		if config.duration, err = meter.Int64Histogram(_durationMetricName, metric.WithUnit("ms")); err != nil {
			config.duration = noop.Int64Histogram{}
		}
	},
	Request: func(_ context.Context, req *rest.Request, _ *MetricsConfig, meta *rest.Meta[metricsState]) (rest.Dispatch, error) {
		meta.State.start = time.Now()
		return req, nil
	},
	Response: func(ctx context.Context, resp *rest.Response, config *MetricsConfig, meta *rest.Meta[metricsState]) (*rest.Response, error) {
		method := resp.Request.Method
		if method == "" {
			method = http.MethodGet
		}
		outcome := "success"
		if resp.Error != nil {
			outcome = "failure"
		}

		attrs := []attribute.KeyValue{
			semconv.HTTPMethodKey.String(method),
			semconv.HTTPStatusCodeKey.Int(resp.Status.Code),
			_outcomeKey.String(outcome),
		}
		if tmpl := stringAttr(resp.Request, rest.AttrEndpointTemplate, ""); tmpl != "" {
			attrs = append(attrs, semconv.HTTPRouteKey.String(tmpl))
		}

		config.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		config.duration.Record(ctx, time.Since(meta.State.start).Milliseconds(),
			metric.WithAttributes(append(attrs, _unitKey.String("ms"))...))
		return resp, nil
	},
})
