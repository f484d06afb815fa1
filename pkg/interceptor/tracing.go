package interceptor

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/luizaranda/go-rest/pkg/internal"
	"github.com/luizaranda/go-rest/pkg/rest"
)

const (
	_instrumentationName = "github.com/luizaranda/go-rest/pkg/interceptor"
	_clientSpanName      = "RestClient"

	_endpointSpanAttribute = attribute.Key("toolkits.services.restclient.endpoint")
	_retriesSpanAttribute  = attribute.Key("toolkits.services.restclient.retries")
)

// TracingConfig configures the Tracing interceptor.
type TracingConfig struct {
	// Provider defaults to the global tracer provider.
	Provider trace.TracerProvider

	// Propagator injects the span context into request headers. Defaults to
	// W3C trace context, baggage and B3 multiple headers.
	Propagator propagation.TextMapPropagator

	tracer trace.Tracer
}

type tracingState struct {
	span trace.Span
}

// NewPropagator returns the default propagator of Tracing.
func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)),
	)
}

// Tracing records a client span per invocation and propagates it to the
// server through the request headers.
var Tracing = rest.Intercept(rest.Handlers[TracingConfig, tracingState]{
	Init: func(config *TracingConfig) {
		if config.Provider == nil {
			config.Provider = otel.GetTracerProvider()
		}
		if config.Propagator == nil {
			config.Propagator = NewPropagator()
		}
		config.tracer = config.Provider.Tracer(_instrumentationName, trace.WithInstrumentationVersion(internal.Version))
	},
	Request: func(ctx context.Context, req *rest.Request, config *TracingConfig, meta *rest.Meta[tracingState]) (rest.Dispatch, error) {
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}

		ctx, span := config.tracer.Start(ctx, _clientSpanName+" "+method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(method),
				semconv.HTTPURLKey.String(req.Path),
			),
		)
		if tmpl := stringAttr(req, rest.AttrEndpointTemplate, ""); tmpl != "" {
			span.SetAttributes(_endpointSpanAttribute.String(tmpl))
		}
		meta.State.span = span

		if req.Headers == nil {
			req.Headers = make(http.Header)
		}
		config.Propagator.Inject(ctx, propagation.HeaderCarrier(req.Headers))
		return req, nil
	},
	Response: func(_ context.Context, resp *rest.Response, _ *TracingConfig, meta *rest.Meta[tracingState]) (*rest.Response, error) {
		span := meta.State.span
		if span == nil {
			return resp, nil
		}
		defer span.End()

		if retries := resp.Request.Header(RetryHeader); retries != "" {
			span.SetAttributes(_retriesSpanAttribute.String(retries))
		}
		if code := resp.Status.Code; code > 0 {
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(code))
			span.SetStatus(semconv.SpanStatusFromHTTPStatusCode(code))
		}
		if resp.Error != nil {
			span.RecordError(resp.Error)
			span.SetStatus(codes.Error, resp.Error.Error())
		}
		return resp, nil
	},
})
