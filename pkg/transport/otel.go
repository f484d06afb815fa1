package transport

import (
	"net/http"

	"github.com/luizaranda/go-rest/pkg/telemetry/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenTelemetryDecorator returns a decorator that starts a client span per
// round trip and injects the trace context into the request headers. Spans are
// named after the endpoint template when the context has one.
func OpenTelemetryDecorator(opts ...otelhttp.Option) RoundTripDecorator {
	opts = append([]otelhttp.Option{otelhttp.WithSpanNameFormatter(spanName)}, opts...)
	return func(base http.RoundTripper) http.RoundTripper {
		return otelhttp.NewTransport(base, opts...)
	}
}

func spanName(_ string, r *http.Request) string {
	if tmpl := tracing.EndpointTemplate(r.Context()); tmpl != "" {
		return r.Method + " " + tmpl
	}
	return r.Method
}
