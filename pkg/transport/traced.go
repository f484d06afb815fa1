package transport

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/luizaranda/go-rest/pkg/telemetry"
	"github.com/luizaranda/go-rest/pkg/telemetry/tracing"
	"github.com/newrelic/go-agent/v3/newrelic"
)

const _httpRequestMetric = "toolkit.http.client.request.time"

// TraceDecorator returns a RoundTripDecorator recording request metrics and
// NewRelic external segments.
func TraceDecorator() RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &TracedRoundTripper{Transport: base}
	}
}

// TracedRoundTripper records a toolkit.http.client.request.time timing per
// round trip, tagged with method, status and the target_id of the context.
// Metrics go to the telemetry.Client of the request context.
//
// If the context holds a NewRelic transaction an external segment is recorded,
// named after the endpoint template or target.
type TracedRoundTripper struct {
	Transport http.RoundTripper
}

func (t *TracedRoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	// StartExternalSegment mutates request, adding NewRelic headers.
	segment := newrelic.StartExternalSegment(nil, request)
	segment.Procedure = segmentProcedure(request)

	tags := commonTags(request)
	start := time.Now()

	response, err := t.Transport.RoundTrip(request)
	if err != nil {
		segment.AddAttribute("error", err.Error())
	}
	segment.Response = response
	segment.End()

	code := 0
	if err == nil {
		code = response.StatusCode
	}
	telemetry.Timing(request.Context(), _httpRequestMetric, time.Since(start),
		append(tags, telemetry.StatusTags(code, os.IsTimeout(err))...))

	return response, err
}

func commonTags(req *http.Request) []string {
	tags := []string{"technology:go", "method:" + strings.ToLower(req.Method)}
	if target := tracing.TargetID(req.Context()); target != "" {
		tags = append(tags, "target_id:"+telemetry.SanitizeMetricTagValue(target))
	}
	return tags
}

func segmentProcedure(request *http.Request) string {
	if b := tracing.Bucket(request.Context()); b != "" {
		return request.Method + " " + b
	}
	return request.Method
}
