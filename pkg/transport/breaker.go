package transport

import (
	"errors"
	"net/http"

	"github.com/luizaranda/go-rest/pkg/telemetry"
	"github.com/luizaranda/go-rest/pkg/telemetry/tracing"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a request.
var ErrCircuitOpen = errors.New("transport: circuit breaker open")

// CircuitBreaker decides whether a request to bucket may proceed. When it
// does, exactly one of success or failure must be called with the outcome.
type CircuitBreaker interface {
	Allow(bucket string) (allowed bool, success, failure func())
}

// CircuitBreakerCheckFunc reports whether a response counts as a success.
type CircuitBreakerCheckFunc func(*http.Response) bool

// DefaultCircuitBreakerCheckFunc counts every 5xx response as a failure.
func DefaultCircuitBreakerCheckFunc() CircuitBreakerCheckFunc {
	return func(r *http.Response) bool {
		return r.StatusCode < 500
	}
}

// DefaultCircuitBreakerBucketFunc buckets requests by tracing.Bucket, falling
// back to the request host.
func DefaultCircuitBreakerBucketFunc() func(*http.Request) string {
	return func(r *http.Request) string {
		if b := tracing.Bucket(r.Context()); b != "" {
			return b
		}
		return r.URL.Host
	}
}

// CircuitBreakerDecorator returns a RoundTripDecorator consulting cb before
// every request.
func CircuitBreakerDecorator(cb CircuitBreaker, check CircuitBreakerCheckFunc, bucket func(*http.Request) string) RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &CircuitBreakerRoundTripper{
			Base:           base,
			CircuitBreaker: cb,
			CheckFunc:      check,
			BucketFunc:     bucket,
		}
	}
}

// CircuitBreakerRoundTripper maps every request into a bucket and asks the
// circuit breaker whether it is allowed. Transport errors always count as
// failures, responses are judged by CheckFunc.
type CircuitBreakerRoundTripper struct {
	Base           http.RoundTripper
	CircuitBreaker CircuitBreaker
	CheckFunc      CircuitBreakerCheckFunc
	BucketFunc     func(r *http.Request) string
}

func (b *CircuitBreakerRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	bucket := b.BucketFunc(r)

	allowed, success, failure := b.CircuitBreaker.Allow(bucket)
	if !allowed {
		telemetry.Incr(r.Context(), "toolkit.http.client.circuit_breaker.open", telemetry.Tags(
			"target_id", telemetry.SanitizeMetricTagValue(tracing.TargetID(r.Context())),
			"bucket", telemetry.SanitizeMetricTagValue(bucket),
		))
		return nil, ErrCircuitOpen
	}

	res, err := b.Base.RoundTrip(r)
	if err != nil {
		failure()
		return res, err
	}

	if b.CheckFunc(res) {
		success()
	} else {
		failure()
	}

	return res, nil
}
