package transport

import (
	"net/http"

	"github.com/luizaranda/go-rest/pkg/telemetry/tracing"
)

// TargetDecorator returns a RoundTripDecorator that tags requests with
// targetID unless their context already has one.
func TargetDecorator(targetID string) RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if tracing.TargetID(req.Context()) == "" {
				req = req.WithContext(tracing.WithTargetID(req.Context(), targetID))
			}
			return base.RoundTrip(req)
		})
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
