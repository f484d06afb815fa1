package transport

import (
	"net/http"
)

// RequestHook runs before each request. Only the headers and context of the
// request should be mutated. A non-nil error aborts the request.
type RequestHook func(*http.Request) error

// ResponseHook runs after each round trip, with either a response or an
// error. Reading or closing the body affects what the caller receives.
type ResponseHook func(*http.Request, *http.Response, error)

// HookDecorator returns a RoundTripDecorator running the given hooks around
// every round trip.
func HookDecorator(req []RequestHook, res []ResponseHook) RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &HookRoundTripper{
			Transport:    base,
			RequestHook:  req,
			ResponseHook: res,
		}
	}
}

// HookRoundTripper runs request hooks in order before delegating to
// Transport, then every response hook.
type HookRoundTripper struct {
	Transport    http.RoundTripper
	RequestHook  []RequestHook
	ResponseHook []ResponseHook
}

func (t *HookRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, hook := range t.RequestHook {
		if err := hook(req); err != nil {
			return nil, err
		}
	}

	res, err := t.Transport.RoundTrip(req)

	for _, hook := range t.ResponseHook {
		hook(req, res, err)
	}

	return res, err
}
