package rest

import (
	"net/http"
	"strings"
)

// Status is the transport status of a response.
type Status struct {
	Code int
	Text string
}

// Response is the outcome of one invocation. Interceptors transform it in place
// on the way back to the caller.
type Response struct {
	// Request is the request that produced this response.
	Request *Request

	Status  Status
	Headers http.Header

	// Entity holds the response payload. Root clients set it to the raw body
	// and content negotiation replaces it with the decoded value.
	Entity any

	// Error is set only when the invocation failed.
	Error error

	// Raw holds transport specific diagnostic data.
	Raw any

	// Links holds the relationships advertised by the response, populated by
	// hypermedia aware interceptors.
	Links map[string]Link
}

// Header returns the first value of the named response header. The lookup is
// case-insensitive.
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	if v := r.Headers.Get(name); v != "" {
		return v
	}
	// Headers set by hand may not be in canonical form.
	for k, v := range r.Headers {
		if len(v) > 0 && strings.EqualFold(k, name) {
			return v[0]
		}
	}
	return ""
}

// EntityOf returns the entity of the response of an invocation. It is handy
// for unwrapping Client.Do in a single expression.
func EntityOf(resp *Response, err error) (any, error) {
	if resp == nil {
		return nil, err
	}
	return resp.Entity, err
}
