package rest

import (
	"context"
)

// Client executes requests. Every client can be decorated with Wrap, and all
// but root clients expose the client they decorate through Skip.
type Client interface {
	// Do runs one invocation. On failure both the final response, carrying
	// Error and Request, and the error are returned.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Wrap returns a new client that runs the given interceptor in front of
	// this one.
	Wrap(i Interceptor) Client

	// Skip returns the client this one decorates, or nil for root clients.
	Skip() Client
}

// Interceptor decorates a parent client. Factories produce it through With.
type Interceptor func(parent Client) Client

// ClientFunc adapts a function into a root Client.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f, normalizing a nil request and the shape of the outcome.
func (f ClientFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		req = &Request{}
	}
	req.claim(f)
	resp, err := f(ctx, req)
	return settle(req, resp, err)
}

// Wrap returns i applied to f.
func (f ClientFunc) Wrap(i Interceptor) Client { return i(f) }

// Skip returns nil as a ClientFunc is a root client.
func (f ClientFunc) Skip() Client { return nil }

// settle enforces the shape of an invocation outcome: the response is never
// nil, it references its request and carries the failure, if any.
func settle(req *Request, resp *Response, err error) (*Response, error) {
	if resp == nil {
		resp = &Response{}
	}
	if resp.Request == nil {
		resp.Request = req
	}
	if err == nil && resp.Error != nil {
		err = resp.Error
	}
	resp.Error = err
	return resp, err
}
