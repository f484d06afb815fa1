package rest

import (
	"context"
	"sync"
)

// stubClient is a comparable root client counting its invocations.
type stubClient struct {
	handle func(ctx context.Context, req *Request) (*Response, error)

	mu    sync.Mutex
	calls int
}

func (s *stubClient) Do(ctx context.Context, req *Request) (*Response, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.handle == nil {
		return settle(req, &Response{Status: Status{Code: 200}}, nil)
	}
	resp, err := s.handle(ctx, req)
	return settle(req, resp, err)
}

func (s *stubClient) Wrap(i Interceptor) Client { return i(s) }

func (s *stubClient) Skip() Client { return nil }

func (s *stubClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type none struct{}

// trace returns an interceptor appending its request and response phases to
// events.
func trace(name string, events *[]string) Interceptor {
	return Intercept(Handlers[none, none]{
		Request: func(_ context.Context, req *Request, _ *none, _ *Meta[none]) (Dispatch, error) {
			*events = append(*events, "request:"+name)
			return req, nil
		},
		Response: func(_ context.Context, resp *Response, _ *none, _ *Meta[none]) (*Response, error) {
			*events = append(*events, "response:"+name)
			return resp, nil
		},
	}).With(nil)
}

// identity is an interceptor with no handlers.
var identity = Intercept(Handlers[none, none]{})
