package interceptor

import (
	"context"
	"net/http"
	"sync"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// stub is a root client recording the requests it receives. handle is given
// the 1-based number of the call.
type stub struct {
	handle func(ctx context.Context, req *rest.Request, call int) (*rest.Response, error)

	mu       sync.Mutex
	requests []*rest.Request
}

func (s *stub) Client() rest.Client {
	return rest.ClientFunc(func(ctx context.Context, req *rest.Request) (*rest.Response, error) {
		s.mu.Lock()
		s.requests = append(s.requests, req)
		call := len(s.requests)
		s.mu.Unlock()

		if s.handle == nil {
			return &rest.Response{Request: req, Status: rest.Status{Code: http.StatusOK}}, nil
		}
		return s.handle(ctx, req, call)
	})
}

func (s *stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stub) Last() *rest.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// respond returns a response with the given status, headers and entity.
func respond(req *rest.Request, code int, entity any, headers ...string) *rest.Response {
	h := make(http.Header)
	for i := 0; i+1 < len(headers); i += 2 {
		h.Add(headers[i], headers[i+1])
	}
	return &rest.Response{Request: req, Status: rest.Status{Code: code}, Headers: h, Entity: entity}
}
