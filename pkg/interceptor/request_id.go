package interceptor

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// RequestIDConfig configures the RequestID interceptor.
type RequestIDConfig struct {
	// Header carries the identifier. Defaults to X-Request-Id.
	Header string

	// Generate returns new identifiers. Defaults to random UUIDs.
	Generate func() (string, error)
}

// RequestID tags requests with a unique identifier, unless they already carry
// one. The identifier is also stored in the AttrRequestID attribute.
var RequestID = rest.Intercept(rest.Handlers[RequestIDConfig, struct{}]{
	Init: func(config *RequestIDConfig) {
		if config.Header == "" {
			config.Header = "X-Request-Id"
		}
		if config.Generate == nil {
			config.Generate = newUUID
		}
	},
	Request: func(_ context.Context, req *rest.Request, config *RequestIDConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		id := req.Header(config.Header)
		if id == "" {
			var err error
			if id, err = config.Generate(); err != nil {
				return nil, err
			}
			req.SetHeader(config.Header, id)
		}
		req.SetAttr(AttrRequestID, id)
		return req, nil
	},
})

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
