package interceptor

import (
	"context"
	"net/http"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// DefaultRequestConfig holds the request defaults applied by DefaultRequest.
type DefaultRequestConfig struct {
	Method  string
	Path    string
	Params  map[string]any
	Headers http.Header
	Entity  any
	Mixin   map[string]any
}

// DefaultRequest fills in the fields a request leaves empty. Params, headers
// and mixins are merged key by key, the request winning over the defaults.
var DefaultRequest = rest.Intercept(rest.Handlers[DefaultRequestConfig, struct{}]{
	Request: func(_ context.Context, req *rest.Request, config *DefaultRequestConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		if req.Method == "" {
			req.Method = config.Method
		}
		if req.Path == "" {
			req.Path = config.Path
		}
		if req.Entity == nil {
			req.Entity = config.Entity
		}
		req.Params = mergeMaps(config.Params, req.Params)
		req.Mixin = mergeMaps(config.Mixin, req.Mixin)

		if len(config.Headers) > 0 {
			headers := config.Headers.Clone()
			for k, v := range req.Headers {
				headers[k] = v
			}
			req.Headers = headers
		}
		return req, nil
	},
})

// mergeMaps returns a new map holding defaults overridden by values. It
// returns values unchanged when there are no defaults.
func mergeMaps(defaults, values map[string]any) map[string]any {
	if len(defaults) == 0 {
		return values
	}
	out := make(map[string]any, len(defaults)+len(values))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range values {
		out[k] = v
	}
	return out
}
