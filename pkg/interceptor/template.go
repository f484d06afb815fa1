package interceptor

import (
	"context"

	"github.com/luizaranda/go-rest/pkg/rest"
	"github.com/luizaranda/go-rest/pkg/uritemplate"
)

// TemplateConfig configures the Template interceptor.
type TemplateConfig struct {
	// Template is expanded when the request has no path.
	Template string

	// Params are merged under the request params.
	Params map[string]any
}

// Template expands the request path as an RFC 6570 URI template and clears
// the params it was expanded with. The unexpanded template is recorded as the
// rest.AttrEndpointTemplate attribute, for metrics and circuit breaking.
var Template = rest.Intercept(rest.Handlers[TemplateConfig, struct{}]{
	Request: func(_ context.Context, req *rest.Request, config *TemplateConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		template := req.Path
		if template == "" {
			template = config.Template
		}
		if _, ok := req.Attr(rest.AttrEndpointTemplate); !ok && template != "" {
			req.SetAttr(rest.AttrEndpointTemplate, template)
		}

		req.Path = uritemplate.Expand(template, mergeMaps(config.Params, req.Params))
		req.Params = nil
		return req, nil
	},
})
