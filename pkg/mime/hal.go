package mime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/rest"
)

// HAL is the application/hal+json converter. Reads produce a *HALResource
// for JSON objects, writes emit the plain properties of a resource.
//
// The payload itself is decoded and encoded by the converter registered for
// the structured syntax suffix of the negotiated type, +json by default.
var HAL Converter = halConverter{}

type halConverter struct{}

func (halConverter) Read(ctx context.Context, payload any, opts Options) (any, error) {
	c, err := suffixConverter(opts)
	if err != nil {
		return nil, err
	}
	v, err := c.Read(ctx, payload, opts)
	if err != nil {
		return nil, err
	}
	h := &halReader{client: opts.Client, logger: log.FromContext(ctx)}
	return h.read(v), nil
}

func (halConverter) Write(ctx context.Context, value any, opts Options) (any, error) {
	c, err := suffixConverter(opts)
	if err != nil {
		return nil, err
	}
	if r, ok := value.(*HALResource); ok {
		value = r.Properties
	}
	return c.Write(ctx, value, opts)
}

func suffixConverter(opts Options) (Converter, error) {
	suffix := opts.MIME.Suffix
	if suffix == "" {
		suffix = "+json"
	}
	registry := opts.Registry
	if registry == nil {
		registry = Default
	}
	return registry.Lookup(suffix)
}

type halReader struct {
	client rest.Client
	logger log.Logger
}

func (h *halReader) read(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return h.resource(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = h.read(item)
		}
		return out
	default:
		return v
	}
}

func (h *halReader) resource(obj map[string]any) *HALResource {
	r := &HALResource{
		Properties: make(map[string]any, len(obj)),
		client:     h.client,
		logger:     h.logger,
	}
	for k, v := range obj {
		switch k {
		case "_links":
			r.links, _ = rest.LinksOf(map[string]any{"_links": v})
		case "_embedded":
			if embedded, ok := v.(map[string]any); ok {
				r.embedded = make(map[string]any, len(embedded))
				for rel, e := range embedded {
					r.embedded[rel] = h.read(e)
				}
			}
		default:
			r.Properties[k] = v
		}
	}
	return r
}

// HALResource is a decoded HAL document. Its plain members are kept in
// Properties, while embedded resources and links are exposed as
// relationships.
type HALResource struct {
	Properties map[string]any

	links    map[string]rest.Link
	embedded map[string]any
	client   rest.Client
	logger   log.Logger

	mu      sync.Mutex
	fetched map[string]*rest.ResponsePromise
}

var _ rest.Linker = (*HALResource)(nil)

// Links returns the links of the resource keyed by relationship.
func (r *HALResource) Links() map[string]rest.Link {
	return r.links
}

// Embedded returns the embedded value of a relationship: a *HALResource, a
// slice of them or a plain value.
func (r *HALResource) Embedded(rel string) (any, bool) {
	v, ok := r.embedded[rel]
	return v, ok
}

// Get returns the property called name or, when there is none, the
// relationship of that name. Relationships never shadow properties.
func (r *HALResource) Get(name string) (any, bool) {
	if v, ok := r.Properties[name]; ok {
		return v, true
	}
	if r.hasRel(name) {
		return &Relationship{Name: name, resource: r}, true
	}
	return nil, false
}

func (r *HALResource) hasRel(name string) bool {
	if _, ok := r.embedded[name]; ok {
		return true
	}
	_, ok := r.links[name]
	return ok
}

// Fetch returns the response of a relationship. Embedded relationships settle
// immediately, linked ones are requested once and the result is shared by
// later calls.
func (r *HALResource) Fetch(ctx context.Context, rel string) *rest.ResponsePromise {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.fetched[rel]; ok {
		return p
	}

	var p *rest.ResponsePromise
	switch {
	case r.hasEmbedded(rel):
		p = rest.Resolved(r.embeddedResponse(rel), nil)
	case r.hasLink(rel):
		p = rest.Invoke(ctx, r.ClientFor(rel), &rest.Request{})
	default:
		return rest.Resolved(nil, fmt.Errorf("%w: %s", rest.ErrUnknownRelationship, rel))
	}

	if r.fetched == nil {
		r.fetched = make(map[string]*rest.ResponsePromise)
	}
	r.fetched[rel] = p
	return p
}

func (r *HALResource) hasEmbedded(rel string) bool {
	_, ok := r.embedded[rel]
	return ok
}

func (r *HALResource) hasLink(rel string) bool {
	_, ok := r.links[rel]
	return ok
}

func (r *HALResource) embeddedResponse(rel string) *rest.Response {
	entity := r.embedded[rel]
	req := &rest.Request{Originator: r.client}
	if e, ok := entity.(*HALResource); ok {
		if self, ok := e.links["self"]; ok {
			req.Path = self.Href
		}
	}
	return &rest.Response{Request: req, Entity: entity}
}

// ClientFor returns a client issuing requests against the link of rel.
// Templated links are expanded with the request params, which are then
// cleared. Accessing a deprecated relationship logs a warning.
func (r *HALResource) ClientFor(rel string) rest.Client {
	link, ok := r.links[rel]
	if !ok {
		return rest.ClientFunc(func(context.Context, *rest.Request) (*rest.Response, error) {
			return nil, fmt.Errorf("%w: %s", rest.ErrUnknownRelationship, rel)
		})
	}
	if link.Deprecation != "" && r.logger != nil {
		r.logger.Warn(fmt.Sprintf("Relationship '%s' is deprecated, see %s", rel, link.Deprecation),
			log.String("rel", rel))
	}
	return link.Client(r.client)
}

// RequestFor issues req against the link of rel.
func (r *HALResource) RequestFor(ctx context.Context, rel string, req *rest.Request) (*rest.Response, error) {
	return r.ClientFor(rel).Do(ctx, req)
}

// MarshalJSON encodes the properties only.
func (r *HALResource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Properties)
}

// Relationship is a named relationship of a HALResource, fetched on demand.
type Relationship struct {
	Name     string
	resource *HALResource
}

// Fetch returns the response of the relationship.
func (rel *Relationship) Fetch(ctx context.Context) *rest.ResponsePromise {
	return rel.resource.Fetch(ctx, rel.Name)
}

// Entity returns the entity of the relationship.
func (rel *Relationship) Entity(ctx context.Context) (any, error) {
	return rel.Fetch(ctx).Entity(ctx)
}
