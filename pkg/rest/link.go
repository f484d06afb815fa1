package rest

import (
	"context"
	"fmt"

	"github.com/luizaranda/go-rest/pkg/uritemplate"
)

// Link is a hypermedia relationship advertised by a resource.
type Link struct {
	Rel         string
	Href        string
	Title       string
	Type        string
	Name        string
	Deprecation string
	Templated   bool
}

// Linker is implemented by entities exposing hypermedia links.
type Linker interface {
	Links() map[string]Link
}

// Request builds a request for the link. Templated links are expanded with
// params, otherwise params are left for query augmentation.
func (l Link) Request(params map[string]any) *Request {
	if l.Templated {
		return &Request{Path: uritemplate.Expand(l.Href, params)}
	}
	return &Request{Path: l.Href, Params: params}
}

// Client returns a client issuing every request against the link through
// parent. Templated links are expanded with the request params, which are then
// cleared. Other links replace the request path and keep its params.
func (l Link) Client(parent Client) Client {
	return linkTarget(parent, &l)
}

var linkTarget = Intercept(Handlers[Link, struct{}]{
	Request: func(_ context.Context, req *Request, link *Link, _ *Meta[struct{}]) (Dispatch, error) {
		if link.Templated {
			req.Path = uritemplate.Expand(link.Href, req.Params)
			req.Params = nil
		} else {
			req.Path = link.Href
		}
		return req, nil
	},
})

// LinksOf extracts the link map of an entity. It understands Linker values and
// decoded JSON objects with a HAL style "_links" member.
func LinksOf(entity any) (map[string]Link, bool) {
	switch e := entity.(type) {
	case Linker:
		links := e.Links()
		return links, links != nil
	case map[string]any:
		raw, ok := e["_links"]
		if !ok {
			return nil, false
		}
		return linksFromJSON(raw)
	}
	return nil, false
}

func linksFromJSON(raw any) (map[string]Link, bool) {
	switch m := raw.(type) {
	case map[string]Link:
		return m, true
	case map[string]any:
		links := make(map[string]Link, len(m))
		for rel, v := range m {
			// Relationships with multiple targets resolve to the first one.
			if list, ok := v.([]any); ok {
				if len(list) == 0 {
					continue
				}
				v = list[0]
			}
			obj, ok := v.(map[string]any)
			if !ok {
				continue
			}
			links[rel] = LinkFromJSON(rel, obj)
		}
		return links, true
	}
	return nil, false
}

// LinkFromJSON builds a Link from a decoded JSON link object.
func LinkFromJSON(rel string, obj map[string]any) Link {
	l := Link{Rel: rel}
	l.Href = stringOf(obj["href"])
	l.Title = stringOf(obj["title"])
	l.Type = stringOf(obj["type"])
	l.Name = stringOf(obj["name"])
	l.Deprecation = stringOf(obj["deprecation"])
	if t, ok := obj["templated"].(bool); ok {
		l.Templated = t
	}
	return l
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
