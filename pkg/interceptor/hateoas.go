package interceptor

import (
	"context"
	"strings"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// HateoasConfig configures the Hateoas interceptor.
type HateoasConfig struct {
	// Target is the entity member receiving the "<rel>Link" entries. Empty
	// places them on the entity itself.
	Target string
}

// Hateoas collects the hypermedia links of a response into
// rest.Response.Links, so they can be followed with ResponsePromise.Follow.
//
// Links come from RFC 5988 Link headers and from a "links" array of
// {rel, href} objects in map entities. The latter are also exposed on the
// entity as "<rel>Link" members.
var Hateoas = rest.Intercept(rest.Handlers[HateoasConfig, struct{}]{
	Response: func(_ context.Context, resp *rest.Response, config *HateoasConfig, _ *rest.Meta[struct{}]) (*rest.Response, error) {
		links := ParseLinkHeader(resp.Headers.Values("Link"))
		for rel, l := range entityLinks(resp.Entity, config.Target) {
			links[rel] = l
		}
		if len(links) == 0 {
			return resp, nil
		}

		if resp.Links == nil {
			resp.Links = make(map[string]rest.Link, len(links))
		}
		for rel, l := range links {
			resp.Links[rel] = l
		}
		return resp, nil
	},
})

// ClientFor returns a client fetching link through parent. A nil parent means
// the default client.
func ClientFor(link rest.Link, parent rest.Client) rest.Client {
	return link.Client(parent)
}

func entityLinks(entity any, target string) map[string]rest.Link {
	obj, ok := entity.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := obj["links"].([]any)
	if !ok {
		return nil
	}

	host := obj
	if target != "" {
		if existing, ok := obj[target].(map[string]any); ok {
			host = existing
		} else {
			host = make(map[string]any)
			obj[target] = host
		}
	}

	links := make(map[string]rest.Link, len(raw))
	for _, item := range raw {
		l, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rel, _ := l["rel"].(string)
		if rel == "" {
			continue
		}
		host[rel+"Link"] = l
		links[rel] = rest.LinkFromJSON(rel, l)
	}
	return links
}

// ParseLinkHeader parses RFC 5988 Link header values into links keyed by
// relationship. Each value may hold several comma separated links. Malformed
// links are skipped.
func ParseLinkHeader(values []string) map[string]rest.Link {
	links := make(map[string]rest.Link)
	for _, v := range values {
		for _, raw := range splitLinks(v) {
			parseLink(raw, links)
		}
	}
	return links
}

// splitLinks splits a header value on the commas separating links, ignoring
// commas inside URIs and quoted strings.
func splitLinks(s string) []string {
	var (
		out     []string
		start   int
		inURI   bool
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && !inURI:
			inQuote = !inQuote
		case c == '<' && !inQuote:
			inURI = true
		case c == '>' && !inQuote:
			inURI = false
		case c == ',' && !inURI && !inQuote:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func parseLink(s string, links map[string]rest.Link) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return
	}

	l := rest.Link{Href: strings.TrimSpace(s[1:end])}
	var rels []string
	for _, param := range strings.Split(s[end+1:], ";") {
		k, v, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		v = strings.Trim(strings.TrimSpace(v), `"`)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "rel":
			rels = strings.Fields(v)
		case "title":
			l.Title = v
		case "type":
			l.Type = v
		case "name":
			l.Name = v
		case "deprecation":
			l.Deprecation = v
		case "templated":
			l.Templated = v == "true"
		}
	}

	for _, rel := range rels {
		l.Rel = rel
		links[rel] = l
	}
}
