// Package urlbuilder builds URLs from simple path templates, where each
// {name} placeholder is replaced by the url-encoded value of the matching
// param and every param left over is appended to the query string.
package urlbuilder

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"
)

// ErrNotFullyQualified is returned by Parts when the URL can't be qualified
// against the builder location.
var ErrNotFullyQualified = errors.New("urlbuilder: url is not fully qualified")

var (
	_absoluteURL       = regexp.MustCompile(`(?i)^([a-z][a-z0-9\-+.]*://|/)`)
	_fullyQualifiedURL = regexp.MustCompile(`(?i)^([a-z][a-z0-9+\-.]*:)//([^@]+@)?(([^:/]+)(:([0-9]+))?)?(/[^?#]*)(\?[^#]*)?(#\S*)?$`)
)

// Builder is an immutable URL template plus its params.
type Builder struct {
	template string
	params   map[string]any
	location *url.URL
}

// Option configures a Builder.
type Option func(b *Builder)

// WithLocation sets the URL of the current execution context. It is used to
// qualify relative URLs and to tell whether a URL is cross-origin.
func WithLocation(location *url.URL) Option {
	return func(b *Builder) {
		b.location = location
	}
}

// New returns a builder for template and params. Params are copied.
func New(template string, params map[string]any, opts ...Option) *Builder {
	b := &Builder{
		template: template,
		params:   copyParams(params, nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append returns a new builder whose template is the concatenation of both
// templates. Params given here override those of the receiver.
func (b *Builder) Append(template string, params map[string]any) *Builder {
	return &Builder{
		template: b.template + template,
		params:   copyParams(b.params, params),
		location: b.location,
	}
}

// Build expands the template. Placeholders without a matching param are kept
// as is.
func (b *Builder) Build() string {
	used := make(map[string]bool, len(b.params))

	built := fasttemplate.ExecuteFuncString(b.template, "{", "}", func(w io.Writer, tag string) (int, error) {
		v, ok := b.params[tag]
		if !ok {
			return io.WriteString(w, "{"+tag+"}")
		}
		used[tag] = true
		return io.WriteString(w, EncodeComponent(stringOf(v)))
	})

	names := make([]string, 0, len(b.params))
	for name := range b.params {
		if !used[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(built)
	sep := "?"
	if strings.Contains(built, "?") {
		sep = "&"
	}
	for _, name := range names {
		sb.WriteString(sep)
		sep = "&"
		sb.WriteString(EncodeComponent(name))
		if v := b.params[name]; v != nil {
			sb.WriteByte('=')
			sb.WriteString(EncodeComponent(stringOf(v)))
		}
	}
	return sb.String()
}

// String returns the built URL.
func (b *Builder) String() string { return b.Build() }

// IsAbsolute reports whether the URL has a scheme or starts with a slash.
func (b *Builder) IsAbsolute() bool {
	return _absoluteURL.MatchString(b.Build())
}

// IsFullyQualified reports whether the URL has a scheme, an authority and a
// path.
func (b *Builder) IsFullyQualified() bool {
	return _fullyQualifiedURL.MatchString(b.Build())
}

// FullyQualify returns a builder for the URL resolved against the builder
// location. Without a location only scheme-qualified URLs are normalized.
func (b *Builder) FullyQualify() *Builder {
	built := b.Build()

	u, err := url.Parse(built)
	if err != nil {
		return b
	}
	if u.Scheme == "" {
		if b.location == nil {
			return b
		}
		if built == "" {
			u = &url.URL{Scheme: b.location.Scheme, Host: b.location.Host, Path: b.location.Path}
		} else {
			u = b.location.ResolveReference(u)
		}
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}

	return &Builder{template: u.String(), location: b.location}
}

// IsCrossOrigin reports whether the URL targets a different origin than the
// builder location. Without a location every URL is cross-origin.
func (b *Builder) IsCrossOrigin() bool {
	if b.location == nil {
		return true
	}
	parts, err := b.Parts()
	if err != nil {
		return true
	}
	here, err := New(b.location.String(), nil).Parts()
	if err != nil {
		return true
	}
	return parts.Protocol != here.Protocol || parts.Hostname != here.Hostname || parts.Port != here.Port
}

// Parts is the decomposition of a fully qualified URL, named after the
// properties of a browser location.
type Parts struct {
	Href     string
	Protocol string
	Host     string
	Hostname string
	Port     string
	Origin   string
	Pathname string
	Search   string
	Hash     string
}

// Parts decomposes the URL, qualifying it against the builder location first
// when needed.
func (b *Builder) Parts() (Parts, error) {
	href := b.Build()
	if !_fullyQualifiedURL.MatchString(href) {
		href = b.FullyQualify().Build()
	}

	m := _fullyQualifiedURL.FindStringSubmatch(href)
	if m == nil {
		return Parts{}, fmt.Errorf("%w: %q", ErrNotFullyQualified, href)
	}

	p := Parts{
		Href:     href,
		Protocol: strings.ToLower(m[1]),
		Host:     m[3],
		Hostname: m[4],
		Port:     m[6],
		Pathname: m[7],
		Search:   m[8],
		Hash:     m[9],
	}
	if p.Port == "" {
		switch p.Protocol {
		case "http:":
			p.Port = "80"
		case "https:":
			p.Port = "443"
		}
	}
	if p.Pathname == "" {
		p.Pathname = "/"
	}
	p.Origin = p.Protocol + "//" + p.Host
	return p, nil
}

func copyParams(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// EncodeComponent escapes s the way encodeURIComponent does in browsers:
// everything but letters, digits and -_.!~*'() is percent-encoded.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
			strings.IndexByte("-_.!~*'()", c) >= 0 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&15])
	}
	return sb.String()
}
