// Package mime negotiates entity representations. A Registry maps media types
// to converters that read response payloads into Go values and write Go values
// into request payloads.
package mime

import (
	"strings"
)

// Type is a parsed media type.
type Type struct {
	// Raw is the media type as given, parameters included.
	Raw string

	// Type is the media type without its structured syntax suffix, for
	// instance application/hal for application/hal+json.
	Type string

	// Suffix is the structured syntax suffix including its leading '+', or
	// empty.
	Suffix string

	Params map[string]string
}

// Parse parses a media type such as "application/hal+json; charset=utf-8".
// Parse never fails: malformed parameters are dropped.
func Parse(s string) Type {
	t := Type{Raw: s, Params: map[string]string{}}

	parts := strings.Split(s, ";")
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		t.Params[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	typ := strings.TrimSpace(parts[0])
	if i := strings.LastIndex(typ, "+"); i >= 0 {
		t.Type, t.Suffix = typ[:i], typ[i:]
	} else {
		t.Type = typ
	}
	return t
}

// String returns the media type without parameters.
func (t Type) String() string {
	return t.Type + t.Suffix
}
