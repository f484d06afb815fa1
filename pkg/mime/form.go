package mime

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/luizaranda/go-rest/pkg/urlbuilder"
)

// FormURLEncoded is the application/x-www-form-urlencoded converter.
//
// Writes accept map[string]any, map[string]string, map[string][]string and
// url.Values. Keys are emitted in sorted order, slices become repeated keys
// and a nil value a bare key. Reads produce a map[string]any where repeated
// keys hold a []string and bare keys nil.
var FormURLEncoded Converter = formURLEncoded{}

type formURLEncoded struct{}

func (formURLEncoded) Read(_ context.Context, payload any, _ Options) (any, error) {
	s, err := payloadString(payload)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}

		var value any
		if hasValue {
			v, err := url.QueryUnescape(rawValue)
			if err != nil {
				return nil, err
			}
			value = v
		}

		prev, seen := out[key]
		if !seen {
			out[key] = value
			continue
		}
		s, _ := value.(string)
		switch p := prev.(type) {
		case []string:
			out[key] = append(p, s)
		case string:
			out[key] = []string{p, s}
		default:
			out[key] = []string{"", s}
		}
	}
	return out, nil
}

func (formURLEncoded) Write(_ context.Context, value any, _ Options) (any, error) {
	fields, err := formFields(value)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		name := formEncode(k)
		for _, v := range fieldValues(fields[k]) {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(name)
			if v != nil {
				b.WriteByte('=')
				b.WriteString(formEncode(*v))
			}
		}
	}
	return b.String(), nil
}

func formEncode(s string) string {
	return strings.ReplaceAll(urlbuilder.EncodeComponent(s), "%20", "+")
}

func formFields(value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	case url.Values:
		return formFields(map[string][]string(v))
	case map[string][]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("mime: cannot encode %T as a form", value)
	}
}

// fieldValues flattens a field into its values, a nil entry standing for a
// bare key.
func fieldValues(v any) []*string {
	str := func(s string) *string { return &s }
	switch t := v.(type) {
	case nil:
		return []*string{nil}
	case string:
		return []*string{str(t)}
	case []string:
		out := make([]*string, len(t))
		for i, s := range t {
			out[i] = str(s)
		}
		return out
	case []any:
		var out []*string
		for _, item := range t {
			out = append(out, fieldValues(item)...)
		}
		return out
	default:
		return []*string{str(fmt.Sprint(t))}
	}
}
