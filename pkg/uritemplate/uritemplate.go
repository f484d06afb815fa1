// Package uritemplate expands RFC 6570 URI Templates, up to level 4.
//
// Values may be scalars (strings, numbers, booleans, fmt.Stringer), lists
// ([]string, []any or any other slice) or associative arrays (Pairs for an
// explicit order, or any map, expanded in sorted key order). Nil values and
// empty lists or maps are undefined and vanish from the expansion.
package uritemplate

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Pair is a key/value entry of an ordered associative value.
type Pair struct {
	Key   string
	Value any
}

// Pairs is an associative value that keeps its insertion order.
type Pairs []Pair

type operator struct {
	first         string
	sep           string
	named         bool
	ifEmpty       string
	allowReserved bool
}

var _operators = map[byte]operator{
	'+': {first: "", sep: ",", allowReserved: true},
	'#': {first: "#", sep: ",", allowReserved: true},
	'.': {first: ".", sep: "."},
	'/': {first: "/", sep: "/"},
	';': {first: ";", sep: ";", named: true},
	'?': {first: "?", sep: "&", named: true, ifEmpty: "="},
	'&': {first: "&", sep: "&", named: true, ifEmpty: "="},
}

var _simple = operator{sep: ","}

// Expand substitutes params into template. It never fails: unknown variables
// expand to nothing and an unterminated expression is kept literally.
func Expand(template string, params map[string]any) string {
	var b strings.Builder
	b.Grow(len(template))

	for {
		start := strings.IndexByte(template, '{')
		if start < 0 {
			b.WriteString(template)
			return b.String()
		}
		end := strings.IndexByte(template[start:], '}')
		if end < 0 {
			b.WriteString(template)
			return b.String()
		}
		end += start

		b.WriteString(template[:start])
		expandExpression(&b, template[start+1:end], params)
		template = template[end+1:]
	}
}

type varspec struct {
	name    string
	prefix  int
	explode bool
}

func parseVarspec(s string) varspec {
	spec := varspec{name: s}
	if strings.HasSuffix(s, "*") {
		spec.name = s[:len(s)-1]
		spec.explode = true
		return spec
	}
	if name, n, ok := strings.Cut(s, ":"); ok {
		if max, err := strconv.Atoi(n); err == nil && max > 0 {
			spec.name = name
			spec.prefix = max
		}
	}
	return spec
}

func expandExpression(b *strings.Builder, expr string, params map[string]any) {
	op := _simple
	if expr != "" {
		if o, ok := _operators[expr[0]]; ok {
			op = o
			expr = expr[1:]
		}
	}

	first := true
	for _, raw := range strings.Split(expr, ",") {
		spec := parseVarspec(strings.TrimSpace(raw))
		if spec.name == "" {
			continue
		}
		v, ok := classify(params[spec.name])
		if !ok {
			continue
		}

		if first {
			b.WriteString(op.first)
			first = false
		} else {
			b.WriteString(op.sep)
		}
		v.expand(b, spec, op)
	}
}

// value is a defined template value.
type value struct {
	scalar string
	list   []string
	pairs  []Pair
	kind   int
}

const (
	kindScalar = iota
	kindList
	kindPairs
)

func classify(v any) (value, bool) {
	switch t := v.(type) {
	case nil:
		return value{}, false
	case string:
		return value{scalar: t}, true
	case fmt.Stringer:
		return value{scalar: t.String()}, true
	case []string:
		if len(t) == 0 {
			return value{}, false
		}
		return value{list: t, kind: kindList}, true
	case Pairs:
		pairs := make([]Pair, 0, len(t))
		for _, p := range t {
			if s, ok := stringify(p.Value); ok {
				pairs = append(pairs, Pair{Key: p.Key, Value: s})
			}
		}
		if len(pairs) == 0 {
			return value{}, false
		}
		return value{pairs: pairs, kind: kindPairs}, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := stringify(rv.Index(i).Interface()); ok {
				list = append(list, s)
			}
		}
		if len(list) == 0 {
			return value{}, false
		}
		return value{list: list, kind: kindList}, true
	case reflect.Map:
		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if s, ok := stringify(iter.Value().Interface()); ok {
				pairs = append(pairs, Pair{Key: fmt.Sprint(iter.Key().Interface()), Value: s})
			}
		}
		if len(pairs) == 0 {
			return value{}, false
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
		return value{pairs: pairs, kind: kindPairs}, true
	case reflect.Pointer:
		if rv.IsNil() {
			return value{}, false
		}
		return classify(rv.Elem().Interface())
	}

	s, ok := stringify(v)
	return value{scalar: s}, ok
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), true
	}
	return fmt.Sprint(v), true
}

func (v value) expand(b *strings.Builder, spec varspec, op operator) {
	switch v.kind {
	case kindScalar:
		s := v.scalar
		if spec.prefix > 0 {
			s = truncate(s, spec.prefix)
		}
		if op.named {
			b.WriteString(encode(spec.name, false))
			if s == "" {
				b.WriteString(op.ifEmpty)
				return
			}
			b.WriteByte('=')
		}
		b.WriteString(encode(s, op.allowReserved))

	case kindList:
		if !spec.explode {
			if op.named {
				b.WriteString(encode(spec.name, false))
				b.WriteByte('=')
			}
			for i, item := range v.list {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(encode(item, op.allowReserved))
			}
			return
		}
		for i, item := range v.list {
			if i > 0 {
				b.WriteString(op.sep)
			}
			if op.named {
				b.WriteString(encode(spec.name, false))
				if item == "" {
					b.WriteString(op.ifEmpty)
					continue
				}
				b.WriteByte('=')
			}
			b.WriteString(encode(item, op.allowReserved))
		}

	case kindPairs:
		if !spec.explode {
			if op.named {
				b.WriteString(encode(spec.name, false))
				b.WriteByte('=')
			}
			for i, p := range v.pairs {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(encode(p.Key, op.allowReserved))
				b.WriteByte(',')
				b.WriteString(encode(p.Value.(string), op.allowReserved))
			}
			return
		}
		for i, p := range v.pairs {
			if i > 0 {
				b.WriteString(op.sep)
			}
			val := p.Value.(string)
			b.WriteString(encode(p.Key, op.allowReserved))
			if op.named && val == "" {
				b.WriteString(op.ifEmpty)
				continue
			}
			b.WriteByte('=')
			b.WriteString(encode(val, op.allowReserved))
		}
	}
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

const _upperhex = "0123456789ABCDEF"

// encode percent-encodes s. Unreserved characters always pass through; with
// allowReserved, reserved characters and existing pct-encoded triplets do too.
func encode(s string, allowReserved bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case allowReserved && isReserved(c):
			b.WriteByte(c)
		case allowReserved && c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteString(s[i : i+3])
			i += 2
		default:
			b.WriteByte('%')
			b.WriteByte(_upperhex[c>>4])
			b.WriteByte(_upperhex[c&15])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func isReserved(c byte) bool {
	return strings.IndexByte(":/?#[]@!$&'()*+,;=", c) >= 0
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
