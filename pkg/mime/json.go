package mime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Hook transforms a JSON member while decoding or encoding. key is the member
// name, the array index in decimal, or "" for the root value. Returning Omit
// drops the member.
type Hook func(key string, value any) any

// Omit is returned by a Hook to drop a member.
var Omit = omit{}

type omit struct{}

// JSONCodec is the application/json converter. Decode runs bottom-up over the
// decoded value, Encode top-down over the generic form of the written value.
type JSONCodec struct {
	Decode Hook
	Encode Hook
}

// JSON is the application/json converter without hooks.
var JSON = JSONCodec{}

// Extend returns a copy of c using the given hooks. c is left unchanged.
func (c JSONCodec) Extend(decode, encode Hook) JSONCodec {
	c.Decode, c.Encode = decode, encode
	return c
}

func (c JSONCodec) Read(_ context.Context, payload any, _ Options) (any, error) {
	s, err := payloadString(payload)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	if c.Decode == nil {
		return v, nil
	}
	return dropOmitted(revive(c.Decode, "", v)), nil
}

func (c JSONCodec) Write(_ context.Context, value any, _ Options) (any, error) {
	if c.Encode != nil {
		generic, err := toGeneric(value)
		if err != nil {
			return nil, err
		}
		value = dropOmitted(replace(c.Encode, "", generic))
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func revive(h Hook, key string, v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, member := range t {
			if r := revive(h, k, member); r == Omit {
				delete(t, k)
			} else {
				t[k] = r
			}
		}
	case []any:
		for i, item := range t {
			t[i] = dropOmitted(revive(h, fmt.Sprint(i), item))
		}
	}
	return h(key, v)
}

func replace(h Hook, key string, v any) any {
	v = h(key, v)
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			if r := replace(h, k, t[k]); r != Omit {
				out[k] = r
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = dropOmitted(replace(h, fmt.Sprint(i), item))
		}
		return out
	}
	return v
}

func dropOmitted(v any) any {
	if v == Omit {
		return nil
	}
	return v
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
