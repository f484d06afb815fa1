package urlbuilder

import (
	"errors"
	"fmt"
	"reflect"
)

// ParamsOf extracts builder params from the exported fields of the struct v.
// The "param" tag names the param, defaulting to the field name, and a tag
// of "-" skips the field. Nil pointer fields become bare query names.
// ParamsOf panics if v is not a struct or a pointer to one.
func ParamsOf(v any) map[string]any {
	if v == nil {
		panic("urlbuilder: value is nil")
	}

	rv, err := reflectValue(v)
	if err != nil {
		panic(fmt.Errorf("urlbuilder: failed to obtain reflect value: %w", err))
	}

	params := make(map[string]any, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Type().Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("param")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = field.Name
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				params[tag] = nil
				continue
			}
			fv = fv.Elem()
		}
		params[tag] = fv.Interface()
	}

	return params
}

func reflectValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("value is not a struct or a pointer to a struct")
	}

	return rv, nil
}
