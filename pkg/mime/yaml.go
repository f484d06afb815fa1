package mime

import (
	"context"

	"gopkg.in/yaml.v3"
)

// YAML is the application/yaml converter.
var YAML Converter = yamlConverter{}

type yamlConverter struct{}

func (yamlConverter) Read(_ context.Context, payload any, _ Options) (any, error) {
	s, err := payloadString(payload)
	if err != nil {
		return nil, err
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (yamlConverter) Write(_ context.Context, value any, _ Options) (any, error) {
	b, err := yaml.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
