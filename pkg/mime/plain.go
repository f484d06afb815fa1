package mime

import (
	"context"
	"fmt"
)

// PlainText is the text/plain converter. Reads pass the payload through as a
// string, writes format any value with fmt.
var PlainText Converter = plainText{}

type plainText struct{}

func (plainText) Read(_ context.Context, payload any, _ Options) (any, error) {
	switch p := payload.(type) {
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	default:
		return fmt.Sprint(p), nil
	}
}

func (plainText) Write(_ context.Context, value any, _ Options) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}
