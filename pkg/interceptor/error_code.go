package interceptor

import (
	"context"
	"net/http"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// ErrorCodeConfig configures the ErrorCode interceptor.
type ErrorCodeConfig struct {
	// Code is the lowest status code considered an error. Defaults to 400.
	Code int `validate:"gte=0"`
}

// ErrorCode fails responses whose status code is Code or above with a
// *rest.StatusError.
var ErrorCode = rest.Intercept(rest.Handlers[ErrorCodeConfig, struct{}]{
	Init: func(config *ErrorCodeConfig) {
		if config.Code == 0 {
			config.Code = http.StatusBadRequest
		}
	},
	Response: func(_ context.Context, resp *rest.Response, config *ErrorCodeConfig, _ *rest.Meta[struct{}]) (*rest.Response, error) {
		if resp.Error != nil {
			return resp, nil
		}
		if resp.Status.Code >= config.Code {
			return resp, &rest.StatusError{Response: resp}
		}
		return resp, nil
	},
})
