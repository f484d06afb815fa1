package interceptor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/rest"
)

// LocationConfig configures the Location interceptor.
type LocationConfig struct {
	// Code is the lowest status code whose Location header is followed. Zero
	// follows any response carrying the header.
	Code int `validate:"gte=0"`

	// Client issues the follow-up requests. Defaults to the parent client.
	Client rest.Client

	// MaxRedirects bounds the number of followed locations. Defaults to 10.
	MaxRedirects int `validate:"gte=0"`
}

// Location follows the Location header of successful responses with GET
// requests until a response without one is received.
var Location = rest.Intercept(rest.Handlers[LocationConfig, struct{}]{
	Init: func(config *LocationConfig) {
		if config.MaxRedirects == 0 {
			config.MaxRedirects = 10
		}
	},
	Success: func(ctx context.Context, resp *rest.Response, config *LocationConfig, meta *rest.Meta[struct{}]) (*rest.Response, error) {
		client := config.Client
		if client == nil {
			client = meta.Client.Skip()
		}

		for redirects := 0; ; redirects++ {
			location := resp.Header("Location")
			if location == "" || resp.Status.Code < config.Code {
				return resp, nil
			}
			if redirects == config.MaxRedirects {
				log.Warn(ctx, "too many redirects",
					log.String("location", location),
					log.Int("max_redirects", config.MaxRedirects))
				return resp, fmt.Errorf("%w: %d", rest.ErrTooManyRedirects, config.MaxRedirects)
			}

			var err error
			resp, err = client.Do(ctx, &rest.Request{
				Method: http.MethodGet,
				Path:   resolveLocation(resp.Request, location),
			})
			if err != nil {
				return resp, err
			}
		}
	},
})

// resolveLocation resolves location against the path of the request that
// received it when that path is an absolute URL.
func resolveLocation(req *rest.Request, location string) string {
	if req == nil {
		return location
	}
	base, err := url.Parse(req.Path)
	if err != nil || !base.IsAbs() {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}
