package interceptor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// RateLimitConfig configures the RateLimit interceptor.
type RateLimitConfig struct {
	// Limit is the sustained number of requests per second.
	Limit rate.Limit

	// Burst is the number of requests allowed at once. Defaults to 1.
	Burst int `validate:"gte=0"`

	// Limiter replaces Limit and Burst, for instance to share a limiter
	// between clients.
	Limiter *rate.Limiter
}

// RateLimit delays requests to honor a token bucket limiter. A request whose
// context ends while waiting fails with the context error.
var RateLimit = rest.Intercept(rest.Handlers[RateLimitConfig, struct{}]{
	Init: func(config *RateLimitConfig) {
		if config.Limiter != nil {
			return
		}
		if config.Burst == 0 {
			config.Burst = 1
		}
		config.Limiter = rate.NewLimiter(config.Limit, config.Burst)
	},
	Request: func(ctx context.Context, req *rest.Request, config *RateLimitConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		if err := config.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return req, nil
	},
})
