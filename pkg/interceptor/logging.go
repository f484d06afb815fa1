package interceptor

import (
	"context"
	"time"

	"github.com/luizaranda/go-rest/pkg/log"
	"github.com/luizaranda/go-rest/pkg/rest"
)

// LoggingConfig configures the Logging interceptor.
type LoggingConfig struct {
	// Logger receives the logs. Defaults to the logger of the invocation
	// context.
	Logger log.Logger

	// IncludeRequest adds the request headers and entity to the logs.
	IncludeRequest bool

	// IncludeResponse adds the response headers and entity to the logs.
	IncludeResponse bool
}

type loggingState struct {
	start time.Time
}

// Logging logs every invocation: completed ones at debug level and failed
// ones at warn level.
var Logging = rest.Intercept(rest.Handlers[LoggingConfig, loggingState]{
	Request: func(_ context.Context, req *rest.Request, _ *LoggingConfig, meta *rest.Meta[loggingState]) (rest.Dispatch, error) {
		meta.State.start = time.Now()
		return req, nil
	},
	Response: func(ctx context.Context, resp *rest.Response, config *LoggingConfig, meta *rest.Meta[loggingState]) (*rest.Response, error) {
		logger := config.Logger
		if logger == nil {
			logger = log.FromContext(ctx)
		}

		// Avoid building fields nobody is going to see.
		if resp.Error == nil && logger.Level() > log.DebugLevel {
			return resp, nil
		}

		req := resp.Request
		fields := []log.Field{
			log.String("method", req.Method),
			log.String("path", req.Path),
			log.Int("status", resp.Status.Code),
			log.Duration("elapsed", time.Since(meta.State.start)),
		}
		if config.IncludeRequest {
			fields = append(fields,
				log.Any("request_headers", req.Headers),
				log.Any("request_entity", req.Entity),
			)
		}
		if config.IncludeResponse {
			fields = append(fields,
				log.Any("response_headers", resp.Headers),
				log.Any("response_entity", resp.Entity),
			)
		}

		if resp.Error != nil {
			logger.Warn("request failed", append(fields, log.Err(resp.Error))...)
			return resp, nil
		}
		logger.Debug("request completed", fields...)
		return resp, nil
	},
})
