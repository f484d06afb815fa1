package interceptor

import (
	"context"
	"net/url"
	"strings"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// PathPrefixConfig configures the PathPrefix interceptor.
type PathPrefixConfig struct {
	Prefix string
}

// PathPrefix prepends Prefix to request paths, joined by exactly one slash.
// Fully qualified paths are left alone.
var PathPrefix = rest.Intercept(rest.Handlers[PathPrefixConfig, struct{}]{
	Request: func(_ context.Context, req *rest.Request, config *PathPrefixConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		if config.Prefix == "" || isAbsoluteURL(req.Path) {
			return req, nil
		}
		req.Path = joinPath(config.Prefix, req.Path)
		return req, nil
	},
})

func joinPath(prefix, path string) string {
	if path == "" {
		return prefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(path, "/")
}

func isAbsoluteURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.IsAbs()
}
