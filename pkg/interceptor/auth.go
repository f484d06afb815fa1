package interceptor

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/luizaranda/go-rest/pkg/rest"
)

// BasicAuthConfig holds the credentials sent by BasicAuth.
type BasicAuthConfig struct {
	Username string
	Password string
}

// BasicAuth authenticates requests with HTTP basic authentication. The
// AttrUsername and AttrPassword request attributes take precedence over the
// configuration. Nothing is sent without a username.
var BasicAuth = rest.Intercept(rest.Handlers[BasicAuthConfig, struct{}]{
	Request: func(_ context.Context, req *rest.Request, config *BasicAuthConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		username := stringAttr(req, AttrUsername, config.Username)
		password := stringAttr(req, AttrPassword, config.Password)
		if username == "" {
			return req, nil
		}
		req.SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(username+":"+password)))
		return req, nil
	},
})

// CSRFConfig configures the CSRF interceptor.
type CSRFConfig struct {
	// Name is the header carrying the token. Defaults to X-Csrf-Token.
	Name string

	Token string
}

// CSRF sends a cross-site request forgery token. The AttrCSRFToken and
// AttrCSRFTokenName request attributes take precedence over the
// configuration.
var CSRF = rest.Intercept(rest.Handlers[CSRFConfig, struct{}]{
	Init: func(config *CSRFConfig) {
		if config.Name == "" {
			config.Name = "X-Csrf-Token"
		}
	},
	Request: func(_ context.Context, req *rest.Request, config *CSRFConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		token := stringAttr(req, AttrCSRFToken, config.Token)
		if token == "" {
			return req, nil
		}
		req.SetHeader(stringAttr(req, AttrCSRFTokenName, config.Name), token)
		return req, nil
	},
})

// OAuthConfig configures the OAuth interceptor. Token takes precedence over
// TokenSource.
type OAuthConfig struct {
	// Token is a complete Authorization header value, such as "bearer abcxyz".
	Token string

	TokenSource oauth2.TokenSource

	cache *tokenCache
}

// OAuth authorizes requests with an OAuth token. Tokens obtained from the
// TokenSource are reused until they expire or a request is answered with 401
// Unauthorized.
var OAuth = rest.Intercept(rest.Handlers[OAuthConfig, struct{}]{
	Init: func(config *OAuthConfig) {
		if config.Token == "" && config.TokenSource != nil {
			config.cache = newTokenCache(config.TokenSource)
		}
	},
	Request: func(_ context.Context, req *rest.Request, config *OAuthConfig, _ *rest.Meta[struct{}]) (rest.Dispatch, error) {
		if config.Token != "" {
			req.SetHeader("Authorization", config.Token)
			return req, nil
		}
		if config.cache == nil {
			return req, nil
		}
		token, err := config.cache.Token()
		if err != nil {
			return nil, err
		}
		token.SetAuthHeader(rawRequest(req))
		return req, nil
	},
	Response: func(_ context.Context, resp *rest.Response, config *OAuthConfig, _ *rest.Meta[struct{}]) (*rest.Response, error) {
		if config.cache != nil && resp.Status.Code == http.StatusUnauthorized {
			config.cache.invalidate()
		}
		return resp, nil
	},
})

type tokenCache struct {
	source oauth2.TokenSource

	mu     sync.Mutex
	reused oauth2.TokenSource
}

func newTokenCache(source oauth2.TokenSource) *tokenCache {
	return &tokenCache{source: source, reused: oauth2.ReuseTokenSource(nil, source)}
}

func (c *tokenCache) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	ts := c.reused
	c.mu.Unlock()
	return ts.Token()
}

func (c *tokenCache) invalidate() {
	c.mu.Lock()
	c.reused = oauth2.ReuseTokenSource(nil, c.source)
	c.mu.Unlock()
}

// rawRequest exposes the headers of req as an *http.Request, for helpers
// operating on those.
func rawRequest(req *rest.Request) *http.Request {
	if req.Headers == nil {
		req.Headers = make(http.Header)
	}
	return &http.Request{Header: req.Headers}
}

func stringAttr(req *rest.Request, key, fallback string) string {
	if v, ok := req.Attr(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}
