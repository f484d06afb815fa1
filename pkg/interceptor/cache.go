package interceptor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v2"

	"github.com/luizaranda/go-rest/pkg/rest"
	"github.com/luizaranda/go-rest/pkg/urlbuilder"
)

// CachedHeader marks responses served by Cache.
const CachedHeader = "X-From-Cache"

// MiB is a size in mebibytes.
type MiB int64

func (m MiB) bytes() int64 { return int64(m) * 1024 * 1024 }

// CacheConfig configures the Cache interceptor.
type CacheConfig struct {
	// MaxSize bounds the memory held by cached responses. Defaults to 64MiB.
	MaxSize MiB `validate:"gte=0"`

	// TTL is the lifetime of cached responses. Defaults to one hour.
	TTL time.Duration `validate:"gte=0"`

	// Cache replaces the cache built from MaxSize, for instance to share it
	// between clients.
	Cache *ccache.Cache
}

// Close stops the background goroutine of the cache.
func (c *CacheConfig) Close() {
	if c.Cache != nil {
		c.Cache.Stop()
	}
}

type cacheState struct {
	key string
}

// cachedResponse is the stored form of a response. Only raw entities are
// cached, so Cache belongs between the root client and Mime.
type cachedResponse struct {
	status  rest.Status
	headers http.Header
	entity  any
	size    int64
}

// Size implements ccache.Sized. ccache has an overhead of ~350 bytes per
// entry that it does not account for.
func (c *cachedResponse) Size() int64 { return c.size + 350 }

// Cache serves repeated GET requests from an in-memory cache. Successful
// responses with a textual entity are stored unless they are marked no-store.
// Entries are keyed by URL, Accept and Authorization, so Cache must be placed
// outside the interceptors setting those headers.
var Cache = rest.Intercept(rest.Handlers[CacheConfig, cacheState]{
	Init: func(config *CacheConfig) {
		if config.TTL == 0 {
			config.TTL = time.Hour
		}
		if config.Cache != nil {
			return
		}
		if config.MaxSize == 0 {
			config.MaxSize = 64
		}
		prune := uint32(config.MaxSize) / 10
		if prune == 0 {
			prune = 1
		}
		config.Cache = ccache.New(ccache.Configure().MaxSize(config.MaxSize.bytes()).ItemsToPrune(prune))
	},
	Request: func(_ context.Context, req *rest.Request, config *CacheConfig, meta *rest.Meta[cacheState]) (rest.Dispatch, error) {
		if !cacheable(req) {
			return req, nil
		}
		key := cacheKey(req)

		item := config.Cache.Get(key)
		if item == nil || item.Expired() {
			meta.State.key = key
			return req, nil
		}
		cached := item.Value().(*cachedResponse)
		headers := cached.headers.Clone()
		headers.Set(CachedHeader, "1")
		return rest.UseResponse{Response: &rest.Response{
			Request: req,
			Status:  cached.status,
			Headers: headers,
			Entity:  cached.entity,
		}}, nil
	},
	Success: func(_ context.Context, resp *rest.Response, config *CacheConfig, meta *rest.Meta[cacheState]) (*rest.Response, error) {
		if meta.State.key == "" || resp.Status.Code < 200 || resp.Status.Code > 299 {
			return resp, nil
		}
		if strings.Contains(strings.ToLower(resp.Header("Cache-Control")), "no-store") {
			return resp, nil
		}

		var size int64
		switch e := resp.Entity.(type) {
		case nil:
		case string:
			size = int64(len(e))
		case []byte:
			size = int64(len(e))
		default:
			return resp, nil
		}
		for k, vs := range resp.Headers {
			for _, v := range vs {
				size += int64(len(k) + len(v))
			}
		}

		config.Cache.Set(meta.State.key, &cachedResponse{
			status:  resp.Status,
			headers: resp.Headers.Clone(),
			entity:  resp.Entity,
			size:    size,
		}, config.TTL)
		return resp, nil
	},
})

// Responses vary with the representation and the credentials asked for.
var _cacheVary = []string{"Accept", "Authorization"}

func cacheKey(req *rest.Request) string {
	var b strings.Builder
	b.WriteString(http.MethodGet + " " + urlbuilder.New(req.Path, req.Params).Build())
	for _, name := range _cacheVary {
		b.WriteString("\n" + name + ": " + strings.Join(req.Headers.Values(name), ", "))
	}
	return b.String()
}

func cacheable(req *rest.Request) bool {
	switch req.Method {
	case http.MethodGet:
		return true
	case "":
		return req.Entity == nil
	}
	return false
}
