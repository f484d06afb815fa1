package transport

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
)

var _expvar = expvar.NewMap("rest.http.client.conn_pools")

// PooledTransport is an *http.Transport that counts the connections it holds
// open per network address. Counters are published through expvar under the
// transport name.
type PooledTransport struct {
	*http.Transport

	Name  string
	stats sync.Map
}

// NewPooled creates a transport with the given options and wraps it with
// NewPooledFromTransport.
func NewPooled(name string, opts ...Option) *PooledTransport {
	return NewPooledFromTransport(name, NewTransport(opts...))
}

// NewPooledFromTransport decorates the dialer of t so opened and closed
// connections are counted.
func NewPooledFromTransport(name string, t *http.Transport) *PooledTransport {
	pt := &PooledTransport{Transport: t, Name: name}

	dial := t.DialContext
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	t.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
		conn, err := dial(ctx, network, address)
		if err != nil {
			return nil, err
		}
		pt.track(network, address, 1)
		return &trackedConn{Conn: conn, onClose: func() { pt.track(network, address, -1) }}, nil
	}

	_expvar.Set(name, expvar.Func(func() any { return pt.Stats() }))

	return pt
}

func (t *PooledTransport) track(network, address string, delta int64) {
	value, _ := t.stats.LoadOrStore(network+":"+address, new(int64))
	atomic.AddInt64(value.(*int64), delta)
}

// Stats returns the number of open connections keyed by "network:address".
func (t *PooledTransport) Stats() map[string]int64 {
	stats := map[string]int64{}

	t.stats.Range(func(key, value any) bool {
		stats[key.(string)] = atomic.LoadInt64(value.(*int64))
		return true
	})

	return stats
}

type trackedConn struct {
	net.Conn

	once    sync.Once
	onClose func()
}

func (c *trackedConn) Close() error {
	defer c.once.Do(c.onClose)
	return c.Conn.Close()
}
