package core

import (
	"context"
	"net"
	"sync"

	"httpredirect/internal/cache"
	"httpredirect/internal/metrics"
	"httpredirect/internal/populate"
	"httpredirect/internal/server"
	"httpredirect/util"
)

// ServeMode runs the redirect server on an already bound listener.
type ServeMode struct {
	Listener  *net.TCPListener
	Server    *server.Server
	Cache     *cache.Cache
	Scheduler *populate.Scheduler
	Metrics   *metrics.Collector
	Logger    *util.Logger

	closeOnce sync.Once
	closeErr  error
}

// Addr returns the bound listener address.
func (m *ServeMode) Addr() net.Addr { return m.Listener.Addr() }

// Run serves until ctx is cancelled, then releases the listener and the
// cache.  Population tasks still armed at that point find the cache
// closed and are dropped.
func (m *ServeMode) Run(ctx context.Context) error {
	defer m.Close()
	return m.Server.Run(ctx)
}

// Close releases the listener and the cache.  It is safe to call more
// than once and without Run, e.g. when setup after Build fails.
func (m *ServeMode) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.Listener.Close()
		m.Cache.Close()
		if n := m.Scheduler.Pending(); n > 0 {
			m.Logger.Debug("dropping %d pending cache insertions", n)
		}
	})
	return m.closeErr
}
