// Package server implements the request-serving loop.
//
// A single goroutine owns the listener, the connection table, the read
// buffer and the response templates.  Each tick it polls every socket
// for readiness with a bounded timeout, accepts at most one new
// connection, gives each ready connection exactly one read and answers
// any request whose headers are complete.  Population tasks running on
// their own goroutines reach shared state only through the cache.
package server

import (
	"context"
	"net"
	"time"

	"httpredirect/internal/errors"
	"httpredirect/internal/metrics"
	"httpredirect/internal/response"
	"httpredirect/internal/scanner"
	"httpredirect/internal/session"
	"httpredirect/internal/transport"
	"httpredirect/util"
)

// Lookuper is the read side of the probe cache.
type Lookuper interface {
	Lookup(key string) ([]byte, bool)
}

// Scheduler arms a delayed cache population for a client.
type Scheduler interface {
	Schedule(key string)
}

// Deps are the collaborators the loop dispatches to.  Metrics may be
// nil.
type Deps struct {
	Templates *response.Templates
	Cache     Lookuper
	Scheduler Scheduler
	Logger    *util.Logger
	Metrics   *metrics.Collector
}

// Options tune the loop.
type Options struct {
	MaxConns       int
	ReadBufferSize int
	PollInterval   time.Duration
	WriteTimeout   time.Duration
	ProbeDomain    string
}

// Server is the request-serving loop.  Run it once.
type Server struct {
	ln      *net.TCPListener
	deps    Deps
	opts    Options
	domain  []byte
	table   *table
	poller  *poller
	buf     []byte
	running bool
}

// New prepares a loop serving ln.  The listener stays owned by the
// caller, which closes it after Run returns.
func New(ln *net.TCPListener, deps Deps, opts Options) (*Server, error) {
	if deps.Templates == nil || deps.Cache == nil || deps.Scheduler == nil || deps.Logger == nil {
		return nil, errors.New("server: missing dependency")
	}
	if opts.MaxConns < 1 || opts.ReadBufferSize < 1 || opts.PollInterval <= 0 {
		return nil, errors.New("server: invalid options")
	}
	fd, err := session.FD(ln)
	if err != nil {
		return nil, errors.Wrap("listen", ln.Addr().String(), err)
	}
	return &Server{
		ln:     ln,
		deps:   deps,
		opts:   opts,
		domain: []byte(opts.ProbeDomain),
		table:  newTable(opts.MaxConns),
		poller: newPoller(fd, opts.MaxConns),
		buf:    make([]byte, opts.ReadBufferSize),
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Run serves until ctx is cancelled, noticing cancellation within one
// poll interval.  Sessions still pending at that point are closed
// without a response.  Run returns nil on cancellation; a non-nil error
// means readiness polling itself failed.
func (s *Server) Run(ctx context.Context) error {
	if s.running {
		return errors.ErrServerClosed
	}
	s.running = true
	defer s.shutdown()

	s.deps.Logger.Info("listening on %s", transport.Addr(s.ln))

	for {
		if ctx.Err() != nil {
			return nil
		}

		lnReady, ready, err := s.poller.wait(s.table.Sessions(), s.opts.PollInterval)
		if err != nil {
			return errors.Wrap("poll", s.ln.Addr().String(), err)
		}

		if ctx.Err() != nil {
			return nil
		}

		if lnReady {
			s.accept()
		}
		for _, sess := range ready {
			if !sess.Closed() {
				s.serve(sess)
			}
		}
		s.table.Compact()
	}
}

// ── accept ───────────────────────────────────────────────────────────

func (s *Server) accept() {
	if s.table.Full() {
		if victim := s.table.EvictOldest(); victim != nil {
			s.deps.Logger.Verbose("connection table full, dropping %s (idle %s)",
				victim.Addr, time.Since(victim.Accepted).Truncate(time.Millisecond))
			s.deps.Metrics.ConnectionEvicted()
			s.close(victim)
		}
	}

	// The peer may have gone between the poll and the accept; never let
	// that stall the loop.
	_ = s.ln.SetDeadline(time.Now().Add(s.opts.PollInterval))
	conn, err := s.ln.Accept()
	if err != nil {
		switch {
		case util.IsTimeout(err):
		case errors.IsRetryable(err):
			// e.g. descriptor exhaustion; the next tick tries again.
			s.deps.Logger.Verbose("accept: %v", err)
		default:
			s.deps.Logger.Warn("accept: %v", err)
			s.deps.Metrics.RecordError("accept: " + err.Error())
		}
		return
	}

	sess, err := session.New(conn)
	if err != nil {
		s.deps.Logger.Warn("accept: %v", err)
		s.deps.Metrics.RecordError("accept: " + err.Error())
		_ = conn.Close()
		return
	}
	s.table.Add(sess)
	s.deps.Metrics.ConnectionOpened()
	s.deps.Logger.Verbose("connection from %s", sess.Addr)
}

// ── serve ────────────────────────────────────────────────────────────

// serve performs the single read a ready session gets this tick.
func (s *Server) serve(sess *session.Session) {
	_ = sess.Conn.SetReadDeadline(time.Now().Add(s.opts.PollInterval))
	n, err := sess.Conn.Read(s.buf)
	if n == 0 || err != nil {
		if err != nil && !util.IsHarmless(err) && !util.IsTimeout(err) {
			s.deps.Logger.Warn("read from %s: %v", sess.Addr, err)
			s.deps.Metrics.RecordError("read: " + err.Error())
		}
		s.close(sess)
		return
	}
	s.deps.Metrics.BytesReceived(int64(n))

	chunk := s.buf[:n]
	if !sess.Probe && scanner.IsProbe(chunk, s.domain) {
		sess.Probe = true
		s.deps.Logger.Verbose("captive portal probe from %s", sess.Addr)
	}

	sess.State = scanner.Scan(sess.State, chunk)
	if sess.Done() {
		s.dispatch(sess)
		s.close(sess)
	}
}

// dispatch picks the response for a complete request and sends it.
func (s *Server) dispatch(sess *session.Session) {
	kind := response.KindRedirect
	switch {
	case !sess.Probe:
		s.deps.Metrics.Redirect()
	default:
		if _, ok := s.deps.Cache.Lookup(sess.Addr); ok {
			s.deps.Logger.Debug("cache hit for %s", sess.Addr)
			s.deps.Metrics.CacheHit()
			s.deps.Metrics.Success()
			kind = response.KindSuccess
		} else {
			s.deps.Logger.Debug("cache miss for %s", sess.Addr)
			s.deps.Metrics.CacheMiss()
			s.deps.Metrics.ProbeRedirect()
			s.deps.Scheduler.Schedule(sess.Addr)
			kind = response.KindProbe
		}
	}
	s.send(sess, s.deps.Templates.Get(kind))
}

// send writes a freshly rendered template.  net.Conn.Write keeps
// writing until the whole buffer is out or an error occurs, so a short
// write only happens together with an error.
func (s *Server) send(sess *session.Session, tmpl *response.Template) {
	_ = sess.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	n, err := sess.Conn.Write(tmpl.Render())
	s.deps.Metrics.BytesSent(int64(n))
	if err != nil {
		if !util.IsHarmless(err) {
			s.deps.Logger.Warn("send %s to %s: %v", tmpl.Kind(), sess.Addr, err)
			s.deps.Metrics.RecordError("send: " + err.Error())
		}
		return
	}
	s.deps.Logger.Verbose("sent %s to %s", tmpl.Kind(), sess.Addr)
}

// ── teardown ─────────────────────────────────────────────────────────

func (s *Server) close(sess *session.Session) {
	if sess.Closed() {
		return
	}
	_ = sess.Close()
	s.deps.Metrics.ConnectionClosed()
}

func (s *Server) shutdown() {
	for _, sess := range s.table.Sessions() {
		s.close(sess)
	}
	s.table.Compact()
	s.deps.Logger.Info("exiting serve loop")
	if s.deps.Metrics != nil {
		s.deps.Logger.Verbose("metrics:\n%s", s.deps.Metrics.JSON())
	}
}
