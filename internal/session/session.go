// Package session represents a single client connection as seen by the
// server loop: the socket, its readiness descriptor and the little
// request state carried between reads.
package session

import (
	"fmt"
	"net"
	"syscall"
	"time"

	"httpredirect/internal/scanner"
	"httpredirect/util"
)

// Session encapsulates the runtime state of one accepted connection.
// It is owned by a single slot of the server's connection table and is
// only touched from the loop goroutine.
type Session struct {
	Conn     net.Conn
	FD       int           // descriptor polled for read readiness
	State    scanner.State // terminator matcher position
	Probe    bool          // Host named the captive-portal domain
	Addr     string        // client IP, the cache key
	Accepted time.Time

	closed bool
}

// New creates a Session for conn.  The descriptor is taken from the
// connection so the loop can poll it directly.
func New(conn net.Conn) (*Session, error) {
	fd, err := FD(conn)
	if err != nil {
		return nil, err
	}
	return &Session{
		Conn:     conn,
		FD:       fd,
		State:    scanner.Start,
		Addr:     util.ClientIP(conn.RemoteAddr()),
		Accepted: time.Now(),
	}, nil
}

// Done reports whether the request headers have been fully received.
func (s *Session) Done() bool { return s.State == scanner.Done }

// Close closes the underlying connection.  Only the first call has an
// effect.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Conn.Close()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// FD returns the OS descriptor behind c.  The value stays valid until c
// is closed.
func FD(c any) (int, error) {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("%T does not expose a descriptor", c)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	if err := rc.Control(func(s uintptr) { fd = int(s) }); err != nil {
		return -1, err
	}
	return fd, nil
}
