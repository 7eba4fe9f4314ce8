// Package transport provides the listening side of the server: turning
// a configured bind host and port into a bound TCP listener.  What
// happens on accepted connections is the server loop's job.
package transport

import (
	"context"
	"net"
)

// Binder opens listening sockets.
type Binder interface {
	// Bind resolves host and listens on the first usable address.  An
	// empty host listens on every interface.
	Bind(ctx context.Context, host string, port int) (*net.TCPListener, error)
}
