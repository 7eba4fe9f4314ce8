package transport

import (
	"context"
	"fmt"
	"net"

	"httpredirect/internal/errors"
	"httpredirect/util"
)

// Resolver looks up the addresses of a bind host.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// TCPBinder binds plain TCP listeners, trying each resolved address of
// the bind host in turn until one succeeds.
type TCPBinder struct {
	Resolver Resolver // defaults to net.DefaultResolver
}

// Bind implements Binder.
func (b *TCPBinder) Bind(ctx context.Context, host string, port int) (*net.TCPListener, error) {
	display := host
	if display == "" {
		display = "*"
	}
	addr := util.FormatAddr(display, port)

	if host == "" {
		ln, err := net.ListenTCP("tcp", &net.TCPAddr{Port: port})
		if err != nil {
			return nil, errors.Wrap("listen", addr, err)
		}
		return ln, nil
	}

	candidates, err := b.resolve(ctx, host)
	if err != nil {
		return nil, errors.Wrap("resolve", addr, err)
	}

	var errs []error
	for _, ip := range candidates {
		ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: ip.IP, Port: port, Zone: ip.Zone})
		if err == nil {
			return ln, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Wrap("listen", addr,
		fmt.Errorf("could not bind to any address: %w", errors.Join(errs...)))
}

func (b *TCPBinder) resolve(ctx context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}
	r := b.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %q", host)
	}
	return ips, nil
}

// Addr returns the host:port a listener is bound to, for logging.
func Addr(ln net.Listener) string {
	if ta, ok := ln.Addr().(*net.TCPAddr); ok {
		return util.FormatAddr(ta.IP.String(), ta.Port)
	}
	return ln.Addr().String()
}
