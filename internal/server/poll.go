package server

import (
	"time"

	"golang.org/x/sys/unix"

	"httpredirect/internal/session"
)

const readyMask = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL

// poller waits for read readiness on the listener and every session.
// It is level-triggered: a descriptor with unread data is reported on
// every wait until it is drained.
type poller struct {
	listenFD int
	fds      []unix.PollFd
	ready    []*session.Session
}

func newPoller(listenFD, capacity int) *poller {
	return &poller{
		listenFD: listenFD,
		fds:      make([]unix.PollFd, 0, capacity+1),
		ready:    make([]*session.Session, 0, capacity),
	}
}

// wait blocks for at most timeout.  It reports whether the listener is
// ready and which sessions are.  The returned slice is reused by the
// next call.  An interrupted wait reports nothing ready.
func (p *poller) wait(sessions []*session.Session, timeout time.Duration) (bool, []*session.Session, error) {
	p.fds = p.fds[:0]
	p.fds = append(p.fds, unix.PollFd{Fd: int32(p.listenFD), Events: unix.POLLIN})
	for _, s := range sessions {
		p.fds = append(p.fds, unix.PollFd{Fd: int32(s.FD), Events: unix.POLLIN})
	}
	p.ready = p.ready[:0]

	n, err := unix.Poll(p.fds, int(timeout/time.Millisecond))
	if err == unix.EINTR {
		return false, p.ready, nil
	}
	if err != nil {
		return false, p.ready, err
	}
	if n == 0 {
		return false, p.ready, nil
	}

	for i, s := range sessions {
		if p.fds[i+1].Revents&readyMask != 0 {
			p.ready = append(p.ready, s)
		}
	}
	return p.fds[0].Revents&readyMask != 0, p.ready, nil
}
