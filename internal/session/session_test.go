package session

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"httpredirect/internal/scanner"
)

func TestNew(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	conn := <-accepted
	s, err := New(conn)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", s.Addr)
	require.Equal(t, scanner.Start, s.State)
	require.False(t, s.Probe)
	require.False(t, s.Done())
	require.GreaterOrEqual(t, s.FD, 0)

	require.NoError(t, s.Close())
	require.True(t, s.Closed())
	require.NoError(t, s.Close(), "second close is a no-op")
}

func TestFD_Unsupported(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	_, err := New(a)
	require.Error(t, err)
}
