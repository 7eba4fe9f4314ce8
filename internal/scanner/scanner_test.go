package scanner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScan_Transitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		in   string
		want State
	}{
		{"cr from start", Start, "\r", CR1},
		{"lf after cr", CR1, "\n", LF1},
		{"cr after crlf", LF1, "\r", CR2},
		{"lf completes", CR2, "\n", Done},
		{"bare lf from start", Start, "\n", LF1},
		{"double lf", LF1, "\n", Done},
		{"cr after cr", CR1, "\r", CR1},
		{"cr after cr2", CR2, "\r", CR1},
		{"other resets", CR2, "x", Start},
		{"done sticks", Done, "abc", Done},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Scan(tt.from, []byte(tt.in)))
		})
	}
}

func TestScan_Requests(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want State
	}{
		{"full request", "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n", Done},
		{"body after terminator", "POST / HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc", Done},
		{"headers not finished", "GET / HTTP/1.1\r\nHost: example.com\r\n", LF1},
		{"half terminator", "GET / HTTP/1.1\r\nHost: example.com\r\n\r", CR2},
		{"request line only", "GET / HTTP/1.1", Start},
		{"empty", "", Start},
		{"bare newlines", "GET / HTTP/1.0\n\n", Done},
		{"cr cr lf lf", "GET /\r\r\n\n", Done},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Scan(Start, []byte(tt.in)))
		})
	}
}

func TestScan_AcrossChunks(t *testing.T) {
	req := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	for split := 0; split <= len(req); split++ {
		s := Scan(Start, req[:split])
		s = Scan(s, req[split:])
		require.Equal(t, Done, s, "split at %d", split)
	}
}

// TestScan_DoneIffTerminator checks that a chunk of header-like text
// without a blank line never reaches Done, and that appending CRLFCRLF
// always does.
func TestScan_DoneIffTerminator(t *testing.T) {
	lines := []string{
		"GET /hotspot-detect.html HTTP/1.0\r\n",
		"Host: captive.apple.com\r\n",
		"User-Agent: CaptiveNetworkSupport-428 wispr\r\n",
		"Accept: */*\r\n",
	}
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		require.NotEqual(t, Done, Scan(Start, buf.Bytes()))
	}
	buf.WriteString("\r\n")
	require.Equal(t, Done, Scan(Start, buf.Bytes()))
}

func TestState_String(t *testing.T) {
	require.Equal(t, "start", Start.String())
	require.Equal(t, "done", Done.String())
	require.Equal(t, "invalid", State(42).String())
}

func TestIsProbe(t *testing.T) {
	domain := []byte("captive.apple.com")
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"probe", "GET / HTTP/1.1\r\nHost: captive.apple.com\r\n\r\n", true},
		{"no space", "GET / HTTP/1.1\r\nHost:captive.apple.com\r\n\r\n", true},
		{"many spaces", "GET / HTTP/1.1\r\nHost:    captive.apple.com\r\n\r\n", true},
		{"other host", "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n", false},
		{"no host", "GET / HTTP/1.1\r\n\r\n", false},
		{"lowercase header", "GET / HTTP/1.1\r\nhost: captive.apple.com\r\n\r\n", false},
		{"uppercase value", "GET / HTTP/1.1\r\nHost: CAPTIVE.APPLE.COM\r\n\r\n", false},
		{"prefix false positive", "GET / HTTP/1.1\r\nHost: captive.apple.com.example\r\n\r\n", true},
		{"value truncated", "GET / HTTP/1.1\r\nHost: captive.app", false},
		{"header at end", "GET / HTTP/1.1\r\nHost:   ", false},
		{"only first host counts", "GET / HTTP/1.1\r\nHost: a.example\r\nHost: captive.apple.com\r\n\r\n", false},
		{"tab not skipped", "GET / HTTP/1.1\r\nHost:\tcaptive.apple.com\r\n\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsProbe([]byte(tt.in), domain))
		})
	}
}
