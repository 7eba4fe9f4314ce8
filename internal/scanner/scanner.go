// Package scanner recognises the end of an HTTP request header block
// and spots captive-portal probes, without parsing the request.
package scanner

import "bytes"

// State is the position of the terminator matcher.
type State uint8

const (
	Start State = iota // no terminator bytes pending
	CR1                // "\r"
	LF1                // "\r\n" (or a bare "\n")
	CR2                // "\r\n\r"
	Done               // blank line seen
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case CR1:
		return "cr1"
	case LF1:
		return "lf1"
	case CR2:
		return "cr2"
	case Done:
		return "done"
	default:
		return "invalid"
	}
}

// Scan advances s over chunk and returns the new state.  It stops at
// the first byte that completes the blank line; whatever follows (a
// request body, a pipelined request) is ignored.
//
// A bare LF is accepted wherever CRLF is, so "\n\n" also terminates.
func Scan(s State, chunk []byte) State {
	if s == Done {
		return s
	}
	for _, b := range chunk {
		switch b {
		case '\r':
			if s == Start || s == LF1 {
				s++
			} else {
				s = CR1
			}
		case '\n':
			if s < LF1 {
				s = LF1
			} else {
				return Done
			}
		default:
			s = Start
		}
	}
	return s
}

var hostToken = []byte("Host:")

// IsProbe reports whether the first "Host:" header in chunk names
// domain.  The match is a case-sensitive prefix test on the bytes after
// any spaces, so "captive.apple.com.example" also matches; the check
// only sees this one chunk, so a header split across reads is missed.
func IsProbe(chunk, domain []byte) bool {
	i := bytes.Index(chunk, hostToken)
	if i < 0 {
		return false
	}
	v := chunk[i+len(hostToken):]
	for len(v) > 0 && v[0] == ' ' {
		v = v[1:]
	}
	if len(v) == 0 {
		return false
	}
	return bytes.HasPrefix(v, domain)
}
