// Package response builds the three canned HTTP responses the server
// sends and renders their per-request cache-busting token.
//
// A redirect template is a single byte buffer with a fixed-width
// placeholder inside the Location path.  Render overwrites that span in
// place and hands back the same buffer, so a Template must only be used
// from one goroutine and the returned slice must be fully sent before
// the next Render.
package response

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"httpredirect/internal/errors"
)

// TokenLen is the width of the placeholder span.
const TokenLen = 6

const placeholder = "xxxxxx"

const (
	redirectStatus  = "HTTP/1.1 307 Temporary Redirect\r\n"
	redirectPattern = redirectStatus +
		"Location: http://%s/" + placeholder + "\r\n" +
		"Content-Length: 0\r\n" +
		"Server: httpredirect\r\n" +
		"\r\n"

	successHeader = "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Length: %d\r\n" +
		"Server: httpredirect\r\n" +
		"\r\n"

	successBody = "<HTML><HEAD><TITLE>Success</TITLE></HEAD><BODY>Success</BODY></HTML>"
)

// Kind identifies a template.
type Kind int

const (
	KindSuccess Kind = iota
	KindRedirect
	KindProbe
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRedirect:
		return "redirect"
	case KindProbe:
		return "probe-redirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Template is a precomputed response.
type Template struct {
	kind Kind
	buf  []byte
	off  int // start of the token span, -1 for static templates
	now  func() time.Time
}

// Kind returns the template's kind.
func (t *Template) Kind() Kind { return t.kind }

// Bytes returns the buffer as it stands, without rendering a token.
func (t *Template) Bytes() []byte { return t.buf }

// Render writes a fresh token into the placeholder span and returns the
// buffer.  Static templates are returned unchanged.
//
// The generator is reseeded from the wall clock at one-second
// resolution on every call, so two renders within the same second
// produce the same token.  The token only exists to defeat client-side
// caching of the redirect; it is not meant to be unpredictable.
func (t *Template) Render() []byte {
	if t.off < 0 {
		return t.buf
	}
	fillToken(t.buf[t.off:t.off+TokenLen], t.now().Unix())
	return t.buf
}

func fillToken(dst []byte, seed int64) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec
	for i := range dst {
		dst[i] = byte('a' + rng.Intn(26))
	}
}

// Templates is the set of responses the server picks from.
type Templates struct {
	Success  *Template
	Redirect *Template
	Probe    *Template
}

// Get returns the template for k.
func (ts *Templates) Get(k Kind) *Template {
	switch k {
	case KindSuccess:
		return ts.Success
	case KindProbe:
		return ts.Probe
	default:
		return ts.Redirect
	}
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	now func() time.Time
}

// WithClock overrides the seed clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) { o.now = now }
}

// Build constructs the success page, the redirect to destination and
// the probe redirect to apple.<destination>.
func Build(destination string, opts ...Option) (*Templates, error) {
	if destination == "" {
		return nil, errors.New("response: empty destination")
	}
	o := buildOptions{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	redirect, err := newRedirect(KindRedirect, destination, o.now)
	if err != nil {
		return nil, err
	}
	probe, err := newRedirect(KindProbe, "apple."+destination, o.now)
	if err != nil {
		return nil, err
	}

	success := fmt.Sprintf(successHeader, len(successBody)) + successBody
	return &Templates{
		Success:  &Template{kind: KindSuccess, buf: []byte(success), off: -1, now: o.now},
		Redirect: redirect,
		Probe:    probe,
	}, nil
}

func newRedirect(kind Kind, host string, now func() time.Time) (*Template, error) {
	buf := []byte(fmt.Sprintf(redirectPattern, host))
	// The destination itself may contain the placeholder text, so search
	// from the end of the Location line.
	eol := bytes.Index(buf[len(redirectStatus):], []byte("\r\n"))
	if eol < 0 {
		return nil, fmt.Errorf("%s template: %w", kind, errors.ErrNoPlaceholder)
	}
	eol += len(redirectStatus)
	off := eol - TokenLen
	if off < 0 || !bytes.Equal(buf[off:eol], []byte(placeholder)) {
		return nil, fmt.Errorf("%s template: %w", kind, errors.ErrNoPlaceholder)
	}
	return &Template{kind: kind, buf: buf, off: off, now: now}, nil
}
