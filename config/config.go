// Package config defines the runtime configuration for httpredirect.
package config

import (
	"fmt"
	"strings"
	"time"

	"httpredirect/internal/errors"
	"httpredirect/util"
)

// Config holds every tuneable for a single httpredirect process.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	BindAddr string // -b: empty means all interfaces
	Port     int

	// ── Responses ────────────────────────────────────────────────────
	Destination string // host[/path] placed after http:// in Location

	// ── Engine ───────────────────────────────────────────────────────
	MaxConns       int
	ReadBufferSize int
	CacheCapacity  int
	CacheTTL       time.Duration
	PopulateDelay  time.Duration
	PollInterval   time.Duration
	WriteTimeout   time.Duration

	// ── Process ──────────────────────────────────────────────────────
	User    string // -u: drop privileges to this user after bind
	Verbose int
	DryRun  bool
}

// Default returns a Config populated with the values from defaults.go.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		MaxConns:       DefaultMaxConns,
		ReadBufferSize: DefaultReadBufferSize,
		CacheCapacity:  DefaultCacheCapacity,
		CacheTTL:       DefaultCacheTTL,
		PopulateDelay:  DefaultPopulateDelay,
		PollInterval:   DefaultPollInterval,
		WriteTimeout:   DefaultWriteTimeout,
		Verbose:        1,
	}
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return util.FormatAddr(c.BindAddr, c.Port)
}

// String renders the effective configuration, one field per line.
func (c *Config) String() string {
	var b strings.Builder
	bind := c.BindAddr
	if bind == "" {
		bind = "*"
	}
	fmt.Fprintf(&b, "bind:          %s\n", bind)
	fmt.Fprintf(&b, "port:          %d\n", c.Port)
	fmt.Fprintf(&b, "destination:   %s\n", c.Destination)
	fmt.Fprintf(&b, "max-conns:     %d\n", c.MaxConns)
	fmt.Fprintf(&b, "buffer-size:   %d\n", c.ReadBufferSize)
	fmt.Fprintf(&b, "cache-size:    %d\n", c.CacheCapacity)
	fmt.Fprintf(&b, "cache-ttl:     %s\n", c.CacheTTL)
	fmt.Fprintf(&b, "probe-delay:   %s\n", c.PopulateDelay)
	if c.User != "" {
		fmt.Fprintf(&b, "user:          %s\n", c.User)
	}
	return b.String()
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Destination == "" {
		return &errors.ConfigError{
			Field:   "destination",
			Message: "no destination specified",
			Hint:    "pass the redirect target as the last argument, e.g. httpredirect -p 80 portal.example.net",
		}
	}
	if strings.ContainsAny(c.Destination, " \r\n") {
		return &errors.ConfigError{
			Field:   "destination",
			Value:   c.Destination,
			Message: "must not contain whitespace or line breaks",
		}
	}
	if strings.Contains(c.Destination, "://") {
		return &errors.ConfigError{
			Field:   "destination",
			Value:   c.Destination,
			Message: "must not include a scheme",
			Hint:    "responses always use http://; pass only the host and optional path",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &errors.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    "use a port between 1 and 65535",
		}
	}
	if c.MaxConns < 1 {
		return &errors.ConfigError{
			Field:   "max-conns",
			Value:   c.MaxConns,
			Message: "must be at least 1",
		}
	}
	if c.ReadBufferSize < 16 {
		return &errors.ConfigError{
			Field:   "buffer-size",
			Value:   c.ReadBufferSize,
			Message: "must be at least 16 bytes",
			Hint:    "the whole request header has to fit into one read",
		}
	}
	if c.CacheCapacity < 1 {
		return &errors.ConfigError{
			Field:   "cache-size",
			Value:   c.CacheCapacity,
			Message: "cache capacity cannot be zero",
		}
	}
	if c.CacheTTL <= 0 {
		return &errors.ConfigError{
			Field:   "cache-ttl",
			Value:   c.CacheTTL,
			Message: "must be positive",
		}
	}
	if c.PopulateDelay < 0 {
		return &errors.ConfigError{
			Field:   "probe-delay",
			Value:   c.PopulateDelay,
			Message: "must not be negative",
		}
	}
	if c.PollInterval <= 0 || c.PollInterval > time.Second {
		return &errors.ConfigError{
			Field:   "poll-interval",
			Value:   c.PollInterval,
			Message: "must be in (0, 1s]",
			Hint:    "stop requests are only noticed once per poll interval",
		}
	}
	return nil
}
