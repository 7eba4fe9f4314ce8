package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the plain HTTP port.
	DefaultPort = 80

	// DefaultMaxConns is the size of the connection table.  When it is
	// full the oldest pending connection is dropped to make room.
	DefaultMaxConns = 64

	// DefaultReadBufferSize bounds a single read.  Requests whose
	// headers do not end within one read are not recognised.
	DefaultReadBufferSize = 512

	// DefaultCacheCapacity is the number of client addresses the probe
	// cache can hold at once.
	DefaultCacheCapacity = 100

	// DefaultCacheTTL is how long a client stays "online" after its
	// probe entry is populated.
	DefaultCacheTTL = 30 * time.Second

	// DefaultPopulateDelay is how long after the first probe a client
	// address is added to the cache.
	DefaultPopulateDelay = 2 * time.Second

	// DefaultPollInterval bounds each readiness wait, and therefore how
	// quickly a stop request is noticed.
	DefaultPollInterval = 1 * time.Second

	// DefaultWriteTimeout bounds a single response send.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultProbeDomain is the host captive-portal probes are sent to.
	DefaultProbeDomain = "captive.apple.com"
)
