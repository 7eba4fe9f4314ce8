// Package metrics provides lightweight, lock-free counters for tracking
// runtime statistics of an httpredirect process.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	json "github.com/json-iterator/go"
)

// Collector tracks runtime metrics for the server.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive  atomic.Int64
	connectionsTotal   atomic.Int64
	connectionsEvicted atomic.Int64
	bytesIn            atomic.Int64
	bytesOut           atomic.Int64

	redirects      atomic.Int64
	probeRedirects atomic.Int64
	successes      atomic.Int64

	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	populateScheduled atomic.Int64
	populateSucceeded atomic.Int64
	populateFailed    atomic.Int64

	errorsTotal atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ConnectionEvicted records that a pending connection was dropped to
// make room for a new one.  The caller still reports ConnectionClosed.
func (c *Collector) ConnectionEvicted() {
	if c == nil {
		return
	}
	c.connectionsEvicted.Add(1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// ── Responses ────────────────────────────────────────────────────────

// Redirect counts a plain redirect.
func (c *Collector) Redirect() {
	if c == nil {
		return
	}
	c.redirects.Add(1)
}

// ProbeRedirect counts a captive-portal probe redirect.
func (c *Collector) ProbeRedirect() {
	if c == nil {
		return
	}
	c.probeRedirects.Add(1)
}

// Success counts a success page.
func (c *Collector) Success() {
	if c == nil {
		return
	}
	c.successes.Add(1)
}

// ── Cache ────────────────────────────────────────────────────────────

// CacheHit counts a probe from a client already in the cache.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Add(1)
}

// CacheMiss counts a probe from a client not in the cache.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Add(1)
}

// PopulateScheduled counts an armed population task.
func (c *Collector) PopulateScheduled() {
	if c == nil {
		return
	}
	c.populateScheduled.Add(1)
}

// PopulateSucceeded counts a population task that inserted its key.
func (c *Collector) PopulateSucceeded() {
	if c == nil {
		return
	}
	c.populateSucceeded.Add(1)
}

// PopulateFailed counts a population task whose insert was rejected.
func (c *Collector) PopulateFailed() {
	if c == nil {
		return
	}
	c.populateFailed.Add(1)
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime             string `json:"uptime"`
	ConnectionsActive  int64  `json:"connections_active"`
	ConnectionsTotal   int64  `json:"connections_total"`
	ConnectionsEvicted int64  `json:"connections_evicted"`
	BytesIn            int64  `json:"bytes_in"`
	BytesOut           int64  `json:"bytes_out"`
	Redirects          int64  `json:"redirects"`
	ProbeRedirects     int64  `json:"probe_redirects"`
	Successes          int64  `json:"successes"`
	CacheHits          int64  `json:"cache_hits"`
	CacheMisses        int64  `json:"cache_misses"`
	PopulateScheduled  int64  `json:"populate_scheduled"`
	PopulateSucceeded  int64  `json:"populate_succeeded"`
	PopulateFailed     int64  `json:"populate_failed"`
	ErrorsTotal        int64  `json:"errors_total"`
	LastError          string `json:"last_error,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive:  c.connectionsActive.Load(),
		ConnectionsTotal:   c.connectionsTotal.Load(),
		ConnectionsEvicted: c.connectionsEvicted.Load(),
		BytesIn:            c.bytesIn.Load(),
		BytesOut:           c.bytesOut.Load(),
		Redirects:          c.redirects.Load(),
		ProbeRedirects:     c.probeRedirects.Load(),
		Successes:          c.successes.Load(),
		CacheHits:          c.cacheHits.Load(),
		CacheMisses:        c.cacheMisses.Load(),
		PopulateScheduled:  c.populateScheduled.Load(),
		PopulateSucceeded:  c.populateSucceeded.Load(),
		PopulateFailed:     c.populateFailed.Load(),
		ErrorsTotal:        c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
