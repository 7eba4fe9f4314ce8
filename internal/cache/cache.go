// Package cache implements a small fixed-capacity key/value store with
// an absolute per-entry expiry.
//
// Entries live in a flat slot array that is scanned linearly, which is
// fine for capacities in the low hundreds.  Expired entries are not
// swept in the background: they are logically absent the moment their
// expiry passes and are physically released the next time an Insert or
// Lookup touches their slot.
//
// All methods are safe for concurrent use.
package cache

import (
	"sync"
	"time"

	"httpredirect/internal/errors"
)

var (
	// ErrFull is returned by Insert when every slot holds a live entry.
	ErrFull = errors.ErrCacheFull
	// ErrClosed is returned by Insert after Close.
	ErrClosed = errors.ErrCacheClosed
	// ErrInvalid is returned by Insert for an empty key or value.
	ErrInvalid = errors.ErrInvalidEntry
)

type entry struct {
	key     string
	value   []byte
	expires time.Time
}

func (e *entry) empty() bool { return e.value == nil }

func (e *entry) release() { *e = entry{} }

// Cache is a bounded TTL store.  The zero value is not usable; call New.
type Cache struct {
	mu      sync.Mutex
	entries []entry
	ttl     time.Duration
	count   int
	closed  bool

	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New allocates a cache with room for capacity entries, each living
// for ttl after insertion.
func New(capacity int, ttl time.Duration, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		return nil, errors.New("cache capacity cannot be zero")
	}
	c := &Cache{
		entries: make([]entry, capacity),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Insert stores a copy of value under key.  A live entry for key is
// overwritten in place and its expiry restarted, so a key holds at most
// one live slot.  Otherwise the first slot that is empty or expired is
// taken.  When no slot is free it returns ErrFull and leaves the cache
// untouched.
func (c *Cache) Insert(key string, value []byte) error {
	if key == "" || len(value) == 0 {
		return ErrInvalid
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	now := c.now()
	slot, free := -1, -1
	for i := range c.entries {
		e := &c.entries[i]
		live := !e.empty() && e.expires.After(now)
		if live && e.key == key {
			slot = i
			break
		}
		if !live && free < 0 {
			free = i
		}
	}

	if slot >= 0 {
		e := &c.entries[slot]
		e.value = append(e.value[:0], value...)
		e.expires = now.Add(c.ttl)
		return nil
	}
	if free < 0 {
		return ErrFull
	}

	e := &c.entries[free]
	if !e.empty() {
		e.release()
		c.count--
	}

	e.key = key
	e.value = append([]byte(nil), value...)
	e.expires = now.Add(c.ttl)
	c.count++
	return nil
}

// Lookup returns the value stored under key if it has not expired.
// Expired matches are purged on the way.
func (c *Cache) Lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false
	}

	now := c.now()
	for i := range c.entries {
		e := &c.entries[i]
		if e.empty() || e.key != key {
			continue
		}
		if e.expires.After(now) {
			return append([]byte(nil), e.value...), true
		}
		e.release()
		c.count--
	}
	return nil, false
}

// Len returns the number of occupied slots, including expired entries
// that have not been purged yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Cap returns the slot capacity.
func (c *Cache) Cap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases every entry and the slot array.  Subsequent Inserts
// fail with ErrClosed and Lookups report absence.  Close is idempotent.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.count = 0
	c.closed = true
}
