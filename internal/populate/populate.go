// Package populate adds client addresses to the probe cache after a
// fixed delay.
//
// A client that has just been shown the probe redirect is given a short
// grace period before it is reported online; Schedule arms that timer.
// Tasks are fire-and-forget: nothing observes their outcome except the
// log and the metrics collector.
package populate

import (
	"sync"
	"sync/atomic"
	"time"

	"httpredirect/internal/cache"
	"httpredirect/internal/errors"
	"httpredirect/internal/metrics"
	"httpredirect/util"
)

// Marker is the value stored for a populated client.
var Marker = []byte("1")

// Inserter is the write side of the cache.
type Inserter interface {
	Insert(key string, value []byte) error
}

// Scheduler arms delayed inserts.
type Scheduler struct {
	cache   Inserter
	delay   time.Duration
	logger  *util.Logger
	metrics *metrics.Collector

	pending atomic.Int64
	wg      sync.WaitGroup
}

// New returns a Scheduler inserting into c after delay.  A nil
// collector is fine.
func New(c Inserter, delay time.Duration, logger *util.Logger, m *metrics.Collector) *Scheduler {
	return &Scheduler{
		cache:   c,
		delay:   delay,
		logger:  logger,
		metrics: m,
	}
}

// Delay returns the configured delay.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Schedule inserts key after the delay.  It returns immediately.
// Several tasks for the same key may be in flight; the later insert
// refreshes the entry the earlier one created.
func (s *Scheduler) Schedule(key string) {
	s.pending.Add(1)
	s.wg.Add(1)
	s.metrics.PopulateScheduled()

	time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		defer s.pending.Add(-1)
		s.run(key)
	})
}

func (s *Scheduler) run(key string) {
	err := s.cache.Insert(key, Marker)
	switch {
	case err == nil:
		s.metrics.PopulateSucceeded()
		s.logger.Verbose("added %s to cache after %s", key, s.delay)
	case errors.Is(err, cache.ErrClosed):
		// Shut down while the timer was pending.
		s.metrics.PopulateFailed()
		s.logger.Debug("cache closed, dropping %s", key)
	default:
		s.metrics.PopulateFailed()
		s.logger.Warn("failed to add %s to cache after delay: %v", key, err)
	}
}

// Pending returns the number of armed tasks that have not run yet.
func (s *Scheduler) Pending() int64 { return s.pending.Load() }

// Wait blocks until every scheduled task has run.
func (s *Scheduler) Wait() { s.wg.Wait() }
