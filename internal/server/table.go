package server

import "httpredirect/internal/session"

// table is the bounded, ordered set of live sessions.  Sessions are kept
// in accept order with no gaps, so index 0 is always the oldest.
type table struct {
	slots []*session.Session
	max   int
}

func newTable(max int) *table {
	return &table{slots: make([]*session.Session, 0, max), max: max}
}

func (t *table) Len() int   { return len(t.slots) }
func (t *table) Full() bool { return len(t.slots) >= t.max }

func (t *table) Sessions() []*session.Session { return t.slots }

// Add appends s.  It reports false, leaving the table unchanged, when
// the table is full.
func (t *table) Add(s *session.Session) bool {
	if t.Full() {
		return false
	}
	t.slots = append(t.slots, s)
	return true
}

// EvictOldest removes and returns the session at index 0, or nil when
// the table is empty.  The caller closes it.
func (t *table) EvictOldest() *session.Session {
	if len(t.slots) == 0 {
		return nil
	}
	s := t.slots[0]
	copy(t.slots, t.slots[1:])
	t.slots[len(t.slots)-1] = nil
	t.slots = t.slots[:len(t.slots)-1]
	return s
}

// Compact drops closed sessions, keeping the survivors in order, and
// returns how many were removed.
func (t *table) Compact() int {
	n := 0
	for _, s := range t.slots {
		if s != nil && !s.Closed() {
			t.slots[n] = s
			n++
		}
	}
	removed := len(t.slots) - n
	for i := n; i < len(t.slots); i++ {
		t.slots[i] = nil
	}
	t.slots = t.slots[:n]
	return removed
}
