package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/dchest/uniuri"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

var marker = []byte("1")

func newTestCache(t *testing.T, capacity int, ttl time.Duration) (*Cache, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c, err := New(capacity, ttl, WithClock(clock.Now))
	require.NoError(t, err)
	return c, clock
}

func TestNew_ZeroCapacity(t *testing.T) {
	_, err := New(0, time.Second)
	require.Error(t, err)
}

func TestInsertLookup(t *testing.T) {
	c, _ := newTestCache(t, 4, 30*time.Second)

	require.NoError(t, c.Insert("10.0.0.1", marker))
	v, ok := c.Lookup("10.0.0.1")
	require.True(t, ok)
	require.Equal(t, marker, v)

	_, ok = c.Lookup("10.0.0.2")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
}

func TestInsert_CopiesValue(t *testing.T) {
	c, _ := newTestCache(t, 1, time.Second)

	v := []byte("abc")
	require.NoError(t, c.Insert("k", v))
	v[0] = 'z'

	got, ok := c.Lookup("k")
	require.True(t, ok)
	require.Equal(t, []byte("abc"), got)
}

func TestInsert_Invalid(t *testing.T) {
	c, _ := newTestCache(t, 1, time.Second)
	require.ErrorIs(t, c.Insert("", marker), ErrInvalid)
	require.ErrorIs(t, c.Insert("k", nil), ErrInvalid)
	require.Zero(t, c.Len())
}

func TestLookup_ExpiredIsPurged(t *testing.T) {
	c, clock := newTestCache(t, 2, 30*time.Second)

	require.NoError(t, c.Insert("10.0.0.1", marker))
	clock.Advance(29 * time.Second)
	_, ok := c.Lookup("10.0.0.1")
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Lookup("10.0.0.1")
	require.False(t, ok, "entry must be absent once its expiry is reached")
	require.Zero(t, c.Len(), "expired entry should be purged by the lookup")
}

func TestInsert_FullLeavesEntriesUnchanged(t *testing.T) {
	c, _ := newTestCache(t, 3, time.Minute)

	keys := []string{"a", "b", "c"}
	for _, k := range keys {
		require.NoError(t, c.Insert(k, marker))
	}

	require.ErrorIs(t, c.Insert("d", marker), ErrFull)
	require.Equal(t, 3, c.Len())

	for _, k := range keys {
		_, ok := c.Lookup(k)
		require.True(t, ok, "key %q should survive a failed insert", k)
	}
	_, ok := c.Lookup("d")
	require.False(t, ok)
}

func TestInsert_ReusesExpiredSlot(t *testing.T) {
	c, clock := newTestCache(t, 2, 10*time.Second)

	require.NoError(t, c.Insert("old", marker))
	clock.Advance(5 * time.Second)
	require.NoError(t, c.Insert("young", marker))
	clock.Advance(5 * time.Second)

	// "old" has expired and is physically still stored; the insert takes
	// its slot without exceeding capacity.
	require.NoError(t, c.Insert("new", marker))
	require.Equal(t, 2, c.Len())

	_, ok := c.Lookup("old")
	require.False(t, ok)
	_, ok = c.Lookup("young")
	require.True(t, ok)
	_, ok = c.Lookup("new")
	require.True(t, ok)
}

func TestInsert_DuplicateKeyOverwrites(t *testing.T) {
	c, clock := newTestCache(t, 4, 10*time.Second)

	require.NoError(t, c.Insert("10.0.0.1", marker))
	clock.Advance(time.Second)
	require.NoError(t, c.Insert("10.0.0.1", []byte("2")))
	require.Equal(t, 1, c.Len(), "a key holds at most one live slot")

	// Past the first insert's expiry, inside the second's.
	clock.Advance(9500 * time.Millisecond)
	v, ok := c.Lookup("10.0.0.1")
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)
	require.Equal(t, 1, c.Len())

	clock.Advance(time.Second)
	_, ok = c.Lookup("10.0.0.1")
	require.False(t, ok)
	require.Zero(t, c.Len())
}

func TestInsert_RepeatedKeyDoesNotStarveOthers(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Insert("10.0.0.1", marker))
	}
	require.NoError(t, c.Insert("10.0.0.2", marker))
	require.Equal(t, 2, c.Len())

	for _, k := range []string{"10.0.0.1", "10.0.0.2"} {
		_, ok := c.Lookup(k)
		require.True(t, ok, "key %q", k)
	}
}

func TestInsert_ExpiredCopyIsReplaced(t *testing.T) {
	c, clock := newTestCache(t, 2, 10*time.Second)

	require.NoError(t, c.Insert("10.0.0.1", marker))
	require.NoError(t, c.Insert("10.0.0.2", marker))
	clock.Advance(10 * time.Second)

	// Both slots are expired; re-adding one key takes a slot and the
	// other key's stale entry stays invisible.
	require.NoError(t, c.Insert("10.0.0.1", marker))
	_, ok := c.Lookup("10.0.0.1")
	require.True(t, ok)
	_, ok = c.Lookup("10.0.0.2")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
}

func TestClose(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)
	require.NoError(t, c.Insert("k", marker))

	c.Close()
	c.Close() // idempotent

	require.ErrorIs(t, c.Insert("k2", marker), ErrClosed)
	_, ok := c.Lookup("k")
	require.False(t, ok)
	require.Zero(t, c.Len())
}

// TestNeverReturnsExpired drives random inserts, lookups and clock
// steps and checks that no lookup ever returns an entry past its
// expiry and the live count never exceeds capacity.
func TestNeverReturnsExpired(t *testing.T) {
	const capacity = 8
	ttl := 10 * time.Second
	c, clock := newTestCache(t, capacity, ttl)

	keys := make([]string, 16)
	for i := range keys {
		keys[i] = uniuri.NewLen(12)
	}
	inserted := map[string]time.Time{}

	for step := 0; step < 500; step++ {
		k := keys[step%len(keys)]
		switch step % 3 {
		case 0:
			if err := c.Insert(k, marker); err == nil {
				inserted[k] = clock.Now()
			} else {
				require.ErrorIs(t, err, ErrFull)
			}
		case 1:
			if _, ok := c.Lookup(k); ok {
				at, seen := inserted[k]
				require.True(t, seen)
				require.True(t, clock.Now().Before(at.Add(ttl)),
					"lookup returned %q after its expiry", k)
			}
		default:
			clock.Advance(time.Duration(step%5) * time.Second)
		}
		require.LessOrEqual(t, c.Len(), capacity)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, err := New(32, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := uniuri.NewLen(4)
				_ = c.Insert(k, marker)
				c.Lookup(k)
			}
		}()
	}
	wg.Wait()
	require.LessOrEqual(t, c.Len(), 32)
}
