// ABOUTME: Tests for the message ID window used by the forwarder.
// ABOUTME: Covers expiry, refresh, capacity eviction, pruning and concurrent first-wins.

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestWindow(ttl time.Duration, capacity int) (*Window, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newWindow(ttl, capacity, clock.Now), clock
}

func TestWindow_FirstSightingIsNew(t *testing.T) {
	w, _ := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("3EB0A1"))
	assert.True(t, w.Seen("3EB0A1"))
	assert.False(t, w.Seen("3EB0B2"))
}

func TestWindow_Expiry(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)

	assert.False(t, w.Seen("msg"))
	clock.Advance(59 * time.Second)
	assert.True(t, w.Seen("msg"))

	// The repeat above refreshed the timestamp
	clock.Advance(59 * time.Second)
	assert.True(t, w.Seen("msg"))

	clock.Advance(time.Minute)
	assert.False(t, w.Seen("msg"), "id should be forgotten after ttl")
}

func TestWindow_CapacityEvictsLeastRecent(t *testing.T) {
	w, clock := newTestWindow(time.Hour, 3)

	w.Seen("a")
	clock.Advance(time.Second)
	w.Seen("b")
	clock.Advance(time.Second)
	w.Seen("c")
	clock.Advance(time.Second)

	// Touch "a" so "b" becomes the oldest
	assert.True(t, w.Seen("a"))
	w.Seen("d")

	assert.Equal(t, 3, w.Len())
	assert.False(t, w.Seen("b"), "b should have been evicted")
}

func TestWindow_Prune(t *testing.T) {
	w, clock := newTestWindow(time.Minute, 10)

	w.Seen("old-1")
	w.Seen("old-2")
	clock.Advance(2 * time.Minute)
	w.Seen("fresh")

	assert.Equal(t, 2, w.Prune())
	assert.Equal(t, 1, w.Len())
	assert.True(t, w.Seen("fresh"))
}

func TestWindow_ConcurrentSameIDOneWinner(t *testing.T) {
	w := New(time.Minute, 100)
	defer w.Close()

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !w.Seen("contested") {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func TestWindow_CloseIsIdempotent(t *testing.T) {
	w := New(time.Minute, 10)
	w.Close()
	w.Close()
}
