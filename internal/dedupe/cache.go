// ABOUTME: Bounded TTL window of recently seen message IDs.
// ABOUTME: The forwarder consults it so redelivered WhatsApp messages reach the backend once.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// sweepInterval is how often expired IDs are dropped in the background.
const sweepInterval = time.Minute

type entry struct {
	id     string
	seenAt time.Time
}

// Window remembers message IDs for ttl, holding at most capacity of them.
// When full, the least recently seen ID is forgotten first.
type Window struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	order    *list.List // front = least recently seen
	ttl      time.Duration
	capacity int
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Window and starts its background sweeper. Call Close to stop it.
func New(ttl time.Duration, capacity int) *Window {
	w := newWindow(ttl, capacity, time.Now)
	go w.sweepLoop()
	return w
}

func newWindow(ttl time.Duration, capacity int, now func() time.Time) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		index:    make(map[string]*list.Element),
		order:    list.New(),
		ttl:      ttl,
		capacity: capacity,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Seen reports whether id was already recorded inside the window and records
// it either way. The check and the record happen under one lock, so of many
// concurrent callers with the same id exactly one gets false.
func (w *Window) Seen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if el, ok := w.index[id]; ok {
		e := el.Value.(*entry)
		fresh := now.Sub(e.seenAt) < w.ttl
		e.seenAt = now
		w.order.MoveToBack(el)
		return fresh
	}

	for w.order.Len() >= w.capacity {
		w.removeLocked(w.order.Front())
	}
	w.index[id] = w.order.PushBack(&entry{id: id, seenAt: now})
	return false
}

// Len returns the number of IDs currently held, expired or not.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.order.Len()
}

// Prune drops every expired ID and returns how many were removed.
func (w *Window) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	removed := 0
	// Entries are ordered by seenAt, so stop at the first fresh one.
	for el := w.order.Front(); el != nil; el = w.order.Front() {
		if now.Sub(el.Value.(*entry).seenAt) < w.ttl {
			break
		}
		w.removeLocked(el)
		removed++
	}
	return removed
}

func (w *Window) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	w.order.Remove(el)
	delete(w.index, el.Value.(*entry).id)
}

func (w *Window) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Prune()
		case <-w.stop:
			return
		}
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (w *Window) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
}
