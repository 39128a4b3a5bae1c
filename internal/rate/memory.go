package rate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// sweepInterval is how often, in counter time, stale windows are dropped.
const sweepInterval = time.Minute

// Memory is a process-local Counter. Each (subject, bucket) pair owns its
// own lock, so distinct keys never contend. Windows that have fully elapsed
// are swept out periodically; spam subjects carry the submitted URL and
// would otherwise accumulate forever.
type Memory struct {
	windows   sync.Map // key -> *window
	lastSweep atomic.Int64
}

type window struct {
	mu     sync.Mutex
	start  time.Time
	length time.Duration
	count  int
	dead   bool // removed from the map; callers must reload
}

// NewMemory creates an empty in-memory counter store.
func NewMemory() *Memory {
	return &Memory{}
}

// CheckAndIncrement implements Counter.
func (m *Memory) CheckAndIncrement(_ context.Context, subject, bucket string, win time.Duration, limit int, now time.Time) (bool, error) {
	m.maybeSweep(now)

	key := bucket + "\x00" + subject
	for {
		v, _ := m.windows.LoadOrStore(key, &window{})
		w := v.(*window)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		if w.count == 0 || now.Sub(w.start) >= win {
			w.start = now
			w.count = 1
		} else {
			w.count++
		}
		w.length = win
		count := w.count
		w.mu.Unlock()
		return count <= limit, nil
	}
}

// maybeSweep drops elapsed windows at most once per sweepInterval. Only the
// caller that wins the CAS sweeps.
func (m *Memory) maybeSweep(now time.Time) {
	last := m.lastSweep.Load()
	if last == 0 {
		m.lastSweep.CompareAndSwap(0, now.UnixNano())
		return
	}
	if now.UnixNano()-last < int64(sweepInterval) {
		return
	}
	if !m.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	m.windows.Range(func(k, v any) bool {
		w := v.(*window)
		w.mu.Lock()
		if w.count == 0 || now.Sub(w.start) >= w.length {
			w.dead = true
			m.windows.Delete(k)
		}
		w.mu.Unlock()
		return true
	})
}

// size reports the number of tracked windows.
func (m *Memory) size() int {
	n := 0
	m.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var _ Counter = (*Memory)(nil)
