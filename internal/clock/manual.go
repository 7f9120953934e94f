package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called. Callbacks run synchronously
// on the goroutine calling Advance, in deadline order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	m       *Manual
	seq     int
	at      time.Time
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// NewManual starts a manual clock at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, seq: m.seq, at: m.now.Add(d), delay: d, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves time forward, firing every timer whose deadline is reached.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		next.fired = true
		m.mu.Unlock()
		next.fn()
	}
}

// Delays lists the requested delay of every timer still pending, in registration order.
func (m *Manual) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, 0, len(m.pending))
	for _, t := range m.pending {
		if !t.stopped && !t.fired {
			out = append(out, t.delay)
		}
	}
	return out
}

// Pending counts timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	return len(m.Delays())
}

func (m *Manual) nextDueLocked(target time.Time) *manualTimer {
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.pending = live
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].at.Equal(m.pending[j].at) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].at.Before(m.pending[j].at)
	})
	if len(m.pending) == 0 || m.pending[0].at.After(target) {
		return nil
	}
	return m.pending[0]
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

var _ Clock = (*Manual)(nil)
