package debounce

import (
	"sync"
	"time"
)

// ManualScheduler never fires on its own; tests call Fire to run pending timers.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualTimer) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	wasPending := !m.stopped && !m.fired
	m.stopped = true
	return wasPending
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Pending counts timers that were neither stopped nor fired.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

// LastDelay is the delay of the most recently created timer.
func (s *ManualScheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return 0
	}
	return s.timers[len(s.timers)-1].delay
}

// Fire synchronously runs every pending timer in creation order.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	timers := append([]*manualTimer(nil), s.timers...)
	s.mu.Unlock()
	for _, t := range timers {
		t.mu.Lock()
		run := !t.stopped && !t.fired
		t.fired = true
		t.mu.Unlock()
		if run {
			t.fn()
		}
	}
}

// Capture returns the functions of every timer, fired or not, so tests can replay
// a stale run after it was superseded.
func (s *ManualScheduler) Capture() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fns := make([]func(), len(s.timers))
	for i, t := range s.timers {
		fns[i] = t.fn
	}
	return fns
}
