// Package debounce runs a function after a quiet period, superseding earlier schedules.
package debounce

import (
	"context"
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

// Scheduler abstracts time.AfterFunc so tests can fire timers by hand.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func RealScheduler() Scheduler {
	return realScheduler{}
}

// Task holds at most one pending run. Scheduling again stops the pending timer and cancels
// the context of a run that already started, so only the latest schedule may commit.
type Task struct {
	mu        sync.Mutex
	sched     Scheduler
	seq       uint64
	timer     Timer
	cancelRun context.CancelFunc
}

func NewTask(sched Scheduler) *Task {
	if sched == nil {
		sched = RealScheduler()
	}
	return &Task{sched: sched}
}

// Run is handed to a scheduled function.
type Run struct {
	ctx  context.Context
	task *Task
	seq  uint64
}

func (r Run) Context() context.Context {
	return r.ctx
}

// Commit calls apply only if no later Schedule or Cancel happened, and reports whether it did.
func (r Run) Commit(apply func()) bool {
	r.task.mu.Lock()
	defer r.task.mu.Unlock()
	if r.task.seq != r.seq {
		return false
	}
	apply()
	return true
}

func (t *Task) Schedule(fn func(Run), delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seq++
	ctx, cancel := context.WithCancel(context.Background())
	t.cancelRun = cancel
	run := Run{ctx: ctx, task: t, seq: t.seq}
	t.timer = t.sched.AfterFunc(delay, func() {
		fn(run)
	})
}

// Cancel drops the pending run and invalidates one already in flight.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.seq++
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.cancelRun != nil {
		t.cancelRun()
		t.cancelRun = nil
	}
}
