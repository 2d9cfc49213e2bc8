package hovercard

import (
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running; it reports whether the call stopped it.
	Stop() bool
}

// Scheduler runs callbacks after a delay. Callbacks may run on any goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules with the wall clock.
type RealScheduler struct{}

// AfterFunc implements Scheduler with time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// loop serializes every state transition. Host events, timer callbacks and request
// completions each run as one non-reentrant call to do. Effects queued with after
// run once the transition has released the lock, so they may call back into the
// Runtime.
type loop struct {
	mu      sync.Mutex
	effects []func()
}

func (l *loop) do(f func()) {
	l.mu.Lock()
	f()
	effects := l.effects
	l.effects = nil
	l.mu.Unlock()

	for _, e := range effects {
		e()
	}
}

// after queues f to run when the current transition completes. Caller holds mu.
func (l *loop) after(f func()) {
	l.effects = append(l.effects, f)
}

// timerSlot is a single-occupancy timer handle. Starting it replaces any pending
// callback, and a sequence number discards a superseded callback that raced Stop.
type timerSlot struct {
	timer Timer
	seq   uint64
}

// start schedules f on the loop after d, replacing any pending callback.
// Caller holds the loop lock.
func (s *timerSlot) start(l *loop, sched Scheduler, d time.Duration, f func()) {
	s.stop()
	seq := s.seq
	s.timer = sched.AfterFunc(d, func() {
		l.do(func() {
			if s.seq != seq {
				return
			}
			s.timer = nil
			f()
		})
	})
}

// stop cancels any pending callback. Caller holds the loop lock.
func (s *timerSlot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}

// pending reports whether a callback is scheduled.
func (s *timerSlot) pending() bool {
	return s.timer != nil
}
