// Package vclock abstracts wall time and one-shot timers so that
// inactivity locking and clipboard clearing can be tested without real
// delays.
package vclock

import "time"

// Clock is the time source injected into timer-driven components.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules fn to run after d and returns a handle that
	// can cancel it.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	// Stop cancels the timer. It reports whether the call was prevented
	// from running.
	Stop() bool
}

type systemClock struct{}

type systemTimer struct {
	t *time.Timer
}

// System returns a Clock backed by the standard library.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

func (t systemTimer) Stop() bool {
	return t.t.Stop()
}
