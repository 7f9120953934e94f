// Package clock abstracts timers so presentation timing can be driven manually in tests.
package clock

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing; it reports whether the timer was still pending.
	Stop() bool
}

// Clock schedules callbacks and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Real is backed by the runtime timer wheel.
type Real struct{}

// Now returns wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

var _ Clock = Real{}
