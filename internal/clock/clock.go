// Package clock abstracts wall time so TTL checks and debounce timers can be
// driven deterministically in tests.
package clock

import "time"

// Clock supplies the current time and one-shot timers.
//
// Production code uses System. Tests use testutil.FakeClock, which only
// moves when told to.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine after d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call from firing. Returns false if the call already
	// fired or was already stopped.
	Stop() bool
}

// System is the real wall clock.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Clock using time.AfterFunc.
func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// OrSystem returns c, or System if c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}
