// Package clock abstracts wall-clock time so TTL, refill and idle-timeout
// logic can be driven deterministically in tests.
package clock

import "time"

// Clock reports the current time and schedules wake-ups.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real is the system clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// After returns time.After(d).
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }
