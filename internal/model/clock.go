package model

import "time"

// Clock supplies "now" for timestamp comparisons and stamping. Injected so
// time-dependent behavior is testable with a frozen clock.
type Clock interface {
	Now() time.Time
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return clockFunc(time.Now)
}

// FixedClock returns a Clock frozen at t.
func FixedClock(t time.Time) Clock {
	return clockFunc(func() time.Time { return t })
}
