// Package clock allows injecting time into services and repositories.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a settable clock for tests.
type Fixed struct {
	T time.Time
}

// NewFixed returns a clock that always reports t until Advance is called.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{T: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	return f.T
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
