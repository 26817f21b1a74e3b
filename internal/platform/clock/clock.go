package clock

import "time"

// Clock abstracts the current time so availability computations and soft-lock
// expiry can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation used in production.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a test clock that returns a settable instant.
type Fixed struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
