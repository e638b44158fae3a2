// Package clock hides time.Now behind an interface so schedulers, windows and
// retention cut-offs can be driven by a deterministic time source in tests.
package clock

import (
	"sync"
	"time"
)

// Clocker reports the current instant.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the wall clock.
type TimeClocker struct{}

// New returns the wall clock.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns time.Now.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Fixed is a manually advanced clock.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set pins the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
