package domain

import "time"

// Clock provides time to the resolution engine and aggregator so tests
// can pin "now" without sleeping.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// MockClock is a controllable Clock for tests.
type MockClock struct {
	current time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (c *MockClock) Now() time.Time { return c.current }

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Set pins the clock to t.
func (c *MockClock) Set(t time.Time) {
	c.current = t
}
