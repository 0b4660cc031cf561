package testutil

import (
	"sync"
	"time"
)

// DeterministicClock returns evenly spaced timestamps for tests.
//
// The first call to Now() returns the base time plus one second; each call
// advances by one second.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	seq  int64
}

// NewDeterministicClock creates a clock starting at 2024-01-01T00:00:00Z.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now advances the clock and returns the new time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.base.Add(time.Duration(c.seq) * time.Second)
}

// Reset rewinds the clock so the next Now() returns base+1s again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
