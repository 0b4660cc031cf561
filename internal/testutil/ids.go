package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined IDs, then numbered fallbacks.
//
// Unlike a UUID generator its output is stable across runs, which keeps
// store assertions and snapshots deterministic.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator returning ids in order. Once they
// run out it returns "test-run-<n>".
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("test-run-%d", g.idx)
}
