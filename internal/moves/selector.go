// SPDX-License-Identifier: MIT
package moves

import (
	"math/rand"
	"time"
)

// Selector chooses which catalog entry performs the next beat. n is
// the catalog size for the active mode, always >= 1 when called.
// Selectors keep per-mode state and are not safe for concurrent use;
// the dispatch loop is the only caller.
type Selector interface {
	Next(mode Mode, n int) int
}

// RandomSelector picks uniformly at random, except that it never picks
// the same index twice in a row when the catalog has alternatives.
// Back-to-back repeats read as a stutter, not a dance.
type RandomSelector struct {
	rng  *rand.Rand
	last map[Mode]int
}

// NewRandomSelector seeds the selector. Seed <= 0 draws from the
// clock; a fixed positive seed reproduces a pick sequence exactly.
func NewRandomSelector(seed int64) *RandomSelector {
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSelector{
		rng:  rand.New(rand.NewSource(seed)),
		last: make(map[Mode]int),
	}
}

// Next implements Selector.
func (s *RandomSelector) Next(mode Mode, n int) int {
	if n <= 1 {
		s.last[mode] = 0
		return 0
	}

	var idx int
	if last, ok := s.last[mode]; ok && last < n {
		// Draw from the catalog minus the previous pick, then remap
		// over the hole. Stays uniform over the remaining entries.
		idx = s.rng.Intn(n - 1)
		if idx >= last {
			idx++
		}
	} else {
		idx = s.rng.Intn(n)
	}

	s.last[mode] = idx
	return idx
}

// RoundRobinSelector walks the catalog in order. Deterministic, so
// tests and charted routines use it in place of the random default.
type RoundRobinSelector struct {
	next map[Mode]int
}

func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{next: make(map[Mode]int)}
}

// Next implements Selector.
func (s *RoundRobinSelector) Next(mode Mode, n int) int {
	if n <= 0 {
		return 0
	}
	idx := s.next[mode] % n
	s.next[mode] = idx + 1
	return idx
}

var (
	_ Selector = (*RandomSelector)(nil)
	_ Selector = (*RoundRobinSelector)(nil)
)
