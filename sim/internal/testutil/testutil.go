// Package testutil provides shared test infrastructure for the qnetsim
// engine: float assertions and a scripted random source for tests that need
// to steer routing draws.
package testutil

import (
	"math"
	"math/rand"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// ReplaySource is a rand.Source that makes (*rand.Rand).Float64 return the
// scripted values in order. Values should be in [0, 1) and exactly
// representable at 2^-53 granularity or coarser; decimals like 0.3 are fine.
// Running past the end of the script panics.
type ReplaySource struct {
	values []float64
	next   int
}

// NewReplaySource scripts the given Float64 draws.
func NewReplaySource(values ...float64) *ReplaySource {
	return &ReplaySource{values: values}
}

// NewReplayRand wraps a ReplaySource in a *rand.Rand.
func NewReplayRand(values ...float64) *rand.Rand {
	return rand.New(NewReplaySource(values...))
}

// Int63 returns the next scripted value scaled to [0, 2^63).
func (s *ReplaySource) Int63() int64 {
	if s.next >= len(s.values) {
		panic("ReplaySource: script exhausted")
	}
	v := s.values[s.next]
	s.next++
	return int64(v * (1 << 63))
}

// Seed is a no-op; the script is the only state.
func (s *ReplaySource) Seed(int64) {}

// Remaining returns how many scripted values are left.
func (s *ReplaySource) Remaining() int {
	return len(s.values) - s.next
}
