package sim

import (
	"fmt"
	"math"
)

// Instant is a point on the virtual clock that may be unset.
// The zero value is unset: used for "no scheduled event" and for the
// per-visit timestamps of an individual that have not happened yet.
type Instant struct {
	at    float64
	valid bool
}

// Unset is the instant that never happens.
var Unset = Instant{}

// At returns a set instant at time t.
func At(t float64) Instant {
	return Instant{at: t, valid: true}
}

// IsSet reports whether the instant holds a time.
func (i Instant) IsSet() bool {
	return i.valid
}

// Value returns the time and whether it is set.
func (i Instant) Value() (float64, bool) {
	return i.at, i.valid
}

// Time returns the time, or +Inf when unset. Handy for arithmetic in reports
// where an unset instant sorts after every real one.
func (i Instant) Time() float64 {
	if !i.valid {
		return math.Inf(1)
	}
	return i.at
}

// Before reports whether i happens strictly before o. Unset never happens, so
// any set instant is before an unset one.
func (i Instant) Before(o Instant) bool {
	if !i.valid {
		return false
	}
	if !o.valid {
		return true
	}
	return i.at < o.at
}

func (i Instant) String() string {
	if !i.valid {
		return "none"
	}
	return fmt.Sprintf("%g", i.at)
}

// Capacity is the maximum number of individuals a node may hold,
// servers included. The zero value is unbounded.
type Capacity struct {
	limit   int
	bounded bool
}

// Unbounded is a capacity with no limit.
var Unbounded = Capacity{}

// Bounded returns a capacity of n individuals.
func Bounded(n int) Capacity {
	return Capacity{limit: n, bounded: true}
}

// Limit returns the limit and whether one exists.
func (c Capacity) Limit() (int, bool) {
	return c.limit, c.bounded
}

// Admits reports whether a node currently holding present individuals has
// room for one more.
func (c Capacity) Admits(present int) bool {
	return !c.bounded || present < c.limit
}

func (c Capacity) String() string {
	if !c.bounded {
		return "inf"
	}
	return fmt.Sprintf("%d", c.limit)
}
