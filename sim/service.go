package sim

import (
	"fmt"
	"math/rand"
)

// Sampler draws one value of a random variate. Concrete distributions live in
// sim/netspec; the engine only needs this method.
type Sampler interface {
	Sample(rng *rand.Rand) float64
}

// PointMass is implemented by samplers that can report that every draw
// returns the same value.
type PointMass interface {
	PointMass() (value float64, fixed bool)
}

// AlwaysZero reports whether s can only ever produce a zero duration. Such a
// sampler never advances the clock: zero inter-arrival times repeat at the
// same instant forever and a zero service end is never scheduled.
func AlwaysZero(s Sampler) bool {
	pm, ok := s.(PointMass)
	if !ok {
		return false
	}
	v, fixed := pm.PointMass()
	return fixed && v <= 0
}

// ServiceTimeSource hands out service durations for a (node, class) pair.
// Returned durations are never negative.
type ServiceTimeSource interface {
	Sample(nodeID, class int) float64
}

// ServiceTable is the ServiceTimeSource used by Network: one Sampler per
// node and class, each node drawing from its own RNG partition.
type ServiceTable struct {
	samplers map[int][]Sampler
	rng      *PartitionedRNG
}

// NewServiceTable creates an empty table drawing from rng.
func NewServiceTable(rng *PartitionedRNG) *ServiceTable {
	if rng == nil {
		panic("NewServiceTable: rng must not be nil")
	}
	return &ServiceTable{samplers: make(map[int][]Sampler), rng: rng}
}

// Set installs the per-class samplers of one node.
func (t *ServiceTable) Set(nodeID int, perClass []Sampler) {
	t.samplers[nodeID] = perClass
}

// Sample draws a service duration, clamped at zero.
func (t *ServiceTable) Sample(nodeID, class int) float64 {
	perClass, ok := t.samplers[nodeID]
	if !ok || class < 0 || class >= len(perClass) || perClass[class] == nil {
		panic(fmt.Sprintf("ServiceTable: no sampler for node %d class %d", nodeID, class))
	}
	d := perClass[class].Sample(t.rng.ForSubsystem(SubsystemService(nodeID)))
	if d < 0 {
		return 0
	}
	return d
}
