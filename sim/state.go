package sim

import "fmt"

// OccupancyKind selects one of the two per-node occupancy counters.
type OccupancyKind string

const (
	InService OccupancyKind = "in_service" // present and not blocked (served or queued)
	Blocked   OccupancyKind = "blocked"    // finished service, waiting on a full destination
)

// NetworkState receives occupancy transitions from nodes. The engine only
// writes to it; reporting reads from the implementation.
type NetworkState interface {
	Increment(nodeID int, kind OccupancyKind)
	Decrement(nodeID int, kind OccupancyKind)
}

// Occupancy is the pair of counters for one node.
type Occupancy struct {
	InService int
	Blocked   int
}

// StateTracker is the default NetworkState: plain per-node counters.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type StateTracker struct {
	counts map[int]*Occupancy
}

// NewStateTracker creates a tracker for nodes 1..numNodes.
func NewStateTracker(numNodes int) *StateTracker {
	st := &StateTracker{counts: make(map[int]*Occupancy, numNodes)}
	for id := 1; id <= numNodes; id++ {
		st.counts[id] = &Occupancy{}
	}
	return st
}

func (st *StateTracker) slot(nodeID int) *Occupancy {
	occ, ok := st.counts[nodeID]
	if !ok {
		panic(fmt.Sprintf("StateTracker: unknown node %d", nodeID))
	}
	return occ
}

// Increment adds one to the node's counter of the given kind.
func (st *StateTracker) Increment(nodeID int, kind OccupancyKind) {
	occ := st.slot(nodeID)
	switch kind {
	case InService:
		occ.InService++
	case Blocked:
		occ.Blocked++
	}
}

// Decrement removes one from the node's counter of the given kind.
func (st *StateTracker) Decrement(nodeID int, kind OccupancyKind) {
	occ := st.slot(nodeID)
	switch kind {
	case InService:
		occ.InService--
	case Blocked:
		occ.Blocked--
	}
}

// Get returns a copy of the node's counters.
func (st *StateTracker) Get(nodeID int) Occupancy {
	return *st.slot(nodeID)
}

// Snapshot returns the counters of every node, indexed by node ID - 1.
func (st *StateTracker) Snapshot() []Occupancy {
	out := make([]Occupancy, len(st.counts))
	for id, occ := range st.counts {
		out[id-1] = *occ
	}
	return out
}

// fanoutState forwards every transition to each member in order.
type fanoutState []NetworkState

func (f fanoutState) Increment(nodeID int, kind OccupancyKind) {
	for _, s := range f {
		s.Increment(nodeID, kind)
	}
}

func (f fanoutState) Decrement(nodeID int, kind OccupancyKind) {
	for _, s := range f {
		s.Decrement(nodeID, kind)
	}
}
