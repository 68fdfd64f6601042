package sim

import "github.com/qnetsim/qnetsim/sim/trace"

// NodeConfig groups the construction parameters of one node.
type NodeConfig struct {
	Servers  int         // parallel servers, c (must be > 0)
	Capacity Capacity    // admission limit including servers (Unbounded, or >= Servers)
	Routing  [][]float64 // per class, one probability per transitive node in ID order
}

// NewNodeConfig creates a NodeConfig. All fields are required.
func NewNodeConfig(servers int, capacity Capacity, routing [][]float64) NodeConfig {
	return NodeConfig{
		Servers:  servers,
		Capacity: capacity,
		Routing:  routing,
	}
}

// RunConfig groups the driver's parameters.
type RunConfig struct {
	Horizon         float64 // stop before the first event after this time (<= 0: no horizon)
	Seed            int64   // master seed for PartitionedRNG
	MaxCascadeDepth int     // nested releases allowed per event (0 = unlimited)
	DetectDeadlock  bool    // stop the run when the blocking graph contains a knot
	CheckInvariants bool    // verify every node's invariants after each event
	Trace           trace.TraceConfig
}

// NewRunConfig creates a RunConfig with the given horizon and seed; the
// optional checks are off.
func NewRunConfig(horizon float64, seed int64) RunConfig {
	return RunConfig{
		Horizon: horizon,
		Seed:    seed,
	}
}

// NetworkConfig is everything NewNetwork needs. Nodes are numbered 1..len(Nodes)
// in slice order.
type NetworkConfig struct {
	Nodes    []NodeConfig
	Classes  int
	Services [][]Sampler // [node][class] service-time samplers
	Arrivals [][]Sampler // [node][class] inter-arrival samplers; nil entries mean no arrivals
	Run      RunConfig

	// Optional extra collaborators. The network always keeps its own
	// StateTracker and RecordLog; these receive the same calls.
	Observers []NetworkState
	Sinks     []RecordSink
}
