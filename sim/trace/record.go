// Package trace provides decision-trace recording for queueing-network runs.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// ArrivalRecord captures one external arrival and whether its node had room.
type ArrivalRecord struct {
	IndividualID int
	Clock        float64
	Node         int
	Class        int
	Admitted     bool
}

// RoutingRecord captures one routing draw at the end of a service.
type RoutingRecord struct {
	IndividualID int
	Clock        float64
	From         int
	To           int  // destination node ID, or the exit node's ID
	Exit         bool // true when the draw fell in the exit mass
}

// BlockRecord captures an individual that finished service but found its
// destination full.
type BlockRecord struct {
	IndividualID int
	Clock        float64
	From         int
	To           int
	QueuePos     int // 1-based position in the destination's blocked queue
}

// UnblockRecord captures a blocked individual let into its destination.
type UnblockRecord struct {
	IndividualID int
	Clock        float64
	From         int
	To           int
	Waited       float64 // time between end of service and release
}
