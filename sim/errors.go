package sim

import "errors"

var (
	// ErrInvariant marks a state the engine must never reach: accepting into a
	// full node, finishing service with nobody due, releasing someone who is
	// not present. It points at a bug in the driver or the network wiring.
	ErrInvariant = errors.New("node invariant violated")

	// ErrNoFreeServer is returned when service must start but every server of
	// the node is busy.
	ErrNoFreeServer = errors.New("no free server")

	// ErrCascadeDepth is returned when one event triggers more nested
	// releases than the network allows.
	ErrCascadeDepth = errors.New("release cascade too deep")
)
