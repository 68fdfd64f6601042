// Defines the Individual struct that models a customer travelling through the
// network. Tracks the timestamps of the current node visit and the records of
// every finished visit.

package sim

import (
	"fmt"
)

// IndividualState represents where an individual is in its current visit.
type IndividualState string

const (
	StateQueued    IndividualState = "queued"     // present, waiting for a server of its own node
	StateInService IndividualState = "in_service" // attached to a server and being served
	StateBlocked   IndividualState = "blocked"    // service finished, destination full; server still held
	StateDeparted  IndividualState = "departed"   // reached the exit node
)

// Individual models a single customer's journey. The four visit timestamps
// describe the node the individual is currently at and are reset to Unset once
// the visit's DataRecord has been written.
type Individual struct {
	ID    int // Unique identifier, assigned by the arrival process
	Class int // Customer class (0-based), selects service and routing rows

	State  IndividualState
	server *Server // server in use; set while in service or blocked

	ArrivalDate      Instant
	ServiceTime      float64 // sampled duration of the current service
	ServiceStartDate Instant
	ServiceEndDate   Instant
	ExitDate         Instant

	// Records maps node ID to the records of past visits there, in visit order.
	Records map[int][]DataRecord
}

// NewIndividual creates an individual with no visit history.
func NewIndividual(id, class int) *Individual {
	return &Individual{
		ID:      id,
		Class:   class,
		State:   StateQueued,
		Records: make(map[int][]DataRecord),
	}
}

// IsBlocked reports whether the individual has finished service and is
// waiting for room at its destination.
func (ind *Individual) IsBlocked() bool {
	return ind.State == StateBlocked
}

// InService reports whether the individual is attached to a server for service.
// Never true at the same time as IsBlocked.
func (ind *Individual) InService() bool {
	return ind.State == StateInService
}

// Server returns the server the individual is using or holding, or nil.
func (ind *Individual) Server() *Server {
	return ind.server
}

// Visits returns the total number of finished node visits.
func (ind *Individual) Visits() int {
	n := 0
	for _, recs := range ind.Records {
		n += len(recs)
	}
	return n
}

func (ind *Individual) resetVisit() {
	ind.ArrivalDate = Unset
	ind.ServiceTime = 0
	ind.ServiceStartDate = Unset
	ind.ServiceEndDate = Unset
	ind.ExitDate = Unset
}

// String returns a human-readable representation of an Individual.
func (ind Individual) String() string {
	return fmt.Sprintf("Individual %d", ind.ID)
}
