package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/qnetsim/qnetsim/sim/trace"
)

// EventSource is anything the driver can schedule: it reports when its next
// event happens and processes that event to completion when fired.
type EventSource interface {
	NextEventTime() Instant
	Fire(now float64) error
}

// Fire processes the node's next service completion.
func (n *Node) Fire(now float64) error {
	return n.FinishService(now)
}

// ArrivalSource feeds one customer class into one node from outside the
// network.
type ArrivalSource struct {
	Node  *Node
	Class int

	sampler Sampler
	rng     *rand.Rand
	next    Instant
	net     *Network
}

// NextEventTime returns the time of the next external arrival.
func (a *ArrivalSource) NextEventTime() Instant {
	return a.next
}

// Fire creates a new individual and offers it to the node. A full node
// rejects the arrival; the individual is lost.
func (a *ArrivalSource) Fire(now float64) error {
	ind := NewIndividual(a.net.newIndividualID(), a.Class)
	admitted := a.Node.hasRoom()
	if admitted {
		if err := a.Node.Accept(ind, now); err != nil {
			return err
		}
	} else {
		a.net.Rejected[a.Node.ID]++
		logrus.Warnf("[t=%g] %s full, rejected arrival %s", now, a.Node, ind)
	}
	if a.net.Trace != nil {
		a.net.Trace.RecordArrival(trace.ArrivalRecord{
			IndividualID: ind.ID,
			Clock:        now,
			Node:         a.Node.ID,
			Class:        a.Class,
			Admitted:     admitted,
		})
	}
	a.schedule(now)
	return nil
}

func (a *ArrivalSource) schedule(now float64) {
	a.next = At(now + max(0, a.sampler.Sample(a.rng)))
}
