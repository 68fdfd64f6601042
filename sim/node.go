package sim

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/qnetsim/qnetsim/sim/trace"
)

// station is anything a departing individual can be routed to: a Node or the
// ExitNode.
type station interface {
	stationID() int
	hasRoom() bool
	Accept(ind *Individual, now float64) error
}

// Node is a queueing station: c parallel servers in front of a FIFO buffer.
// The first c present individuals occupy the service positions; the rest
// queue behind them in arrival order.
type Node struct {
	ID      int
	Servers []*Server

	capacity    Capacity
	cumRouting  [][]float64 // per class, cumulative over transitive nodes
	individuals []*Individual
	index       map[int]*Individual // present individuals by ID
	nextEvent   Instant
	blocked     BlockedQueue // individuals at other nodes waiting to get in here
	router      *rand.Rand
	env         *Env
}

func newNode(id int, cfg NodeConfig, env *Env, router *rand.Rand) *Node {
	n := &Node{
		ID:          id,
		Servers:     make([]*Server, cfg.Servers),
		capacity:    cfg.Capacity,
		cumRouting:  cumulativeRows(cfg.Routing),
		individuals: make([]*Individual, 0),
		index:       make(map[int]*Individual),
		router:      router,
		env:         env,
	}
	for i := range n.Servers {
		n.Servers[i] = newServer(id, i+1)
		env.Graph.AddServer(n.Servers[i].Key())
	}
	return n
}

func (n *Node) String() string {
	return fmt.Sprintf("Node %d", n.ID)
}

func (n *Node) stationID() int { return n.ID }

func (n *Node) hasRoom() bool {
	return n.capacity.Admits(len(n.individuals))
}

// C returns the number of parallel servers.
func (n *Node) C() int {
	return len(n.Servers)
}

// Capacity returns the node's admission limit, servers included.
func (n *Node) Capacity() Capacity {
	return n.capacity
}

// Individuals returns the present individuals, service positions first.
// The returned slice is the node's internal storage -- callers MUST NOT
// append to or reslice it.
func (n *Node) Individuals() []*Individual {
	return n.individuals
}

// Individual returns the present individual with the given ID, or nil.
func (n *Node) Individual(id int) *Individual {
	return n.index[id]
}

// BlockedQueue returns the individuals waiting to enter this node, longest
// waiting first.
func (n *Node) BlockedQueue() []BlockedEntry {
	return n.blocked.Items()
}

// NextEventTime returns the time of this node's next service completion.
func (n *Node) NextEventTime() Instant {
	return n.nextEvent
}

// CumulativeRouting returns the cumulative routing row of a class.
func (n *Node) CumulativeRouting(class int) []float64 {
	return n.cumRouting[class]
}

func (n *Node) serviceSlots() []*Individual {
	return n.individuals[:min(n.C(), len(n.individuals))]
}

// UpdateNextEventTime recomputes the next service completion: the earliest
// service end among in-service individuals that lies strictly after now.
// An end equal to now belongs to the event being processed.
func (n *Node) UpdateNextEventTime(now float64) {
	next := Unset
	for _, ind := range n.serviceSlots() {
		if !ind.InService() {
			continue
		}
		end, ok := ind.ServiceEndDate.Value()
		if !ok || end <= now {
			continue
		}
		if !next.IsSet() || end < next.at {
			next = At(end)
		}
	}
	n.nextEvent = next
}

// Accept admits an individual at time now. The caller has already checked
// that the node has room; Accept only re-checks to fail fast.
func (n *Node) Accept(ind *Individual, now float64) error {
	if !n.hasRoom() {
		return fmt.Errorf("%w: %s at capacity %s cannot accept %s", ErrInvariant, n, n.capacity, ind)
	}
	if _, dup := n.index[ind.ID]; dup {
		return fmt.Errorf("%w: %s already holds %s", ErrInvariant, n, ind)
	}
	if ind.server != nil {
		return fmt.Errorf("%w: %s arrived at %s still holding %s", ErrInvariant, ind, n, ind.server)
	}
	ind.ExitDate = Unset
	ind.State = StateQueued
	ind.ArrivalDate = At(now)
	if len(n.individuals) < n.C() {
		if err := n.beginService(ind, now); err != nil {
			return err
		}
	}
	n.individuals = append(n.individuals, ind)
	n.index[ind.ID] = ind
	n.env.State.Increment(n.ID, InService)
	logrus.Debugf("[t=%g] %s accepted %s (present=%d)", now, n, ind, len(n.individuals))
	n.UpdateNextEventTime(now)
	return nil
}

// FinishService fires this node's scheduled event: the first service position
// whose service ends at NextEventTime leaves for its routed destination, or
// blocks if the destination is full.
func (n *Node) FinishService(now float64) error {
	due, ok := n.nextEvent.Value()
	if !ok {
		return fmt.Errorf("%w: %s has no scheduled event", ErrInvariant, n)
	}
	if now != due {
		return fmt.Errorf("%w: %s fired at %g, its next event is at %g", ErrInvariant, n, now, due)
	}
	var ind *Individual
	for _, cand := range n.serviceSlots() {
		if end, set := cand.ServiceEndDate.Value(); set && cand.InService() && end == due {
			ind = cand
			break
		}
	}
	if ind == nil {
		return fmt.Errorf("%w: %s has nobody finishing at %g", ErrInvariant, n, due)
	}

	dest, err := n.route(ind, now)
	if err != nil {
		return err
	}
	if dest.hasRoom() {
		return n.release(ind, dest, now)
	}
	target, ok := dest.(*Node)
	if !ok {
		return fmt.Errorf("%w: destination %d of %s refused entry", ErrInvariant, dest.stationID(), ind)
	}
	n.blockIndividual(ind, target, now)
	return nil
}

// route draws the next destination for ind.
func (n *Node) route(ind *Individual, now float64) (station, error) {
	if ind.Class < 0 || ind.Class >= len(n.cumRouting) {
		return nil, fmt.Errorf("%w: %s has no routing row for class %d", ErrInvariant, n, ind.Class)
	}
	idx := pickDestination(n.cumRouting[ind.Class], n.router.Float64())
	var dest station = n.env.exit
	if idx >= 0 {
		dest = n.env.nodes[idx]
	}
	if n.env.Trace != nil {
		n.env.Trace.RecordRouting(trace.RoutingRecord{
			IndividualID: ind.ID,
			Clock:        now,
			From:         n.ID,
			To:           dest.stationID(),
			Exit:         idx < 0,
		})
	}
	return dest, nil
}

// release moves ind out of this node into dest. Everything this node owes
// (server, record, counters, the blocked queue, the freed slot) is settled
// before dest sees the individual.
func (n *Node) release(ind *Individual, dest station, now float64) error {
	n.env.depth++
	defer func() { n.env.depth-- }()
	if limit := n.env.MaxCascadeDepth; limit > 0 && n.env.depth > limit {
		return fmt.Errorf("%w: %d nested releases at t=%g", ErrCascadeDepth, n.env.depth, now)
	}

	pos := slices.Index(n.individuals, ind)
	if pos < 0 {
		return fmt.Errorf("%w: %s is not at %s", ErrInvariant, ind, n)
	}
	if ind.server == nil {
		return fmt.Errorf("%w: %s leaving %s never started service", ErrInvariant, ind, n)
	}
	wasBlocked := ind.IsBlocked()

	n.individuals = slices.Delete(n.individuals, pos, pos+1)
	delete(n.index, ind.ID)
	ind.ExitDate = At(now)
	n.detachServer(ind.server, ind)
	n.writeRecord(ind)
	if wasBlocked {
		n.env.State.Decrement(n.ID, Blocked)
	} else {
		n.env.State.Decrement(n.ID, InService)
	}
	logrus.Debugf("[t=%g] %s released %s to %d", now, n, ind, dest.stationID())

	if err := n.releaseBlockedIndividual(now); err != nil {
		return err
	}
	if err := n.beginServiceOnRelease(now); err != nil {
		return err
	}
	n.UpdateNextEventTime(now)
	return dest.Accept(ind, now)
}

// releaseBlockedIndividual lets the longest-waiting individual blocked on
// this node in, releasing it from its origin node.
func (n *Node) releaseBlockedIndividual(now float64) error {
	entry, ok := n.blocked.Dequeue()
	if !ok {
		return nil
	}
	origin, err := n.env.node(entry.NodeID)
	if err != nil {
		return err
	}
	ind := origin.Individual(entry.IndividualID)
	if ind == nil {
		return fmt.Errorf("%w: blocked individual %d is not at node %d", ErrInvariant, entry.IndividualID, entry.NodeID)
	}
	if n.env.Trace != nil {
		end, _ := ind.ServiceEndDate.Value()
		n.env.Trace.RecordUnblock(trace.UnblockRecord{
			IndividualID: ind.ID,
			Clock:        now,
			From:         origin.ID,
			To:           n.ID,
			Waited:       now - end,
		})
	}
	logrus.Debugf("[t=%g] %s unblocked %s from %s", now, n, ind, origin)
	return origin.release(ind, n, now)
}

// blockIndividual keeps ind on its server, marks it blocked and queues it on
// dest. Its server now waits on every server of dest.
func (n *Node) blockIndividual(ind *Individual, dest *Node, now float64) {
	ind.State = StateBlocked
	n.env.State.Decrement(n.ID, InService)
	n.env.State.Increment(n.ID, Blocked)
	dest.blocked.Enqueue(BlockedEntry{NodeID: n.ID, IndividualID: ind.ID})

	targets := make([]ServerKey, len(dest.Servers))
	for i, s := range dest.Servers {
		targets[i] = s.Key()
	}
	n.env.Graph.AddEdges(ind.server.Key(), targets)

	if n.env.Trace != nil {
		n.env.Trace.RecordBlock(trace.BlockRecord{
			IndividualID: ind.ID,
			Clock:        now,
			From:         n.ID,
			To:           dest.ID,
			QueuePos:     dest.blocked.Len(),
		})
	}
	logrus.Debugf("[t=%g] %s blocked %s on %s (queue=%s)", now, n, ind, dest, dest.blocked.String())
	n.UpdateNextEventTime(now)
}

// beginService puts ind on a free server and schedules its service end.
func (n *Node) beginService(ind *Individual, now float64) error {
	srv, err := n.freeServer()
	if err != nil {
		return err
	}
	if err := n.attachServer(srv, ind); err != nil {
		return err
	}
	ind.State = StateInService
	ind.ServiceTime = n.env.Services.Sample(n.ID, ind.Class)
	ind.ServiceStartDate = At(now)
	ind.ServiceEndDate = At(now + ind.ServiceTime)
	return nil
}

// beginServiceOnRelease fills service positions left without a server after
// someone leaves.
func (n *Node) beginServiceOnRelease(now float64) error {
	for _, ind := range n.serviceSlots() {
		if ind.State != StateQueued {
			continue
		}
		if err := n.beginService(ind, now); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) freeServer() (*Server, error) {
	for _, s := range n.Servers {
		if !s.busy {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w at %s", ErrNoFreeServer, n)
}

// attachServer binds srv and ind. Everyone already blocked on this node now
// waits on srv as well.
func (n *Node) attachServer(srv *Server, ind *Individual) error {
	srv.busy = true
	srv.occupant = ind
	ind.server = srv
	for _, e := range n.blocked.Items() {
		origin, err := n.env.node(e.NodeID)
		if err != nil {
			return err
		}
		waiting := origin.Individual(e.IndividualID)
		if waiting == nil || waiting.server == nil {
			return fmt.Errorf("%w: blocked individual %d lost its server at node %d", ErrInvariant, e.IndividualID, e.NodeID)
		}
		if waiting != ind {
			n.env.Graph.AddEdge(waiting.server.Key(), srv.Key())
		}
	}
	return nil
}

// detachServer frees srv and drops every blocking edge touching it.
func (n *Node) detachServer(srv *Server, ind *Individual) {
	srv.busy = false
	srv.occupant = nil
	ind.server = nil
	n.env.Graph.RemoveEdgesIncidentTo(srv.Key())
}

// writeRecord stores the finished visit on the individual, hands it to the
// sink and clears the visit timestamps.
func (n *Node) writeRecord(ind *Individual) {
	rec := newDataRecord(ind, n.ID)
	ind.Records[n.ID] = append(ind.Records[n.ID], rec)
	if n.env.Sink != nil {
		n.env.Sink.Emit(ind, rec)
	}
	ind.resetVisit()
}

// CheckInvariants verifies the node's structural invariants: occupancy within
// capacity, servers only in service positions, server/occupant agreement and
// a consistent ID index.
func (n *Node) CheckInvariants() error {
	if !n.capacity.Admits(len(n.individuals) - 1) {
		return fmt.Errorf("%w: %s holds %d over capacity %s", ErrInvariant, n, len(n.individuals), n.capacity)
	}
	if len(n.index) != len(n.individuals) {
		return fmt.Errorf("%w: %s index has %d entries for %d individuals", ErrInvariant, n, len(n.index), len(n.individuals))
	}
	busy := 0
	for _, s := range n.Servers {
		if !s.busy {
			continue
		}
		busy++
		if s.occupant == nil || s.occupant.server != s {
			return fmt.Errorf("%w: %s busy without a matching occupant", ErrInvariant, s)
		}
	}
	held := 0
	for pos, ind := range n.individuals {
		if n.index[ind.ID] != ind {
			return fmt.Errorf("%w: %s missing from %s index", ErrInvariant, ind, n)
		}
		if ind.server == nil {
			if ind.State != StateQueued {
				return fmt.Errorf("%w: %s is %s without a server", ErrInvariant, ind, ind.State)
			}
			continue
		}
		held++
		if pos >= n.C() {
			return fmt.Errorf("%w: %s holds a server at position %d of %s", ErrInvariant, ind, pos, n)
		}
		if ind.State != StateInService && ind.State != StateBlocked {
			return fmt.Errorf("%w: %s holds a server while %s", ErrInvariant, ind, ind.State)
		}
	}
	if held != busy {
		return fmt.Errorf("%w: %s has %d busy servers but %d holders", ErrInvariant, n, busy, held)
	}
	return nil
}
