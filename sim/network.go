package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/qnetsim/qnetsim/sim/trace"
)

// routingTolerance absorbs rounding in routing rows written as decimals.
const routingTolerance = 1e-9

// Env holds the collaborators shared by every node of one network. Nodes
// never reach past it; the driver owns it.
type Env struct {
	Graph           BlockingGraph
	State           NetworkState
	Sink            RecordSink
	Services        ServiceTimeSource
	Trace           *trace.SimulationTrace // nil when decision tracing is off
	MaxCascadeDepth int

	nodes []*Node // by ID - 1
	exit  *ExitNode
	depth int // current nesting of release calls
}

// node resolves a transitive node by ID.
func (e *Env) node(id int) (*Node, error) {
	if id < 1 || id > len(e.nodes) {
		return nil, fmt.Errorf("%w: no node with id %d", ErrInvariant, id)
	}
	return e.nodes[id-1], nil
}

// Network is the event loop: it owns the nodes, the exit node, the external
// arrival sources and the virtual clock.
type Network struct {
	Clock    float64
	Nodes    []*Node // by ID - 1
	Exit     *ExitNode
	Arrivals []*ArrivalSource
	Graph    *DependencyGraph
	Tracker  *StateTracker
	Log      *RecordLog
	Trace    *trace.SimulationTrace

	EventCount   int
	Rejected     map[int]int // node ID -> external arrivals turned away
	Deadlocked   bool
	DeadlockTime Instant

	run    RunConfig
	env    *Env
	rng    *PartitionedRNG
	nextID int
}

// NewNetwork validates cfg and builds a network at time zero with the first
// external arrival of every source already scheduled.
func NewNetwork(cfg NetworkConfig) (*Network, error) {
	if err := validateNetworkConfig(cfg); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Run.Seed))
	net := &Network{
		Graph:    NewDependencyGraph(),
		Tracker:  NewStateTracker(len(cfg.Nodes)),
		Log:      NewRecordLog(),
		Rejected: make(map[int]int),
		run:      cfg.Run,
		rng:      rng,
	}
	if cfg.Run.Trace.Enabled() {
		net.Trace = trace.NewSimulationTrace(cfg.Run.Trace)
	}

	services := NewServiceTable(rng)
	for i, perClass := range cfg.Services {
		services.Set(i+1, perClass)
	}
	var state NetworkState = net.Tracker
	if len(cfg.Observers) > 0 {
		state = append(fanoutState{net.Tracker}, cfg.Observers...)
	}
	var sink RecordSink = net.Log
	if len(cfg.Sinks) > 0 {
		sink = append(fanoutSink{net.Log}, cfg.Sinks...)
	}

	net.Exit = &ExitNode{ID: len(cfg.Nodes) + 1}
	net.env = &Env{
		Graph:           net.Graph,
		State:           state,
		Sink:            sink,
		Services:        services,
		Trace:           net.Trace,
		MaxCascadeDepth: cfg.Run.MaxCascadeDepth,
		exit:            net.Exit,
	}
	for i, nc := range cfg.Nodes {
		id := i + 1
		net.Nodes = append(net.Nodes, newNode(id, nc, net.env, rng.ForSubsystem(SubsystemRouting(id))))
	}
	net.env.nodes = net.Nodes

	for i, perClass := range cfg.Arrivals {
		for class, sampler := range perClass {
			if sampler == nil {
				continue
			}
			src := &ArrivalSource{
				Node:    net.Nodes[i],
				Class:   class,
				sampler: sampler,
				rng:     rng.ForSubsystem(SubsystemArrival(i+1, class)),
				net:     net,
			}
			src.schedule(0)
			net.Arrivals = append(net.Arrivals, src)
		}
	}
	logrus.Infof("network built: %d nodes, %d classes, %d arrival sources, seed %d",
		len(net.Nodes), cfg.Classes, len(net.Arrivals), cfg.Run.Seed)
	return net, nil
}

func validateNetworkConfig(cfg NetworkConfig) error {
	n := len(cfg.Nodes)
	if n == 0 {
		return fmt.Errorf("network needs at least one node")
	}
	if cfg.Classes < 1 {
		return fmt.Errorf("network needs at least one customer class, got %d", cfg.Classes)
	}
	if len(cfg.Services) != n {
		return fmt.Errorf("service samplers given for %d nodes, network has %d", len(cfg.Services), n)
	}
	if cfg.Arrivals != nil && len(cfg.Arrivals) != n {
		return fmt.Errorf("arrival samplers given for %d nodes, network has %d", len(cfg.Arrivals), n)
	}
	if cfg.Run.MaxCascadeDepth < 0 {
		return fmt.Errorf("max cascade depth must be >= 0, got %d", cfg.Run.MaxCascadeDepth)
	}
	if math.IsNaN(cfg.Run.Horizon) {
		return fmt.Errorf("horizon must be a number")
	}
	for i, nc := range cfg.Nodes {
		id := i + 1
		if nc.Servers < 1 {
			return fmt.Errorf("node %d: servers must be > 0, got %d", id, nc.Servers)
		}
		if limit, bounded := nc.Capacity.Limit(); bounded && limit < nc.Servers {
			return fmt.Errorf("node %d: capacity %d is below its %d servers", id, limit, nc.Servers)
		}
		if len(nc.Routing) != cfg.Classes {
			return fmt.Errorf("node %d: routing has %d class rows, want %d", id, len(nc.Routing), cfg.Classes)
		}
		for class, row := range nc.Routing {
			if len(row) != n {
				return fmt.Errorf("node %d class %d: routing row has %d entries, want %d", id, class, len(row), n)
			}
			sum := 0.0
			for j, p := range row {
				if p < 0 || p > 1 || math.IsNaN(p) {
					return fmt.Errorf("node %d class %d: probability to node %d is %g, want [0,1]", id, class, j+1, p)
				}
				sum += p
			}
			if sum > 1+routingTolerance {
				return fmt.Errorf("node %d class %d: routing probabilities sum to %g > 1", id, class, sum)
			}
		}
		if len(cfg.Services[i]) != cfg.Classes {
			return fmt.Errorf("node %d: %d service samplers, want %d", id, len(cfg.Services[i]), cfg.Classes)
		}
		for class, s := range cfg.Services[i] {
			if s == nil {
				return fmt.Errorf("node %d class %d: missing service sampler", id, class)
			}
			if AlwaysZero(s) {
				return fmt.Errorf("node %d class %d: service sampler always returns 0", id, class)
			}
		}
		if cfg.Arrivals != nil && cfg.Arrivals[i] != nil && len(cfg.Arrivals[i]) != cfg.Classes {
			return fmt.Errorf("node %d: %d arrival samplers, want %d", id, len(cfg.Arrivals[i]), cfg.Classes)
		}
		if cfg.Arrivals != nil {
			for class, s := range cfg.Arrivals[i] {
				if s != nil && AlwaysZero(s) {
					return fmt.Errorf("node %d class %d: arrival sampler always returns 0", id, class)
				}
			}
		}
	}
	return nil
}

// Node returns the transitive node with the given ID, or nil.
func (net *Network) Node(id int) *Node {
	if id < 1 || id > len(net.Nodes) {
		return nil
	}
	return net.Nodes[id-1]
}

// RNG returns the network's partitioned random source.
func (net *Network) RNG() *PartitionedRNG {
	return net.rng
}

func (net *Network) newIndividualID() int {
	net.nextID++
	return net.nextID
}

// nextSource picks the source with the earliest next event. Ties go to
// external arrivals first, then to the lowest node ID.
func (net *Network) nextSource() (EventSource, float64, bool) {
	var best EventSource
	bestAt := math.Inf(1)
	consider := func(src EventSource) {
		if at, ok := src.NextEventTime().Value(); ok && at < bestAt {
			best, bestAt = src, at
		}
	}
	for _, a := range net.Arrivals {
		consider(a)
	}
	for _, n := range net.Nodes {
		consider(n)
	}
	return best, bestAt, best != nil
}

// NextEventTime returns the time of the next event anywhere in the network.
func (net *Network) NextEventTime() Instant {
	if _, at, ok := net.nextSource(); ok {
		return At(at)
	}
	return Unset
}

// Step advances the clock to the next event and processes it. It returns
// false when nothing is scheduled.
func (net *Network) Step() (bool, error) {
	src, at, ok := net.nextSource()
	if !ok {
		return false, nil
	}
	if at < net.Clock {
		return false, fmt.Errorf("%w: event at t=%g precedes clock %g", ErrInvariant, at, net.Clock)
	}
	net.Clock = at
	if err := src.Fire(at); err != nil {
		return false, fmt.Errorf("event at t=%g: %w", at, err)
	}
	net.EventCount++

	if net.run.CheckInvariants {
		if err := net.CheckInvariants(); err != nil {
			return false, fmt.Errorf("after event at t=%g: %w", at, err)
		}
	}
	if net.run.DetectDeadlock && net.Graph.Deadlocked() {
		net.Deadlocked = true
		net.DeadlockTime = At(at)
		logrus.Warnf("[t=%g] deadlock: knot in blocking graph %v", at, net.Graph.Knots())
	}
	return true, nil
}

// Run processes events until none remain, the next one lies past the
// horizon, or a deadlock is detected.
func (net *Network) Run() error {
	logrus.Infof("[t=%g] simulation started", net.Clock)
	for !net.Deadlocked {
		_, at, ok := net.nextSource()
		if !ok {
			break
		}
		if net.run.Horizon > 0 && at > net.run.Horizon {
			break
		}
		if _, err := net.Step(); err != nil {
			return err
		}
	}
	logrus.Infof("[t=%g] simulation ended after %d events", net.Clock, net.EventCount)
	return nil
}

// CheckInvariants verifies every node and the network-wide counters.
func (net *Network) CheckInvariants() error {
	for _, n := range net.Nodes {
		if err := n.CheckInvariants(); err != nil {
			return err
		}
		occ := net.Tracker.Get(n.ID)
		blocked := 0
		for _, ind := range n.individuals {
			if ind.IsBlocked() {
				blocked++
			}
		}
		if occ.Blocked != blocked || occ.InService != len(n.individuals)-blocked {
			return fmt.Errorf("%w: %s counters %+v disagree with %d present, %d blocked",
				ErrInvariant, n, occ, len(n.individuals), blocked)
		}
	}
	return nil
}
