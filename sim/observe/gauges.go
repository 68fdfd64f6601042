// Package observe exports a running network to Prometheus and OpenTelemetry.
// Nothing in sim depends on it; the CLI attaches it as an observer.
package observe

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qnetsim/qnetsim/sim"
)

// StateGauges mirrors occupancy transitions and finished visits into
// Prometheus collectors. It is both a sim.NetworkState and a sim.RecordSink.
type StateGauges struct {
	gatherer prometheus.Gatherer

	Occupancy   *prometheus.GaugeVec   // node, kind
	Transitions *prometheus.CounterVec // node, kind, direction
	Waits       *prometheus.HistogramVec
	Blocked     *prometheus.HistogramVec
	Services    *prometheus.HistogramVec
}

var visitBuckets = prometheus.ExponentialBuckets(0.01, 2, 14)

// NewStateGauges registers the collectors against reg, defaulting to the
// global Prometheus registry when nil.
func NewStateGauges(reg prometheus.Registerer) (*StateGauges, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	occupancy, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "qnetsim_node_occupancy",
		Help: "Individuals present at a node, split into in_service and blocked.",
	}, []string{"node", "kind"}), "qnetsim_node_occupancy")
	if err != nil {
		return nil, err
	}
	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qnetsim_node_transitions_total",
		Help: "Occupancy counter changes, labeled by node, kind and direction (in or out).",
	}, []string{"node", "kind", "direction"}), "qnetsim_node_transitions_total")
	if err != nil {
		return nil, err
	}
	waits, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qnetsim_visit_wait",
		Help:    "Time from arrival at a node to service start, in simulated time units.",
		Buckets: visitBuckets,
	}, []string{"node"}), "qnetsim_visit_wait")
	if err != nil {
		return nil, err
	}
	blocked, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qnetsim_visit_blocked",
		Help:    "Time from service end to leaving a node, in simulated time units.",
		Buckets: visitBuckets,
	}, []string{"node"}), "qnetsim_visit_blocked")
	if err != nil {
		return nil, err
	}
	services, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qnetsim_visit_service",
		Help:    "Sampled service durations, in simulated time units.",
		Buckets: visitBuckets,
	}, []string{"node"}), "qnetsim_visit_service")
	if err != nil {
		return nil, err
	}

	return &StateGauges{
		gatherer:    gatherer,
		Occupancy:   occupancy,
		Transitions: transitions,
		Waits:       waits,
		Blocked:     blocked,
		Services:    services,
	}, nil
}

// Gatherer returns the registry the collectors were registered with.
func (g *StateGauges) Gatherer() prometheus.Gatherer {
	return g.gatherer
}

// Increment satisfies sim.NetworkState.
func (g *StateGauges) Increment(nodeID int, kind sim.OccupancyKind) {
	node := strconv.Itoa(nodeID)
	g.Occupancy.WithLabelValues(node, string(kind)).Inc()
	g.Transitions.WithLabelValues(node, string(kind), "in").Inc()
}

// Decrement satisfies sim.NetworkState.
func (g *StateGauges) Decrement(nodeID int, kind sim.OccupancyKind) {
	node := strconv.Itoa(nodeID)
	g.Occupancy.WithLabelValues(node, string(kind)).Dec()
	g.Transitions.WithLabelValues(node, string(kind), "out").Inc()
}

// Emit satisfies sim.RecordSink.
func (g *StateGauges) Emit(_ *sim.Individual, rec sim.DataRecord) {
	node := strconv.Itoa(rec.NodeID)
	g.Waits.WithLabelValues(node).Observe(rec.Wait())
	g.Blocked.WithLabelValues(node).Observe(rec.Blocked())
	g.Services.WithLabelValues(node).Observe(rec.ServiceTime)
}

// register adds c to reg, reusing an existing collector of the same type.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
