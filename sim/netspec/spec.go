// Package netspec loads YAML network descriptions and builds runnable
// sim.Network values from them.
package netspec

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qnetsim/qnetsim/sim"
)

// routingTolerance absorbs rounding in routing rows written as decimals.
const routingTolerance = 1e-9

// NetworkSpec is the top-level network description.
type NetworkSpec struct {
	Version         string     `yaml:"version"`
	Seed            int64      `yaml:"seed"`
	Horizon         float64    `yaml:"horizon,omitempty"`           // 0 = run until no events remain
	MaxCascadeDepth int        `yaml:"max_cascade_depth,omitempty"` // 0 = unlimited
	Classes         int        `yaml:"classes"`
	Nodes           []NodeSpec `yaml:"nodes"`
}

// NodeSpec describes one transitive node. Per-class lists are indexed by
// customer class.
type NodeSpec struct {
	ID            int         `yaml:"id"`
	Servers       int         `yaml:"servers"`
	QueueCapacity *int        `yaml:"queue_capacity,omitempty"` // waiting room beyond servers; nil = unbounded
	Arrivals      []*DistSpec `yaml:"arrivals,omitempty"`       // inter-arrival times; nil entry = no arrivals
	Service       []DistSpec  `yaml:"service"`
	Routing       [][]float64 `yaml:"routing"` // one probability per node in id order; the rest exits
}

// DistSpec parameterizes a non-negative random variate.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Values []float64          `yaml:"values,omitempty"` // empirical observations
}

// Valid value registries.
var (
	validVersions = map[string]bool{
		"": true, "1": true,
	}
	validDistTypes = map[string]bool{
		"exponential": true, "deterministic": true, "uniform": true, "triangular": true,
		"gamma": true, "lognormal": true, "weibull": true, "normal": true, "empirical": true,
	}
)

// LoadNetworkSpec reads and parses a YAML network description.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadNetworkSpec(path string) (*NetworkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network spec: %w", err)
	}
	return ParseNetworkSpec(data)
}

// ParseNetworkSpec parses a YAML network description held in memory.
func ParseNetworkSpec(data []byte) (*NetworkSpec, error) {
	var spec NetworkSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing network spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *NetworkSpec) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unsupported version %q; valid: 1", s.Version)
	}
	if math.IsNaN(s.Horizon) || math.IsInf(s.Horizon, 0) || s.Horizon < 0 {
		return fmt.Errorf("horizon must be a finite non-negative number, got %f", s.Horizon)
	}
	if s.MaxCascadeDepth < 0 {
		return fmt.Errorf("max_cascade_depth must be non-negative, got %d", s.MaxCascadeDepth)
	}
	if s.Classes < 1 {
		return fmt.Errorf("classes must be at least 1, got %d", s.Classes)
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("at least one node required")
	}
	for i := range s.Nodes {
		if err := s.validateNode(&s.Nodes[i], i); err != nil {
			return err
		}
	}
	return nil
}

func (s *NetworkSpec) validateNode(n *NodeSpec, idx int) error {
	prefix := fmt.Sprintf("node[%d]", idx)
	if n.ID != idx+1 {
		return fmt.Errorf("%s: id must be %d (ids run 1..n in order), got %d", prefix, idx+1, n.ID)
	}
	if n.Servers < 1 {
		return fmt.Errorf("%s: servers must be positive, got %d", prefix, n.Servers)
	}
	if n.QueueCapacity != nil && *n.QueueCapacity < 0 {
		return fmt.Errorf("%s: queue_capacity must be non-negative, got %d", prefix, *n.QueueCapacity)
	}
	if len(n.Service) != s.Classes {
		return fmt.Errorf("%s: service has %d entries, want one per class (%d)", prefix, len(n.Service), s.Classes)
	}
	for c := range n.Service {
		if err := validateDistSpec(fmt.Sprintf("%s.service[%d]", prefix, c), &n.Service[c]); err != nil {
			return err
		}
	}
	if n.Arrivals != nil && len(n.Arrivals) != s.Classes {
		return fmt.Errorf("%s: arrivals has %d entries, want one per class (%d)", prefix, len(n.Arrivals), s.Classes)
	}
	for c, d := range n.Arrivals {
		if d == nil {
			continue
		}
		if err := validateDistSpec(fmt.Sprintf("%s.arrivals[%d]", prefix, c), d); err != nil {
			return err
		}
	}
	if len(n.Routing) != s.Classes {
		return fmt.Errorf("%s: routing has %d rows, want one per class (%d)", prefix, len(n.Routing), s.Classes)
	}
	for c, row := range n.Routing {
		if len(row) != len(s.Nodes) {
			return fmt.Errorf("%s.routing[%d]: has %d entries, want one per node (%d)", prefix, c, len(row), len(s.Nodes))
		}
		sum := 0.0
		for j, p := range row {
			if math.IsNaN(p) || p < 0 || p > 1 {
				return fmt.Errorf("%s.routing[%d][%d] must be in [0, 1], got %f", prefix, c, j, p)
			}
			sum += p
		}
		if sum > 1+routingTolerance {
			return fmt.Errorf("%s.routing[%d]: probabilities sum to %f, must not exceed 1", prefix, c, sum)
		}
	}
	return nil
}

func validateDistSpec(prefix string, d *DistSpec) error {
	if !validDistTypes[d.Type] {
		return fmt.Errorf("%s: unknown distribution type %q; valid: %s", prefix, d.Type, validDistTypeList())
	}
	for name, val := range d.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%s.params.%s must be a finite number, got %f", prefix, name, val)
		}
	}
	smp, err := NewSampler(*d)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	// Arrivals and services are both durations; one that is always zero
	// stalls the clock or strands the individual in service.
	if sim.AlwaysZero(smp) {
		return fmt.Errorf("%s: %s distribution always samples 0, durations must be able to exceed 0", prefix, d.Type)
	}
	return nil
}

func validDistTypeList() string {
	names := make([]string, 0, len(validDistTypes))
	for name := range validDistTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// IsValidDistType reports whether name is a supported distribution type.
func IsValidDistType(name string) bool {
	return validDistTypes[name]
}

// Capacity returns the node's admission limit: servers plus waiting room.
func (n *NodeSpec) Capacity() sim.Capacity {
	if n.QueueCapacity == nil {
		return sim.Unbounded
	}
	return sim.Bounded(n.Servers + *n.QueueCapacity)
}
