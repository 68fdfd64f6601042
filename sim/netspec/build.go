package netspec

import (
	"fmt"

	"github.com/qnetsim/qnetsim/sim"
)

// RunConfig returns the run settings carried by the spec. Callers layer
// their own overrides (CLI flags) on top before building.
func (s *NetworkSpec) RunConfig() sim.RunConfig {
	run := sim.NewRunConfig(s.Horizon, s.Seed)
	run.MaxCascadeDepth = s.MaxCascadeDepth
	return run
}

// NetworkConfig validates s and converts it into the engine's construction
// parameters.
func (s *NetworkSpec) NetworkConfig(run sim.RunConfig) (sim.NetworkConfig, error) {
	if err := s.Validate(); err != nil {
		return sim.NetworkConfig{}, err
	}
	cfg := sim.NetworkConfig{
		Classes:  s.Classes,
		Nodes:    make([]sim.NodeConfig, len(s.Nodes)),
		Services: make([][]sim.Sampler, len(s.Nodes)),
		Arrivals: make([][]sim.Sampler, len(s.Nodes)),
		Run:      run,
	}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		cfg.Nodes[i] = sim.NewNodeConfig(n.Servers, n.Capacity(), n.Routing)

		cfg.Services[i] = make([]sim.Sampler, s.Classes)
		for c, d := range n.Service {
			smp, err := NewSampler(d)
			if err != nil {
				return sim.NetworkConfig{}, fmt.Errorf("node %d service[%d]: %w", n.ID, c, err)
			}
			cfg.Services[i][c] = smp
		}

		if n.Arrivals == nil {
			continue
		}
		cfg.Arrivals[i] = make([]sim.Sampler, s.Classes)
		for c, d := range n.Arrivals {
			if d == nil {
				continue
			}
			smp, err := NewSampler(*d)
			if err != nil {
				return sim.NetworkConfig{}, fmt.Errorf("node %d arrivals[%d]: %w", n.ID, c, err)
			}
			cfg.Arrivals[i][c] = smp
		}
	}
	return cfg, nil
}

// Build validates s and constructs a network ready to run.
func Build(s *NetworkSpec, run sim.RunConfig) (*sim.Network, error) {
	cfg, err := s.NetworkConfig(run)
	if err != nil {
		return nil, err
	}
	return sim.NewNetwork(cfg)
}
