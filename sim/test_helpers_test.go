package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qnetsim/qnetsim/sim/trace"
)

// constSampler always returns the same value.
type constSampler float64

func (c constSampler) Sample(*rand.Rand) float64 { return float64(c) }

func (c constSampler) PointMass() (float64, bool) { return float64(c), true }

// expSampler draws exponential variates with the given rate.
type expSampler float64

func (e expSampler) Sample(rng *rand.Rand) float64 { return rng.ExpFloat64() / float64(e) }

// routeTo returns a single-class routing row over n nodes that sends
// everyone to node dest, or to the exit when dest is 0.
func routeTo(n, dest int) [][]float64 {
	row := make([]float64, n)
	if dest > 0 {
		row[dest-1] = 1
	}
	return [][]float64{row}
}

// testNetwork builds a single-class network without external arrivals, with
// constant service times per node, invariant checking and decision tracing on.
func testNetwork(t *testing.T, nodes []NodeConfig, service ...float64) *Network {
	t.Helper()
	require.Len(t, service, len(nodes), "one service time per node")
	services := make([][]Sampler, len(nodes))
	for i, d := range service {
		services[i] = []Sampler{constSampler(d)}
	}
	run := NewRunConfig(0, 42)
	run.CheckInvariants = true
	run.DetectDeadlock = true
	run.Trace = trace.TraceConfig{Level: trace.TraceLevelDecisions}
	net, err := NewNetwork(NetworkConfig{
		Nodes:    nodes,
		Classes:  1,
		Services: services,
		Run:      run,
	})
	require.NoError(t, err)
	return net
}

// accept admits a fresh single-class individual into n.
func accept(t *testing.T, n *Node, id int, now float64) *Individual {
	t.Helper()
	ind := NewIndividual(id, 0)
	require.NoError(t, n.Accept(ind, now))
	return ind
}

// serverKeys lists the keys of a node's servers.
func serverKeys(n *Node) []ServerKey {
	keys := make([]ServerKey, len(n.Servers))
	for i, s := range n.Servers {
		keys[i] = s.Key()
	}
	return keys
}
