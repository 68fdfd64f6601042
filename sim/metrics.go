// Summarises a finished (or stopped) run: per-node visit statistics,
// rejections, departures and the deadlock state.

package sim

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NodeMetrics aggregates the finished visits of one node.
type NodeMetrics struct {
	NodeID      int
	Visits      int     // records written (finished visits)
	Present     int     // individuals still at the node
	Rejected    int     // external arrivals turned away
	MeanWait    float64 // arrival to service start
	P95Wait     float64
	MeanService float64
	MeanBlocked float64 // service end to exit
	MaxBlocked  float64
}

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	SimEndedTime float64
	Events       int
	Departed     int     // individuals that reached the exit node
	MeanSojourn  float64 // first arrival to network exit, over departed individuals
	P95Sojourn   float64
	Deadlocked   bool
	DeadlockTime Instant
	Nodes        []NodeMetrics
}

// ComputeMetrics builds the report for the current state of net.
func ComputeMetrics(net *Network) *Metrics {
	m := &Metrics{
		SimEndedTime: net.Clock,
		Events:       net.EventCount,
		Departed:     len(net.Exit.Individuals),
		Deadlocked:   net.Deadlocked,
		DeadlockTime: net.DeadlockTime,
	}

	byNode := make(map[int][]DataRecord, len(net.Nodes))
	for _, r := range net.Log.Records {
		byNode[r.NodeID] = append(byNode[r.NodeID], r)
	}
	for _, n := range net.Nodes {
		recs := byNode[n.ID]
		nm := NodeMetrics{
			NodeID:   n.ID,
			Visits:   len(recs),
			Present:  len(n.individuals),
			Rejected: net.Rejected[n.ID],
		}
		if len(recs) > 0 {
			waits := make([]float64, len(recs))
			services := make([]float64, len(recs))
			blocked := make([]float64, len(recs))
			for i, r := range recs {
				waits[i] = r.Wait()
				services[i] = r.ServiceTime
				blocked[i] = r.Blocked()
				nm.MaxBlocked = math.Max(nm.MaxBlocked, blocked[i])
			}
			nm.MeanWait = stat.Mean(waits, nil)
			nm.P95Wait = quantile(0.95, waits)
			nm.MeanService = stat.Mean(services, nil)
			nm.MeanBlocked = stat.Mean(blocked, nil)
		}
		m.Nodes = append(m.Nodes, nm)
	}

	sojourns := make([]float64, 0, m.Departed)
	for _, ind := range net.Exit.Individuals {
		exit, ok := ind.ExitDate.Value()
		if !ok {
			continue
		}
		first := math.Inf(1)
		for _, recs := range ind.Records {
			for _, r := range recs {
				first = math.Min(first, r.ArrivalDate)
			}
		}
		if !math.IsInf(first, 1) {
			sojourns = append(sojourns, exit-first)
		}
	}
	if len(sojourns) > 0 {
		m.MeanSojourn = stat.Mean(sojourns, nil)
		m.P95Sojourn = quantile(0.95, sojourns)
	}
	return m
}

// quantile sorts a copy of xs and returns its empirical p-quantile.
func quantile(p float64, xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Print writes the report to w.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulation Ended     : t=%.4f\n", m.SimEndedTime)
	fmt.Fprintf(w, "Events Processed     : %d\n", m.Events)
	fmt.Fprintf(w, "Departed Individuals : %d\n", m.Departed)
	if m.Departed > 0 {
		fmt.Fprintf(w, "Mean Sojourn         : %.4f\n", m.MeanSojourn)
		fmt.Fprintf(w, "P95 Sojourn          : %.4f\n", m.P95Sojourn)
	}
	if m.Deadlocked {
		fmt.Fprintf(w, "DEADLOCK at          : t=%s\n", m.DeadlockTime)
	}
	for _, nm := range m.Nodes {
		fmt.Fprintf(w, "--- Node %d ---\n", nm.NodeID)
		fmt.Fprintf(w, "  Visits       : %d\n", nm.Visits)
		fmt.Fprintf(w, "  Present      : %d\n", nm.Present)
		fmt.Fprintf(w, "  Rejected     : %d\n", nm.Rejected)
		if nm.Visits > 0 {
			fmt.Fprintf(w, "  Mean Wait    : %.4f\n", nm.MeanWait)
			fmt.Fprintf(w, "  P95 Wait     : %.4f\n", nm.P95Wait)
			fmt.Fprintf(w, "  Mean Service : %.4f\n", nm.MeanService)
			fmt.Fprintf(w, "  Mean Blocked : %.4f\n", nm.MeanBlocked)
			fmt.Fprintf(w, "  Max Blocked  : %.4f\n", nm.MaxBlocked)
		}
	}
}
