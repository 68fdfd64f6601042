package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// BlockingGraph records which servers are waiting on which. An edge (u, v)
// means the occupant of u has finished service and cannot leave because v's
// node is full. Nodes are the only writers.
type BlockingGraph interface {
	AddServer(k ServerKey)
	AddEdge(from, to ServerKey)
	AddEdges(from ServerKey, to []ServerKey)
	RemoveEdgesIncidentTo(k ServerKey)
}

// BlockingEdge is one edge of the graph, for reporting.
type BlockingEdge struct {
	From ServerKey
	To   ServerKey
}

// DependencyGraph is the BlockingGraph used by Network, stored as a gonum
// directed graph. A blocked individual routed back into its own full node
// waits on its own server; simple graphs reject self edges, so those loops are
// kept on the side.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type DependencyGraph struct {
	g         *simple.DirectedGraph
	ids       map[ServerKey]int64
	keys      map[int64]ServerKey
	selfLoops map[int64]bool
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		g:         simple.NewDirectedGraph(),
		ids:       make(map[ServerKey]int64),
		keys:      make(map[int64]ServerKey),
		selfLoops: make(map[int64]bool),
	}
}

// AddServer adds a vertex for k. Adding the same server twice is a no-op.
func (d *DependencyGraph) AddServer(k ServerKey) {
	if _, ok := d.ids[k]; ok {
		return
	}
	id := int64(len(d.ids))
	d.ids[k] = id
	d.keys[id] = k
	d.g.AddNode(simple.Node(id))
}

func (d *DependencyGraph) id(k ServerKey) int64 {
	id, ok := d.ids[k]
	if !ok {
		panic(fmt.Sprintf("DependencyGraph: %s was never added", k))
	}
	return id
}

// AddEdge records that from's occupant waits on to.
func (d *DependencyGraph) AddEdge(from, to ServerKey) {
	fid, tid := d.id(from), d.id(to)
	if fid == tid {
		d.selfLoops[fid] = true
		return
	}
	d.g.SetEdge(d.g.NewEdge(simple.Node(fid), simple.Node(tid)))
}

// AddEdges records that from's occupant waits on every server in to.
func (d *DependencyGraph) AddEdges(from ServerKey, to []ServerKey) {
	for _, k := range to {
		d.AddEdge(from, k)
	}
}

// RemoveEdgesIncidentTo drops every edge into or out of k.
func (d *DependencyGraph) RemoveEdgesIncidentTo(k ServerKey) {
	id := d.id(k)
	delete(d.selfLoops, id)
	// Collect first: removing while iterating invalidates the iterators.
	out := graph.NodesOf(d.g.From(id))
	in := graph.NodesOf(d.g.To(id))
	for _, n := range out {
		d.g.RemoveEdge(id, n.ID())
	}
	for _, n := range in {
		d.g.RemoveEdge(n.ID(), id)
	}
}

// HasEdge reports whether the edge (from, to) exists.
func (d *DependencyGraph) HasEdge(from, to ServerKey) bool {
	fid, tid := d.id(from), d.id(to)
	if fid == tid {
		return d.selfLoops[fid]
	}
	return d.g.HasEdgeFromTo(fid, tid)
}

// Degree returns the number of edges touching k, self loops counted once.
func (d *DependencyGraph) Degree(k ServerKey) int {
	id := d.id(k)
	n := d.g.From(id).Len() + d.g.To(id).Len()
	if d.selfLoops[id] {
		n++
	}
	return n
}

// Servers returns every vertex, sorted by node then index.
func (d *DependencyGraph) Servers() []ServerKey {
	out := make([]ServerKey, 0, len(d.ids))
	for k := range d.ids {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

// Edges returns every edge, sorted by source then target.
func (d *DependencyGraph) Edges() []BlockingEdge {
	out := make([]BlockingEdge, 0)
	it := d.g.Edges()
	for it.Next() {
		e := it.Edge()
		out = append(out, BlockingEdge{From: d.keys[e.From().ID()], To: d.keys[e.To().ID()]})
	}
	for id := range d.selfLoops {
		out = append(out, BlockingEdge{From: d.keys[id], To: d.keys[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return keyLess(out[i].From, out[j].From)
		}
		return keyLess(out[i].To, out[j].To)
	})
	return out
}

// Knots returns every set of servers that wait only on each other. Each
// occupant in a knot is blocked and every server it could move to is held by
// another blocked occupant of the same knot, so none of them can ever leave.
func (d *DependencyGraph) Knots() [][]ServerKey {
	var knots [][]ServerKey
	for _, scc := range topo.TarjanSCC(d.g) {
		if len(scc) == 1 && !d.selfLoops[scc[0].ID()] {
			continue
		}
		members := make(map[int64]bool, len(scc))
		for _, n := range scc {
			members[n.ID()] = true
		}
		closed := true
		for _, n := range scc {
			it := d.g.From(n.ID())
			for it.Next() {
				if !members[it.Node().ID()] {
					closed = false
					break
				}
			}
			if !closed {
				break
			}
		}
		if !closed {
			continue
		}
		knot := make([]ServerKey, 0, len(scc))
		for _, n := range scc {
			knot = append(knot, d.keys[n.ID()])
		}
		sortKeys(knot)
		knots = append(knots, knot)
	}
	return knots
}

// Deadlocked reports whether any knot exists.
func (d *DependencyGraph) Deadlocked() bool {
	return len(d.Knots()) > 0
}

func keyLess(a, b ServerKey) bool {
	if a.Node != b.Node {
		return a.Node < b.Node
	}
	return a.Index < b.Index
}

func sortKeys(keys []ServerKey) {
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
}
