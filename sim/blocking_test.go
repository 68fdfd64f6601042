package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(node, index int) ServerKey { return ServerKey{Node: node, Index: index} }

func newGraph(keys ...ServerKey) *DependencyGraph {
	g := NewDependencyGraph()
	for _, k := range keys {
		g.AddServer(k)
	}
	return g
}

func TestDependencyGraph_AddEdges_AndRemoveIncident(t *testing.T) {
	// GIVEN server (1,1) waiting on both servers of node 2
	g := newGraph(key(1, 1), key(2, 1), key(2, 2), key(3, 1))
	g.AddEdges(key(1, 1), []ServerKey{key(2, 1), key(2, 2)})
	g.AddEdge(key(3, 1), key(1, 1))
	require.Len(t, g.Edges(), 3)

	// WHEN every edge touching (1,1) is removed
	g.RemoveEdgesIncidentTo(key(1, 1))

	// THEN no edge touches it and the vertex persists
	assert.Equal(t, 0, g.Degree(key(1, 1)))
	assert.Empty(t, g.Edges())
	assert.Equal(t, []ServerKey{key(1, 1), key(2, 1), key(2, 2), key(3, 1)}, g.Servers())
}

func TestDependencyGraph_AddServer_Idempotent(t *testing.T) {
	g := newGraph(key(1, 1))
	g.AddServer(key(1, 1))

	assert.Len(t, g.Servers(), 1)
}

func TestDependencyGraph_UnknownServerPanics(t *testing.T) {
	g := newGraph(key(1, 1))

	assert.Panics(t, func() { g.AddEdge(key(1, 1), key(9, 9)) })
}

func TestDependencyGraph_SelfLoop(t *testing.T) {
	// GIVEN a server waiting on itself (a node routing into itself while full)
	g := newGraph(key(1, 1))
	g.AddEdge(key(1, 1), key(1, 1))

	// THEN the loop is an edge and a knot
	assert.True(t, g.HasEdge(key(1, 1), key(1, 1)))
	assert.Equal(t, []BlockingEdge{{From: key(1, 1), To: key(1, 1)}}, g.Edges())
	assert.Equal(t, [][]ServerKey{{key(1, 1)}}, g.Knots())

	// WHEN its occupant leaves
	g.RemoveEdgesIncidentTo(key(1, 1))

	// THEN the loop is gone
	assert.False(t, g.HasEdge(key(1, 1), key(1, 1)))
	assert.False(t, g.Deadlocked())
}

func TestDependencyGraph_Knots(t *testing.T) {
	tests := []struct {
		name  string
		edges []BlockingEdge
		want  [][]ServerKey
	}{
		{
			name:  "chain is not a knot",
			edges: []BlockingEdge{{key(1, 1), key(2, 1)}, {key(2, 1), key(3, 1)}},
		},
		{
			name:  "two-cycle is a knot",
			edges: []BlockingEdge{{key(1, 1), key(2, 1)}, {key(2, 1), key(1, 1)}},
			want:  [][]ServerKey{{key(1, 1), key(2, 1)}},
		},
		{
			name: "cycle with an exit is not a knot",
			edges: []BlockingEdge{
				{key(1, 1), key(2, 1)}, {key(2, 1), key(1, 1)},
				{key(2, 1), key(3, 1)},
			},
		},
		{
			name: "three-cycle reached from outside is a knot",
			edges: []BlockingEdge{
				{key(3, 1), key(1, 1)},
				{key(1, 1), key(2, 1)}, {key(2, 1), key(2, 2)}, {key(2, 2), key(1, 1)},
			},
			want: [][]ServerKey{{key(1, 1), key(2, 1), key(2, 2)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(key(1, 1), key(2, 1), key(2, 2), key(3, 1))
			for _, e := range tt.edges {
				g.AddEdge(e.From, e.To)
			}
			assert.Equal(t, tt.want, g.Knots())
			assert.Equal(t, tt.want != nil, g.Deadlocked())
		})
	}
}
