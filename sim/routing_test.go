package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCumulativeRows(t *testing.T) {
	got := cumulativeRows([][]float64{{0.25, 0.25, 0.5}, {0, 0, 0}, {0.5, 0, 0.25}})

	assert.Equal(t, [][]float64{{0.25, 0.5, 1}, {0, 0, 0}, {0.5, 0.5, 0.75}}, got)
}

func TestPickDestination(t *testing.T) {
	cum := []float64{0.25, 0.5, 0.75}
	tests := []struct {
		draw float64
		want int
	}{
		{0, 0},
		{0.2, 0},
		{0.25, 1}, // the boundary belongs to the next node
		{0.5, 2},
		{0.74, 2},
		{0.75, -1}, // residual mass exits
		{0.99, -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pickDestination(cum, tt.draw), "draw %v", tt.draw)
	}
}

func TestPickDestination_ZeroRowAlwaysExits(t *testing.T) {
	assert.Equal(t, -1, pickDestination([]float64{0, 0}, 0))
	assert.Equal(t, -1, pickDestination(nil, 0.5))
}

func TestPickDestination_SameDrawsSameDestinations(t *testing.T) {
	cum := cumulativeRows([][]float64{{0.1, 0.6, 0.3}})[0]
	draws := []float64{0.05, 0.3, 0.69, 0.71, 0.95, 0.3}

	first := make([]int, len(draws))
	second := make([]int, len(draws))
	for i, d := range draws {
		first[i] = pickDestination(cum, d)
	}
	for i, d := range draws {
		second[i] = pickDestination(cum, d)
	}

	assert.Equal(t, first, second)
	assert.Equal(t, []int{0, 1, 1, 2, 2, 1}, first)
}
