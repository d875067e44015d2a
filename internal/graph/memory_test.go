package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectedWeightedGraph(t *testing.T) {
	g := NewDirectedWeightedGraph(3)
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 0, g.EdgeCount())

	t.Run("Edge ids follow insertion order", func(t *testing.T) {
		id, err := g.AddEdge(Edge{From: 0, To: 1, Weight: 1.5})
		require.NoError(t, err)
		assert.Equal(t, EdgeID(0), id)

		id, err = g.AddEdge(Edge{From: 0, To: 2, Weight: 0})
		require.NoError(t, err)
		assert.Equal(t, EdgeID(1), id)

		assert.Equal(t, []EdgeID{0, 1}, g.IncidentEdges(0))
		assert.Empty(t, g.IncidentEdges(1))
		assert.Equal(t, Edge{From: 0, To: 2, Weight: 0}, g.Edge(1))
	})

	t.Run("Invalid edges are rejected", func(t *testing.T) {
		cases := []Edge{
			{From: 0, To: 3, Weight: 1},
			{From: -1, To: 0, Weight: 1},
			{From: 0, To: 1, Weight: -0.5},
			{From: 0, To: 1, Weight: math.NaN()},
			{From: 0, To: 1, Weight: math.Inf(1)},
		}
		for _, e := range cases {
			_, err := g.AddEdge(e)
			assert.True(t, errors.Is(err, ErrInvalidEdge), "edge %+v", e)
		}
		assert.Equal(t, 2, g.EdgeCount())
	})
}
