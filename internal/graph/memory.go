package graph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidEdge is returned when an edge references a missing vertex or
// carries a negative or non-finite weight
var ErrInvalidEdge = errors.New("invalid edge")

// VertexID identifies a vertex in a DirectedWeightedGraph
type VertexID int

// EdgeID identifies an edge in a DirectedWeightedGraph, assigned in insertion order
type EdgeID int

// Edge is a directed weighted connection between two vertices
type Edge struct {
	From   VertexID
	To     VertexID
	Weight float64
}

// DirectedWeightedGraph holds a fixed set of vertices and an append-only list
// of edges with non-negative weights. Once built it is only read.
type DirectedWeightedGraph struct {
	edges    []Edge
	incident [][]EdgeID // from vertex -> outgoing edge ids
}

// NewDirectedWeightedGraph creates a graph with vertexCount vertices and no edges
func NewDirectedWeightedGraph(vertexCount int) *DirectedWeightedGraph {
	return &DirectedWeightedGraph{
		incident: make([][]EdgeID, vertexCount),
	}
}

// AddEdge appends an edge and returns its id
func (g *DirectedWeightedGraph) AddEdge(e Edge) (EdgeID, error) {
	n := VertexID(len(g.incident))
	if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
		return 0, fmt.Errorf("%w: vertex out of range (%d -> %d, %d vertices)", ErrInvalidEdge, e.From, e.To, n)
	}
	if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		return 0, fmt.Errorf("%w: weight %v", ErrInvalidEdge, e.Weight)
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, e)
	g.incident[e.From] = append(g.incident[e.From], id)
	return id, nil
}

// VertexCount returns the number of vertices
func (g *DirectedWeightedGraph) VertexCount() int {
	return len(g.incident)
}

// EdgeCount returns the number of edges
func (g *DirectedWeightedGraph) EdgeCount() int {
	return len(g.edges)
}

// Edge returns an edge by id
func (g *DirectedWeightedGraph) Edge(id EdgeID) Edge {
	return g.edges[id]
}

// IncidentEdges returns the ids of the edges leaving vertex v
func (g *DirectedWeightedGraph) IncidentEdges(v VertexID) []EdgeID {
	return g.incident[v]
}
