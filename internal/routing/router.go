package routing

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/passbi/transport_catalogue/internal/catalogue"
	"github.com/passbi/transport_catalogue/internal/graph"
	"github.com/passbi/transport_catalogue/internal/models"
)

// ErrNotFound is returned when a route endpoint is not a registered stop
var ErrNotFound = catalogue.ErrNotFound

// Options tunes solver preparation
type Options struct {
	// PrecomputeLimit is the largest stop count for which shortest-path trees
	// are computed for every stop up front. Zero disables precomputation.
	PrecomputeLimit int
	// Workers bounds the goroutines used for precomputation; zero means one per CPU
	Workers int
}

// TransportRouter answers fastest-itinerary queries over a frozen catalogue.
// The transit graph is built when the router is created; the solver is built
// once, by Prepare or by the first query.
type TransportRouter struct {
	catalogue *catalogue.Catalogue
	graph     *graph.TransitGraph
	opts      Options

	once   sync.Once
	solver *Solver
}

// NewTransportRouter builds the transit graph of a frozen catalogue
func NewTransportRouter(cat *catalogue.Catalogue, settings models.RoutingSettings, opts Options) (*TransportRouter, error) {
	if !cat.IsFrozen() {
		return nil, catalogue.ErrNotFrozen
	}

	tg, err := graph.BuildTransitGraph(cat, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to build transit graph: %w", err)
	}

	return &TransportRouter{
		catalogue: cat,
		graph:     tg,
		opts:      opts,
	}, nil
}

// Prepare builds the solver. It is safe to call more than once and from
// several goroutines; only the first call does work.
func (r *TransportRouter) Prepare() {
	r.once.Do(func() {
		start := time.Now()
		solver := NewSolver(r.graph.Graph)

		stops := r.catalogue.AllStops()
		if len(stops) <= r.opts.PrecomputeLimit {
			sources := make([]graph.VertexID, len(stops))
			for i, stop := range stops {
				sources[i] = graph.WaitVertex(stop.ID)
			}
			solver.Precompute(sources, r.opts.Workers)
		}

		r.solver = solver
		log.Printf("Route solver ready in %v (%d precomputed sources)", time.Since(start), solver.Precomputed())
	})
}

// GetRoute returns the fastest itinerary between two stops by name.
// The bool result is false when no itinerary exists. Unknown stop names
// yield ErrNotFound.
func (r *TransportRouter) GetRoute(from, to string) (*models.Itinerary, bool, error) {
	fromStop, err := r.catalogue.FindStop(from)
	if err != nil {
		return nil, false, err
	}
	toStop, err := r.catalogue.FindStop(to)
	if err != nil {
		return nil, false, err
	}

	r.Prepare()

	route, ok := r.solver.BuildRoute(graph.WaitVertex(fromStop.ID), graph.WaitVertex(toStop.ID))
	if !ok {
		return nil, false, nil
	}

	itinerary, err := Reconstruct(r.graph, route)
	if err != nil {
		return nil, false, err
	}
	return itinerary, true, nil
}

// Catalogue returns the catalogue the router was built from
func (r *TransportRouter) Catalogue() *catalogue.Catalogue {
	return r.catalogue
}

// GraphStats returns the vertex and edge counts of the transit graph
func (r *TransportRouter) GraphStats() (vertices, edges int) {
	return r.graph.Graph.VertexCount(), r.graph.Graph.EdgeCount()
}

// Settings returns the routing parameters the graph was built with
func (r *TransportRouter) Settings() models.RoutingSettings {
	return r.graph.Settings()
}
