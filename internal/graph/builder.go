package graph

import (
	"fmt"
	"log"

	"github.com/passbi/transport_catalogue/internal/models"
)

const (
	metersInKilometer = 1000.0
	minutesInHour     = 60.0
)

// Network is the read-only view of a frozen catalogue the builder consumes
type Network interface {
	AllStops() []models.Stop
	AllBuses() []models.Bus
	Distance(from, to models.StopID) (int, error)
}

// TransitGraph is the routing graph of a transit network together with the
// itinerary segment each edge stands for. It is immutable once built.
//
// Every stop k owns two vertices: wait = 2k, where a traveler stands before
// boarding, and board = 2k+1, reached after paying the wait time. Ride edges
// go from the board vertex of one stop to the wait vertex of another.
type TransitGraph struct {
	Graph    *DirectedWeightedGraph
	segments []models.Segment // edge id -> segment
	settings models.RoutingSettings
}

// WaitVertex returns the vertex where a traveler waits at a stop
func WaitVertex(stop models.StopID) VertexID {
	return VertexID(2 * stop)
}

// BoardVertex returns the vertex from which buses leave a stop
func BoardVertex(stop models.StopID) VertexID {
	return VertexID(2*stop + 1)
}

// Segment returns the itinerary segment of an edge
func (t *TransitGraph) Segment(id EdgeID) models.Segment {
	return t.segments[id]
}

// Settings returns the routing parameters the graph was built with
func (t *TransitGraph) Settings() models.RoutingSettings {
	return t.settings
}

// RideMinutes converts a road distance to travel time at the configured velocity
func RideMinutes(meters int, velocityKmh float64) float64 {
	return float64(meters) / metersInKilometer / velocityKmh * minutesInHour
}

type builder struct {
	network  Network
	stops    []models.Stop
	settings models.RoutingSettings
	graph    *DirectedWeightedGraph
	segments []models.Segment
}

// BuildTransitGraph constructs the routing graph of a frozen network.
// A bus with fewer than two stops adds no edges. A missing road distance on
// any bus aborts the build.
func BuildTransitGraph(network Network, settings models.RoutingSettings) (*TransitGraph, error) {
	if settings.BusWaitTime <= 0 || settings.BusVelocity <= 0 {
		return nil, fmt.Errorf("invalid routing settings: wait %v min, velocity %v km/h",
			settings.BusWaitTime, settings.BusVelocity)
	}

	stops := network.AllStops()
	b := &builder{
		network:  network,
		stops:    stops,
		settings: settings,
		graph:    NewDirectedWeightedGraph(2 * len(stops)),
	}

	// 1. Wait edges, one per stop
	for _, stop := range stops {
		err := b.addEdge(WaitVertex(stop.ID), BoardVertex(stop.ID), models.Segment{
			Type:    models.SegmentWait,
			Minutes: settings.BusWaitTime,
			Stop:    stop.Name,
		})
		if err != nil {
			return nil, err
		}
	}

	// 2. Ride edges for every span of every bus
	for _, bus := range network.AllBuses() {
		if err := b.addBusEdges(bus); err != nil {
			return nil, err
		}
	}

	log.Printf("Transit graph built: %d vertices, %d edges", b.graph.VertexCount(), b.graph.EdgeCount())

	return &TransitGraph{
		Graph:    b.graph,
		segments: b.segments,
		settings: settings,
	}, nil
}

// addBusEdges adds one ride edge per span [i, j) of the bus.
// A round bus is spanned over its whole stored sequence. A non-round bus is
// spanned over its outward half, and each outward span gets a twin edge in
// the opposite direction weighted by the inbound road distances.
func (b *builder) addBusEdges(bus models.Bus) error {
	stops := bus.Stops
	if len(stops) < 2 {
		return nil
	}

	last := len(stops) - 1
	if !bus.IsRoundTrip {
		last = len(stops) / 2
	}

	for i := 0; i < last; i++ {
		forward, inverse := 0, 0
		for j := i + 1; j <= last; j++ {
			meters, err := b.network.Distance(stops[j-1], stops[j])
			if err != nil {
				return fmt.Errorf("bus %q: %w", bus.Name, err)
			}
			forward += meters

			if !bus.IsRoundTrip {
				meters, err := b.network.Distance(stops[j], stops[j-1])
				if err != nil {
					return fmt.Errorf("bus %q: %w", bus.Name, err)
				}
				inverse += meters
			}

			// Riding back to the boarding stop is never shorter than staying
			if stops[i] == stops[j] {
				continue
			}

			if err := b.addRide(bus.Name, stops[i], stops[j], forward, j-i); err != nil {
				return err
			}
			if !bus.IsRoundTrip {
				if err := b.addRide(bus.Name, stops[j], stops[i], inverse, j-i); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (b *builder) addRide(busName string, from, to models.StopID, meters, spanCount int) error {
	minutes := RideMinutes(meters, b.settings.BusVelocity)
	return b.addEdge(BoardVertex(from), WaitVertex(to), models.Segment{
		Type:      models.SegmentRide,
		Minutes:   minutes,
		Bus:       busName,
		SpanCount: spanCount,
	})
}

func (b *builder) addEdge(from, to VertexID, segment models.Segment) error {
	id, err := b.graph.AddEdge(Edge{From: from, To: to, Weight: segment.Minutes})
	if err != nil {
		return err
	}
	if int(id) != len(b.segments) {
		return fmt.Errorf("edge id %d out of sync with %d segments", id, len(b.segments))
	}
	b.segments = append(b.segments, segment)
	return nil
}
