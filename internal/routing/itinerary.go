package routing

import (
	"errors"
	"fmt"

	"github.com/passbi/transport_catalogue/internal/graph"
	"github.com/passbi/transport_catalogue/internal/models"
)

// ErrInconsistentItinerary is returned when the segment times of a path do
// not add up to the weight the solver reported
var ErrInconsistentItinerary = errors.New("inconsistent itinerary")

// Reconstruct maps the edges of a route to itinerary segments in travel order
func Reconstruct(tg *graph.TransitGraph, route RouteInfo) (*models.Itinerary, error) {
	itinerary := &models.Itinerary{
		Segments: make([]models.Segment, 0, len(route.Edges)),
	}

	for _, id := range route.Edges {
		segment := tg.Segment(id)
		itinerary.TotalTime += segment.Minutes
		itinerary.Segments = append(itinerary.Segments, segment)
	}

	if itinerary.TotalTime != route.Weight {
		return nil, fmt.Errorf("%w: segments sum to %v, route weight is %v",
			ErrInconsistentItinerary, itinerary.TotalTime, route.Weight)
	}

	return itinerary, nil
}
