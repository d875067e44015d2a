package catalogue

import (
	"errors"

	"github.com/passbi/transport_catalogue/internal/models"
)

// ErrMissingDistance is returned when neither direction of a stop pair has a
// recorded road distance
var ErrMissingDistance = errors.New("missing road distance")

type distanceKey struct {
	from models.StopID
	to   models.StopID
}

// DistanceIndex stores directional road distances in meters
type DistanceIndex struct {
	distances map[distanceKey]int
}

// NewDistanceIndex creates an empty distance index
func NewDistanceIndex() *DistanceIndex {
	return &DistanceIndex{distances: make(map[distanceKey]int)}
}

// Add records the distance from a to b. A later call for the same ordered
// pair overwrites the earlier one.
func (d *DistanceIndex) Add(a, b models.StopID, meters int) {
	d.distances[distanceKey{from: a, to: b}] = meters
}

// Get returns the distance from a to b. If only b to a was recorded, that
// value is used instead.
func (d *DistanceIndex) Get(a, b models.StopID) (int, error) {
	if meters, ok := d.distances[distanceKey{from: a, to: b}]; ok {
		return meters, nil
	}
	if meters, ok := d.distances[distanceKey{from: b, to: a}]; ok {
		return meters, nil
	}
	return 0, ErrMissingDistance
}

// Len returns the number of recorded directional entries
func (d *DistanceIndex) Len() int {
	return len(d.distances)
}
