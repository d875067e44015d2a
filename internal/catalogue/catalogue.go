package catalogue

import (
	"errors"
	"fmt"
	"sort"

	"github.com/passbi/transport_catalogue/internal/models"
)

var (
	// ErrNotFound is returned when a stop or bus name is not registered
	ErrNotFound = errors.New("not found")
	// ErrUnknownStop is returned when a bus references an unregistered stop
	ErrUnknownStop = errors.New("unknown stop")
	// ErrDuplicate is returned when a stop or bus name is registered twice
	ErrDuplicate = errors.New("duplicate name")
	// ErrFrozen is returned when the catalogue is mutated after Freeze
	ErrFrozen = errors.New("catalogue is frozen")
	// ErrNotFrozen is returned by queries that need the post-load indexes
	ErrNotFrozen = errors.New("catalogue is not frozen")
)

// Catalogue owns the stops, buses and road distances of a transit network.
// Stops and buses live in append-only slices and are referenced by index.
// After Freeze the catalogue is read-only and safe for concurrent readers.
type Catalogue struct {
	stops       []models.Stop
	buses       []models.Bus
	stopsByName map[string]models.StopID
	busesByName map[string]models.BusID
	distances   *DistanceIndex

	stopBuses [][]string // stopID -> sorted bus names, computed by Freeze
	spatial   *SpatialIndex
	frozen    bool
}

// New creates an empty catalogue
func New() *Catalogue {
	return &Catalogue{
		stopsByName: make(map[string]models.StopID),
		busesByName: make(map[string]models.BusID),
		distances:   NewDistanceIndex(),
	}
}

// AddStop registers a new stop and returns its id
func (c *Catalogue) AddStop(name string, coords models.Coordinates) (models.StopID, error) {
	if c.frozen {
		return 0, ErrFrozen
	}
	if _, ok := c.stopsByName[name]; ok {
		return 0, fmt.Errorf("stop %q: %w", name, ErrDuplicate)
	}

	id := models.StopID(len(c.stops))
	c.stops = append(c.stops, models.Stop{
		ID:          id,
		Name:        name,
		Coordinates: coords,
	})
	c.stopsByName[name] = id

	return id, nil
}

// AddBus registers a bus over already registered stops.
// For a non-round bus the stored sequence is the outward list followed by
// the same stops in reverse, without repeating the last one.
func (c *Catalogue) AddBus(name string, stopNames []string, isRoundTrip bool) (models.BusID, error) {
	if c.frozen {
		return 0, ErrFrozen
	}
	if _, ok := c.busesByName[name]; ok {
		return 0, fmt.Errorf("bus %q: %w", name, ErrDuplicate)
	}

	outward := make([]models.StopID, 0, len(stopNames))
	for _, stopName := range stopNames {
		id, ok := c.stopsByName[stopName]
		if !ok {
			return 0, fmt.Errorf("bus %q references stop %q: %w", name, stopName, ErrUnknownStop)
		}
		outward = append(outward, id)
	}

	stops := outward
	if !isRoundTrip && len(outward) > 1 {
		stops = make([]models.StopID, 0, 2*len(outward)-1)
		stops = append(stops, outward...)
		for i := len(outward) - 2; i >= 0; i-- {
			stops = append(stops, outward[i])
		}
	}

	id := models.BusID(len(c.buses))
	c.buses = append(c.buses, models.Bus{
		ID:          id,
		Name:        name,
		Stops:       stops,
		IsRoundTrip: isRoundTrip,
	})
	c.busesByName[name] = id

	return id, nil
}

// AddDistance records the road distance from one stop to another by name
func (c *Catalogue) AddDistance(from, to string, meters int) error {
	if c.frozen {
		return ErrFrozen
	}
	fromID, ok := c.stopsByName[from]
	if !ok {
		return fmt.Errorf("distance from %q: %w", from, ErrUnknownStop)
	}
	toID, ok := c.stopsByName[to]
	if !ok {
		return fmt.Errorf("distance to %q: %w", to, ErrUnknownStop)
	}

	c.distances.Add(fromID, toID, meters)
	return nil
}

// Freeze ends the loading phase. It computes the stop to buses index in a
// single pass and builds the spatial index; later mutations fail.
func (c *Catalogue) Freeze() {
	if c.frozen {
		return
	}

	stopBuses := make([][]string, len(c.stops))
	for _, bus := range c.buses {
		seen := make(map[models.StopID]bool, len(bus.Stops))
		for _, stopID := range bus.Stops {
			if seen[stopID] {
				continue
			}
			seen[stopID] = true
			stopBuses[stopID] = append(stopBuses[stopID], bus.Name)
		}
	}
	for i := range stopBuses {
		if stopBuses[i] == nil {
			stopBuses[i] = []string{}
			continue
		}
		sort.Strings(stopBuses[i])
	}

	c.stopBuses = stopBuses
	c.spatial = NewSpatialIndex(c.stops)
	c.frozen = true
}

// IsFrozen reports whether Freeze has been called
func (c *Catalogue) IsFrozen() bool {
	return c.frozen
}

// FindStop returns a stop by name
func (c *Catalogue) FindStop(name string) (*models.Stop, error) {
	id, ok := c.stopsByName[name]
	if !ok {
		return nil, fmt.Errorf("stop %q: %w", name, ErrNotFound)
	}
	return &c.stops[id], nil
}

// FindBus returns a bus by name
func (c *Catalogue) FindBus(name string) (*models.Bus, error) {
	id, ok := c.busesByName[name]
	if !ok {
		return nil, fmt.Errorf("bus %q: %w", name, ErrNotFound)
	}
	return &c.buses[id], nil
}

// Stop returns a stop by id. The id must come from this catalogue.
func (c *Catalogue) Stop(id models.StopID) *models.Stop {
	return &c.stops[id]
}

// AllStops returns the stops in registration order.
// The order defines the vertex numbering of the routing graph.
func (c *Catalogue) AllStops() []models.Stop {
	return c.stops
}

// AllBuses returns the buses in registration order
func (c *Catalogue) AllBuses() []models.Bus {
	return c.buses
}

// Distance returns the road distance between two stops, falling back to the
// opposite direction when only that one was recorded
func (c *Catalogue) Distance(from, to models.StopID) (int, error) {
	meters, err := c.distances.Get(from, to)
	if err != nil {
		return 0, fmt.Errorf("%s -> %s: %w", c.stops[from].Name, c.stops[to].Name, err)
	}
	return meters, nil
}

// Validate checks that every pair of adjacent stops on every bus has a road
// distance in at least one direction. All violations are reported together.
func (c *Catalogue) Validate() error {
	var errs []error
	reported := make(map[distanceKey]bool)
	for _, bus := range c.buses {
		for i := 1; i < len(bus.Stops); i++ {
			from, to := bus.Stops[i-1], bus.Stops[i]
			if _, err := c.Distance(from, to); err != nil {
				key := distanceKey{from: min(from, to), to: max(from, to)}
				if reported[key] {
					continue
				}
				reported[key] = true
				errs = append(errs, fmt.Errorf("bus %q: %w", bus.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
