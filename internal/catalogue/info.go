package catalogue

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/passbi/transport_catalogue/internal/geo"
	"github.com/passbi/transport_catalogue/internal/models"
)

// BusInfo computes the structural statistics of a bus route
func (c *Catalogue) BusInfo(name string) (*models.BusInfo, error) {
	bus, err := c.FindBus(name)
	if err != nil {
		return nil, err
	}

	unique := make(map[models.StopID]struct{}, len(bus.Stops))
	for _, id := range bus.Stops {
		unique[id] = struct{}{}
	}

	roadLength := 0
	geoLength := 0.0
	for i := 1; i < len(bus.Stops); i++ {
		meters, err := c.Distance(bus.Stops[i-1], bus.Stops[i])
		if err != nil {
			return nil, fmt.Errorf("bus %q: %w", name, err)
		}
		roadLength += meters

		from := c.stops[bus.Stops[i-1]].Coordinates
		to := c.stops[bus.Stops[i]].Coordinates
		geoLength += geo.Distance(from.Lat, from.Lng, to.Lat, to.Lng)
	}

	// A route whose stops all share one point has no geometric length
	curvature := 1.0
	if geoLength > 0 {
		curvature = float64(roadLength) / geoLength
	}

	return &models.BusInfo{
		StopCount:       len(bus.Stops),
		UniqueStopCount: len(unique),
		RouteLength:     roadLength,
		Curvature:       curvature,
	}, nil
}

// StopBuses returns the sorted names of the buses serving a stop.
// A registered stop without buses yields an empty, non-nil slice.
func (c *Catalogue) StopBuses(name string) ([]string, error) {
	stop, err := c.FindStop(name)
	if err != nil {
		return nil, err
	}
	if !c.frozen {
		return nil, ErrNotFrozen
	}
	return c.stopBuses[stop.ID], nil
}

// Stats holds the size of the catalogue
type Stats struct {
	Stops     int `json:"stops"`
	Buses     int `json:"buses"`
	Distances int `json:"distances"`
}

// Stats returns the number of stops, buses and distance entries
func (c *Catalogue) Stats() Stats {
	return Stats{
		Stops:     len(c.stops),
		Buses:     len(c.buses),
		Distances: c.distances.Len(),
	}
}

// Fingerprint returns a deterministic hash of the catalogue contents.
// Two catalogues loaded from identical inputs share the same fingerprint.
func (c *Catalogue) Fingerprint() string {
	h := sha256.New()
	buf := make([]byte, 8)

	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf, uint64(v))
		h.Write(buf)
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}

	for _, stop := range c.stops {
		h.Write([]byte(stop.Name))
		writeFloat(stop.Coordinates.Lat)
		writeFloat(stop.Coordinates.Lng)
	}
	for _, bus := range c.buses {
		h.Write([]byte(bus.Name))
		for _, id := range bus.Stops {
			writeInt(int(id))
		}
		if bus.IsRoundTrip {
			writeInt(1)
		} else {
			writeInt(0)
		}
	}

	keys := make([]distanceKey, 0, len(c.distances.distances))
	for key := range c.distances.distances {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})
	for _, key := range keys {
		writeInt(int(key.from))
		writeInt(int(key.to))
		writeInt(c.distances.distances[key])
	}

	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}
