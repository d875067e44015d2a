package catalogue

import (
	"sort"

	"github.com/tidwall/rtree"

	"github.com/passbi/transport_catalogue/internal/geo"
	"github.com/passbi/transport_catalogue/internal/models"
)

// Search radii tried in order before falling back to a full scan
var nearbyRadii = []float64{500, 2000, 10000, 50000}

// SpatialIndex answers nearest-stop queries over an R-tree of stop points
type SpatialIndex struct {
	tree  rtree.RTreeG[models.StopID]
	stops []models.Stop
}

// NewSpatialIndex indexes the given stops by (lng, lat)
func NewSpatialIndex(stops []models.Stop) *SpatialIndex {
	idx := &SpatialIndex{stops: stops}
	for _, stop := range stops {
		p := [2]float64{stop.Coordinates.Lng, stop.Coordinates.Lat}
		idx.tree.Insert(p, p, stop.ID)
	}
	return idx
}

// Nearby returns up to limit stops ordered by distance from (lat, lng)
func (s *SpatialIndex) Nearby(lat, lng float64, limit int) []models.NearbyStop {
	if limit <= 0 || len(s.stops) == 0 {
		return []models.NearbyStop{}
	}

	var found []models.NearbyStop
	for _, radius := range nearbyRadii {
		found = s.within(lat, lng, radius)
		if len(found) >= limit {
			break
		}
	}
	if len(found) < limit {
		found = s.within(lat, lng, -1)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].DistanceM != found[j].DistanceM {
			return found[i].DistanceM < found[j].DistanceM
		}
		return found[i].Name < found[j].Name
	})

	if len(found) > limit {
		found = found[:limit]
	}
	return found
}

// within collects the stops inside radius meters; a negative radius scans all
func (s *SpatialIndex) within(lat, lng, radius float64) []models.NearbyStop {
	lo, hi := [2]float64{-180, -90}, [2]float64{180, 90}
	if radius >= 0 {
		dLat, dLon := geo.DegreesForMeters(lat, radius)
		lo = [2]float64{lng - dLon, lat - dLat}
		hi = [2]float64{lng + dLon, lat + dLat}
	}

	var result []models.NearbyStop
	s.tree.Search(lo, hi, func(_, _ [2]float64, id models.StopID) bool {
		stop := s.stops[id]
		dist := geo.Distance(lat, lng, stop.Coordinates.Lat, stop.Coordinates.Lng)
		if radius < 0 || dist <= radius {
			result = append(result, models.NearbyStop{
				Name:      stop.Name,
				Lat:       stop.Coordinates.Lat,
				Lng:       stop.Coordinates.Lng,
				DistanceM: dist,
			})
		}
		return true
	})
	return result
}

// NearbyStops returns up to limit stops closest to the given point
func (c *Catalogue) NearbyStops(lat, lng float64, limit int) ([]models.NearbyStop, error) {
	if !c.frozen {
		return nil, ErrNotFrozen
	}
	return c.spatial.Nearby(lat, lng, limit), nil
}
