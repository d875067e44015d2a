package gtfs

import (
	"log"
	"sort"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/passbi/transport_catalogue/internal/geo"
)

// Mode is the transit mode of a GTFS route
type Mode string

const (
	ModeBus   Mode = "BUS"
	ModeBRT   Mode = "BRT"
	ModeTram  Mode = "TRAM"
	ModeMetro Mode = "METRO"
	ModeRail  Mode = "RAIL"
	ModeFerry Mode = "FERRY"
	ModeCable Mode = "CABLE"
)

// InferMode determines the transit mode from a GTFS route.
// A known route_type wins; name keywords only upgrade a bus to BRT or
// classify routes whose type is not recognised. Unknown routes default to BUS.
func InferMode(route Route) Mode {
	routeName := " " + strings.ToUpper(route.ShortName+" "+route.LongName) + " "
	isBRT := strings.Contains(routeName, "BRT") || strings.Contains(routeName, "RAPID")

	if mode, ok := modeFromType(route.RouteType); ok {
		if mode == ModeBus && isBRT {
			return ModeBRT
		}
		return mode
	}

	switch {
	case isBRT:
		return ModeBRT
	case strings.Contains(routeName, " TER ") || strings.Contains(routeName, "TRAIN") || strings.Contains(routeName, "RAIL"):
		return ModeRail
	case strings.Contains(routeName, "FERRY") || strings.Contains(routeName, "BOAT"):
		return ModeFerry
	case strings.Contains(routeName, "TRAM"):
		return ModeTram
	}

	return ModeBus
}

// modeFromType maps basic and extended GTFS route types
// https://gtfs.org/documentation/schedule/reference/#routestxt
func modeFromType(t int) (Mode, bool) {
	switch {
	case t == 0 || t == 5 || t == 7 || (t >= 900 && t < 1000):
		return ModeTram, true
	case t == 1 || (t >= 400 && t < 500):
		return ModeMetro, true
	case t == 2 || (t >= 100 && t < 200):
		return ModeRail, true
	case t == 3 || t == 11 || (t >= 200 && t < 300) || (t >= 700 && t < 800) || t == 800:
		return ModeBus, true
	case t == 4 || t == 1000 || t == 1200:
		return ModeFerry, true
	case t == 6 || (t >= 1300 && t < 1500):
		return ModeCable, true
	}
	return "", false
}

// IsBusRoute reports whether a route is run by buses
func IsBusRoute(route Route) bool {
	mode := InferMode(route)
	return mode == ModeBus || mode == ModeBRT
}

// DeduplicateStops merges stops closer than thresholdMeters into the first
// of them in feed order. It returns the kept stops and a mapping from every
// input stop ID to the kept stop ID.
func DeduplicateStops(stops []Stop, thresholdMeters float64) ([]Stop, map[string]string) {
	stopMapping := make(map[string]string, len(stops)) // old_id -> kept_id
	if len(stops) == 0 || thresholdMeters <= 0 {
		for _, stop := range stops {
			stopMapping[stop.StopID] = stop.StopID
		}
		return stops, stopMapping
	}

	var tree rtree.RTreeG[int]
	for i, stop := range stops {
		p := [2]float64{stop.Lon, stop.Lat}
		tree.Insert(p, p, i)
	}

	deduplicated := []Stop{}
	skip := make([]bool, len(stops))

	for i, current := range stops {
		if skip[i] {
			continue
		}
		deduplicated = append(deduplicated, current)
		stopMapping[current.StopID] = current.StopID

		dLat, dLon := geo.DegreesForMeters(current.Lat, thresholdMeters)
		var candidates []int
		tree.Search(
			[2]float64{current.Lon - dLon, current.Lat - dLat},
			[2]float64{current.Lon + dLon, current.Lat + dLat},
			func(_, _ [2]float64, j int) bool {
				if j > i && !skip[j] {
					candidates = append(candidates, j)
				}
				return true
			},
		)
		sort.Ints(candidates)

		for _, j := range candidates {
			distance := geo.Distance(current.Lat, current.Lon, stops[j].Lat, stops[j].Lon)
			if distance < thresholdMeters {
				log.Printf("Deduplicating stop %s (duplicate of %s, distance: %.2fm)",
					stops[j].StopID, current.StopID, distance)
				skip[j] = true
				stopMapping[stops[j].StopID] = current.StopID
			}
		}
	}

	log.Printf("Deduplicated %d stops to %d (removed %d duplicates)",
		len(stops), len(deduplicated), len(stops)-len(deduplicated))

	return deduplicated, stopMapping
}

// ValidateAndCleanStops removes stops with invalid coordinates
func ValidateAndCleanStops(stops []Stop) []Stop {
	cleaned := []Stop{}

	for _, stop := range stops {
		if stop.Lat < -90 || stop.Lat > 90 {
			log.Printf("Warning: invalid latitude for stop %s: %f", stop.StopID, stop.Lat)
			continue
		}
		if stop.Lon < -180 || stop.Lon > 180 {
			log.Printf("Warning: invalid longitude for stop %s: %f", stop.StopID, stop.Lon)
			continue
		}
		if stop.Lat == 0 && stop.Lon == 0 {
			log.Printf("Warning: stop %s has null island coordinates, skipping", stop.StopID)
			continue
		}

		cleaned = append(cleaned, stop)
	}

	if len(cleaned) < len(stops) {
		log.Printf("Cleaned stops: removed %d invalid stops", len(stops)-len(cleaned))
	}

	return cleaned
}
