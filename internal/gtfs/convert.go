package gtfs

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/passbi/transport_catalogue/internal/geo"
	"github.com/passbi/transport_catalogue/internal/models"
)

// ErrEmptyFeed is returned when a feed has no usable stops
var ErrEmptyFeed = errors.New("feed has no valid stops")

// Options controls how a feed is turned into a network
type Options struct {
	// Stops closer than this many meters are merged; zero disables merging
	DedupeThreshold float64
	// Meters per shape_dist_traveled unit; zero means the feed uses meters
	ShapeDistScale float64
}

type patternStop struct {
	stopID    string
	shapeDist float64
}

type pattern struct {
	trip  Trip
	stops []patternStop
}

// ToNetwork converts a feed to network records. Every bus route contributes
// its longest trip per direction. A route whose two directions mirror each
// other becomes one out-and-back bus; any other trip pattern becomes a bus
// that only runs in its listed order. Road distances come from
// shape_dist_traveled when the feed has it, otherwise from the great-circle
// distance between the stops.
func ToNetwork(feed *Feed, opts Options) (*models.NetworkInput, error) {
	stops := ValidateAndCleanStops(feed.Stops)
	stops, stopMapping := DeduplicateStops(stops, opts.DedupeThreshold)
	if len(stops) == 0 {
		return nil, ErrEmptyFeed
	}

	scale := opts.ShapeDistScale
	if scale == 0 {
		scale = 1
	}

	c := &converter{
		input:     &models.NetworkInput{},
		stopNames: make(map[string]string, len(stops)),
		stopByID:  make(map[string]Stop, len(stops)),
		mapping:   stopMapping,
		scale:     scale,
		distances: make(map[[2]string]bool),
		busNames:  make(map[string]bool),
	}
	c.addStops(stops)

	patterns := c.buildPatterns(feed.StopTimes)

	tripsByRoute := make(map[string][]Trip)
	for _, trip := range feed.Trips {
		tripsByRoute[trip.RouteID] = append(tripsByRoute[trip.RouteID], trip)
	}

	skipped := 0
	for _, route := range feed.Routes {
		if !IsBusRoute(route) {
			skipped++
			continue
		}
		c.addRoute(route, tripsByRoute[route.RouteID], patterns)
	}

	log.Printf("Converted feed: %d stops, %d buses, %d distances (%d non-bus routes skipped)",
		len(c.input.Stops), len(c.input.Buses), len(c.input.Distances), skipped)

	return c.input, nil
}

type converter struct {
	input     *models.NetworkInput
	stopNames map[string]string // kept stop id -> unique name
	stopByID  map[string]Stop
	mapping   map[string]string // feed stop id -> kept stop id
	scale     float64
	distances map[[2]string]bool
	busNames  map[string]bool
}

// addStops registers kept stops under unique names. A repeated stop_name is
// qualified with the stop ID.
func (c *converter) addStops(stops []Stop) {
	used := make(map[string]bool, len(stops))
	for _, stop := range stops {
		name := stop.StopName
		if name == "" {
			name = stop.StopID
		}
		if used[name] {
			name = fmt.Sprintf("%s (%s)", name, stop.StopID)
		}
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%s #%d)", stop.StopName, stop.StopID, n)
		}
		used[name] = true

		c.stopNames[stop.StopID] = name
		c.stopByID[stop.StopID] = stop
		c.input.Stops = append(c.input.Stops, models.StopRecord{
			Name:      name,
			Latitude:  stop.Lat,
			Longitude: stop.Lon,
		})
	}
}

// buildPatterns orders the stop times of every trip and maps them to kept
// stops, dropping unknown stops and consecutive repeats
func (c *converter) buildPatterns(stopTimes []StopTime) map[string][]patternStop {
	byTrip := make(map[string][]StopTime)
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	patterns := make(map[string][]patternStop, len(byTrip))
	for tripID, times := range byTrip {
		sort.SliceStable(times, func(i, j int) bool {
			return times[i].StopSequence < times[j].StopSequence
		})

		var seq []patternStop
		for _, st := range times {
			keptID, ok := c.mapping[st.StopID]
			if !ok {
				continue
			}
			if n := len(seq); n > 0 && seq[n-1].stopID == keptID {
				continue
			}
			seq = append(seq, patternStop{stopID: keptID, shapeDist: st.ShapeDistTraveled})
		}
		patterns[tripID] = seq
	}
	return patterns
}

func (c *converter) addRoute(route Route, trips []Trip, patterns map[string][]patternStop) {
	// Longest trip per direction, ties broken by trip ID
	best := make(map[int]pattern)
	for _, trip := range trips {
		stops := patterns[trip.TripID]
		if len(stops) < 2 {
			continue
		}
		current, ok := best[trip.Direction]
		if !ok || len(stops) > len(current.stops) ||
			(len(stops) == len(current.stops) && trip.TripID < current.trip.TripID) {
			best[trip.Direction] = pattern{trip: trip, stops: stops}
		}
	}
	if len(best) == 0 {
		log.Printf("Warning: route %s has no trips with two or more stops", route.RouteID)
		return
	}

	directions := make([]int, 0, len(best))
	for direction := range best {
		directions = append(directions, direction)
	}
	sort.Ints(directions)

	baseName := route.ShortName
	if baseName == "" {
		baseName = route.LongName
	}
	if baseName == "" {
		baseName = route.RouteID
	}

	outbound, hasOutbound := best[0]
	inbound, hasInbound := best[1]
	if hasOutbound && hasInbound && len(best) == 2 && mirrored(outbound.stops, inbound.stops) {
		c.addDistances(outbound.stops)
		c.addDistances(inbound.stops)
		c.addBus(c.uniqueBusName(baseName, route.RouteID), outbound.stops, false)
		return
	}

	for i, direction := range directions {
		p := best[direction]
		name := baseName
		if i > 0 {
			suffix := p.trip.Headsign
			if suffix == "" {
				suffix = fmt.Sprintf("direction %d", direction)
			}
			name = fmt.Sprintf("%s (%s)", baseName, suffix)
		}
		c.addDistances(p.stops)
		c.addBus(c.uniqueBusName(name, route.RouteID), p.stops, true)
	}
}

// uniqueBusName qualifies a taken name with the route ID, then a counter
func (c *converter) uniqueBusName(base, routeID string) string {
	name := base
	if c.busNames[name] {
		name = fmt.Sprintf("%s [%s]", base, routeID)
	}
	for n := 2; c.busNames[name]; n++ {
		name = fmt.Sprintf("%s [%s #%d]", base, routeID, n)
	}
	c.busNames[name] = true
	return name
}

func (c *converter) addBus(name string, stops []patternStop, isRoundTrip bool) {
	names := make([]string, len(stops))
	for i, s := range stops {
		names[i] = c.stopNames[s.stopID]
	}
	c.input.Buses = append(c.input.Buses, models.BusRecord{
		Name:        name,
		Stops:       names,
		IsRoundTrip: isRoundTrip,
	})
}

// addDistances records the road distance of every leg not seen before
func (c *converter) addDistances(stops []patternStop) {
	for i := 1; i < len(stops); i++ {
		from, to := stops[i-1], stops[i]
		key := [2]string{from.stopID, to.stopID}
		if c.distances[key] {
			continue
		}
		c.distances[key] = true

		c.input.Distances = append(c.input.Distances, models.DistanceRecord{
			From:   c.stopNames[from.stopID],
			To:     c.stopNames[to.stopID],
			Meters: c.legMeters(from, to),
		})
	}
}

func (c *converter) legMeters(from, to patternStop) int {
	if from.shapeDist >= 0 && to.shapeDist > from.shapeDist {
		return int(math.Round((to.shapeDist - from.shapeDist) * c.scale))
	}
	a, b := c.stopByID[from.stopID], c.stopByID[to.stopID]
	return int(math.Round(geo.Distance(a.Lat, a.Lon, b.Lat, b.Lon)))
}

// mirrored reports whether b visits the stops of a in reverse order
func mirrored(a, b []patternStop) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].stopID != b[len(b)-1-i].stopID {
			return false
		}
	}
	return true
}
