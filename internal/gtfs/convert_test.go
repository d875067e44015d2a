package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/transport_catalogue/internal/models"
)

func stopTimes(tripID string, stopIDs ...string) []StopTime {
	out := make([]StopTime, len(stopIDs))
	for i, id := range stopIDs {
		out[i] = StopTime{TripID: tripID, StopID: id, StopSequence: i + 1, ShapeDistTraveled: -1}
	}
	return out
}

func baseFeed() *Feed {
	return &Feed{
		Stops: []Stop{
			{StopID: "a", StopName: "Alpha", Lat: 14.7000, Lon: -17.4000},
			{StopID: "b", StopName: "Beta", Lat: 14.7100, Lon: -17.4000},
			{StopID: "c", StopName: "Gamma", Lat: 14.7200, Lon: -17.4000},
		},
		Routes: []Route{{RouteID: "r1", ShortName: "1", RouteType: 3}},
	}
}

func findBus(t *testing.T, input *models.NetworkInput, name string) models.BusRecord {
	t.Helper()
	for _, bus := range input.Buses {
		if bus.Name == name {
			return bus
		}
	}
	t.Fatalf("bus %q not found", name)
	return models.BusRecord{}
}

func distance(input *models.NetworkInput, from, to string) (int, bool) {
	for _, d := range input.Distances {
		if d.From == from && d.To == to {
			return d.Meters, true
		}
	}
	return 0, false
}

func TestToNetworkMirroredDirections(t *testing.T) {
	feed := baseFeed()
	feed.Trips = []Trip{
		{RouteID: "r1", TripID: "out", Direction: 0},
		{RouteID: "r1", TripID: "back", Direction: 1},
	}
	feed.StopTimes = append(stopTimes("out", "a", "b", "c"), stopTimes("back", "c", "b", "a")...)

	input, err := ToNetwork(feed, Options{})
	require.NoError(t, err)

	require.Len(t, input.Buses, 1)
	bus := input.Buses[0]
	assert.Equal(t, "1", bus.Name)
	assert.False(t, bus.IsRoundTrip)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, bus.Stops)

	// Both directions of every leg are known
	assert.Len(t, input.Distances, 4)
	meters, ok := distance(input, "Beta", "Alpha")
	require.True(t, ok)
	assert.InDelta(t, 1112, meters, 2)
}

func TestToNetworkIndependentDirections(t *testing.T) {
	feed := baseFeed()
	feed.Trips = []Trip{
		{RouteID: "r1", TripID: "out", Direction: 0},
		{RouteID: "r1", TripID: "back", Direction: 1, Headsign: "Alpha"},
	}
	feed.StopTimes = append(stopTimes("out", "a", "b", "c"), stopTimes("back", "c", "a")...)

	input, err := ToNetwork(feed, Options{})
	require.NoError(t, err)

	require.Len(t, input.Buses, 2)
	outbound := findBus(t, input, "1")
	assert.True(t, outbound.IsRoundTrip)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, outbound.Stops)

	inbound := findBus(t, input, "1 (Alpha)")
	assert.True(t, inbound.IsRoundTrip)
	assert.Equal(t, []string{"Gamma", "Alpha"}, inbound.Stops)
}

func TestToNetworkLongestTrip(t *testing.T) {
	feed := baseFeed()
	feed.Trips = []Trip{
		{RouteID: "r1", TripID: "short", Direction: 0},
		{RouteID: "r1", TripID: "full", Direction: 0},
	}
	feed.StopTimes = append(stopTimes("short", "a", "b"), stopTimes("full", "a", "b", "c")...)

	input, err := ToNetwork(feed, Options{})
	require.NoError(t, err)
	require.Len(t, input.Buses, 1)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, input.Buses[0].Stops)
}

func TestToNetworkShapeDistances(t *testing.T) {
	feed := baseFeed()
	feed.Trips = []Trip{{RouteID: "r1", TripID: "t", Direction: 0}}
	feed.StopTimes = []StopTime{
		{TripID: "t", StopID: "a", StopSequence: 1, ShapeDistTraveled: 0},
		{TripID: "t", StopID: "b", StopSequence: 2, ShapeDistTraveled: 1.5},
		{TripID: "t", StopID: "c", StopSequence: 3, ShapeDistTraveled: -1},
	}

	input, err := ToNetwork(feed, Options{ShapeDistScale: 1000})
	require.NoError(t, err)

	meters, ok := distance(input, "Alpha", "Beta")
	require.True(t, ok)
	assert.Equal(t, 1500, meters)

	// Falls back to the great-circle distance
	meters, ok = distance(input, "Beta", "Gamma")
	require.True(t, ok)
	assert.InDelta(t, 1112, meters, 2)
}

func TestToNetworkSkipsNonBusRoutes(t *testing.T) {
	feed := baseFeed()
	feed.Routes = append(feed.Routes, Route{RouteID: "ter", ShortName: "TER", RouteType: 2})
	feed.Trips = []Trip{
		{RouteID: "r1", TripID: "bus", Direction: 0},
		{RouteID: "ter", TripID: "train", Direction: 0},
	}
	feed.StopTimes = append(stopTimes("bus", "a", "b"), stopTimes("train", "a", "c")...)

	input, err := ToNetwork(feed, Options{})
	require.NoError(t, err)
	require.Len(t, input.Buses, 1)
	assert.Equal(t, "1", input.Buses[0].Name)
	assert.Len(t, input.Stops, 3)
}

func TestToNetworkDuplicateNames(t *testing.T) {
	feed := baseFeed()
	feed.Stops = append(feed.Stops, Stop{StopID: "a2", StopName: "Alpha", Lat: 14.7300, Lon: -17.4000})
	feed.Trips = []Trip{{RouteID: "r1", TripID: "t", Direction: 0}}
	feed.StopTimes = stopTimes("t", "a", "a2")

	input, err := ToNetwork(feed, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Alpha (a2)", input.Stops[3].Name)
	assert.Equal(t, []string{"Alpha", "Alpha (a2)"}, input.Buses[0].Stops)
}

func TestToNetworkDeduplication(t *testing.T) {
	feed := baseFeed()
	feed.Stops = append(feed.Stops, Stop{StopID: "b2", StopName: "Beta Nord", Lat: 14.7101, Lon: -17.4000})
	feed.Trips = []Trip{{RouteID: "r1", TripID: "t", Direction: 0}}
	feed.StopTimes = stopTimes("t", "a", "b", "b2", "c")

	input, err := ToNetwork(feed, Options{DedupeThreshold: 30})
	require.NoError(t, err)
	assert.Len(t, input.Stops, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, input.Buses[0].Stops)
}

func TestUniqueBusName(t *testing.T) {
	c := &converter{busNames: make(map[string]bool)}

	names := []string{
		c.uniqueBusName("X", "r"),
		c.uniqueBusName("X", "r"),
		c.uniqueBusName("X", "r"),
		c.uniqueBusName("X", "r"),
		c.uniqueBusName("X", "s"),
	}
	assert.Equal(t, []string{"X", "X [r]", "X [r #2]", "X [r #3]", "X [s]"}, names)
}

func TestToNetworkSharedShortName(t *testing.T) {
	feed := baseFeed()
	feed.Routes = append(feed.Routes, Route{RouteID: "r2", ShortName: "1", RouteType: 3})
	feed.Trips = []Trip{
		{RouteID: "r1", TripID: "a", Direction: 0},
		{RouteID: "r2", TripID: "b", Direction: 0},
	}
	feed.StopTimes = append(stopTimes("a", "a", "b"), stopTimes("b", "b", "c")...)

	input, err := ToNetwork(feed, Options{})
	require.NoError(t, err)
	require.Len(t, input.Buses, 2)
	assert.Equal(t, "1", input.Buses[0].Name)
	assert.Equal(t, "1 [r2]", input.Buses[1].Name)
}

func TestToNetworkEmptyFeed(t *testing.T) {
	_, err := ToNetwork(&Feed{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyFeed)
}
