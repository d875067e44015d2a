package routing

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/transport_catalogue/internal/catalogue"
	"github.com/passbi/transport_catalogue/internal/graph"
	"github.com/passbi/transport_catalogue/internal/models"
)

func stopRecords(names ...string) []models.StopRecord {
	records := make([]models.StopRecord, len(names))
	for i, name := range names {
		records[i] = models.StopRecord{Name: name, Latitude: 43.58 + float64(i)*0.005, Longitude: 39.72}
	}
	return records
}

func newRouter(t *testing.T, input *models.NetworkInput, settings models.RoutingSettings, opts Options) *TransportRouter {
	t.Helper()
	cat, err := catalogue.Load(input)
	require.NoError(t, err)
	router, err := NewTransportRouter(cat, settings, opts)
	require.NoError(t, err)
	return router
}

// transferNetwork: bus 1 runs A-B, bus 2 runs B-C, D is isolated
func transferNetwork() *models.NetworkInput {
	return &models.NetworkInput{
		Stops: stopRecords("A", "B", "C", "D"),
		Distances: []models.DistanceRecord{
			{From: "A", To: "B", Meters: 1000},
			{From: "B", To: "C", Meters: 1000},
		},
		Buses: []models.BusRecord{
			{Name: "1", Stops: []string{"A", "B"}},
			{Name: "2", Stops: []string{"B", "C"}},
		},
	}
}

func TestGetRoute_SingleRide(t *testing.T) {
	router := newRouter(t, &models.NetworkInput{
		Stops:     stopRecords("A", "B"),
		Distances: []models.DistanceRecord{{From: "A", To: "B", Meters: 850}},
		Buses:     []models.BusRecord{{Name: "1", Stops: []string{"A", "B"}}},
	}, models.RoutingSettings{BusWaitTime: 6, BusVelocity: 40}, Options{})

	itinerary, ok, err := router.GetRoute("A", "B")
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 7.275, itinerary.TotalTime, 1e-9)
	require.Len(t, itinerary.Segments, 2)

	assert.Equal(t, models.SegmentWait, itinerary.Segments[0].Type)
	assert.Equal(t, "A", itinerary.Segments[0].Stop)
	assert.Equal(t, 6.0, itinerary.Segments[0].Minutes)

	assert.Equal(t, models.SegmentRide, itinerary.Segments[1].Type)
	assert.Equal(t, "1", itinerary.Segments[1].Bus)
	assert.Equal(t, 1, itinerary.Segments[1].SpanCount)
	assert.InDelta(t, 1.275, itinerary.Segments[1].Minutes, 1e-9)

	t.Run("Return trip on the same bus", func(t *testing.T) {
		itinerary, ok, err := router.GetRoute("B", "A")
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 7.275, itinerary.TotalTime, 1e-9)
	})
}

func TestGetRoute_Transfer(t *testing.T) {
	settings := models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}
	router := newRouter(t, transferNetwork(), settings, Options{})

	itinerary, ok, err := router.GetRoute("A", "C")
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 6.0, itinerary.TotalTime, 1e-9)
	require.Len(t, itinerary.Segments, 4)
	assert.Equal(t, "A", itinerary.Segments[0].Stop)
	assert.Equal(t, "1", itinerary.Segments[1].Bus)
	assert.Equal(t, "B", itinerary.Segments[2].Stop)
	assert.Equal(t, "2", itinerary.Segments[3].Bus)

	var sum float64
	for _, segment := range itinerary.Segments {
		sum += segment.Minutes
	}
	assert.Equal(t, itinerary.TotalTime, sum)
}

func TestGetRoute_PrefersStayingOnBoard(t *testing.T) {
	input := transferNetwork()
	input.Buses = append(input.Buses, models.BusRecord{Name: "3", Stops: []string{"A", "B", "C"}})
	router := newRouter(t, input, models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}, Options{})

	itinerary, ok, err := router.GetRoute("A", "C")
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 4.0, itinerary.TotalTime, 1e-9)
	require.Len(t, itinerary.Segments, 2)
	assert.Equal(t, "3", itinerary.Segments[1].Bus)
	assert.Equal(t, 2, itinerary.Segments[1].SpanCount)
}

func TestGetRoute_NoRouteAndNotFound(t *testing.T) {
	input := transferNetwork()
	input.Stops = append(input.Stops, stopRecords("E", "F")[1])
	input.Distances = append(input.Distances, models.DistanceRecord{From: "D", To: "F", Meters: 500})
	input.Buses = append(input.Buses, models.BusRecord{Name: "ring", Stops: []string{"D", "F"}, IsRoundTrip: true})
	router := newRouter(t, input, models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}, Options{})

	t.Run("Disconnected stops have no route", func(t *testing.T) {
		itinerary, ok, err := router.GetRoute("A", "D")
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, itinerary)
	})

	t.Run("A round bus without a closing stop runs one way", func(t *testing.T) {
		_, ok, err := router.GetRoute("D", "F")
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = router.GetRoute("F", "D")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Unknown stop is not found", func(t *testing.T) {
		_, ok, err := router.GetRoute("A", "Nowhere")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, ok)

		_, _, err = router.GetRoute("Nowhere", "A")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestGetRoute_SameStop(t *testing.T) {
	router := newRouter(t, transferNetwork(), models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}, Options{})

	for _, name := range []string{"A", "D"} {
		itinerary, ok, err := router.GetRoute(name, name)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 0.0, itinerary.TotalTime)
		assert.NotNil(t, itinerary.Segments)
		assert.Empty(t, itinerary.Segments)
	}
}

func TestGetRoute_PrecomputedMatchesOnDemand(t *testing.T) {
	input := transferNetwork()
	input.Buses = append(input.Buses, models.BusRecord{Name: "3", Stops: []string{"C", "B", "A"}, IsRoundTrip: true})
	settings := models.RoutingSettings{BusWaitTime: 3, BusVelocity: 27}

	onDemand := newRouter(t, input, settings, Options{})
	precomputed := newRouter(t, input, settings, Options{PrecomputeLimit: 100, Workers: 2})

	precomputed.Prepare()
	assert.Equal(t, 4, precomputed.solver.Precomputed())
	onDemand.Prepare()
	assert.Equal(t, 0, onDemand.solver.Precomputed())

	names := []string{"A", "B", "C", "D"}
	for _, from := range names {
		for _, to := range names {
			a, okA, err := onDemand.GetRoute(from, to)
			require.NoError(t, err)
			b, okB, err := precomputed.GetRoute(from, to)
			require.NoError(t, err)

			assert.Equal(t, okA, okB, "%s -> %s", from, to)
			assert.Equal(t, a, b, "%s -> %s", from, to)
		}
	}
}

func TestGetRoute_ConcurrentFirstQueries(t *testing.T) {
	router := newRouter(t, transferNetwork(), models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}, Options{PrecomputeLimit: 10})

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			itinerary, ok, err := router.GetRoute("A", "C")
			if err == nil && ok {
				results[i] = itinerary.TotalTime
			}
		}(i)
	}
	wg.Wait()

	for _, total := range results {
		assert.InDelta(t, 6.0, total, 1e-9)
	}
}

func TestNewTransportRouter(t *testing.T) {
	t.Run("Catalogue must be frozen", func(t *testing.T) {
		cat := catalogue.New()
		_, err := NewTransportRouter(cat, models.RoutingSettings{BusWaitTime: 1, BusVelocity: 1}, Options{})
		assert.True(t, errors.Is(err, catalogue.ErrNotFrozen))
	})

	t.Run("Missing distance fails the build", func(t *testing.T) {
		cat := catalogue.New()
		_, err := cat.AddStop("A", models.Coordinates{})
		require.NoError(t, err)
		_, err = cat.AddStop("B", models.Coordinates{})
		require.NoError(t, err)
		_, err = cat.AddBus("1", []string{"A", "B"}, false)
		require.NoError(t, err)
		cat.Freeze()

		_, err = NewTransportRouter(cat, models.RoutingSettings{BusWaitTime: 1, BusVelocity: 1}, Options{})
		assert.True(t, errors.Is(err, catalogue.ErrMissingDistance))
	})

	t.Run("Graph statistics", func(t *testing.T) {
		router := newRouter(t, transferNetwork(), models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}, Options{})
		vertices, edges := router.GraphStats()
		assert.Equal(t, 8, vertices)
		// 4 wait edges, 2 ride edges per two-stop line
		assert.Equal(t, 8, edges)
	})
}

func TestReconstruct(t *testing.T) {
	router := newRouter(t, transferNetwork(), models.RoutingSettings{BusWaitTime: 2, BusVelocity: 60}, Options{})
	edges := router.graph.Graph.IncidentEdges(graph.WaitVertex(0))
	require.Len(t, edges, 1)

	itinerary, err := Reconstruct(router.graph, RouteInfo{Weight: 2, Edges: edges})
	require.NoError(t, err)
	assert.Equal(t, 2.0, itinerary.TotalTime)

	_, err = Reconstruct(router.graph, RouteInfo{Weight: 2.5, Edges: edges})
	assert.True(t, errors.Is(err, ErrInconsistentItinerary))
}
