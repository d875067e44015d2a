package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Run("Same point is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Distance(43.587795, 39.716901, 43.587795, 39.716901))
	})

	t.Run("One degree of latitude", func(t *testing.T) {
		// 2*pi*R/360
		assert.InDelta(t, 111194.9, Distance(0, 0, 1, 0), 1.0)
	})

	t.Run("Symmetric", func(t *testing.T) {
		d1 := Distance(43.598701, 39.730623, 43.587795, 39.716901)
		d2 := Distance(43.587795, 39.716901, 43.598701, 39.730623)
		assert.InDelta(t, d1, d2, 1e-9)
		assert.InDelta(t, 1640.7, d1, 1)
	})
}

func TestDegreesForMeters(t *testing.T) {
	dLat, dLon := DegreesForMeters(0, 111195)
	assert.InDelta(t, 1.0, dLat, 1e-3)
	assert.InDelta(t, 1.0, dLon, 1e-3)

	dLat, dLon = DegreesForMeters(60, 111195)
	assert.InDelta(t, 1.0, dLat, 1e-3)
	assert.InDelta(t, 2.0, dLon, 1e-2)

	_, dLon = DegreesForMeters(90, 1000)
	assert.Equal(t, 180.0, dLon)
}
