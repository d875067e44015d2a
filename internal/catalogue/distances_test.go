package catalogue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceIndex(t *testing.T) {
	t.Run("Only one direction recorded", func(t *testing.T) {
		d := NewDistanceIndex()
		d.Add(0, 1, 850)

		ab, err := d.Get(0, 1)
		require.NoError(t, err)
		ba, err := d.Get(1, 0)
		require.NoError(t, err)
		assert.Equal(t, 850, ab)
		assert.Equal(t, ab, ba)
	})

	t.Run("Both directions are used independently", func(t *testing.T) {
		d := NewDistanceIndex()
		d.Add(0, 1, 100)
		d.Add(1, 0, 120)

		ab, err := d.Get(0, 1)
		require.NoError(t, err)
		ba, err := d.Get(1, 0)
		require.NoError(t, err)
		assert.Equal(t, 100, ab)
		assert.Equal(t, 120, ba)
	})

	t.Run("Last write wins", func(t *testing.T) {
		d := NewDistanceIndex()
		d.Add(2, 3, 400)
		d.Add(2, 3, 450)

		meters, err := d.Get(2, 3)
		require.NoError(t, err)
		assert.Equal(t, 450, meters)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("Missing in both directions", func(t *testing.T) {
		d := NewDistanceIndex()
		d.Add(0, 1, 100)

		_, err := d.Get(0, 2)
		assert.True(t, errors.Is(err, ErrMissingDistance))
	})

	t.Run("Zero distance is a recorded value", func(t *testing.T) {
		d := NewDistanceIndex()
		d.Add(4, 5, 0)

		meters, err := d.Get(5, 4)
		require.NoError(t, err)
		assert.Equal(t, 0, meters)
	})
}

func TestCatalogueAddDistance(t *testing.T) {
	c := newTestCatalogue(t)

	err := c.AddDistance("A", "Z", 10)
	assert.True(t, errors.Is(err, ErrUnknownStop))
	err = c.AddDistance("Z", "A", 10)
	assert.True(t, errors.Is(err, ErrUnknownStop))

	meters, err := c.Distance(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, meters)

	_, err = c.Distance(0, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDistance))
	assert.Contains(t, err.Error(), "A -> D")
}
