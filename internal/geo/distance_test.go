package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

func TestDistance(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		p := geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234}
		assert.Equal(t, 0.0, geo.Distance(p, p))
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		a := geo.Coordinate{Latitude: 50, Longitude: 30}
		b := geo.Coordinate{Latitude: 51, Longitude: 30}
		// ~111.2 km per degree on the chosen sphere radius.
		assert.InDelta(t, 111195, geo.Distance(a, b), 100)
	})

	t.Run("short hop", func(t *testing.T) {
		// ~0.0001 deg of latitude is about 11 meters, the scale the watch
		// movement filter operates at.
		a := geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234}
		b := geo.Coordinate{Latitude: 50.4502, Longitude: 30.5234}
		assert.InDelta(t, 11.1, geo.Distance(a, b), 0.5)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := geo.Coordinate{Latitude: 48.1173, Longitude: 11.5167}
		b := geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234}
		assert.Equal(t, geo.Distance(a, b), geo.Distance(b, a))
	})
}

func TestKnotsToMetersPerSecond(t *testing.T) {
	assert.InDelta(t, 0.514444, geo.KnotsToMetersPerSecond(1), 1e-9)
	assert.InDelta(t, 11.52, geo.KnotsToMetersPerSecond(22.4), 0.01)
	assert.Equal(t, 0.0, geo.KnotsToMetersPerSecond(0))
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, geo.Coordinate{Latitude: 50.45, Longitude: 30.52}.Valid())
	assert.True(t, geo.Coordinate{Latitude: -90, Longitude: 180}.Valid())
	assert.False(t, geo.Coordinate{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, geo.Coordinate{Latitude: 0, Longitude: -181}.Valid())
}
