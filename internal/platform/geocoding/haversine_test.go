package geocoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMilesZeroForSamePoint(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{40.7128, -74.0060},
		{-33.8688, 151.2093},
		{90, 0},
	}
	for _, p := range points {
		assert.InDelta(t, 0, DistanceMiles(p[0], p[1], p[0], p[1]), 1e-9)
	}
}

func TestDistanceMilesSymmetry(t *testing.T) {
	pairs := []struct {
		a, b [2]float64
	}{
		{[2]float64{40.7128, -74.0060}, [2]float64{34.0522, -118.2437}},
		{[2]float64{51.5074, -0.1278}, [2]float64{48.8566, 2.3522}},
		{[2]float64{-33.8688, 151.2093}, [2]float64{35.6762, 139.6503}},
	}
	for _, p := range pairs {
		ab := DistanceMiles(p.a[0], p.a[1], p.b[0], p.b[1])
		ba := DistanceMiles(p.b[0], p.b[1], p.a[0], p.a[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceMilesKnownValues(t *testing.T) {
	// New York to Los Angeles is roughly 2450 miles great-circle.
	nyla := DistanceMiles(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 2445, nyla, 20)

	// Lower Manhattan to Greenwich Village is on the order of a mile.
	short := DistanceMiles(40.7128, -74.0060, 40.73, -74.00)
	assert.Less(t, short, 2.0)
	assert.Greater(t, short, 0.5)
}
