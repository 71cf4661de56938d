package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHaversineMeters_Coincident verifies that identical coordinates yield zero.
func TestHaversineMeters_Coincident(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{45.0, 90.0},
		{-33.8688, 151.2093},
		{89.9, -179.9},
	}

	for _, p := range points {
		assert.Equal(t, 0.0, HaversineMeters(p[0], p[1], p[0], p[1]))
	}
}

// TestHaversineMeters_Symmetric verifies d(a,b) == d(b,a).
func TestHaversineMeters_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 0, 1},
		{48.8566, 2.3522, 51.5074, -0.1278},
		{-6.2, 106.816, -6.9175, 107.6191},
		{10.0, -75.0, 10.001, -75.001},
	}

	for _, p := range pairs {
		ab := HaversineMeters(p[0], p[1], p[2], p[3])
		ba := HaversineMeters(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

// TestHaversineMeters_EquatorDegree checks one degree of longitude at the
// equator against the known great-circle figure.
func TestHaversineMeters_EquatorDegree(t *testing.T) {
	d := HaversineMeters(0, 0, 0, 1)

	// ~111,195 m within 0.5%
	assert.InEpsilon(t, 111195.0, d, 0.005)
}

// TestHaversineMeters_CityPair sanity-checks a longer real-world distance.
func TestHaversineMeters_CityPair(t *testing.T) {
	// Jakarta to Bandung, roughly 115-120 km
	d := HaversineMeters(-6.2, 106.816, -6.9175, 107.6191)

	assert.Greater(t, d, 100000.0)
	assert.Less(t, d, 140000.0)
}

// TestFormatDistance verifies meter and kilometer rendering.
func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0 m", FormatDistance(0))
	assert.Equal(t, "150 m", FormatDistance(149.6))
	assert.Equal(t, "999 m", FormatDistance(999.4))
	assert.Equal(t, "1.00 km", FormatDistance(1000))
	assert.Equal(t, "12.35 km", FormatDistance(12345))
}
