package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DistanceKm_SamePoint(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(40.0, -105.0, 40.0, -105.0), 1e-6)
}

func Test_DistanceKm_KnownPair(t *testing.T) {
	// Roughly the distance between New York and Los Angeles (~3940 km).
	d := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 3940, d, 50)
}

func Test_DistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	d2 := DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, d1, d2, 1e-9)
}
