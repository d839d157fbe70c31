// Package geo provides the great-circle distance calculation shared by the
// filter engine's Range predicate (spec §4.8) and the RF gate's local-range
// check (spec §4.5).
//
// Grounded on github.com/golang/geo's s2.LatLng, already a teacher
// dependency (used for position math elsewhere in the corpus); this
// replaces a hand-rolled haversine with the library's spherical distance,
// scaled by the same Earth radius (6371 km) the spec and the teacher's own
// ll_distance_km (src/latlong.go) both use.
package geo

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used throughout the spec's
// distance calculations (spec §4.8).
const EarthRadiusKm = 6371.0

// Position is a decoded latitude/longitude pair, in signed decimal degrees
// (spec §3's Packet.position, reused here for UTM conversion results).
type Position struct {
	Latitude  float64
	Longitude float64
}

// DistanceKm returns the great-circle distance between two points, in km.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}
