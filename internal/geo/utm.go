package geo

import (
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

// Hemisphere mirrors the single-letter hemisphere designator UTM
// coordinates are conventionally reported with.
type Hemisphere rune

const (
	North Hemisphere = 'N'
	South Hemisphere = 'S'
)

func (h Hemisphere) toCoordconv() coordconv.Hemisphere {
	if h == South {
		return coordconv.HemisphereSouth
	}
	return coordconv.HemisphereNorth
}

// UTMToLatLon converts a UTM zone/hemisphere/easting/northing coordinate
// (as an operator might supply for a fixed beacon position) to decimal
// degrees, for beacon construction (spec §4.11 "Beaconing").
//
// Grounded on doismellburning/samoyed's cmd/samoyed-utm2ll (the same
// DefaultUTMConverter round trip), with the hemisphere-rune mapping
// adapted from src/coordconv.go's HemisphereRuneToCoordconvHemisphere.
func UTMToLatLon(zone int, hemi Hemisphere, easting, northing float64) (Position, error) {
	utm := coordconv.UTMCoord{
		Zone:       zone,
		Hemisphere: hemi.toCoordconv(),
		Easting:    easting,
		Northing:   northing,
	}
	ll, err := coordconv.DefaultUTMConverter.ConvertToGeodetic(utm)
	if err != nil {
		return Position{}, fmt.Errorf("geo: utm conversion failed: %w", err)
	}
	return Position{
		Latitude:  float64(ll.Lat) * 180 / 3.14159265358979323846,
		Longitude: float64(ll.Lng) * 180 / 3.14159265358979323846,
	}, nil
}

// LatLonToUTM converts decimal-degree coordinates to UTM, for operator
// diagnostics (the inverse of UTMToLatLon).
func LatLonToUTM(lat, lon float64) (zone int, hemi Hemisphere, easting, northing float64, err error) {
	latlng := s2.LatLng{
		Lat: s1.Angle(lat * 3.14159265358979323846 / 180),
		Lng: s1.Angle(lon * 3.14159265358979323846 / 180),
	}
	utm, convErr := coordconv.DefaultUTMConverter.ConvertFromGeodetic(latlng, 0)
	if convErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("geo: utm conversion failed: %w", convErr)
	}
	h := North
	if utm.Hemisphere == coordconv.HemisphereSouth {
		h = South
	}
	return utm.Zone, h, utm.Easting, utm.Northing, nil
}
