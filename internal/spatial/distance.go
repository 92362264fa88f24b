package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// DistanceKm calculates the great-circle distance between two points in kilometers
// using the Haversine formula
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	sLat := math.Sin((p2.Lat - p1.Lat).Radians() / 2)
	sLon := math.Sin((p2.Lng - p1.Lng).Radians() / 2)

	h := sLat*sLat + math.Cos(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*sLon*sLon

	// sqrt(h) can overshoot 1 for near-antipodal points
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ToMiles converts kilometers to statute miles
func ToMiles(km float64) float64 {
	return km * MilesPerKm
}

// Constants
const (
	EarthRadiusKm = 6371.0   // Earth's mean radius in kilometers
	MilesPerKm    = 0.621371 // Statute miles per kilometer
)
