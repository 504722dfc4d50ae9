// Package geospatial holds spherical-earth approximations used for logging
// and sanity checks. Tallies use the configured cell area, not these.
package geospatial

import "math"

const (
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.32
)

// DistanceKm is the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// CellAreaKm2 approximates the area of a step×step degree cell centred at lat.
func CellAreaKm2(lat, step float64) float64 {
	side := step * kmPerDegree
	return side * side * math.Cos(radians(lat))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
