package geo

import (
	"math"

	"github.com/curocart/curocart-backend/pkg/types"
)

const earthRadiusKM = 6371.0

// DistanceKM returns the great-circle distance between two points in
// kilometers using the haversine formula.
func DistanceKM(from, to types.GeoPoint) float64 {
	latFrom := radians(from.Lat)
	latTo := radians(to.Lat)
	deltaLat := radians(to.Lat - from.Lat)
	deltaLng := radians(to.Lng - from.Lng)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latFrom)*math.Cos(latTo)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
