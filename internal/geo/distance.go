package geo

import "math"

const earthRadius = 6371000 // meters

// Distance calculates the great-circle distance between two coordinates in meters
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// DegreesForMeters returns a conservative lat/lon half-width in degrees that
// covers at least the given radius around a point at latitude lat.
func DegreesForMeters(lat, meters float64) (dLat, dLon float64) {
	dLat = meters / earthRadius * 180 / math.Pi
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		return dLat, 180
	}
	dLon = dLat / cosLat
	if dLon > 180 {
		dLon = 180
	}
	return dLat, dLon
}
