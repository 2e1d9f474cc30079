package cafefinder

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between p and q in kilometers.
// Inputs are not validated; out-of-range or NaN coordinates yield a
// meaningless or NaN result that callers should treat as "no distance".
func Haversine(p, q Position) float64 {
	lat1 := degreesToRadians(p.Lat)
	lat2 := degreesToRadians(q.Lat)
	dLat := degreesToRadians(q.Lat - p.Lat)
	dLng := degreesToRadians(q.Lng - p.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push a just outside [0,1] near the antipode.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FormatKm renders a distance with one decimal, e.g. "1.2 km".
// It returns "" for non-finite values.
func FormatKm(km float64) string {
	if !finite(km) {
		return ""
	}
	return fmt.Sprintf("%.1f km", km)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
