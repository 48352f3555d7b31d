// Package geo contains pure geographic computation helpers plus the SQL
// rendering of the same formula for storage-side filtering and sorting.
package geo

import (
	"fmt"
	"math"

	"souq/internal/types"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// DistanceExprKm renders the haversine formula as a Postgres expression over
// the given latitude/longitude columns and two query placeholders (e.g. "$1"
// and "$2") holding the reference point in degrees. The expression can be
// used in WHERE and ORDER BY clauses and evaluates to kilometres, matching
// HaversineKm.
func DistanceExprKm(latCol, lngCol, latArg, lngArg string) string {
	return fmt.Sprintf(
		"(2 * %f * asin(sqrt("+
			"power(sin(radians(%s - %s) / 2), 2) + "+
			"cos(radians(%s)) * cos(radians(%s)) * "+
			"power(sin(radians(%s - %s) / 2), 2))))",
		earthRadiusKm,
		latCol, latArg,
		latArg, latCol,
		lngCol, lngArg,
	)
}
