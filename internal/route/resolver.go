// Package route resolves road distances between pickup and drop-off points.
package route

import (
	"context"
	"math"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zero reports whether the point carries no coordinates. City rows imported
// without geocoding leave lat/lng at zero, which is in the Gulf of Guinea
// and never a real pickup point for this service.
func (p Point) Zero() bool { return p.Lat == 0 && p.Lng == 0 }

// Resolver returns the driving distance between two points in kilometres.
type Resolver interface {
	Distance(ctx context.Context, origin, dest Point) (float64, error)
}

const earthRadiusKm = 6371.0

// Haversine computes the great-circle distance between two points in
// kilometres.
func Haversine(origin, dest Point) float64 {
	lat1 := origin.Lat * math.Pi / 180
	lat2 := dest.Lat * math.Pi / 180
	dLat := (dest.Lat - origin.Lat) * math.Pi / 180
	dLng := (dest.Lng - origin.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// HaversineResolver is the offline fallback resolver. It never fails for
// points that carry coordinates.
type HaversineResolver struct{}

// Distance implements Resolver using the great-circle formula.
func (HaversineResolver) Distance(ctx context.Context, origin, dest Point) (float64, error) {
	_ = ctx
	if origin.Zero() || dest.Zero() {
		return 0, ErrNoRoute
	}
	return Haversine(origin, dest), nil
}
