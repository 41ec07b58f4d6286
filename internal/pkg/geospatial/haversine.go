package geospatial

import (
	"math"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points
// whose X holds the latitude and Y the longitude, in degrees.
func Haversine(a, b domain.Point) float64 {
	dLat := toRad(b.X - a.X)
	dLon := toRad(b.Y - a.Y)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.X))*math.Cos(toRad(b.X))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h just outside [0, 1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000 // meters
}

// Extent returns the bounding box of every point in src. An empty source
// yields the zero Bounds.
func Extent(src PointSource) domain.Bounds {
	n := src.Len()
	if n == 0 {
		return domain.Bounds{}
	}
	p := src.At(0)
	b := domain.Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
	for i := 1; i < n; i++ {
		p = src.At(i)
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
