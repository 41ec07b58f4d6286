package geospatial

import (
	"fmt"
	"math"
	"strings"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// Metric selects how the length of a single segment is measured.
type Metric int

const (
	// MetricEuclidean measures segments in the stream's own coordinate system.
	MetricEuclidean Metric = iota
	// MetricHaversine treats points as (lat, lon) degrees and measures
	// great-circle meters.
	MetricHaversine
)

// ParseMetric maps a config value to a Metric. The empty string selects
// MetricEuclidean.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "", "euclidean":
		return MetricEuclidean, nil
	case "haversine":
		return MetricHaversine, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

func (m Metric) String() string {
	if m == MetricHaversine {
		return "haversine"
	}
	return "euclidean"
}

func (m Metric) segment(a, b domain.Point) float64 {
	if m == MetricHaversine {
		return Haversine(a, b)
	}
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Length returns the Euclidean length of the polyline through src: the sum of
// consecutive segment lengths, accumulated left to right. Streams of zero or
// one point have length exactly 0.
func Length(src PointSource) (float64, error) {
	return MetricEuclidean.length(src)
}

// StreamDistance is the flat-buffer entry point: count points are read from
// the interleaved buf. The count is validated against len(buf) before any
// element is touched.
func StreamDistance[T Float](count int, buf []T) (float64, error) {
	view, err := NewFlatStream(count, buf)
	if err != nil {
		return 0, err
	}
	return Length(view)
}

// length accumulates in point order so that the result is reproducible
// bit-for-bit for the same input.
func (m Metric) length(src PointSource) (float64, error) {
	n := src.Len()
	if n < 0 {
		return 0, fmt.Errorf("%w: negative point count %d", domain.ErrInvalidInput, n)
	}
	if n == 0 {
		return 0, nil
	}

	prev := src.At(0)
	if !finite(prev) {
		return 0, fmt.Errorf("%w: point 0 is not finite", domain.ErrInvalidInput)
	}

	sum := 0.0
	for i := 1; i < n; i++ {
		cur := src.At(i)
		if !finite(cur) {
			return 0, fmt.Errorf("%w: point %d is not finite", domain.ErrInvalidInput, i)
		}
		sum += m.segment(prev, cur)
		if math.IsInf(sum, 0) || math.IsNaN(sum) {
			return 0, fmt.Errorf("%w: length is not finite at segment %d", domain.ErrNumericOverflow, i)
		}
		prev = cur
	}
	return sum, nil
}

func finite(p domain.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
