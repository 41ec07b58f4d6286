package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// Sparsity returns one weight in (0, 1] per point. Points that sit closer to
// their neighbours than the stream's average spacing weigh more; points in
// sparse stretches weigh less. An evenly spaced stream yields 0.5 everywhere.
//
// End points borrow their missing neighbour from the other side, so the
// first point uses point 1 twice and the last uses point n-2 twice.
func Sparsity(src PointSource) ([]float64, error) {
	n := src.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: sparsity needs at least 2 points, got %d", domain.ErrInvalidInput, n)
	}
	total, err := Length(src)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	if total == 0 {
		for j := range out {
			out[j] = 1
		}
		return out, nil
	}

	optimal := total / float64(n-1)
	for j := 0; j < n; j++ {
		i := j - 1
		if i < 0 {
			i = 1
		}
		k := j + 1
		if k > n-1 {
			k = n - 2
		}
		pi, pj, pk := src.At(i), src.At(j), src.At(k)
		d1 := math.Hypot(pj.X-pi.X, pj.Y-pi.Y)
		d2 := math.Hypot(pk.X-pj.X, pk.Y-pj.Y)
		v := (d1 + d2) / (2 * optimal)
		out[j] = 1 - (2/math.Pi)*math.Atan(v)
	}
	return out, nil
}
