package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// FullAlign computes the exact dynamic time warping alignment of a onto b.
// Cell cost is the squared Euclidean distance between the paired points.
// Memory and time are O(len(a) * len(b)).
func FullAlign(a, b domain.Stream) (domain.Warp, error) {
	if err := checkAlignable(a, b); err != nil {
		return domain.Warp{}, err
	}
	return windowedDTW(a, b, FullMask(len(a), len(b))), nil
}

// FastAlign approximates FullAlign with the FastDTW scheme: both streams are
// halved, aligned recursively, and the coarse path is expanded by radius
// into a search window for the full-resolution pass. Larger radii are more
// exact and slower.
func FastAlign(a, b domain.Stream, radius int) (domain.Warp, error) {
	if err := checkAlignable(a, b); err != nil {
		return domain.Warp{}, err
	}
	if radius < 0 {
		return domain.Warp{}, fmt.Errorf("%w: negative radius %d", domain.ErrInvalidInput, radius)
	}
	return fastDTW(a, b, radius), nil
}

func checkAlignable(a, b domain.Stream) error {
	if len(a) == 0 || len(b) == 0 {
		return fmt.Errorf("%w: cannot align empty streams (%d, %d points)", domain.ErrInvalidInput, len(a), len(b))
	}
	for _, s := range [2]domain.Stream{a, b} {
		for i, p := range s {
			if !finite(p) {
				return fmt.Errorf("%w: point %d is not finite", domain.ErrInvalidInput, i)
			}
		}
	}
	return nil
}

func fastDTW(a, b domain.Stream, radius int) domain.Warp {
	if len(a) < radius+4 || len(b) < radius+4 {
		return windowedDTW(a, b, FullMask(len(a), len(b)))
	}
	shrunkA, shrunkB := reduceByHalf(a), reduceByHalf(b)
	coarse := fastDTW(shrunkA, shrunkB, radius)
	window := PathMask(coarse.Path, len(shrunkA), len(shrunkB)).
		Expand(len(a)%2, len(b)%2, radius)
	return windowedDTW(a, b, window)
}

// reduceByHalf averages consecutive pairs: [a, b, c, d, e] -> [(a+b)/2, (c+d)/2].
func reduceByHalf(s domain.Stream) domain.Stream {
	out := make(domain.Stream, len(s)/2)
	for i := range out {
		p, q := s[2*i], s[2*i+1]
		out[i] = domain.Point{X: 0.5 * (p.X + q.X), Y: 0.5 * (p.Y + q.Y)}
	}
	return out
}

// windowedDTW fills the DP table only on cells inside window; cells outside
// cost +Inf. Ties prefer the diagonal, then up, then left, both while
// filling and while tracing back.
func windowedDTW(a, b domain.Stream, window *StridedMask) domain.Warp {
	rows := make([][]float64, len(a))
	cost := func(r, c int) float64 {
		if !window.Contains(r, c) {
			return math.Inf(1)
		}
		return rows[r][c-window.Start[r]]
	}

	for r := range a {
		start, end := window.Start[r], window.End[r]
		rows[r] = make([]float64, end-start+1)
		for c := start; c <= end; c++ {
			dx := b[c].X - a[r].X
			dy := b[c].Y - a[r].Y
			dt := dx*dx + dy*dy
			if r == 0 && c == 0 {
				rows[r][0] = dt
				continue
			}
			rows[r][c-start] = dt + pick(cost(r-1, c-1), cost(r-1, c), cost(r, c-1))
		}
	}

	u, v := len(a)-1, len(b)-1
	final := cost(u, v)
	path := []domain.IndexPair{{I: u, J: v}}
	for u > 0 || v > 0 {
		diag, up, left := math.Inf(1), math.Inf(1), math.Inf(1)
		if u > 0 && v > 0 {
			diag = cost(u-1, v-1)
		}
		if u > 0 {
			up = cost(u-1, v)
		}
		if v > 0 {
			left = cost(u, v-1)
		}
		switch {
		case diag <= up && diag <= left:
			u, v = u-1, v-1
		case up <= left:
			u--
		default:
			v--
		}
		path = append(path, domain.IndexPair{I: u, J: v})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return domain.Warp{Cost: final, Path: path}
}

func pick(diag, up, left float64) float64 {
	switch {
	case diag <= up && diag <= left:
		return diag
	case up <= left:
		return up
	default:
		return left
	}
}
