package geospatial

import (
	"math"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

const (
	minLengthRatio = 0.4
	maxLengthRatio = 2.5
	// Anchor points further apart than this fraction of the shorter stream's
	// length make two streams dissimilar outright.
	anchorTolerance = 0.3
)

// Similarity scores two streams in [0, 1]: 0 is unrelated, 1 is identical.
// Cheap rejections run first (degenerate streams, mismatched lengths,
// distant start/middle/end points). Surviving pairs are aligned with
// FastAlign and scored by a weighted mean alignment error in which
// mid-stream and densely sampled points count more.
func Similarity(a, b domain.Stream, radius int) (float64, error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, nil
	}
	lenA, err := Length(a)
	if err != nil {
		return 0, err
	}
	lenB, err := Length(b)
	if err != nil {
		return 0, err
	}
	if lenB == 0 {
		if lenA == 0 && a[0] == b[0] {
			return 1, nil
		}
		return 0, nil
	}
	ratio := lenA / lenB
	if ratio < minLengthRatio || ratio > maxLengthRatio {
		return 0, nil
	}

	tolerance := anchorTolerance * math.Min(lenA, lenB)
	anchors := [3][2]int{{0, 0}, {len(a) / 2, len(b) / 2}, {len(a) - 1, len(b) - 1}}
	for _, pair := range anchors {
		if dist(a[pair[0]], b[pair[1]]) > tolerance {
			return 0, nil
		}
	}

	sparseA, err := Sparsity(a)
	if err != nil {
		return 0, err
	}
	sparseB, err := Sparsity(b)
	if err != nil {
		return 0, err
	}
	warp, err := FastAlign(a, b, radius)
	if err != nil {
		return 0, err
	}

	na, nb := float64(len(a)), float64(len(b))
	var totalWeight, totalWeightedError float64
	for _, p := range warp.Path {
		unitless := dist(a[p.I], b[p.J]) / tolerance
		errTerm := 1 - math.Exp(-unitless*unitless)
		weight := sparseA[p.I] * sparseB[p.J] *
			(0.1 + 0.9*math.Sin(math.Pi*float64(p.I)/na)) *
			(0.1 + 0.9*math.Sin(math.Pi*float64(p.J)/nb))
		totalWeight += weight
		totalWeightedError += errTerm * weight
	}
	return 1 - totalWeightedError/totalWeight, nil
}

func dist(p, q domain.Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}
