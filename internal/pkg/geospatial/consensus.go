package geospatial

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// ConsensusRadius is the FastDTW radius used for approximate consensus:
// the largest ceil(n^(1/4)) over the collection.
func ConsensusRadius(streams []domain.Stream) int {
	radius := 0
	for _, s := range streams {
		radius = max(radius, int(math.Ceil(math.Pow(float64(len(s)), 0.25))))
	}
	return radius
}

// Medoid returns the index of the stream whose summed alignment cost to every
// other stream is smallest; ties go to the lowest index. When approximate is
// set, FastAlign replaces FullAlign. Rows of the cost matrix are computed
// concurrently and the context cancels outstanding work.
func Medoid(ctx context.Context, streams []domain.Stream, approximate bool) (int, error) {
	n := len(streams)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty stream collection", domain.ErrInvalidInput)
	}

	radius := -1
	if approximate {
		radius = ConsensusRadius(streams)
	}

	costs := make([][]float64, n)
	for i := range costs {
		costs[i] = make([]float64, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 1; i < n; i++ {
		g.Go(func() error {
			for j := 0; j < i; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				var (
					warp domain.Warp
					err  error
				)
				if radius >= 0 {
					warp, err = FastAlign(streams[i], streams[j], radius)
				} else {
					warp, err = FullAlign(streams[i], streams[j])
				}
				if err != nil {
					return fmt.Errorf("align streams %d and %d: %w", i, j, err)
				}
				// Each goroutine owns row i's lower half and column i's upper half.
				costs[i][j] = warp.Cost
				costs[j][i] = warp.Cost
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	best, bestCost := 0, math.Inf(1)
	for i, row := range costs {
		sum := 0.0
		for _, c := range row {
			sum += c
		}
		if sum < bestCost {
			best, bestCost = i, sum
		}
	}
	return best, nil
}
