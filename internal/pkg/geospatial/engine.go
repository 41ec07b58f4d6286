package geospatial

import (
	"context"
	"fmt"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// DefaultRadius is the FastDTW radius used when none is configured.
const DefaultRadius = 1

// Engine bundles the stream operations with their configuration. It holds
// no mutable state, so one Engine may be shared by any number of goroutines.
type Engine struct {
	radius    int
	metric    Metric
	maxPoints int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRadius sets the default FastDTW radius. Negative values are ignored.
func WithRadius(r int) Option {
	return func(e *Engine) {
		if r >= 0 {
			e.radius = r
		}
	}
}

// WithMetric sets the segment metric used by Length and Distance. Sparsity,
// Align, Similarity and Medoid compare shapes in coordinate space and are
// unaffected: their thresholds are relative to Euclidean lengths computed in
// the same units as the point distances, so a haversine engine scores the
// same streams identically to a Euclidean one.
func WithMetric(m Metric) Option {
	return func(e *Engine) { e.metric = m }
}

// WithMaxPoints caps the number of points accepted per stream. Zero disables
// the cap.
func WithMaxPoints(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxPoints = n
		}
	}
}

// NewEngine creates an Engine. Without options it measures Euclidean length,
// aligns with radius DefaultRadius and accepts streams of any size.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{radius: DefaultRadius, metric: MetricEuclidean}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Radius returns the configured FastDTW radius.
func (e *Engine) Radius() int { return e.radius }

// Metric returns the configured segment metric.
func (e *Engine) Metric() Metric { return e.metric }

// Length measures src with the engine's metric.
func (e *Engine) Length(src PointSource) (float64, error) {
	if err := e.checkSize(src.Len()); err != nil {
		return 0, err
	}
	return e.metric.length(src)
}

// Distance validates a flat float32 boundary buffer and measures it.
func (e *Engine) Distance(count int, buf []float32) (float64, error) {
	view, err := NewFlatStream(count, buf)
	if err != nil {
		return 0, err
	}
	return e.Length(view)
}

// Sparsity returns the per-point sparsity weights of src, in coordinate space.
func (e *Engine) Sparsity(src PointSource) ([]float64, error) {
	if err := e.checkSize(src.Len()); err != nil {
		return nil, err
	}
	return Sparsity(src)
}

// Align aligns a onto b. A negative radius requests the exact alignment;
// zero or more runs FastDTW with that radius.
func (e *Engine) Align(a, b domain.Stream, radius int) (domain.Warp, error) {
	if err := e.checkSize(len(a), len(b)); err != nil {
		return domain.Warp{}, err
	}
	if radius < 0 {
		return FullAlign(a, b)
	}
	return FastAlign(a, b, radius)
}

// Similarity scores a against b in coordinate space. A negative radius falls
// back to the engine's configured radius.
func (e *Engine) Similarity(a, b domain.Stream, radius int) (float64, error) {
	if err := e.checkSize(len(a), len(b)); err != nil {
		return 0, err
	}
	if radius < 0 {
		radius = e.radius
	}
	return Similarity(a, b, radius)
}

// Medoid picks the consensus stream of a collection.
func (e *Engine) Medoid(ctx context.Context, streams []domain.Stream, approximate bool) (int, error) {
	for _, s := range streams {
		if err := e.checkSize(len(s)); err != nil {
			return 0, err
		}
	}
	return Medoid(ctx, streams, approximate)
}

func (e *Engine) checkSize(counts ...int) error {
	if e.maxPoints == 0 {
		return nil
	}
	for _, n := range counts {
		if n > e.maxPoints {
			return fmt.Errorf("%w: %d points exceeds limit of %d", domain.ErrInvalidInput, n, e.maxPoints)
		}
	}
	return nil
}
