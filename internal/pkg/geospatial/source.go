package geospatial

import (
	"fmt"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// PointSource is a read-only, indexable sequence of points.
type PointSource interface {
	Len() int
	At(i int) domain.Point
}

// Float is the set of coordinate element types accepted at a flat buffer
// boundary.
type Float interface {
	~float32 | ~float64
}

// FlatStream is a bounds-checked view over an interleaved
// [x0, y0, x1, y1, ...] coordinate buffer. It borrows the buffer and never
// copies or retains it beyond its own lifetime.
type FlatStream[T Float] struct {
	n    int
	data []T
}

// NewFlatStream validates count against the buffer before any element is
// read. A negative count, or a buffer holding fewer than 2*count elements,
// fails with domain.ErrInvalidInput. Elements past 2*count are ignored.
func NewFlatStream[T Float](count int, buf []T) (FlatStream[T], error) {
	if count < 0 {
		return FlatStream[T]{}, fmt.Errorf("%w: negative point count %d", domain.ErrInvalidInput, count)
	}
	// Compare without computing 2*count, which could overflow int.
	if count > len(buf)/2 {
		return FlatStream[T]{}, fmt.Errorf("%w: count %d needs %d coordinates, buffer has %d",
			domain.ErrInvalidInput, count, uint64(count)*2, len(buf))
	}
	return FlatStream[T]{n: count, data: buf[:2*count:2*count]}, nil
}

// Len returns the validated number of points.
func (f FlatStream[T]) Len() int { return f.n }

// At returns the i'th point.
func (f FlatStream[T]) At(i int) domain.Point {
	return domain.Point{X: float64(f.data[2*i]), Y: float64(f.data[2*i+1])}
}

// Stream copies the view into an owned domain.Stream.
func (f FlatStream[T]) Stream() domain.Stream {
	return Collect(f)
}

// Collect materialises a point source as a domain.Stream. A domain.Stream is
// returned as is; any other source is copied.
func Collect(src PointSource) domain.Stream {
	if s, ok := src.(domain.Stream); ok {
		return s
	}
	out := make(domain.Stream, src.Len())
	for i := range out {
		out[i] = src.At(i)
	}
	return out
}
