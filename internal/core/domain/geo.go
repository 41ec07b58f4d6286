package domain

// Point is a 2D coordinate. For geographic traces X holds the latitude and
// Y the longitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stream is an ordered sequence of points describing a recorded path.
type Stream []Point

// Len returns the number of points in the stream.
func (s Stream) Len() int { return len(s) }

// At returns the i'th point.
func (s Stream) At(i int) Point { return s[i] }

// Flat returns the interleaved [x0, y0, x1, y1, ...] form of the stream.
func (s Stream) Flat() []float64 {
	out := make([]float64, 0, 2*len(s))
	for _, p := range s {
		out = append(out, p.X, p.Y)
	}
	return out
}

// StreamFromFlat builds a stream from interleaved coordinates. A trailing odd
// coordinate is dropped.
func StreamFromFlat(coords []float64) Stream {
	s := make(Stream, len(coords)/2)
	for i := range s {
		s[i] = Point{X: coords[2*i], Y: coords[2*i+1]}
	}
	return s
}

// Bounds represents an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}
