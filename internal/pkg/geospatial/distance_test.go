package geospatial_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
)

var fixtureA = domain.Stream{
	{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3},
	{X: 4, Y: 3}, {X: 5, Y: 2}, {X: 6, Y: 4}, {X: 4, Y: 4},
}

var fixtureB = domain.Stream{
	{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 3}, {X: 3, Y: 3}, {X: 4, Y: 4}, {X: 3, Y: 4},
}

func TestStreamDistance_Fixture(t *testing.T) {
	buf := []float32{1, 1, 1, 2, 2, 3, 3, 3, 4, 3, 5, 2, 6, 4, 4, 4}
	d, err := geospatial.StreamDistance(8, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-10.064495) > 1e-6 {
		t.Errorf("expected 10.064495, got %.9f", d)
	}
}

func TestStreamDistance_InvalidCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		buf   []float32
	}{
		{"negative", -1, []float32{1, 2, 3, 4}},
		{"short buffer", 8, make([]float32, 15)},
		{"nil buffer", 1, nil},
		{"huge count", math.MaxInt, make([]float32, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geospatial.StreamDistance(tt.count, tt.buf)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestStreamDistance_DegenerateStreams(t *testing.T) {
	for _, count := range []int{0, 1} {
		d, err := geospatial.StreamDistance(count, []float32{3, 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 0 {
			t.Errorf("count %d: expected 0, got %v", count, d)
		}
	}
	d, err := geospatial.StreamDistance[float64](0, nil)
	if err != nil || d != 0 {
		t.Errorf("expected 0 for empty buffer, got %v, %v", d, err)
	}
}

func TestStreamDistance_IgnoresTrailingElements(t *testing.T) {
	d, err := geospatial.StreamDistance(2, []float64{0, 0, 3, 4, 100, 100, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 5 {
		t.Errorf("expected 5, got %v", d)
	}
}

func TestLength_Reversal(t *testing.T) {
	rev := make(domain.Stream, len(fixtureA))
	for i, p := range fixtureA {
		rev[len(rev)-1-i] = p
	}
	fwd, _ := geospatial.Length(fixtureA)
	back, _ := geospatial.Length(rev)
	if math.Abs(fwd-back) > 1e-12 {
		t.Errorf("reversed length %v differs from %v", back, fwd)
	}
}

func TestLength_Scaling(t *testing.T) {
	base, _ := geospatial.Length(fixtureA)
	for _, k := range []float64{0.25, 2, 8, 1024} {
		scaled := make(domain.Stream, len(fixtureA))
		for i, p := range fixtureA {
			scaled[i] = domain.Point{X: k * p.X, Y: k * p.Y}
		}
		got, _ := geospatial.Length(scaled)
		if got != k*base {
			t.Errorf("scale %v: expected %v, got %v", k, k*base, got)
		}
	}
}

func TestLength_Translation(t *testing.T) {
	base, _ := geospatial.Length(fixtureA)
	moved := make(domain.Stream, len(fixtureA))
	for i, p := range fixtureA {
		moved[i] = domain.Point{X: p.X - 7, Y: p.Y + 13}
	}
	got, _ := geospatial.Length(moved)
	if got != base {
		t.Errorf("expected %v, got %v", base, got)
	}
}

func TestLength_Monotone(t *testing.T) {
	prev := 0.0
	for n := 0; n <= len(fixtureA); n++ {
		d, err := geospatial.Length(fixtureA[:n])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d < prev {
			t.Errorf("length decreased from %v to %v at %d points", prev, d, n)
		}
		prev = d
	}
}

func TestLength_NonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := geospatial.Length(domain.Stream{{X: 0, Y: 0}, {X: v, Y: 1}})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("coordinate %v: expected ErrInvalidInput, got %v", v, err)
		}
	}
}

func TestLength_Overflow(t *testing.T) {
	s := domain.Stream{
		{X: -math.MaxFloat64, Y: 0},
		{X: math.MaxFloat64, Y: 0},
	}
	_, err := geospatial.Length(s)
	if !errors.Is(err, domain.ErrNumericOverflow) {
		t.Fatalf("expected ErrNumericOverflow, got %v", err)
	}

	// Each segment fits, the sum does not.
	s = domain.Stream{{X: 0, Y: 0}, {X: math.MaxFloat64, Y: 0}, {X: 0, Y: 0}}
	_, err = geospatial.Length(s)
	if !errors.Is(err, domain.ErrNumericOverflow) {
		t.Fatalf("expected ErrNumericOverflow, got %v", err)
	}
}

func TestLength_LargeButFinite(t *testing.T) {
	// Squaring these would overflow; the segment itself does not.
	s := domain.Stream{{X: 0, Y: 0}, {X: 3e200, Y: 4e200}}
	d, err := geospatial.Length(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-5e200)/5e200 > 1e-15 {
		t.Errorf("expected 5e200, got %v", d)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want geospatial.Metric
		ok   bool
	}{
		{"", geospatial.MetricEuclidean, true},
		{"Euclidean", geospatial.MetricEuclidean, true},
		{"haversine", geospatial.MetricHaversine, true},
		{"manhattan", 0, false},
	}
	for _, tt := range tests {
		got, err := geospatial.ParseMetric(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseMetric(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseMetric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEngine_ConcurrentLength(t *testing.T) {
	e := geospatial.NewEngine()
	buf := []float32{1, 1, 1, 2, 2, 3, 3, 3, 4, 3, 5, 2, 6, 4, 4, 4}
	want, err := e.Length(fixtureA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]float64, 64)
	errs := make([]error, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i], errs[i] = e.Length(fixtureA)
			} else {
				results[i], errs[i] = geospatial.StreamDistance(8, buf)
			}
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: unexpected error: %v", i, errs[i])
		}
		if got != want {
			t.Errorf("goroutine %d: expected %v, got %v", i, want, got)
		}
	}
}
