package geospatial_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
)

var fixturePath = []domain.IndexPair{
	{I: 0, J: 0}, {I: 1, J: 1}, {I: 2, J: 2}, {I: 3, J: 3},
	{I: 4, J: 3}, {I: 5, J: 3}, {I: 6, J: 4}, {I: 7, J: 5},
}

func TestFastAlign_Fixture(t *testing.T) {
	warp, err := geospatial.FastAlign(fixtureA, fixtureB, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warp.Cost != 13 {
		t.Errorf("expected cost 13, got %v", warp.Cost)
	}
	if !reflect.DeepEqual(warp.Path, fixturePath) {
		t.Errorf("unexpected path %v", warp.Path)
	}
}

func TestFullAlign_Fixture(t *testing.T) {
	warp, err := geospatial.FullAlign(fixtureA, fixtureB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warp.Cost != 13 {
		t.Errorf("expected cost 13, got %v", warp.Cost)
	}
	if !reflect.DeepEqual(warp.Path, fixturePath) {
		t.Errorf("unexpected path %v", warp.Path)
	}
}

func TestFullAlign_Identical(t *testing.T) {
	warp, err := geospatial.FullAlign(fixtureA, fixtureA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warp.Cost != 0 {
		t.Errorf("expected cost 0, got %v", warp.Cost)
	}
	if len(warp.Path) != len(fixtureA) {
		t.Fatalf("expected diagonal path of %d pairs, got %d", len(fixtureA), len(warp.Path))
	}
	for k, p := range warp.Path {
		if p.I != k || p.J != k {
			t.Errorf("pair %d: expected (%d,%d), got (%d,%d)", k, k, k, p.I, p.J)
		}
	}
}

func spiral(n int, phase float64) domain.Stream {
	s := make(domain.Stream, n)
	for i := range s {
		a := float64(i)/4 + phase
		r := 1 + float64(i)/10
		s[i] = domain.Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return s
}

func TestFastAlign_ValidPathOnLongStreams(t *testing.T) {
	a, b := spiral(53, 0), spiral(40, 0.3)
	full, err := geospatial.FullAlign(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, radius := range []int{0, 1, 2, 5} {
		fast, err := geospatial.FastAlign(a, b, radius)
		if err != nil {
			t.Fatalf("radius %d: unexpected error: %v", radius, err)
		}
		if fast.Cost < full.Cost-1e-9 {
			t.Errorf("radius %d: approximate cost %v below exact %v", radius, fast.Cost, full.Cost)
		}
		checkPath(t, fast.Path, len(a), len(b))
	}
}

func checkPath(t *testing.T, path []domain.IndexPair, n, m int) {
	t.Helper()
	if len(path) == 0 {
		t.Fatal("empty path")
	}
	if path[0] != (domain.IndexPair{}) {
		t.Errorf("path starts at %v", path[0])
	}
	if last := path[len(path)-1]; last != (domain.IndexPair{I: n - 1, J: m - 1}) {
		t.Errorf("path ends at %v", last)
	}
	for k := 1; k < len(path); k++ {
		di, dj := path[k].I-path[k-1].I, path[k].J-path[k-1].J
		if di < 0 || dj < 0 || di > 1 || dj > 1 || di+dj == 0 {
			t.Fatalf("invalid step %v -> %v", path[k-1], path[k])
		}
	}
}

func TestAlign_InvalidInput(t *testing.T) {
	if _, err := geospatial.FullAlign(nil, fixtureB); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty stream, got %v", err)
	}
	if _, err := geospatial.FastAlign(fixtureA, fixtureB, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative radius, got %v", err)
	}
	bad := domain.Stream{{X: 0, Y: math.NaN()}}
	if _, err := geospatial.FastAlign(fixtureA, bad, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NaN, got %v", err)
	}
}

func TestFullAlign_SinglePoints(t *testing.T) {
	warp, err := geospatial.FullAlign(domain.Stream{{X: 0, Y: 0}}, domain.Stream{{X: 3, Y: 4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warp.Cost != 25 || len(warp.Path) != 1 {
		t.Errorf("expected cost 25 with one pair, got %+v", warp)
	}
}
