package geospatial_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
)

func TestNewEngine_Defaults(t *testing.T) {
	e := geospatial.NewEngine()
	if e.Radius() != geospatial.DefaultRadius {
		t.Errorf("expected radius %d, got %d", geospatial.DefaultRadius, e.Radius())
	}
	if e.Metric() != geospatial.MetricEuclidean {
		t.Errorf("expected euclidean metric, got %v", e.Metric())
	}
}

func TestEngine_Distance(t *testing.T) {
	e := geospatial.NewEngine()
	d, err := e.Distance(8, []float32{1, 1, 1, 2, 2, 3, 3, 3, 4, 3, 5, 2, 6, 4, 4, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-10.064495) > 1e-6 {
		t.Errorf("expected 10.064495, got %v", d)
	}
}

func TestEngine_MaxPoints(t *testing.T) {
	e := geospatial.NewEngine(geospatial.WithMaxPoints(4))

	if _, err := e.Length(fixtureA); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Length: expected ErrInvalidInput, got %v", err)
	}
	if _, err := e.Align(fixtureA[:3], fixtureB, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Align: expected ErrInvalidInput, got %v", err)
	}
	if _, err := e.Medoid(context.Background(), []domain.Stream{fixtureA}, false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Medoid: expected ErrInvalidInput, got %v", err)
	}
	if _, err := e.Length(fixtureA[:4]); err != nil {
		t.Errorf("unexpected error at the limit: %v", err)
	}
}

func TestEngine_AlignModes(t *testing.T) {
	e := geospatial.NewEngine(geospatial.WithRadius(2))
	full, err := e.Align(fixtureA, fixtureB, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fast, err := e.Align(fixtureA, fixtureB, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full.Cost != 13 || fast.Cost != 13 {
		t.Errorf("expected both costs 13, got %v and %v", full.Cost, fast.Cost)
	}
}

func TestEngine_SimilarityUsesConfiguredRadius(t *testing.T) {
	e := geospatial.NewEngine(geospatial.WithRadius(1))
	got, err := e.Similarity(fixtureA, fixtureB, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.7326545097034345) > 1e-6 {
		t.Errorf("expected 0.732655, got %v", got)
	}
}

func TestWithRadius_IgnoresNegative(t *testing.T) {
	e := geospatial.NewEngine(geospatial.WithRadius(-3))
	if e.Radius() != geospatial.DefaultRadius {
		t.Errorf("expected default radius, got %d", e.Radius())
	}
}

func TestEngine_MetricOnlyAffectsLength(t *testing.T) {
	euclid := geospatial.NewEngine()
	hav := geospatial.NewEngine(geospatial.WithMetric(geospatial.MetricHaversine))

	le, err := euclid.Length(fixtureA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lh, err := hav.Length(fixtureA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lh < 1000*le {
		t.Errorf("expected haversine length in metres, got %v (euclidean %v)", lh, le)
	}

	se, err := euclid.Similarity(fixtureA, fixtureB, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sh, err := hav.Similarity(fixtureA, fixtureB, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if se != sh {
		t.Errorf("expected equal similarity, got %v and %v", se, sh)
	}

	we, _ := euclid.Sparsity(fixtureA)
	wh, _ := hav.Sparsity(fixtureA)
	for i := range we {
		if we[i] != wh[i] {
			t.Errorf("weight %d: expected %v, got %v", i, we[i], wh[i])
		}
	}
}
