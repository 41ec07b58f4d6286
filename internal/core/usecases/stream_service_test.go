package usecases_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/core/ports"
	"github.com/samirrijal/streamgeo/internal/core/usecases"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
)

// --- Mock StreamRepository ---

type mockStreamRepo struct {
	createFn   func(ctx context.Context, rec *domain.StreamRecord) error
	getByIDFn  func(ctx context.Context, id string) (*domain.StreamRecord, error)
	getByIDsFn func(ctx context.Context, ids []string) ([]domain.StreamRecord, error)
	listFn     func(ctx context.Context, offset, limit int) ([]domain.StreamRecord, error)
	countFn    func(ctx context.Context) (int, error)
}

func (m *mockStreamRepo) Create(ctx context.Context, rec *domain.StreamRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	if rec.ID == "" {
		rec.ID = "00000000-0000-4000-8000-000000000001"
	}
	return nil
}

func (m *mockStreamRepo) GetByID(ctx context.Context, id string) (*domain.StreamRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStreamRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.StreamRecord, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockStreamRepo) List(ctx context.Context, offset, limit int) ([]domain.StreamRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockStreamRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttl: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	distanceFn  func(ctx context.Context, e *domain.DistanceEvent) error
	consensusFn func(ctx context.Context, e *domain.ConsensusEvent) error
	inboundFn   func(ctx context.Context, rec *domain.StreamRecord) error
}

func (m *mockPublisher) PublishDistance(ctx context.Context, e *domain.DistanceEvent) error {
	if m.distanceFn != nil {
		return m.distanceFn(ctx, e)
	}
	return nil
}

func (m *mockPublisher) PublishConsensus(ctx context.Context, e *domain.ConsensusEvent) error {
	if m.consensusFn != nil {
		return m.consensusFn(ctx, e)
	}
	return nil
}

func (m *mockPublisher) PublishInbound(ctx context.Context, rec *domain.StreamRecord) error {
	if m.inboundFn != nil {
		return m.inboundFn(ctx, rec)
	}
	return nil
}

// --- Fixtures ---

var fixture = domain.Stream{
	{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3},
	{X: 4, Y: 3}, {X: 5, Y: 2}, {X: 6, Y: 4}, {X: 4, Y: 4},
}

const fixtureLength = 10.06449510224598

func newService(repo *mockStreamRepo, cache *mockCache, pub *mockPublisher) *usecases.StreamService {
	return usecases.NewStreamService(geospatial.NewEngine(), nilIfRepo(repo), nilIfCache(cache), nilIfPub(pub))
}

// Typed nils must not leak into the interfaces.
func nilIfRepo(r *mockStreamRepo) ports.StreamRepository {
	if r == nil {
		return nil
	}
	return r
}

func nilIfCache(c *mockCache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}

func nilIfPub(p *mockPublisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// --- Tests ---

func TestStreamService_Distance(t *testing.T) {
	svc := newService(nil, nil, nil)
	buf := []float32{1, 1, 1, 2, 2, 3, 3, 3, 4, 3, 5, 2, 6, 4, 4, 4}

	d, err := svc.Distance(context.Background(), 8, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-10.064495) > 1e-6 {
		t.Errorf("expected 10.064495, got %v", d)
	}

	_, err = svc.Distance(context.Background(), 9, buf)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStreamService_DistanceOf_ReadThrough(t *testing.T) {
	cache := newMockCache()
	svc := newService(nil, cache, nil)

	d, err := svc.DistanceOf(context.Background(), fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-fixtureLength) > 1e-12 {
		t.Errorf("expected %v, got %v", fixtureLength, d)
	}
	if len(cache.data) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(cache.data))
	}
	for k, ttl := range cache.ttl {
		if !strings.HasPrefix(k, "streams:distance:") {
			t.Errorf("unexpected cache key %s", k)
		}
		if ttl != 3600 {
			t.Errorf("expected TTL 3600, got %d", ttl)
		}
		// Poison the entry to prove the second call reads it.
		cache.data[k] = []byte("42")
	}

	d, err = svc.DistanceOf(context.Background(), fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 42 {
		t.Errorf("expected cached 42, got %v", d)
	}
}

func TestStreamService_DistanceOf_ErrorsNotCached(t *testing.T) {
	cache := newMockCache()
	svc := newService(nil, cache, nil)

	_, err := svc.DistanceOf(context.Background(), domain.Stream{{X: math.NaN(), Y: 0}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(cache.data) != 0 {
		t.Errorf("expected nothing cached, got %d entries", len(cache.data))
	}
}

func TestStreamService_Create(t *testing.T) {
	var stored *domain.StreamRecord
	var published *domain.DistanceEvent
	repo := &mockStreamRepo{
		createFn: func(ctx context.Context, rec *domain.StreamRecord) error {
			rec.ID = "3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e5f"
			stored = rec
			return nil
		},
	}
	pub := &mockPublisher{
		distanceFn: func(ctx context.Context, e *domain.DistanceEvent) error {
			published = e
			return nil
		},
	}
	svc := newService(repo, nil, pub)

	rec, err := svc.Create(context.Background(), "ride", fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.NPoints != 8 || math.Abs(stored.Distance-fixtureLength) > 1e-12 {
		t.Fatalf("unexpected stored record %+v", stored)
	}
	if rec.Bounds != (domain.Bounds{MinX: 1, MinY: 1, MaxX: 6, MaxY: 4}) {
		t.Errorf("unexpected bounds %+v", rec.Bounds)
	}
	if published == nil || published.StreamID != rec.ID || published.Distance != rec.Distance {
		t.Errorf("unexpected event %+v", published)
	}
}

func TestStreamService_Create_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{
		distanceFn: func(ctx context.Context, e *domain.DistanceEvent) error {
			return errors.New("nats down")
		},
	}
	svc := newService(&mockStreamRepo{}, nil, pub)

	if _, err := svc.Create(context.Background(), "ride", fixture); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStreamService_Create_RepoError(t *testing.T) {
	repo := &mockStreamRepo{
		createFn: func(ctx context.Context, rec *domain.StreamRecord) error {
			return errors.New("db down")
		},
	}
	published := false
	pub := &mockPublisher{
		distanceFn: func(ctx context.Context, e *domain.DistanceEvent) error {
			published = true
			return nil
		},
	}
	svc := newService(repo, nil, pub)

	if _, err := svc.Create(context.Background(), "ride", fixture); err == nil {
		t.Fatal("expected error")
	}
	if published {
		t.Error("expected no event for a failed insert")
	}
}

func TestStreamService_Create_InvalidStream(t *testing.T) {
	called := false
	repo := &mockStreamRepo{
		createFn: func(ctx context.Context, rec *domain.StreamRecord) error {
			called = true
			return nil
		},
	}
	svc := newService(repo, nil, nil)

	_, err := svc.Create(context.Background(), "bad", domain.Stream{{X: 0, Y: 0}, {X: math.Inf(1), Y: 0}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if called {
		t.Error("expected repository not to be called")
	}
}

func TestStreamService_ProcessInbound(t *testing.T) {
	var stored *domain.StreamRecord
	repo := &mockStreamRepo{
		createFn: func(ctx context.Context, rec *domain.StreamRecord) error {
			stored = rec
			return nil
		},
	}
	svc := newService(repo, nil, nil)

	rec := &domain.StreamRecord{ID: "3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e5f", Points: fixture[:2]}
	if err := svc.ProcessInbound(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Distance != 1 {
		t.Errorf("expected distance 1, got %v", stored.Distance)
	}

	err := svc.ProcessInbound(context.Background(), &domain.StreamRecord{ID: "nope"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad id, got %v", err)
	}
}

func TestStreamService_Submit(t *testing.T) {
	var queued *domain.StreamRecord
	pub := &mockPublisher{
		inboundFn: func(ctx context.Context, rec *domain.StreamRecord) error {
			queued = rec
			return nil
		},
	}
	svc := newService(nil, nil, pub)

	id, err := svc.Submit(context.Background(), "ride", fixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued == nil || queued.ID != id || len(queued.Points) != 8 {
		t.Errorf("unexpected queued record %+v", queued)
	}

	if _, err := newService(nil, nil, nil).Submit(context.Background(), "x", fixture); err == nil {
		t.Error("expected error without a publisher")
	}
}

func TestStreamService_Get(t *testing.T) {
	id := "3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e5f"
	calls := 0
	repo := &mockStreamRepo{
		getByIDFn: func(ctx context.Context, got string) (*domain.StreamRecord, error) {
			calls++
			return &domain.StreamRecord{ID: got, Points: fixture, Distance: fixtureLength}, nil
		},
	}
	svc := newService(repo, newMockCache(), nil)

	for i := 0; i < 2; i++ {
		rec, err := svc.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.ID != id || rec.Bounds.MaxX != 6 {
			t.Errorf("unexpected record %+v", rec)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}

	d, err := svc.StoredDistance(context.Background(), id)
	if err != nil || d != fixtureLength {
		t.Errorf("expected %v, got %v (%v)", fixtureLength, d, err)
	}
}

func TestStreamService_Get_Errors(t *testing.T) {
	svc := newService(&mockStreamRepo{}, nil, nil)

	if _, err := svc.Get(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e5f"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStreamService_List_ClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 50}, {-5, 50}, {1, 1}, {200, 200}, {1000, 200},
	}
	for _, tt := range tests {
		var got int
		repo := &mockStreamRepo{
			listFn: func(ctx context.Context, offset, limit int) ([]domain.StreamRecord, error) {
				got = limit
				return nil, nil
			},
			countFn: func(ctx context.Context) (int, error) { return 7, nil },
		}
		_, total, err := newService(repo, nil, nil).List(context.Background(), 0, tt.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("limit %d: expected %d, got %d", tt.in, tt.want, got)
		}
		if total != 7 {
			t.Errorf("expected total 7, got %d", total)
		}
	}
}

func TestStreamService_ConsensusOf(t *testing.T) {
	ids := []string{
		"00000000-0000-4000-8000-00000000000a",
		"00000000-0000-4000-8000-00000000000b",
		"00000000-0000-4000-8000-00000000000c",
	}
	line := func(y float64) domain.Stream {
		return domain.Stream{{X: 0, Y: y}, {X: 1, Y: y}, {X: 2, Y: y}, {X: 3, Y: y}}
	}
	repo := &mockStreamRepo{
		getByIDsFn: func(ctx context.Context, got []string) ([]domain.StreamRecord, error) {
			return []domain.StreamRecord{
				{ID: got[0], Points: line(0)},
				{ID: got[1], Points: line(1)},
				{ID: got[2], Points: line(0.5)},
			}, nil
		},
	}
	var published *domain.ConsensusEvent
	pub := &mockPublisher{
		consensusFn: func(ctx context.Context, e *domain.ConsensusEvent) error {
			published = e
			return nil
		},
	}
	svc := newService(repo, nil, pub)

	event, err := svc.ConsensusOf(context.Background(), ids, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.MedoidID != ids[2] || event.MedoidIndex != 2 {
		t.Errorf("expected medoid %s, got %+v", ids[2], event)
	}
	if err := svc.PublishConsensus(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published != event {
		t.Error("expected event to be published")
	}
}

func TestStreamService_Similarity_DefaultRadius(t *testing.T) {
	svc := newService(nil, nil, nil)
	got, err := svc.Similarity(context.Background(), fixture, fixture, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}

func TestStreamService_GetMany_CanonicalisesIDs(t *testing.T) {
	canonical := []string{
		"3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e5f",
		"3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e60",
		"3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e61",
	}
	var received []string
	repo := &mockStreamRepo{
		getByIDsFn: func(ctx context.Context, got []string) ([]domain.StreamRecord, error) {
			received = got
			out := make([]domain.StreamRecord, len(got))
			for i, id := range got {
				out[i] = domain.StreamRecord{ID: id, Points: domain.Stream{{X: 0, Y: float64(i)}, {X: 1, Y: float64(i)}}}
			}
			return out, nil
		},
	}
	svc := newService(repo, nil, nil)

	in := []string{
		strings.ToUpper(canonical[0]),
		"{" + canonical[1] + "}",
		"urn:uuid:" + canonical[2],
	}
	recs, err := svc.GetMany(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range canonical {
		if received[i] != canonical[i] {
			t.Errorf("id %d: expected repository to get %s, got %s", i, canonical[i], received[i])
		}
		if recs[i].ID != canonical[i] {
			t.Errorf("record %d: expected %s, got %s", i, canonical[i], recs[i].ID)
		}
	}

	event, err := svc.ConsensusOf(context.Background(), in, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.StreamIDs[0] != canonical[0] {
		t.Errorf("expected canonical stream ids, got %v", event.StreamIDs)
	}
}

func TestStreamService_Get_UppercaseID(t *testing.T) {
	id := "3f6c2a1e-9d1b-4c55-8a5e-0f1b2c3d4e5f"
	var received string
	repo := &mockStreamRepo{
		getByIDFn: func(ctx context.Context, got string) (*domain.StreamRecord, error) {
			received = got
			return &domain.StreamRecord{ID: got, Points: fixture}, nil
		},
	}
	svc := newService(repo, nil, nil)

	if _, err := svc.Get(context.Background(), strings.ToUpper(id)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != id {
		t.Errorf("expected repository to get %s, got %s", id, received)
	}
}
