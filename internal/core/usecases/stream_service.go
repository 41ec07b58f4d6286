package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/core/ports"
	"github.com/samirrijal/streamgeo/internal/pkg/geospatial"
	"github.com/samirrijal/streamgeo/internal/pkg/logging"
	"github.com/samirrijal/streamgeo/internal/pkg/metrics"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
	"github.com/samirrijal/streamgeo/internal/pkg/telemetry"
)

const (
	distanceCacheTTL = 3600 // 1h; a stream's distance never changes
	recordCacheTTL   = 600

	defaultListLimit = 50
	maxListLimit     = 200
)

// StreamService runs engine operations on behalf of the boundary adapters and
// manages stored streams.
type StreamService struct {
	engine    *geospatial.Engine
	streams   ports.StreamRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewStreamService creates a new StreamService. streams, cache and publisher
// may be nil: without a repository only the stateless operations work, and
// without a cache or publisher those steps are skipped.
func NewStreamService(
	engine *geospatial.Engine,
	streams ports.StreamRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
) *StreamService {
	return &StreamService{
		engine:    engine,
		streams:   streams,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

// Engine returns the engine the service computes with.
func (s *StreamService) Engine() *geospatial.Engine { return s.engine }

// Distance measures a flat interleaved buffer holding count points. Engine
// errors are returned unchanged so callers can match them with errors.Is.
func (s *StreamService) Distance(ctx context.Context, count int, buf []float32) (float64, error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanDistance, attribute.Int(telemetry.AttrPoints, count))
	start := time.Now()
	d, err := s.engine.Distance(count, buf)
	metrics.ObserveEngine("distance", start, err)
	if err == nil {
		metrics.StreamPoints.Observe(float64(count))
	}
	telemetry.End(span, err)
	return d, err
}

// DistanceOf measures a stream, reading through the cache when one is
// configured.
func (s *StreamService) DistanceOf(ctx context.Context, stream domain.Stream) (float64, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanDistance, attribute.Int(telemetry.AttrPoints, len(stream)))

	cacheKey := s.distanceKey(stream)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var d float64
			if err := json.Unmarshal(data, &d); err == nil {
				metrics.CacheHits.WithLabelValues("distance").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				telemetry.End(span, nil)
				return d, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("distance").Inc()
	}

	start := time.Now()
	d, err := s.engine.Length(stream)
	metrics.ObserveEngine("distance", start, err)
	telemetry.End(span, err)
	if err != nil {
		return 0, err
	}
	metrics.StreamPoints.Observe(float64(len(stream)))

	if s.cache != nil {
		if data, err := json.Marshal(d); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, distanceCacheTTL)
		}
	}
	return d, nil
}

// distanceKey hashes the metric and the exact coordinates.
func (s *StreamService) distanceKey(stream domain.Stream) string {
	h := sha256.New()
	h.Write([]byte(s.engine.Metric().String()))
	h.Write(streamio.MarshalStream(stream))
	return "streams:distance:" + hex.EncodeToString(h.Sum(nil))
}

// Sparsity returns per-point sparsity weights.
func (s *StreamService) Sparsity(ctx context.Context, stream domain.Stream) ([]float64, error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanSparsity, attribute.Int(telemetry.AttrPoints, len(stream)))
	start := time.Now()
	out, err := s.engine.Sparsity(stream)
	metrics.ObserveEngine("sparsity", start, err)
	telemetry.End(span, err)
	return out, err
}

// Align aligns a onto b. A negative radius requests exact DTW.
func (s *StreamService) Align(ctx context.Context, a, b domain.Stream, radius int) (domain.Warp, error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanAlign,
		attribute.Int(telemetry.AttrPoints, len(a)+len(b)),
		attribute.Int(telemetry.AttrRadius, radius))
	start := time.Now()
	warp, err := s.engine.Align(a, b, radius)
	metrics.ObserveEngine("align", start, err)
	telemetry.End(span, err)
	return warp, err
}

// Similarity scores a against b. A negative radius uses the engine default.
func (s *StreamService) Similarity(ctx context.Context, a, b domain.Stream, radius int) (float64, error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanSimilarity,
		attribute.Int(telemetry.AttrPoints, len(a)+len(b)),
		attribute.Int(telemetry.AttrRadius, radius))
	start := time.Now()
	score, err := s.engine.Similarity(a, b, radius)
	metrics.ObserveEngine("similarity", start, err)
	telemetry.End(span, err)
	return score, err
}

// Consensus returns the index of the medoid of streams.
func (s *StreamService) Consensus(ctx context.Context, streams []domain.Stream, approximate bool) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanConsensus,
		attribute.Int(telemetry.AttrStreams, len(streams)),
		attribute.Bool(telemetry.AttrApproximate, approximate))
	start := time.Now()
	idx, err := s.engine.Medoid(ctx, streams, approximate)
	metrics.ObserveEngine("consensus", start, err)
	telemetry.End(span, err)
	return idx, err
}

// Create measures and stores a stream, then announces its distance. A failed
// announcement is logged and does not fail the call.
func (s *StreamService) Create(ctx context.Context, name string, stream domain.Stream) (*domain.StreamRecord, error) {
	rec := &domain.StreamRecord{Name: name, Points: stream}
	if err := s.store(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Submit queues a stream for asynchronous processing by the inbound
// consumer and returns the ID it will be stored under.
func (s *StreamService) Submit(ctx context.Context, name string, stream domain.Stream) (string, error) {
	if s.publisher == nil {
		return "", errors.New("stream submission requires a publisher")
	}
	// Reject bad input before it reaches the queue.
	if _, err := s.engine.Length(stream); err != nil {
		return "", err
	}
	rec := &domain.StreamRecord{ID: uuid.NewString(), Name: name, Points: stream}
	if err := s.publisher.PublishInbound(ctx, rec); err != nil {
		return "", fmt.Errorf("publish inbound stream: %w", err)
	}
	metrics.EventsPublished.WithLabelValues("inbound").Inc()
	return rec.ID, nil
}

// ProcessInbound handles one stream taken off the inbound queue: it is
// measured, stored and announced exactly like Create.
func (s *StreamService) ProcessInbound(ctx context.Context, rec *domain.StreamRecord) error {
	if rec.ID != "" {
		if _, err := uuid.Parse(rec.ID); err != nil {
			return fmt.Errorf("%w: stream id %q is not a UUID", domain.ErrInvalidInput, rec.ID)
		}
	}
	return s.store(ctx, rec)
}

func (s *StreamService) store(ctx context.Context, rec *domain.StreamRecord) error {
	if s.streams == nil {
		return errors.New("stream storage is not configured")
	}

	d, err := s.DistanceOf(ctx, rec.Points)
	if err != nil {
		return err
	}
	rec.Distance = d
	rec.NPoints = len(rec.Points)
	rec.Bounds = geospatial.Extent(rec.Points)

	if err := s.streams.Create(ctx, rec); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	if s.publisher != nil {
		event := &domain.DistanceEvent{
			StreamID:   rec.ID,
			Name:       rec.Name,
			NPoints:    rec.NPoints,
			Distance:   rec.Distance,
			ComputedAt: s.now(),
		}
		if err := s.publisher.PublishDistance(ctx, event); err != nil {
			logging.FromContext(ctx).Warn("publish distance event failed", "stream_id", rec.ID, "error", err)
		} else {
			metrics.EventsPublished.WithLabelValues("distance").Inc()
		}
	}
	return nil
}

// Get returns a stored stream.
func (s *StreamService) Get(ctx context.Context, id string) (*domain.StreamRecord, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}
	if s.streams == nil {
		return nil, errors.New("stream storage is not configured")
	}

	cacheKey := "streams:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rec domain.StreamRecord
			if err := json.Unmarshal(data, &rec); err == nil {
				metrics.CacheHits.WithLabelValues("stream").Inc()
				return &rec, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("stream").Inc()
	}

	rec, err := s.streams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Bounds = geospatial.Extent(rec.Points)

	if s.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, recordCacheTTL)
		}
	}
	return rec, nil
}

// GetMany returns stored streams in the order of ids.
func (s *StreamService) GetMany(ctx context.Context, ids []string) ([]domain.StreamRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if s.streams == nil {
		return nil, errors.New("stream storage is not configured")
	}
	canonical := make([]string, len(ids))
	for i, id := range ids {
		c, err := canonicalID(id)
		if err != nil {
			return nil, err
		}
		canonical[i] = c
	}
	return s.streams.GetByIDs(ctx, canonical)
}

// canonicalID accepts any form uuid.Parse does and returns the lowercase
// hyphenated form stored in the database.
func canonicalID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: stream id %q is not a UUID", domain.ErrInvalidInput, id)
	}
	return u.String(), nil
}

// StoredDistance returns the distance recorded for a stored stream.
func (s *StreamService) StoredDistance(ctx context.Context, id string) (float64, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return rec.Distance, nil
}

// List returns a page of stored streams, newest first, and the total count.
// limit is clamped to [1, 200]; zero or less selects 50.
func (s *StreamService) List(ctx context.Context, offset, limit int) ([]domain.StreamRecord, int, error) {
	if s.streams == nil {
		return nil, 0, errors.New("stream storage is not configured")
	}
	limit = ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	recs, err := s.streams.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list streams: %w", err)
	}
	total, err := s.streams.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count streams: %w", err)
	}
	return recs, total, nil
}

// ClampLimit applies the list page size rules.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

// ConsensusOf loads stored streams and picks their medoid.
func (s *StreamService) ConsensusOf(ctx context.Context, ids []string, approximate bool) (*domain.ConsensusEvent, error) {
	recs, err := s.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no streams given", domain.ErrInvalidInput)
	}
	streams := make([]domain.Stream, len(recs))
	storedIDs := make([]string, len(recs))
	for i := range recs {
		streams[i] = recs[i].Points
		storedIDs[i] = recs[i].ID
	}
	idx, err := s.Consensus(ctx, streams, approximate)
	if err != nil {
		return nil, err
	}
	return &domain.ConsensusEvent{
		MedoidID:    recs[idx].ID,
		MedoidIndex: idx,
		StreamIDs:   storedIDs,
		Approximate: approximate,
		ComputedAt:  s.now(),
	}, nil
}

// PublishConsensus announces a consensus result.
func (s *StreamService) PublishConsensus(ctx context.Context, event *domain.ConsensusEvent) error {
	if s.publisher == nil {
		return errors.New("consensus publishing requires a publisher")
	}
	if err := s.publisher.PublishConsensus(ctx, event); err != nil {
		return fmt.Errorf("publish consensus event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues("consensus").Inc()
	return nil
}
