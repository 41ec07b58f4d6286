package ports

import (
	"context"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDistance(ctx context.Context, event *domain.DistanceEvent) error
	PublishConsensus(ctx context.Context, event *domain.ConsensusEvent) error
	// PublishInbound submits a stream for asynchronous processing.
	PublishInbound(ctx context.Context, rec *domain.StreamRecord) error
}

// EventSubscriber subscribes to streams arriving from a message broker.
type EventSubscriber interface {
	SubscribeInbound(ctx context.Context, handler func(ctx context.Context, rec *domain.StreamRecord) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
