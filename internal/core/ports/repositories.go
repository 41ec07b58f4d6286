package ports

import (
	"context"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// StreamRepository persists streams.
type StreamRepository interface {
	// Create stores rec. An empty rec.ID is filled in with a new UUID and
	// rec.CreatedAt is set by the store.
	Create(ctx context.Context, rec *domain.StreamRecord) error
	GetByID(ctx context.Context, id string) (*domain.StreamRecord, error)
	// GetByIDs returns the streams in the order of ids. A missing id fails
	// with domain.ErrNotFound.
	GetByIDs(ctx context.Context, ids []string) ([]domain.StreamRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.StreamRecord, error)
	Count(ctx context.Context) (int, error)
}
