package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/core/usecases"
)

// Activity names as registered from ConsensusActivities' methods.
const (
	ActivityLoadStreams      = "LoadStreams"
	ActivityComputeMedoid    = "ComputeMedoid"
	ActivityPublishConsensus = "PublishConsensus"
)

// ConsensusActivities holds the activity implementations for the consensus workflow.
type ConsensusActivities struct {
	Streams *usecases.StreamService
}

// LoadStreams reads the stored streams in the order of ids.
func (a *ConsensusActivities) LoadStreams(ctx context.Context, ids []string) ([]domain.StreamRecord, error) {
	recs, err := a.Streams.GetMany(ctx, ids)
	if err != nil {
		return nil, classify(err)
	}
	activity.GetLogger(ctx).Info("loaded streams", "count", len(recs))
	return recs, nil
}

// ComputeMedoid returns the index of the medoid of streams.
func (a *ConsensusActivities) ComputeMedoid(ctx context.Context, streams []domain.Stream, approximate bool) (int, error) {
	idx, err := a.Streams.Consensus(ctx, streams, approximate)
	if err != nil {
		return 0, classify(err)
	}
	return idx, nil
}

// PublishConsensus announces the result on streams.consensus.<medoidID>.
func (a *ConsensusActivities) PublishConsensus(ctx context.Context, event *domain.ConsensusEvent) error {
	return a.Streams.PublishConsensus(ctx, event)
}

// classify marks errors that a retry cannot fix as non-retryable.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	case errors.Is(err, domain.ErrNumericOverflow):
		return temporal.NewNonRetryableApplicationError(err.Error(), "NumericOverflow", err)
	case errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
	}
	return err
}
