package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// ConsensusInput is the input for the consensus workflow.
type ConsensusInput struct {
	StreamIDs   []string
	Approximate bool
}

// ConsensusWorkflow loads a collection of stored streams, picks its medoid
// and publishes the result. It returns the medoid's stream ID.
func ConsensusWorkflow(ctx workflow.Context, input ConsensusInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting consensus workflow", "streams", len(input.StreamIDs), "approximate", input.Approximate)

	if len(input.StreamIDs) == 0 {
		return "", temporal.NewNonRetryableApplicationError("no streams given", "InvalidInput", nil)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var recs []domain.StreamRecord
	if err := workflow.ExecuteActivity(ctx, ActivityLoadStreams, input.StreamIDs).Get(ctx, &recs); err != nil {
		return "", err
	}
	if len(recs) != len(input.StreamIDs) {
		return "", errors.New("stream store returned a partial collection")
	}

	streams := make([]domain.Stream, len(recs))
	for i := range recs {
		streams[i] = recs[i].Points
	}

	var idx int
	if err := workflow.ExecuteActivity(ctx, ActivityComputeMedoid, streams, input.Approximate).Get(ctx, &idx); err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(recs) {
		return "", temporal.NewNonRetryableApplicationError("medoid index out of range", "InvalidResult", nil)
	}

	event := &domain.ConsensusEvent{
		MedoidID:    recs[idx].ID,
		MedoidIndex: idx,
		StreamIDs:   input.StreamIDs,
		Approximate: input.Approximate,
		ComputedAt:  workflow.Now(ctx),
	}
	if err := workflow.ExecuteActivity(ctx, ActivityPublishConsensus, event).Get(ctx, nil); err != nil {
		// The medoid is known; a lost announcement does not fail the run.
		logger.Warn("publish consensus failed", "error", err)
	}

	logger.Info("Consensus computed", "medoid", event.MedoidID)
	return event.MedoidID, nil
}
