package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

// DefaultTaskQueue is the task queue the consensus worker polls.
const DefaultTaskQueue = "streamgeo-consensus"

// Starter launches consensus workflows on a Temporal cluster.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter. An empty taskQueue selects DefaultTaskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartConsensus starts a ConsensusWorkflow and returns its workflow ID
// without waiting for the result.
func (s *Starter) StartConsensus(ctx context.Context, ids []string, approximate bool) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        "consensus-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, ConsensusWorkflow, ConsensusInput{
		StreamIDs:   ids,
		Approximate: approximate,
	})
	if err != nil {
		return "", fmt.Errorf("start consensus workflow: %w", err)
	}
	return run.GetID(), nil
}
