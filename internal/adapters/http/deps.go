package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/streamgeo/internal/core/usecases"
)

// Pinger is a backing service the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConsensusStarter launches a background consensus run over stored streams
// and returns its workflow ID.
type ConsensusStarter interface {
	StartConsensus(ctx context.Context, ids []string, approximate bool) (string, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Streams   *usecases.StreamService
	Consensus ConsensusStarter
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
	Version   string
}
