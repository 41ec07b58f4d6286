package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
)

// Subjects and stream names.
const (
	SubjectInbound   = "streams.inbound"
	SubjectDistance  = "streams.distance"
	SubjectConsensus = "streams.consensus"

	StreamInbound = "STREAM_INBOUND"
	StreamEvents  = "STREAM_EVENTS"
)

// StreamConfigs are the JetStream streams the service relies on.
var StreamConfigs = []nats.StreamConfig{
	{
		Name:      StreamInbound,
		Subjects:  []string{SubjectInbound + ".>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
		// Publishers set Nats-Msg-Id to the stream ID.
		Duplicates: 10 * time.Minute,
	},
	{
		Name:      StreamEvents,
		Subjects:  []string{SubjectDistance + ".>", SubjectConsensus + ".>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := EnsureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStreams creates or updates StreamConfigs.
func EnsureStreams(js nats.JetStreamManager) error {
	for _, cfg := range StreamConfigs {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishDistance emits a DistanceEvent on streams.distance.<id>.
func (p *Publisher) PublishDistance(ctx context.Context, event *domain.DistanceEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectDistance+"."+event.StreamID, data, nats.Context(ctx))
	return err
}

// PublishConsensus emits a ConsensusEvent on streams.consensus.<medoid id>.
func (p *Publisher) PublishConsensus(ctx context.Context, event *domain.ConsensusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectConsensus+"."+event.MedoidID, data, nats.Context(ctx))
	return err
}

// PublishInbound queues a protobuf-encoded stream on streams.inbound.<id>.
// The stream ID doubles as the message ID, so a retried publish is dropped
// by the server's duplicate window.
func (p *Publisher) PublishInbound(ctx context.Context, rec *domain.StreamRecord) error {
	_, err := p.js.Publish(SubjectInbound+"."+rec.ID, streamio.MarshalProto(rec),
		nats.Context(ctx), nats.MsgId(rec.ID))
	return err
}

// Conn exposes the underlying connection, e.g. for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("streamgeo"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
