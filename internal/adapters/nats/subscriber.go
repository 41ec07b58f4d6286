package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/streamgeo/internal/core/domain"
	"github.com/samirrijal/streamgeo/internal/pkg/metrics"
	"github.com/samirrijal/streamgeo/internal/pkg/streamio"
)

const (
	inboundDurable = "stream-processor"
	maxDeliver     = 3
	handlerTimeout = 30 * time.Second
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeInbound consumes protobuf streams from streams.inbound.>. Handler
// failures are redelivered up to three times; malformed payloads and
// domain.ErrInvalidInput failures are terminated at once.
func (s *Subscriber) SubscribeInbound(ctx context.Context, handler func(ctx context.Context, rec *domain.StreamRecord) error) error {
	sub, err := s.js.Subscribe(SubjectInbound+".>", func(msg *nats.Msg) {
		hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()
		result := handleInbound(hctx, msg.Data, msg, handler)
		metrics.InboundMessages.WithLabelValues(result).Inc()
	},
		nats.Durable(inboundDurable),
		nats.ManualAck(),
		nats.MaxDeliver(maxDeliver),
		nats.AckWait(handlerTimeout+5*time.Second),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
	Term(opts ...nats.AckOpt) error
}

// handleInbound decodes, dispatches and settles one message, returning the
// settlement used.
func handleInbound(ctx context.Context, data []byte, msg acker, handler func(ctx context.Context, rec *domain.StreamRecord) error) string {
	rec, err := streamio.UnmarshalProto(data)
	if err != nil {
		slog.Warn("dropping malformed inbound stream", "error", err)
		_ = msg.Term()
		return "term"
	}
	if err := handler(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNumericOverflow) {
			slog.Warn("rejecting inbound stream", "stream_id", rec.ID, "error", err)
			_ = msg.Term()
			return "term"
		}
		slog.Error("inbound stream failed, will retry", "stream_id", rec.ID, "error", err)
		_ = msg.Nak()
		return "nak"
	}
	_ = msg.Ack()
	return "ack"
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
