package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/ports"
)

// Subscriber implements ports.ZoneChangeFeed using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStream(js); err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeZones starts an ordered, ephemeral consumer at the last stored
// snapshot, so the handler first sees the current collection.
func (s *Subscriber) SubscribeZones(ctx context.Context, handler func(ctx context.Context, docs []domain.ZoneDocument)) (ports.Subscription, error) {
	sub, err := s.js.Subscribe(SnapshotSubject, func(msg *nats.Msg) {
		docs, err := DecodeSnapshot(msg.Data)
		if err != nil {
			slog.WarnContext(ctx, "dropping undecodable zone snapshot", "error", err)
			return
		}
		handler(ctx, docs)
	},
		nats.OrderedConsumer(),
		nats.DeliverLastPerSubject(),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", SnapshotSubject, err)
	}
	return sub, nil
}

// DecodeSnapshot parses a snapshot message body.
func DecodeSnapshot(data []byte) ([]domain.ZoneDocument, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap.Zones, nil
}

// Close drains the connection, which also ends its subscriptions.
func (s *Subscriber) Close() {
	_ = s.conn.Drain()
}
