package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding zone snapshots.
	StreamName = "ZONES"
	// SnapshotSubject carries the full zone collection after every write.
	SnapshotSubject = "zones.snapshot"
)

// Snapshot is the wire form of a zone collection broadcast.
type Snapshot struct {
	Zones       []domain.ZoneDocument `json:"zones"`
	PublishedAt time.Time             `json:"published_at"`
}

// Publisher implements ports.ZoneEventPublisher using NATS JetStream.
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
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStream(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStream creates or updates the zone stream. Only the latest
// snapshot is retained; a late subscriber starts from it.
func EnsureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:              StreamName,
		Subjects:          []string{"zones.>"},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		MaxAge:            7 * 24 * time.Hour,
		Storage:           nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (p *Publisher) PublishZoneSnapshot(ctx context.Context, docs []domain.ZoneDocument) error {
	if docs == nil {
		docs = []domain.ZoneDocument{}
	}
	data, err := json.Marshal(Snapshot{Zones: docs, PublishedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SnapshotSubject, data, nats.Context(ctx))
	return err
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping() error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn dials NATS with the reconnect policy shared by the publisher and subscriber.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
