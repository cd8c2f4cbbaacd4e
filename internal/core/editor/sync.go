package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/ports"
)

// RemoteApplier receives normalised snapshots. *Editor implements it.
type RemoteApplier interface {
	ApplyRemote(zones []domain.Zone) bool
}

// SnapshotObserver is told how many documents a snapshot carried and how
// many of them were skipped as malformed.
type SnapshotObserver func(received, malformed int)

// Sync feeds change-feed snapshots into an editor. Documents are decoded at
// this boundary; malformed ones are logged and skipped.
type Sync struct {
	feed    ports.ZoneChangeFeed
	target  RemoteApplier
	logger  *slog.Logger
	observe SnapshotObserver

	mu  sync.Mutex
	sub ports.Subscription
}

// NewSync wires a change feed to a target. observe may be nil.
func NewSync(feed ports.ZoneChangeFeed, target RemoteApplier, logger *slog.Logger, observe SnapshotObserver) *Sync {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sync{feed: feed, target: target, logger: logger, observe: observe}
}

// Start subscribes to the change feed. It fails if already started.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return fmt.Errorf("%w: sync already started", domain.ErrInvalidState)
	}
	sub, err := s.feed.SubscribeZones(ctx, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe zones: %w", err)
	}
	s.sub = sub
	return nil
}

// Stop unsubscribes. It is safe to call more than once.
func (s *Sync) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.sub = nil
	if err != nil {
		return fmt.Errorf("unsubscribe zones: %w", err)
	}
	return nil
}

// Active reports whether the subscription is live.
func (s *Sync) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub != nil
}

func (s *Sync) handle(ctx context.Context, docs []domain.ZoneDocument) {
	zones, errs := domain.DecodeZones(docs)
	for _, err := range errs {
		s.logger.WarnContext(ctx, "skipping malformed zone document", "error", err)
	}
	if s.observe != nil {
		s.observe(len(docs), len(errs))
	}
	if !s.target.ApplyRemote(zones) {
		s.logger.DebugContext(ctx, "zone snapshot deferred", "zones", len(zones))
	}
}
