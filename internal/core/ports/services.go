package ports

import (
	"context"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// Subscription is an active change-feed subscription.
type Subscription interface {
	Unsubscribe() error
}

// ZoneChangeFeed pushes the full zone collection whenever it changes. The
// first delivery after subscribing carries the current collection.
type ZoneChangeFeed interface {
	SubscribeZones(ctx context.Context, handler func(ctx context.Context, docs []domain.ZoneDocument)) (Subscription, error)
}

// ZoneEventPublisher broadcasts the stored collection after a write.
type ZoneEventPublisher interface {
	PublishZoneSnapshot(ctx context.Context, docs []domain.ZoneDocument) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
