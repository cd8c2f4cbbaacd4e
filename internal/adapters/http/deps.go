package http

import (
	"context"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
	"github.com/samirrijal/pizzazones/internal/core/ports"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
)

// Pinger is a backing service that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ZoneSaveStarter launches a durable save of a reconciled diff and returns
// the id of the started run.
type ZoneSaveStarter interface {
	StartZoneSave(ctx context.Context, diff editor.Diff) (string, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Zones    *usecases.ZoneService
	Sessions *usecases.SessionService
	Feed     ports.ZoneChangeFeed // live snapshots for /ws; nil disables it
	Saver    ZoneSaveStarter      // nil disables ?async=true
	Surface  domain.SurfaceSize   // default surface for requests that omit one
	DB       Pinger
	NATS     Pinger
	Cache    Pinger
}
