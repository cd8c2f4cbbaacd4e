package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
)

// ZoneActivities holds the activity implementations for the zone save workflow.
type ZoneActivities struct {
	Zones *usecases.ZoneService
}

// PutZone writes one zone. op is usecases.OpCreate or usecases.OpUpdate.
func (a *ZoneActivities) PutZone(ctx context.Context, z domain.Zone, op string) (domain.Zone, error) {
	stored, err := a.Zones.PutZone(ctx, z, op)
	if err != nil {
		return domain.Zone{}, fmt.Errorf("%s zone %s: %w", op, z.ID, err)
	}
	return stored, nil
}

// DeleteZone removes one zone.
func (a *ZoneActivities) DeleteZone(ctx context.Context, id string) error {
	if err := a.Zones.DeleteZone(ctx, id); err != nil {
		return fmt.Errorf("delete zone %s: %w", id, err)
	}
	return nil
}

// PublishSnapshot invalidates locate caches and broadcasts the stored zones.
func (a *ZoneActivities) PublishSnapshot(ctx context.Context) error {
	a.Zones.Changed(ctx)
	slog.InfoContext(ctx, "zone snapshot published after durable save")
	return nil
}
