package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/pizzazones/internal/adapters/nats"
	"github.com/samirrijal/pizzazones/internal/adapters/postgres"
	"github.com/samirrijal/pizzazones/internal/adapters/valkey"
	"github.com/samirrijal/pizzazones/internal/core/ports"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
	"github.com/samirrijal/pizzazones/internal/pkg/config"
	"github.com/samirrijal/pizzazones/internal/pkg/logging"
	"github.com/samirrijal/pizzazones/internal/workflows"
)

// The worker executes durable zone saves started by the API with ?async=true.
func main() {
	cfg, err := config.Load("pizzazones-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Store.Driver != config.DriverPostgres {
		log.Fatalf("worker needs the postgres store, got %q", cfg.Store.Driver)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.ZoneEventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, snapshots will not be broadcast", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	zones := usecases.NewZoneService(postgres.NewZoneRepo(db), publisher, cache, cfg.Editor.LocateCacheTTL)

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ZoneSaveWorkflow)
	w.RegisterActivity(&workflows.ZoneActivities{Zones: zones})

	slog.Info("zone save worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
