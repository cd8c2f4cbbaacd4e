package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/pizzazones/internal/adapters/http"
	"github.com/samirrijal/pizzazones/internal/adapters/memstore"
	natsadapter "github.com/samirrijal/pizzazones/internal/adapters/nats"
	"github.com/samirrijal/pizzazones/internal/adapters/postgres"
	"github.com/samirrijal/pizzazones/internal/adapters/valkey"
	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/ports"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
	"github.com/samirrijal/pizzazones/internal/pkg/config"
	"github.com/samirrijal/pizzazones/internal/pkg/logging"
	"github.com/samirrijal/pizzazones/internal/pkg/metrics"
	"github.com/samirrijal/pizzazones/internal/pkg/telemetry"
	"github.com/samirrijal/pizzazones/internal/workflows"
)

func main() {
	cfg, err := config.Load("pizzazones-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{
		Surface: domain.SurfaceSize{
			Width:  int(cfg.Editor.SurfaceWidth),
			Height: int(cfg.Editor.SurfaceHeight),
		},
	}

	// Store
	var repo ports.ZoneRepository
	switch cfg.Store.Driver {
	case config.DriverMemory:
		mem := memstore.New()
		repo = mem
		deps.Feed = mem
		slog.Warn("using in-memory zone store; zones are lost on restart")
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewZoneRepo(db)
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.ZoneEventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		deps.NATS = http.PingerFunc(func(context.Context) error { return pub.Ping() })
	}
	if deps.Feed == nil {
		if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
			slog.Warn("nats subscriber unavailable, websocket relay disabled", "error", err)
		} else {
			defer sub.Close()
			deps.Feed = sub
		}
	}

	// Use cases
	deps.Zones = usecases.NewZoneService(repo, publisher, cache, cfg.Editor.LocateCacheTTL)
	deps.Sessions = usecases.NewSessionService(deps.Zones)

	// Durable saves
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
		if err != nil {
			slog.Warn("temporal unavailable, async saves disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Saver = &workflows.Starter{Client: tc, TaskQueue: cfg.Temporal.TaskQueue}
		}
	}

	go expireSessions(ctx, deps.Sessions, time.Duration(cfg.Editor.SessionTTL)*time.Second)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    2 * 1024 * 1024, // large zone collections
		AppName:      "Pizza Zones API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000, http://localhost:5173",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "store", cfg.Store.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// expireSessions drops drawing sessions idle for longer than ttl.
func expireSessions(ctx context.Context, sessions *usecases.SessionService, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Expire(now.Add(-ttl)); n > 0 {
				slog.Info("expired drawing sessions", "count", n)
			}
			metrics.DrawingSessions.Set(float64(sessions.Len()))
		}
	}
}

// reportPoolStats exports pgx pool gauges every 15s.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
