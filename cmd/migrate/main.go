package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/pizzazones/internal/adapters/postgres"
	"github.com/samirrijal/pizzazones/internal/pkg/config"
	"github.com/samirrijal/pizzazones/internal/pkg/logging"
)

// Scripts per direction, applied in order. Each script is idempotent.
var migrations = map[string][]string{
	"up":   {"migrations/001_zones.sql"},
	"down": {"migrations/001_zones.down.sql"},
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}
	files, ok := migrations[os.Args[1]]
	if !ok {
		log.Fatalf("unknown command: %s", os.Args[1])
	}

	cfg, err := config.Load("pizzazones-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 1)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	for _, f := range files {
		if err := db.ExecFile(ctx, f); err != nil {
			log.Fatalf("migrate %s: %v", os.Args[1], err)
		}
		slog.Info("migration applied", "file", f)
	}
}
