package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	natsadapter "github.com/samirrijal/pizzazones/internal/adapters/nats"
	"github.com/samirrijal/pizzazones/internal/adapters/postgres"
	"github.com/samirrijal/pizzazones/internal/core/ports"
	"github.com/samirrijal/pizzazones/internal/core/usecases"
	"github.com/samirrijal/pizzazones/internal/pkg/config"
	"github.com/samirrijal/pizzazones/internal/pkg/logging"
)

// Options are the importer command line flags.
type Options struct {
	Input  string `short:"i" long:"in" description:"Zone export (JSON or YAML). Reads from stdin if empty"`
	Format string `short:"f" long:"format" description:"Input format, by file extension if empty" choice:"json" choice:"yaml"`
	Mode   string `short:"m" long:"mode" description:"merge keeps zones missing from the input, replace deletes them" choice:"merge" choice:"replace" default:"merge"`
	DryRun bool   `short:"n" long:"dry-run" description:"Print the planned writes without applying them"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load("pizzazones-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	data, err := readInput(opts.Input)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	imported, err := parseLegacy(data, opts.Input, opts.Format)
	if err != nil {
		log.Fatalf("parse input: %v", err)
	}
	slog.Info("zones parsed", "count", len(imported), "mode", opts.Mode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.ZoneEventPublisher
	if !opts.DryRun {
		if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
			slog.Warn("nats unavailable, editors will not be notified", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	zones := usecases.NewZoneService(postgres.NewZoneRepo(db), publisher, nil, 0)

	working := imported
	if opts.Mode == "merge" {
		stored, err := zones.List(ctx)
		if err != nil {
			log.Fatalf("list zones: %v", err)
		}
		working = mergeZones(stored, imported)
	}

	if opts.DryRun {
		diff, err := zones.Plan(ctx, working)
		if err != nil {
			log.Fatalf("plan: %v", err)
		}
		printJSON(diff)
		return
	}

	result, err := zones.Save(ctx, working)
	if err != nil {
		log.Fatalf("save: %v", err)
	}
	printJSON(result)
	if !result.OK() {
		os.Exit(2)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Println(string(out))
}
