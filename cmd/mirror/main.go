package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"

	natsadapter "github.com/samirrijal/pizzazones/internal/adapters/nats"
	"github.com/samirrijal/pizzazones/internal/adapters/overlay"
	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
	"github.com/samirrijal/pizzazones/internal/pkg/config"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
	"github.com/samirrijal/pizzazones/internal/pkg/logging"
	"github.com/samirrijal/pizzazones/internal/pkg/metrics"
)

// Options are the mirror command line flags.
type Options struct {
	North    float64 `long:"north" description:"Window north latitude"`
	South    float64 `long:"south" description:"Window south latitude"`
	East     float64 `long:"east" description:"Window east longitude"`
	West     float64 `long:"west" description:"Window west longitude"`
	Lat      float64 `long:"lat" description:"Center latitude, with --radius instead of the four edges"`
	Lng      float64 `long:"lng" description:"Center longitude, with --radius instead of the four edges"`
	Radius   float64 `long:"radius" description:"Meters from the center to each window edge"`
	Width    int     `long:"width" description:"Overlay width in pixels, editor.surface_width if zero"`
	Height   int     `long:"height" description:"Overlay height in pixels, editor.surface_height if zero"`
	Output   string  `short:"o" long:"out" description:"Overlay file; the extension picks svg, png or webp" default:"zones.svg"`
	Visible  string  `long:"visible" description:"Comma-separated zone ids to draw; all when empty"`
	Selected string  `long:"selected" description:"Zone id drawn highlighted and on top"`
}

// The mirror follows the zone change feed and keeps an overlay image of
// the given window up to date, e.g. for a storefront map tile.
func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load("pizzazones-mirror")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	format, err := overlay.ParseFormat(strings.TrimPrefix(filepath.Ext(opts.Output), "."))
	if err != nil {
		log.Fatalf("output: %v", err)
	}

	size := domain.SurfaceSize{Width: opts.Width, Height: opts.Height}
	if size.Width == 0 {
		size.Width = int(cfg.Editor.SurfaceWidth)
	}
	if size.Height == 0 {
		size.Height = int(cfg.Editor.SurfaceHeight)
	}
	window, err := windowFrom(opts)
	if err != nil {
		log.Fatalf("window: %v", err)
	}

	ed, err := editor.New(window, size, nil, editor.Options{
		Logger: logger,
		OnRender: func(frame []editor.Projection) {
			if err := writeOverlay(opts.Output, format, frame, size); err != nil {
				logger.Error("write overlay", "path", opts.Output, "error", err)
				return
			}
			logger.Info("overlay written", "path", opts.Output, "zones", len(frame))
		},
	})
	if err != nil {
		log.Fatalf("editor: %v", err)
	}
	if opts.Visible != "" {
		ed.SetVisible(editor.NewVisibleSet(strings.Split(opts.Visible, ",")...))
	}
	if opts.Selected != "" {
		ed.Select(opts.Selected)
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	follower := editor.NewSync(sub, ed, logger, metrics.ObserveSnapshot)
	if err := follower.Start(ctx); err != nil {
		log.Fatalf("sync: %v", err)
	}
	slog.Info("mirroring zones", "window", fmt.Sprintf("%+v", window), "out", opts.Output)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down mirror", "signal", sig.String())
	if err := follower.Stop(); err != nil {
		slog.Warn("stop sync", "error", err)
	}
}

// windowFrom uses --radius around --lat/--lng when a radius is given and
// the four edges otherwise.
func windowFrom(opts Options) (domain.GeoWindow, error) {
	if opts.Radius != 0 {
		return geospatial.WindowAround(domain.GeoPoint{Lat: opts.Lat, Lng: opts.Lng}, opts.Radius)
	}
	w := domain.GeoWindow{North: opts.North, South: opts.South, East: opts.East, West: opts.West}
	if err := w.Validate(); err != nil {
		return domain.GeoWindow{}, err
	}
	return w, nil
}

// writeOverlay replaces path atomically so readers never see a partial image.
func writeOverlay(path string, format overlay.Format, frame []editor.Projection, size domain.SurfaceSize) error {
	data, err := overlay.Encode(format, frame, size)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
